// Package realtime is the message-transport subsystem behind the auth layer.
//
// Connections arrive through the request gate, so every socket is bound to
// a verified identity before it reaches the hub. The hub tracks connected
// clients per user and relays direct messages and presence events. Message
// persistence and formatting are out of scope.
package realtime
