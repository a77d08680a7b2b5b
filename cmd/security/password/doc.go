// Package password implements webchat's password hashing and validation.
//
// Hashing is Argon2id with PHC string encoding
// ($argon2id$v=19$m=...,t=...,p=...$salt$key). Cost parameters and the
// password policy are loaded from the environment with conservative
// defaults, and verification refuses hashes whose declared cost is far
// above the configured maxima.
package password
