package main

import (
	"log"

	"github.com/lephu240905/webchat/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
