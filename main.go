package main

import (
	"log"

	"github.com/sjzar/contactsbridge/cmd/contactsbridge"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	contactsbridge.Execute()
}
