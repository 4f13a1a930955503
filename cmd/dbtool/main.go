package main

import (
	"delivery-route-engine/cmd/dbtool/commands"
	"os"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
