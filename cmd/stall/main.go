package main

import (
	"fmt"
	"os"

	"github.com/stallkit/stall/cmd/stall/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
