package main

import (
	"os"

	"github.com/rosterkit/rosterkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
