package main

import (
	"os"

	"github.com/rustyeddy/quorum/cmd/quorum/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
