package main

import (
	"os"

	"github.com/beriox/bexp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
