package main

import (
	"os"

	"github.com/dobriak/mini-ipam/cmd/mini-ipam/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
