package main

import (
	"os"

	"github.com/AidanDelaney/dsscaffold/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
