package main

import (
	"os"

	"github.com/cmass-sales/visitlog/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
