package main

import (
	"os"

	"github.com/Harshitk-cp/epistate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
