package main

import (
	"os"

	"github.com/andreygs/gocsp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
