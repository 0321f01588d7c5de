package main

import (
	"os"

	"github.com/rechargex-dev/rechargex/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
