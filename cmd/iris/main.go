package main

import (
	"os"

	"github.com/solenne/iris/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
