package main

import (
	"os"

	"github.com/vivaneiona/envcascade/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
