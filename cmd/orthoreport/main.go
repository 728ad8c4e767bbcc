package main

import (
	"os"

	"github.com/ortholab/orthoreport/internal/cmd"
	"github.com/ortholab/orthoreport/internal/config"
)

func main() {
	config.Setup("")

	if err := cmd.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
