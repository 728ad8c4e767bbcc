package cmd

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use: "orthoreport",
	Short: `orthoreport

Reporter stage of the orthology prediction pipeline. Selects, filters and
refines reciprocal HMM/BLAST hits into per-gene ortholog sequence sets`,
	Version: "1.0.0",
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
