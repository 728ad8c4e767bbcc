package cmd

import (
	"context"
	"log"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ortholab/orthoreport/internal/config"
	"github.com/ortholab/orthoreport/internal/report"
)

// reportCmd runs the reporter pipeline.
var reportCmd = &cobra.Command{
	Use:                        "report",
	Short:                      "Select, filter and refine ortholog hits into per-gene sequence sets",
	Run:                        runReportCmd,
	SuggestionsMinimumDistance: 3,
	Long: `Extract the best reciprocal hits from a prior HMM/BLAST run, resolve
transcripts mapping onto multiple genes, drop redundant hits along the HMM
axis, correct frameshifts with exonerate and write per-gene amino-acid and
nucleotide FASTA files.`,
	Example: `orthoreport report --species-name "Mantis religiosa" --ortholog-set insecta`,
}

// recheckCmd re-validates one HMM search against the protein database.
var recheckCmd = &cobra.Command{
	Use:                        "recheck",
	Short:                      "Re-run the reciprocal BLAST validation for one HMM search",
	Run:                        runRecheckCmd,
	SuggestionsMinimumDistance: 3,
}

// set flags
func init() {
	reportCmd.Flags().StringP("sqlite-database", "d", "", "path to the input SQLite database")
	reportCmd.Flags().StringP("output-directory", "o", "", "directory output is written beneath")
	reportCmd.Flags().StringP("species-name", "s", "", "species to report on")
	reportCmd.Flags().StringP("ortholog-set", "t", "", "ortholog set name")
	reportCmd.Flags().String("reference-taxa", "", "comma separated list of reference taxa")
	reportCmd.Flags().String("cog-list-file", "", "file listing wanted gene ids, one per line")
	reportCmd.Flags().Bool("brh-only", false, "stop after the best-reciprocal-hit files")
	reportCmd.Flags().Bool("strict-search", false, "require hits from every reference taxon")
	reportCmd.Flags().Bool("clear-files", false, "recreate the aa/ and nt/ output directories")
	reportCmd.Flags().IntP("num-threads", "n", 0, "workers for the parallel stages (0 = all cores)")

	recheckCmd.Flags().Int("hmmsearch-id", 0, "HMM search id to re-validate")
	must(recheckCmd.MarkFlagRequired("hmmsearch-id"))

	reportCmd.Flags().Bool("verbose", false, "debug logging")
	reportCmd.Flags().Bool("quiet", false, "warnings only")

	for _, flag := range []string{
		"sqlite-database", "output-directory", "species-name", "ortholog-set",
		"reference-taxa", "cog-list-file", "brh-only", "strict-search",
		"clear-files", "num-threads", "verbose", "quiet",
	} {
		if err := viper.BindPFlag(flag, reportCmd.Flags().Lookup(flag)); err != nil {
			log.Fatal(err)
		}
	}

	// config is an optional parameter for a settings file (that overrides defaults)
	RootCmd.PersistentFlags().StringP("config", "c", "", "user defined config file that may override all or some default settings")
	if err := viper.BindPFlag("config", RootCmd.PersistentFlags().Lookup("config")); err != nil {
		log.Fatal(err)
	}

	RootCmd.AddCommand(reportCmd)
	RootCmd.AddCommand(recheckCmd)
}

func setLogLevel(conf *config.Config) {
	if conf.Verbose {
		report.LogLevel.SetLevel(zap.DebugLevel)
	} else if conf.Quiet {
		report.LogLevel.SetLevel(zap.WarnLevel)
	}
}

// runReportCmd parses the config and drives the pipeline.
func runReportCmd(cmd *cobra.Command, args []string) {
	conf := config.New()
	setLogLevel(conf)
	checkDependencies(conf)

	start := time.Now()
	if err := report.New(conf).Process(context.Background()); err != nil {
		log.Fatalf("reporter failed: %v", err)
	}
	log.Printf("Completed processing in %v.", time.Since(start).Round(time.Second))
}

// checkDependencies verifies the external programs the run will invoke.
func checkDependencies(conf *config.Config) {
	if !conf.FrameshiftCorrection {
		return
	}
	if _, err := exec.LookPath(conf.ExonerateProgram); err != nil {
		log.Fatalf("No %s found. Is exonerate installed? https://www.ebi.ac.uk/about/vertebrate-genomics/software/exonerate", conf.ExonerateProgram)
	}
	if _, err := exec.LookPath(conf.TranslateProgram); err != nil {
		log.Fatalf("No %s found. Is the exonerate tool suite installed?", conf.TranslateProgram)
	}
}

func runRecheckCmd(cmd *cobra.Command, args []string) {
	conf := config.New()
	setLogLevel(conf)

	id, err := cmd.Flags().GetInt("hmmsearch-id")
	if err != nil {
		log.Fatal(err)
	}

	if err := report.Recheck(conf, id); err != nil {
		log.Fatalf("recheck failed: %v", err)
	}
}
