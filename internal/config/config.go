// Package config is for app wide settings
package config

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "embed"

	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

var (
	// orthoreportDir is the root directory where orthoreport settings live
	orthoreportDir string

	// defaultConfigPath is the path to a local/default config file
	defaultConfigPath string
)

// DefaultConfig is the initial client config that's embedded with
// orthoreport and installed on the first run
//
//go:embed config.yaml
var DefaultConfig []byte

// Config is the root-level settings struct and is a mix of settings
// available in config.yaml and those available from the command line.
type Config struct {
	// the config file's version
	Version string `mapstructure:"version"`

	// path to the input SQLite database holding the ortholog sets; it is
	// attached as "input" to the per-species database (ReporterDBPath)
	SqliteDatabase string `mapstructure:"sqlite-database"`

	// directory all reporter output is written beneath
	OutputDir string `mapstructure:"output-directory"`

	// name of the species being reported on, as stored in species_info
	SpeciesName string `mapstructure:"species-name"`

	// name of the ortholog set, as stored in set_details
	OrthologSet string `mapstructure:"ortholog-set"`

	// table name prefix shared by all pipeline tools
	TablePrefix string `mapstructure:"dbtable-prefix"`

	// comma separated list of reference taxa; when empty the set's
	// distinct taxa are used
	ReferenceTaxa string `mapstructure:"reference-taxa"`

	// file listing wanted gene ids, one per line; empty means all genes
	CogListFile string `mapstructure:"cog-list-file"`

	// optional key-value transcript index; empty disables it
	EstIndex string `mapstructure:"est-index"`

	// protein BLAST database used by the recheck command
	BlastDB string `mapstructure:"blastdb"`

	// minimum hmmsearch bit score for a candidate
	HmmsearchScoreThreshold float64 `mapstructure:"hmmsearch-score-threshold"`

	// minimum blast bit score
	BlastScoreThreshold float64 `mapstructure:"blast-score-threshold"`

	// hmmsearch e-value cutoff
	HmmsearchEvalueThreshold float64 `mapstructure:"hmmsearch-evalue-threshold"`

	// blast e-value cutoff
	BlastEvalueThreshold float64 `mapstructure:"blast-evalue-threshold"`

	// minimum env coverage fraction before a group is considered miniscule
	EnvOverlapThreshold float64 `mapstructure:"env-overlap-threshold"`

	// master/child score ratio above which an overlapping child is discarded
	EnvScoreDiscardThreshold float64 `mapstructure:"env-score-discard-threshold"`

	// minimum hmm-axis overlap fraction considered significant
	HmmOverlapThreshold float64 `mapstructure:"hmm-overlap-threshold"`

	// score ratio above which a lower-ranked overlapping hit is discarded
	HmmScoreDiscardThreshold float64 `mapstructure:"hmm-score-discard-threshold"`

	// -max_target_seqs for blastp
	MaxBlastSearches int `mapstructure:"max-blast-searches"`

	// blast result rows examined per hmm search
	MaxBlastHits int `mapstructure:"max-blast-hits"`

	// mismatching blast targets tolerated before a candidate is rejected
	MaxReciprocalMismatches int `mapstructure:"max-reciprocal-mismatches"`

	// minimum transcript length in residues
	MinTranscriptLength int `mapstructure:"minimum-transcript-length"`

	// minimum fraction an extended ORF must overlap the ali window
	OrfOverlapMinimum float64 `mapstructure:"orf-overlap-minimum"`

	// pad output protein sequences with X up to the transcript frame
	FillWithX bool `mapstructure:"fill-with-x"`

	// replacement for selenocysteine in output sequences; empty disables
	SubstituteUWith string `mapstructure:"substitute-u-with"`

	// separator for output FASTA header fields
	HeaderSeparator string `mapstructure:"header-separator"`

	// stop after the best-reciprocal-hit files
	BrhOnly bool `mapstructure:"brh-only"`

	// run exonerate to correct frameshifts; when false a synthetic ORF
	// is derived from the raw alignment coordinates
	FrameshiftCorrection bool `mapstructure:"frameshift-correction"`

	// attempt to extend the ORF against the full transcript
	ExtendOrf bool `mapstructure:"extend-orf"`

	// require hits from every reference taxon before accepting
	StrictSearch bool `mapstructure:"strict-search"`

	// clear previously generated output relations
	ClearDatabase bool `mapstructure:"clear-database"`

	// recreate the aa/ and nt/ output directories
	ClearFiles bool `mapstructure:"clear-files"`

	// run the env pseudo-master filter
	EnableEnvOverlap bool `mapstructure:"enable-env-overlap"`

	// run the hmm overlap filter
	EnableHmmOverlap bool `mapstructure:"enable-hmm-overlap"`

	// keep the historical master-extension end comparator; see the env
	// pseudo-master filter
	EnvExtendCompat bool `mapstructure:"env-extend-compat"`

	// workers for the data-parallel stages; 0 means NumCPU
	NumThreads int `mapstructure:"num-threads"`

	// per-invocation timeout for external tools; 0 means none
	ExternalToolTimeout time.Duration `mapstructure:"external-tool-timeout"`

	Verbose bool   `mapstructure:"verbose"`
	Quiet   bool   `mapstructure:"quiet"`
	Logfile string `mapstructure:"logfile"`

	ExonerateProgram string `mapstructure:"exonerate-program"`
	TranslateProgram string `mapstructure:"translate-program"`
	BlastProgram     string `mapstructure:"blast-program"`

	// WantedGenes is loaded from CogListFile; empty means all genes
	WantedGenes []string
}

func initDataPaths(providedDir string) (err error) {
	if providedDir == "" {
		orthoreportDir = os.Getenv("ORTHOREPORT_DATA_DIR")
		if orthoreportDir == "" {
			// use $HOMEDIR/.orthoreport
			var home string
			home, err = homedir.Dir()
			if err != nil {
				return
			}
			orthoreportDir = filepath.Join(home, ".orthoreport")
		}
	} else {
		orthoreportDir = providedDir
	}

	defaultConfigPath = filepath.Join(orthoreportDir, "config.yaml")

	return
}

// Setup checks that the orthoreport data directory exists.
// It creates one and writes the default config file to it otherwise.
func Setup(providedDir string) {
	if err := initDataPaths(providedDir); err != nil {
		log.Fatal("Error creating orthoreport data paths", err)
	}

	_, err := os.Stat(orthoreportDir)
	if os.IsNotExist(err) {
		if err = os.Mkdir(orthoreportDir, 0755); err != nil {
			log.Fatal(err)
		}
	} else if err != nil {
		log.Fatal(err)
	}

	if _, err := os.Stat(defaultConfigPath); os.IsNotExist(err) {
		if err = os.WriteFile(defaultConfigPath, DefaultConfig, 0644); err != nil {
			log.Fatal(err)
		}
	}
}

// New returns a new Config struct populated by settings from config.yaml,
// in the data directory, or some other settings file the user points to
// with the "--config" command.
func New() *Config {
	// read in the default settings first
	viper.SetConfigType("yaml")
	viper.SetConfigFile(defaultConfigPath)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}

	if userConfig := viper.GetString("config"); userConfig != "" {
		viper.SetConfigFile(userConfig)               // user has specified a new path for a settings file
		if err := viper.MergeInConfig(); err != nil { // read in user defined settings file
			log.Fatal(err)
		}

		file, _ := os.Open(userConfig)
		userData := make(map[string]interface{})
		if err := yaml.NewDecoder(file).Decode(userData); err != nil {
			log.Fatal(err)
		}

		overrides := &Config{}
		if err := mapstructure.WeakDecode(userData, overrides); err != nil {
			log.Fatal(err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		log.Fatalf("failed to decode settings file %s: %v", viper.ConfigFileUsed(), err)
	}

	config.OutputDir = strings.TrimRight(config.OutputDir, "/")
	config.WantedGenes = ReadWantedGenes(config.CogListFile)

	if err := config.Validate(); err != nil {
		log.Fatal(err)
	}
	return config
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"sqlite-database", c.SqliteDatabase},
		{"output-directory", c.OutputDir},
		{"species-name", c.SpeciesName},
		{"ortholog-set", c.OrthologSet},
		{"dbtable-prefix", c.TablePrefix},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing required setting %q", r.key)
		}
	}
	if _, err := os.Stat(c.SqliteDatabase); os.IsNotExist(err) {
		return fmt.Errorf("sqlite database does not exist at %s", c.SqliteDatabase)
	}
	return nil
}

// ReporterDBPath is the per-species database written by the indexer, next
// to the generated sequence files.
func (c *Config) ReporterDBPath() string {
	return filepath.Join(c.OutputDir, c.SpeciesName+".sqlite")
}

// ReferenceTaxaList splits the configured comma list, dropping empties.
func (c *Config) ReferenceTaxaList() []string {
	var taxa []string
	for _, t := range strings.Split(c.ReferenceTaxa, ",") {
		if t != "" {
			taxa = append(taxa, t)
		}
	}
	return taxa
}

// ReadWantedGenes reads a cog list file, one gene id per line.
// A missing file means no gene filtering.
func ReadWantedGenes(cogfile string) []string {
	if cogfile == "" {
		return nil
	}
	f, err := os.Open(cogfile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		log.Fatalf("unable to open cog-list-file at %s: %v", cogfile, err)
	}
	defer f.Close()

	var genes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		gene := strings.TrimRight(scanner.Text(), " \t\r")
		if gene != "" {
			genes = append(genes, gene)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("unable to read cog-list-file at %s: %v", cogfile, err)
	}
	return genes
}
