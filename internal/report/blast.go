package report

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/biogo/external"
	"go.uber.org/multierr"

	"github.com/ortholab/orthoreport/internal/config"
)

// blastFields is the tabular column layout shared with the BLAST driver
// that populates the input database.
const blastFields = "7 qseqid sseqid evalue bitscore qstart qend"

// blastCmd builds a blastp invocation against a protein database.
type blastCmd struct {
	// Usage: blastp -db <file> -query <file>
	//
	// For details relating to options and parameters, see the BLAST manual.
	//
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}blastp{{end}}"` // blastp

	OutFormat     string  `buildarg:"{{with .}}-outfmt{{split}}{{.}}{{end}}"`        // -outfmt <s>
	EValue        float64 `buildarg:"{{if .}}-evalue{{split}}{{.}}{{end}}"`          // -evalue <f.>
	Threshold     float64 `buildarg:"{{if .}}-threshold{{split}}{{.}}{{end}}"`       // -threshold <f.>
	MaxTargetSeqs int     `buildarg:"{{if .}}-max_target_seqs{{split}}{{.}}{{end}}"` // -max_target_seqs <n>
	Threads       int     `buildarg:"{{if .}}-num_threads{{split}}{{.}}{{end}}"`     // -num_threads <n>

	Database string `buildarg:"{{with .}}-db{{split}}{{.}}{{end}}"`    // -db <s>
	Query    string `buildarg:"{{with .}}-query{{split}}{{.}}{{end}}"` // -query <s>
	Out      string `buildarg:"{{with .}}-out{{split}}{{.}}{{end}}"`   // -out <s>
}

func (b blastCmd) BuildCommand() (*exec.Cmd, error) {
	if b.Database == "" {
		return nil, fmt.Errorf("blastp: missing database")
	}
	if b.Query == "" {
		return nil, fmt.Errorf("blastp: missing query file")
	}
	cl := external.Must(external.Build(b))
	return exec.Command(cl[0], cl[1:]...), nil
}

// blastHit is one parsed row of tabular blastp output.
type blastHit struct {
	Query  string
	Target string
	Evalue string
	Score  float64
	Start  int
	End    int
}

// parseBlastTabular reads "-outfmt 7" output. Comment lines and short rows
// are skipped.
func parseBlastTabular(contents string) []blastHit {
	var hits []blastHit
	for _, line := range strings.Split(contents, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 6 {
			continue
		}
		score, err := strconv.ParseFloat(cols[3], 64)
		if err != nil {
			continue
		}
		start, _ := strconv.Atoi(cols[4])
		end, _ := strconv.Atoi(cols[5])
		hits = append(hits, blastHit{
			Query:  cols[0],
			Target: cols[1],
			Evalue: cols[2],
			Score:  score,
			Start:  start,
			End:    end,
		})
	}
	return hits
}

// RunBlast validates one translated transcript window against the set's
// protein database and returns the ranked hits. Used by the recheck
// command; the bulk validation is the BLAST driver's job.
func RunBlast(conf *config.Config, name, seq string) (hits []blastHit, err error) {
	in, err := os.CreateTemp("", "blast-in-*")
	if err != nil {
		return nil, err
	}
	out, err := os.CreateTemp("", "blast-out-*")
	if err != nil {
		return nil, err
	}
	out.Close()
	defer func() {
		err = multierr.Append(err, os.Remove(in.Name()))
		err = multierr.Append(err, os.Remove(out.Name()))
	}()

	if _, werr := fmt.Fprintf(in, ">%s\n%s\n", name, seq); werr != nil {
		return nil, fmt.Errorf("failed to write a BLAST input file at %s: %v", in.Name(), werr)
	}
	if cerr := in.Close(); cerr != nil {
		return nil, cerr
	}

	cmd, err := blastCmd{
		Cmd:           conf.BlastProgram,
		OutFormat:     blastFields,
		EValue:        conf.BlastEvalueThreshold,
		Threshold:     conf.BlastScoreThreshold,
		MaxTargetSeqs: conf.MaxBlastSearches,
		Threads:       conf.NumThreads,
		Database:      conf.BlastDB,
		Query:         in.Name(),
		Out:           out.Name(),
	}.BuildCommand()
	if err != nil {
		return nil, err
	}

	rlog.Debugf("Run: %v", cmd.Args)
	if output, rerr := cmd.CombinedOutput(); rerr != nil {
		return nil, fmt.Errorf("failed to execute blastp against %s: %v: %s", conf.BlastDB, rerr, string(output))
	}

	contents, err := os.ReadFile(out.Name())
	if err != nil {
		return nil, err
	}
	return parseBlastTabular(string(contents)), nil
}
