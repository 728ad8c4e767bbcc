package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/biogo/external"
	"go.uber.org/multierr"
)

// ryoTemplate makes exonerate print the corrected cDNA and the matched
// query window as two indexable FASTA records with their coordinates.
const ryoTemplate = ">cdna %tcb %tce\n%tcs>aa %qab %qae\n%qas"

// exonerateCmd builds an exonerate invocation.
type exonerateCmd struct {
	// Usage: exonerate --model protein2genome --query <file> --target <file>
	//
	// For details relating to options and parameters, see the exonerate manual.
	//
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}exonerate{{end}}"` // exonerate

	BestN         int    `buildarg:"{{if .}}--bestn{{split}}{{.}}{{end}}"`       // --bestn <n>
	Score         int    `buildarg:"{{if .}}--score{{split}}{{.}}{{end}}"`       // --score <n>
	Ryo           string `buildarg:"{{with .}}--ryo{{split}}{{.}}{{end}}"`       // --ryo <s>
	Subopt        int    `buildarg:"--subopt{{split}}{{.}}"`                     // --subopt <n>
	GeneticCode   int    `buildarg:"{{if .}}--geneticcode{{split}}{{.}}{{end}}"` // --geneticcode <n>
	Model         string `buildarg:"{{with .}}--model{{split}}{{.}}{{end}}"`     // --model <s>
	QueryType     string `buildarg:"{{with .}}--querytype{{split}}{{.}}{{end}}"` // --querytype <s>
	TargetType    string `buildarg:"{{with .}}--targettype{{split}}{{.}}{{end}}"` // --targettype <s>
	Verbose       int    `buildarg:"--verbose{{split}}{{.}}"`                    // --verbose <n>
	ShowAlignment bool   `buildarg:"--showalignment{{split}}{{if .}}yes{{else}}no{{end}}"` // --showalignment <y/n>
	ShowVulgar    bool   `buildarg:"--showvulgar{{split}}{{if .}}yes{{else}}no{{end}}"`    // --showvulgar <y/n>

	Query  string `buildarg:"{{with .}}--query{{split}}{{.}}{{end}}"`  // --query <file>
	Target string `buildarg:"{{with .}}--target{{split}}{{.}}{{end}}"` // --target <file>
}

func (e exonerateCmd) BuildCommand() (*exec.Cmd, error) {
	if e.Query == "" || e.Target == "" {
		return nil, fmt.Errorf("exonerate: missing query or target")
	}
	cl := external.Must(external.Build(e))
	return exec.Command(cl[0], cl[1:]...), nil
}

// translateCmd builds a fastatranslate invocation.
type translateCmd struct {
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}fastatranslate{{end}}"` // fastatranslate

	GeneticCode int    `buildarg:"{{if .}}--geneticcode{{split}}{{.}}{{end}}"` // --geneticcode <n>
	Frame       int    `buildarg:"{{if .}}-F{{split}}{{.}}{{end}}"`            // -F <n>
	In          string `buildarg:"{{with .}}{{.}}{{end}}"`                     // <file>
}

func (t translateCmd) BuildCommand() (*exec.Cmd, error) {
	if t.In == "" {
		return nil, fmt.Errorf("fastatranslate: missing input file")
	}
	cl := external.Must(external.Build(t))
	return exec.Command(cl[0], cl[1:]...), nil
}

// tempFiles owns the scratch FASTA files of one external invocation and
// removes all of them on every exit path.
type tempFiles struct {
	names []string
}

// create writes a one-record FASTA temp file and registers it for removal.
func (t *tempFiles) create(pattern, header, seq string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	t.names = append(t.names, f.Name())
	if _, err := fmt.Fprintf(f, ">%s\n%s\n", header, seq); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp FASTA %s: %v", f.Name(), err)
	}
	return f.Name(), f.Close()
}

func (t *tempFiles) cleanup() (err error) {
	for _, name := range t.names {
		err = multierr.Append(err, os.Remove(name))
	}
	t.names = nil
	return err
}

// orfTools runs the external programs the ORF stage depends on. The
// concrete implementation shells out; tests substitute their own.
type orfTools interface {
	// exonerate aligns the reference protein against a DNA target and
	// returns the parsed ryo records.
	exonerate(ctx context.Context, querySeq, targetSeq string) (map[string]fastaRecord, error)

	// translate converts a cDNA to protein and returns the first record.
	translate(ctx context.Context, cdnaSeq string) (string, error)
}

// toolRunner is the production orfTools, invoking exonerate and the
// translate program with per-call temp files.
type toolRunner struct {
	exoneratePath string
	translatePath string
	scoreThreshold int
	timeout       time.Duration
}

func (r *toolRunner) run(ctx context.Context, cmd *exec.Cmd) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
		cmd = exec.CommandContext(ctx, cmd.Path, cmd.Args[1:]...)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %s", cmd.Args[0], err, stderr.String())
	}
	return out, nil
}

func (r *toolRunner) exonerate(ctx context.Context, querySeq, targetSeq string) (map[string]fastaRecord, error) {
	var tmp tempFiles
	defer func() {
		if err := tmp.cleanup(); err != nil {
			rlog.Errorf("Error removing exonerate temp files: %v", err)
		}
	}()

	query, err := tmp.create("exonerate-query-*", "query", querySeq)
	if err != nil {
		return nil, err
	}
	target, err := tmp.create("exonerate-target-*", "target", targetSeq)
	if err != nil {
		return nil, err
	}

	cmd, err := exonerateCmd{
		Cmd:         r.exoneratePath,
		BestN:       1,
		Score:       r.scoreThreshold,
		Ryo:         ryoTemplate,
		Subopt:      0,
		GeneticCode: 1,
		Model:       "protein2genome",
		QueryType:   "protein",
		TargetType:  "dna",
		Verbose:     0,
		Query:       query,
		Target:      target,
	}.BuildCommand()
	if err != nil {
		return nil, err
	}

	rlog.Debugf("Run: %v", cmd.Args)
	out, err := r.run(ctx, cmd)
	if err != nil {
		return nil, err
	}

	return parseIndexedFasta(string(out)), nil
}

func (r *toolRunner) translate(ctx context.Context, cdnaSeq string) (string, error) {
	var tmp tempFiles
	defer func() {
		if err := tmp.cleanup(); err != nil {
			rlog.Errorf("Error removing translate temp files: %v", err)
		}
	}()

	in, err := tmp.create("translate-in-*", "cdna", cdnaSeq)
	if err != nil {
		return "", err
	}

	cmd, err := translateCmd{
		Cmd:         r.translatePath,
		GeneticCode: 1,
		Frame:       1,
		In:          in,
	}.BuildCommand()
	if err != nil {
		return "", err
	}

	rlog.Debugf("Run: %v", cmd.Args)
	out, err := r.run(ctx, cmd)
	if err != nil {
		return "", err
	}

	rec, ok := parseIndexedFasta(string(out))["cdna1"]
	if !ok {
		return "", fmt.Errorf("translate output has no record")
	}
	return rec.Sequence, nil
}
