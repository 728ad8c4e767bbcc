package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// fastaRecord is one record of tool output. Exonerate's --ryo template
// writes coordinates as the second and third header tokens.
type fastaRecord struct {
	CoordStart int
	CoordEnd   int
	Sequence   string
}

// parseIndexedFasta reads FASTA text into records keyed by the first header
// token suffixed with the 1-based record index, e.g. "cdna1", "aa2". The
// keying makes the fixed record layout of the ryo template addressable
// even when names repeat.
func parseIndexedFasta(contents string) map[string]fastaRecord {
	result := make(map[string]fastaRecord)

	var hdr []string
	var seq strings.Builder
	n := 1

	flush := func() {
		if len(hdr) == 0 {
			return
		}
		rec := fastaRecord{Sequence: seq.String()}
		if len(hdr) > 2 {
			rec.CoordStart, _ = strconv.Atoi(hdr[1])
			rec.CoordEnd, _ = strconv.Atoi(hdr[2])
		}
		result[hdr[0]+strconv.Itoa(n)] = rec
		n++
		seq.Reset()
	}

	for _, line := range strings.Split(contents, "\n") {
		if strings.HasPrefix(line, ">") {
			flush()
			hdr = strings.Split(strings.TrimPrefix(line, ">"), " ")
			continue
		}
		seq.WriteString(strings.TrimRight(line, " \t\r"))
	}
	flush()

	return result
}

// writeFastaRecord writes one two-line FASTA record.
func writeFastaRecord(w io.Writer, header, sequence string) error {
	_, err := fmt.Fprintf(w, ">%s\n%s\n", header, sequence)
	return err
}
