package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	hdrRegexp      = regexp.MustCompile(`\[(.+?)(\((\d)\))?\]`)
	hdrCleanRegexp = regexp.MustCompile(`\[.*$`)
)

// TranslateHeader splits a decorated transcript header into its base form
// and the frame annotations. The base is the header with everything from
// the first bracket stripped and trailing ':' and whitespace trimmed.
func TranslateHeader(header string) (base string, revcomp bool, translate int) {
	for _, cap := range hdrRegexp.FindAllStringSubmatch(header, -1) {
		if cap[1] == "revcomp" {
			revcomp = true
		}
		if cap[1] == "translate" && cap[3] != "" {
			n, err := strconv.Atoi(cap[3])
			if err == nil {
				translate = n
			}
		}
	}

	base = hdrCleanRegexp.ReplaceAllString(header, "")
	base = strings.TrimRight(base, ": \t")

	return base, revcomp, translate
}

// FormatHeader re-decorates a base header with its frame annotations.
func FormatHeader(header string, revcomp bool, translate int) string {
	switch {
	case revcomp && translate > 0:
		return fmt.Sprintf("%s [revcomp]:[translate(%d)]", header, translate)
	case revcomp:
		return fmt.Sprintf("%s [revcomp]", header)
	case translate > 0:
		return fmt.Sprintf("%s [translate(%d)]", header, translate)
	}
	return header
}

// readingFrame encodes the frame annotations for protein FASTA headers.
// Nucleotide records always carry ".".
func readingFrame(revcomp bool, translate int, seqType string) string {
	if seqType == "nt" {
		return "."
	}
	switch {
	case revcomp && translate > 0:
		return fmt.Sprintf("[revcomp]:[translate(%d)]", translate)
	case revcomp:
		return "[revcomp]"
	case translate > 0:
		return fmt.Sprintf("[translate(%d)]", translate)
	}
	return ""
}
