package report

import (
	"fmt"
	"strings"
)

// complement is the DNA mapping applied during reverse complementing.
// Lowercase input maps onto the uppercase complement; anything outside the
// table passes through unchanged. The asymmetry is deliberate: generated
// sequences must be byte-identical with those of earlier pipeline versions.
var complement = map[rune]rune{
	'A': 'T', 'G': 'C', 'C': 'G', 'T': 'A',
	'Y': 'R', 'R': 'Y', 'K': 'M', 'M': 'K',
	'a': 'T', 'g': 'C', 'c': 'G', 't': 'A',
}

// reverseComplement reverses the sequence and complements each base.
func reverseComplement(seq string) string {
	runes := []rune(seq)
	out := make([]rune, len(runes))
	for i, r := range runes {
		c, ok := complement[r]
		if !ok {
			c = r
		}
		out[len(runes)-1-i] = c
	}
	return string(out)
}

// estToHmm cuts the codon window covered by the alignment span out of the
// transcript. aliStart and aliEnd are 1-based inclusive residue positions.
func estToHmm(est string, aliStart, aliEnd int) (string, error) {
	start := (aliStart - 1) * 3
	end := start + (aliEnd-aliStart+1)*3
	if start < 0 || end > len(est) || start > end {
		return "", fmt.Errorf("alignment span %d..%d outside transcript of length %d", aliStart, aliEnd, len(est))
	}
	return est[start:end], nil
}

// finishProtein applies the configured output substitutions to a translated
// sequence: selenocysteine replacement and left padding with X up to the
// transcript frame.
func finishProtein(seq string, aaStartTranscript int, fillWithX bool, substituteUWith string) string {
	if substituteUWith != "" {
		seq = strings.ReplaceAll(seq, "U", substituteUWith)
		seq = strings.ReplaceAll(seq, "u", substituteUWith)
	}
	if fillWithX && aaStartTranscript > 1 {
		seq = strings.Repeat("X", aaStartTranscript-1) + seq
	}
	return seq
}
