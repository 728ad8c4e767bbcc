package report

// HmmSearchCandidate is one row of the hmmsearch/ortholog join: a profile
// hit of a gene against a translated transcript, before reciprocal
// validation. Candidates are immutable.
type HmmSearchCandidate struct {
	HmmID  int
	GeneID string

	AaseqID int
	NtseqID int
	TaxID   int

	Score  float64
	Digest string
	Evalue string

	// 1-based inclusive coordinate spans from the HMM search
	HmmStart int
	HmmEnd   int
	AliStart int
	AliEnd   int
	EnvStart int
	EnvEnd   int

	// raw transcript header, possibly decorated with [revcomp] and
	// [translate(k)] annotations
	Header string

	// the translated alignment window as stored by the search stage
	NonOrfSequence string
}

// BlastResult is one ranked row of the reciprocal BLAST validation.
type BlastResult struct {
	Target   int
	Score    float64
	Evalue   string
	ResStart int
	ResEnd   int
}

// Hit is a candidate that survived the reciprocal check. Only EnvStart,
// EnvEnd and IsOverlap mutate after insert; removal goes through
// Stats.deleteHit alone.
type Hit struct {
	ID        int
	IsOverlap bool

	HmmsearchID int
	TaxID       int
	AaseqID     int
	NtseqID     int
	BlastTarget int

	GeneID string
	Score  float64
	Digest string
	Evalue string

	HmmStart   int
	HmmEnd     int
	AliStart   int
	AliEnd     int
	EnvStart   int
	EnvEnd     int
	BlastStart int
	BlastEnd   int

	HeaderBase      string
	HeaderFull      string
	HeaderRevcomp   bool
	HeaderTranslate int

	NonOrfSequence string

	// populated only for the ORF stage
	EstSequence string
	HmmSequence string
	AaSequence  string
}

// OrfTranscript is the corrected open reading frame for one hit.
//
// cDNA coordinates are 0-based half-open as produced by exonerate; the
// *_transcript variants carry the frame offset (ali_start*3 - 3) into the
// full transcript; the aa_*_hmm pair projects onto the HMM axis.
type OrfTranscript struct {
	HitID int
	TaxID int

	CdnaStart int
	CdnaEnd   int
	AaStart   int
	AaEnd     int

	CdnaStartTranscript int
	CdnaEndTranscript   int
	AaStartTranscript   int
	AaEndTranscript     int

	AaStartHmm int
	AaEndHmm   int

	TranslatedSeq string
	CdnaSeq       string
}

// CoreSequence is one reference taxon sequence of the ortholog set,
// emitted at the top of every per-gene output file.
type CoreSequence struct {
	GeneID   string
	TaxaName string
	Header   string
	Sequence string
}
