// Package sra turns public sequence-archive run accessions into compressed,
// mate-paired FASTQ files by driving external dump and pairing utilities.
package sra

import (
	"fmt"
	"regexp"
)

// accessionRE matches run accessions, the only form the dump utility can
// fetch directly (e.g. SRR1234567, ERR164409, DRR000001).
var accessionRE = regexp.MustCompile(`^[SED]RR[0-9]{5,}$`)

// Accession identifies one public sequence-read dataset.
type Accession string

// Validate rejects anything that is not a well-formed run accession before
// any subprocess is spawned for it.
func (a Accession) Validate() error {
	if a == "" {
		return fmt.Errorf("empty accession")
	}
	if !accessionRE.MatchString(string(a)) {
		return fmt.Errorf("malformed accession %q", a)
	}
	return nil
}

// ReadPair holds the forward/reverse FASTQ paths for one accession inside
// its workdir. Reverse is empty for single-end data.
type ReadPair struct {
	Forward string
	Reverse string
}

// Paired reports whether the accession produced both mates.
func (p ReadPair) Paired() bool { return p.Reverse != "" }

// paths returns the non-empty members, forward first.
func (p ReadPair) paths() []string {
	if !p.Paired() {
		return []string{p.Forward}
	}
	return []string{p.Forward, p.Reverse}
}

// State tracks an accession through its pipeline. Transitions are strictly
// forward; Failed is terminal and reachable from any state.
type State int

const (
	Pending State = iota
	Fetched
	Paired
	Compressed
	Uploaded
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Fetched:
		return "FETCHED"
	case Paired:
		return "PAIRED"
	case Compressed:
		return "COMPRESSED"
	case Uploaded:
		return "UPLOADED"
	case Done:
		return "DONE"
	case Failed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// RunResult is the immutable outcome of processing one accession: the final
// state plus either the output paths or the failure.
type RunResult struct {
	Accession Accession
	State     State
	Outputs   []string
	Err       *Error
}

// OK reports whether the accession completed.
func (r *RunResult) OK() bool {
	return r.State == Done || r.State == Uploaded
}
