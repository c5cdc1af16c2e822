package sra

import (
	"errors"
	"testing"
)

func TestAccessionValidate(t *testing.T) {
	valid := []Accession{"SRR123456", "ERR164409", "DRR000001", "SRR1234567890"}
	for _, acc := range valid {
		if err := acc.Validate(); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", acc, err)
		}
	}

	invalid := []Accession{
		"",
		"SRR1234",       // too few digits
		"srr123456",     // lowercase
		"SRX123456",     // experiment, not run
		"SRR123456 ",    // trailing space
		"SRR123456;rm",  // shell junk
		"../SRR123456",  // path traversal
		"GCF_000001405", // assembly accession
	}
	for _, acc := range invalid {
		if err := acc.Validate(); err == nil {
			t.Errorf("Validate(%q) = nil, want error", acc)
		}
	}
}

func TestKindOf(t *testing.T) {
	err := &Error{Kind: EmptyResult, Op: "pair", Accession: "SRR123456"}
	wrapped := errors.Join(err)
	if got := KindOf(wrapped); got != EmptyResult {
		t.Fatalf("KindOf(wrapped) = %s, want empty result", got)
	}
	if got := KindOf(errors.New("plain")); got != Tool {
		t.Fatalf("KindOf(plain) = %s, want tool failure", got)
	}
}

func TestKindRetryable(t *testing.T) {
	for _, k := range []Kind{NotFound, Tool, EmptyResult, IO, Canceled} {
		if k.Retryable() {
			t.Errorf("%s should not be retryable", k)
		}
	}
	if !Network.Retryable() {
		t.Error("network errors should be retryable")
	}
}
