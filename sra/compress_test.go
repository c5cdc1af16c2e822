package sra

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestCompressAll(t *testing.T) {
	dir := t.TempDir()
	fwd := filepath.Join(dir, "SRR123456_1.fastq")
	rev := filepath.Join(dir, "SRR123456_2.fastq")
	writeTestFastq(fwd, 5)
	writeTestFastq(rev, 5)

	want, err := os.ReadFile(fwd)
	if err != nil {
		t.Fatal(err)
	}

	out, err := compressAll("SRR123456", []string{fwd, rev})
	if err != nil {
		t.Fatalf("compressAll: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d compressed paths, want 2", len(out))
	}
	if out[0] != fwd+".gz" || out[1] != rev+".gz" {
		t.Fatalf("compressed names %v keep order and base names", out)
	}

	// Source files are consumed once the compressed copy exists.
	if _, err := os.Stat(fwd); !os.IsNotExist(err) {
		t.Errorf("raw file %s still present", fwd)
	}

	f, err := os.Open(out[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("not valid gzip: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Fatal("decompressed content differs from the original")
	}
}

func TestCompressAllMissingFile(t *testing.T) {
	_, err := compressAll("SRR123456", []string{filepath.Join(t.TempDir(), "missing.fastq")})
	if err == nil {
		t.Fatal("expected an error for a missing input")
	}
	if KindOf(err) != IO {
		t.Fatalf("kind = %s, want io error", KindOf(err))
	}
}
