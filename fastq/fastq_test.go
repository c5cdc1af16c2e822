package fastq

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const fwdReads = "@r1/1\nACGT\n+\nIIII\n@r2/1\nGGCC\n+\nIIII\n"
const revReads = "@r1/2\nTTAA\n+\nIIII\n@r2/2\nCCGG\n+\nIIII\n"

func TestCountRecords(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "reads.fastq", fwdReads)
	n, err := CountRecords(path)
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if n != 2 {
		t.Fatalf("counted %d records, want 2", n)
	}

	empty := writeFile(t, dir, "empty.fastq", "")
	n, err = CountRecords(empty)
	if err != nil || n != 0 {
		t.Fatalf("empty file: n=%d err=%v", n, err)
	}
}

func TestCountRecordsTruncated(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.fastq", "@r1/1\nACGT\n+\n")
	if _, err := CountRecords(path); err == nil {
		t.Fatal("expected an error for a truncated record")
	}
}

func TestInterleave(t *testing.T) {
	dir := t.TempDir()
	fwd := writeFile(t, dir, "r1.fastq", fwdReads)
	rev := writeFile(t, dir, "r2.fastq", revReads)

	var buf bytes.Buffer
	pairs, err := Interleave(&buf, fwd, rev)
	if err != nil {
		t.Fatalf("Interleave: %v", err)
	}
	if pairs != 2 {
		t.Fatalf("interleaved %d pairs, want 2", pairs)
	}

	want := "@r1/1\nACGT\n+\nIIII\n@r1/2\nTTAA\n+\nIIII\n" +
		"@r2/1\nGGCC\n+\nIIII\n@r2/2\nCCGG\n+\nIIII\n"
	if buf.String() != want {
		t.Fatalf("interleaved output out of order:\n%s", buf.String())
	}
}

func TestInterleaveNoTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	fwd := writeFile(t, dir, "r1.fastq", strings.TrimSuffix(fwdReads, "\n"))
	rev := writeFile(t, dir, "r2.fastq", revReads)

	var buf bytes.Buffer
	pairs, err := Interleave(&buf, fwd, rev)
	if err != nil {
		t.Fatalf("Interleave: %v", err)
	}
	if pairs != 2 {
		t.Fatalf("interleaved %d pairs, want 2", pairs)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Fatal("final record missing trailing newline")
	}
}

func TestInterleaveMismatchedFiles(t *testing.T) {
	dir := t.TempDir()
	fwd := writeFile(t, dir, "r1.fastq", fwdReads)
	rev := writeFile(t, dir, "r2.fastq", "@r1/2\nTTAA\n+\nIIII\n")

	if _, err := Interleave(&bytes.Buffer{}, fwd, rev); err == nil {
		t.Fatal("expected an error for mismatched record counts")
	}
}
