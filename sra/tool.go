package sra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/FredHutch/docker-sra/ctxlog"
)

// DumpTool fetches the raw split FASTQ files for one accession into a
// workdir. Implementations classify their own failures into *Error kinds.
type DumpTool interface {
	Dump(ctx context.Context, acc Accession, workdir string) (ReadPair, error)
}

// PairTool reconciles mate pairs in place, discarding reads without a mate.
// The returned pair points at the matched files under the original names.
type PairTool interface {
	Pair(ctx context.Context, acc Accession, pair ReadPair) (ReadPair, error)
}

// Toolkit drives the sra-tools binaries: prefetch for the download,
// fastq-dump for the split into mate files. Each run selects its own
// settings file through the subprocess environment, so nothing touches the
// user-global toolkit configuration.
type Toolkit struct {
	PrefetchBin string
	DumpBin     string
}

// NewToolkit returns a Toolkit resolving the standard binary names on PATH.
func NewToolkit() *Toolkit {
	return &Toolkit{
		PrefetchBin: "prefetch",
		DumpBin:     "fastq-dump",
	}
}

// Dump downloads the accession and splits it into <acc>_1.fastq and, for
// paired-end data, <acc>_2.fastq inside workdir.
func (t *Toolkit) Dump(ctx context.Context, acc Accession, workdir string) (ReadPair, error) {
	env, err := cacheEnv(workdir)
	if err != nil {
		return ReadPair{}, &Error{Kind: IO, Op: "fetch", Accession: string(acc), Err: err}
	}

	if out, err := runCmd(ctx, workdir, env, t.PrefetchBin, string(acc)); err != nil {
		return ReadPair{}, classify("fetch", acc, out, err)
	}
	dumpArgs := []string{
		"--split-files",
		"--defline-seq", "@$ac.$si.$sg/$ri",
		"--defline-qual", "+",
		"--outdir", workdir,
		string(acc),
	}
	if out, err := runCmd(ctx, workdir, env, t.DumpBin, dumpArgs...); err != nil {
		return ReadPair{}, classify("fetch", acc, out, err)
	}

	pair := ReadPair{
		Forward: filepath.Join(workdir, string(acc)+"_1.fastq"),
		Reverse: filepath.Join(workdir, string(acc)+"_2.fastq"),
	}
	if _, err := os.Stat(pair.Forward); err != nil {
		return ReadPair{}, &Error{
			Kind: Tool, Op: "fetch", Accession: string(acc),
			Err: fmt.Errorf("dump produced no forward reads: %w", err),
		}
	}
	// Single-end runs emit only the _1 file.
	if _, err := os.Stat(pair.Reverse); err != nil {
		pair.Reverse = ""
	}
	return pair, nil
}

// cacheEnv writes a settings file inside workdir pointing the toolkit's
// download cache at workdir/sra_cache, and returns the subprocess
// environment selecting it via NCBI_SETTINGS. Concurrent accessions each
// get their own cache; the user-global settings file is never written.
func cacheEnv(workdir string) ([]string, error) {
	cache := filepath.Join(workdir, "sra_cache")
	if err := os.MkdirAll(cache, 0o755); err != nil {
		return nil, err
	}
	settings := filepath.Join(workdir, "user-settings.mkfg")
	content := fmt.Sprintf("/repository/user/main/public/root = %q\n", cache)
	if err := os.WriteFile(settings, []byte(content), 0o644); err != nil {
		return nil, err
	}
	return append(os.Environ(), "NCBI_SETTINGS="+settings), nil
}

// FastqPair shells out to the fastq_pair binary. On success the matched
// outputs are renamed over the raw inputs and the singleton files removed.
type FastqPair struct {
	Bin string
}

func NewFastqPair() *FastqPair {
	return &FastqPair{Bin: "fastq_pair"}
}

func (f *FastqPair) Pair(ctx context.Context, acc Accession, pair ReadPair) (ReadPair, error) {
	if !pair.Paired() {
		// Nothing to reconcile for single-end data.
		return pair, nil
	}

	if out, err := runCmd(ctx, filepath.Dir(pair.Forward), nil, f.Bin, pair.Forward, pair.Reverse); err != nil {
		return ReadPair{}, classifyAs(Tool, "pair", acc, out, err)
	}

	// fastq_pair emits <input>.paired.fq and <input>.single.fq.
	for _, raw := range pair.paths() {
		matched := raw + ".paired.fq"
		if _, err := os.Stat(matched); err != nil {
			return ReadPair{}, &Error{
				Kind: Tool, Op: "pair", Accession: string(acc),
				Err: fmt.Errorf("missing paired output: %w", err),
			}
		}
		if err := os.Rename(matched, raw); err != nil {
			return ReadPair{}, &Error{Kind: IO, Op: "pair", Accession: string(acc), Err: err}
		}
		os.Remove(raw + ".single.fq")
	}
	return pair, nil
}

// runCmd executes one external tool, returning its combined output for
// classification when it fails. A nil env inherits the process environment.
// The subprocess is killed on ctx cancel.
func runCmd(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	ctxlog.FromContext(ctx).Debug("running command", "cmd", name, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

var notFoundMarkers = []string{
	"item not found",
	"cannot resolve accession",
	"failed to resolve accession",
	"no data",
	"not found",
	"404",
}

var networkMarkers = []string{
	"timeout",
	"timed out",
	"connection refused",
	"connection reset",
	"failed to connect",
	"network error",
	"transfer incomplete",
	"cannot be opened as database or table",
}

// classify maps a tool failure onto an error kind by scanning its combined
// output. The sra-tools binaries do not use distinguishing exit codes, so
// the text is all there is to go on; anything unrecognized is a Tool error.
func classify(op string, acc Accession, out []byte, err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: Canceled, Op: op, Accession: string(acc), Err: err}
	}

	text := strings.ToLower(string(out))
	for _, m := range notFoundMarkers {
		if strings.Contains(text, m) {
			return &Error{Kind: NotFound, Op: op, Accession: string(acc), Err: err}
		}
	}
	for _, m := range networkMarkers {
		if strings.Contains(text, m) {
			return &Error{Kind: Network, Op: op, Accession: string(acc), Err: err}
		}
	}
	return &Error{Kind: Tool, Op: op, Accession: string(acc), Err: errWithOutput(err, out)}
}

// classifyAs is classify with a fixed kind for tools whose output carries
// no useful signal.
func classifyAs(kind Kind, op string, acc Accession, out []byte, err error) *Error {
	return &Error{Kind: kind, Op: op, Accession: string(acc), Err: errWithOutput(err, out)}
}

// errWithOutput folds the tail of a tool's combined output into the error
// so failure reasons survive into logs.
func errWithOutput(err error, out []byte) error {
	text := strings.TrimSpace(string(out))
	if text == "" {
		return err
	}
	const keep = 512
	if len(text) > keep {
		text = text[len(text)-keep:]
	}
	return fmt.Errorf("%w: %s", err, text)
}
