package sra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/FredHutch/docker-sra/ctxlog"
	"github.com/FredHutch/docker-sra/fastq"
)

// Options is the full configuration for one Retriever, owned by the caller.
// There are no process-wide defaults.
type Options struct {
	// OutDir receives the final compressed files.
	OutDir string
	// TempRoot holds the per-accession workdirs; defaults to OutDir so the
	// final rename stays on one filesystem.
	TempRoot string
	// Retries is the number of additional attempts after the first for
	// retryable (network) failures.
	Retries uint64
	// RetryInterval seeds the exponential backoff between attempts.
	RetryInterval time.Duration
	// Interleave merges matched mates into a single output file instead of
	// the _1/_2 pair.
	Interleave bool
}

// DefaultRetries matches the bounded-retry policy of the original recipe.
const DefaultRetries = 3

// Retriever turns one accession into compressed mate-paired FASTQ output.
// Safe for concurrent use: every run works in its own temp directory.
type Retriever struct {
	opts   Options
	dump   DumpTool
	pair   PairTool
	upload Uploader // nil when no destination is configured
}

func NewRetriever(opts Options, dump DumpTool, pair PairTool, upload Uploader) *Retriever {
	if opts.TempRoot == "" {
		opts.TempRoot = opts.OutDir
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	return &Retriever{opts: opts, dump: dump, pair: pair, upload: upload}
}

// Run processes one accession through fetch, pair, compress and the
// optional upload. All temporaries live in a scoped workdir that is removed
// before Run returns, whatever the outcome; only the final compressed files
// land in OutDir, and only on success.
func (r *Retriever) Run(ctx context.Context, acc Accession) *RunResult {
	logger := ctxlog.FromContext(ctx).With("accession", acc)
	ctx = ctxlog.WithLogger(ctx, logger)

	if err := acc.Validate(); err != nil {
		return fail(acc, &Error{Kind: NotFound, Op: "validate", Accession: string(acc), Err: err})
	}

	workdir := filepath.Join(r.opts.TempRoot, fmt.Sprintf("%s-%.8s", acc, uuid.NewString()))
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return fail(acc, &Error{Kind: IO, Op: "fetch", Accession: string(acc), Err: err})
	}
	defer os.RemoveAll(workdir)

	st := Pending

	// Fetch, retrying transient transport failures.
	var pair ReadPair
	err := r.withRetry(ctx, func() error {
		var derr error
		pair, derr = r.dump.Dump(ctx, acc, workdir)
		return derr
	})
	if err != nil {
		return fail(acc, err)
	}
	st = Fetched
	logger.Info("fetched raw reads", "state", st.String(), "paired", pair.Paired())

	// Reconcile mates, then tell an empty result apart from a tool crash:
	// the pairing tool exits zero either way, so the matched output has to
	// be counted.
	pair, err = r.pair.Pair(ctx, acc, pair)
	if err != nil {
		return fail(acc, err)
	}
	n, cerr := fastq.CountRecords(pair.Forward)
	if cerr != nil {
		return fail(acc, &Error{Kind: IO, Op: "pair", Accession: string(acc), Err: cerr})
	}
	if n == 0 {
		return fail(acc, &Error{
			Kind: EmptyResult, Op: "pair", Accession: string(acc),
			Err: errors.New("no mate pairs remained after pairing"),
		})
	}
	st = Paired
	logger.Info("paired reads", "state", st.String(), "records", n)

	files := pair.paths()
	if r.opts.Interleave && pair.Paired() {
		combined, ierr := r.interleave(ctx, acc, workdir, pair)
		if ierr != nil {
			return fail(acc, ierr)
		}
		files = []string{combined}
	}

	gzPaths, err := compressAll(acc, files)
	if err != nil {
		return fail(acc, err)
	}

	if err := os.MkdirAll(r.opts.OutDir, 0o755); err != nil {
		return fail(acc, &Error{Kind: IO, Op: "compress", Accession: string(acc), Err: err})
	}
	finals := make([]string, len(gzPaths))
	for i, gz := range gzPaths {
		dst := filepath.Join(r.opts.OutDir, filepath.Base(gz))
		if err := moveFile(gz, dst); err != nil {
			removeAll(finals[:i])
			return fail(acc, &Error{Kind: IO, Op: "compress", Accession: string(acc), Err: err})
		}
		finals[i] = dst
	}
	st = Compressed
	logger.Info("compressed output ready", "state", st.String(), "files", len(finals))

	if r.upload != nil {
		err := r.withRetry(ctx, func() error {
			return r.upload.Upload(ctx, acc, finals)
		})
		if err != nil {
			// A failed accession leaves nothing behind, not even the
			// locally finished files.
			removeAll(finals)
			return fail(acc, err)
		}
		st = Uploaded
		logger.Info("uploaded output", "state", st.String())
	} else {
		st = Done
	}

	return &RunResult{Accession: acc, State: st, Outputs: finals}
}

// withRetry runs op with bounded exponential backoff, retrying only error
// kinds marked retryable.
func (r *Retriever) withRetry(ctx context.Context, op func() error) error {
	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !KindOf(err).Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.opts.RetryInterval
	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(bo, r.opts.Retries), ctx))
}

// interleave merges the matched mates into <accession>.fastq and drops the
// split files.
func (r *Retriever) interleave(ctx context.Context, acc Accession, workdir string, pair ReadPair) (string, error) {
	combined := filepath.Join(workdir, string(acc)+".fastq")
	out, err := os.Create(combined)
	if err != nil {
		return "", &Error{Kind: IO, Op: "interleave", Accession: string(acc), Err: err}
	}
	pairs, err := fastq.Interleave(out, pair.Forward, pair.Reverse)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", &Error{Kind: IO, Op: "interleave", Accession: string(acc), Err: err}
	}
	ctxlog.FromContext(ctx).Info("interleaved pairs", "pairs", pairs)
	os.Remove(pair.Forward)
	os.Remove(pair.Reverse)
	return combined, nil
}

// fail builds the terminal result for an accession, normalizing the error
// into an *Error. Bare context errors, as backoff returns when its wait is
// interrupted, become Canceled rather than a tool failure.
func fail(acc Accession, err error) *RunResult {
	var serr *Error
	if !errors.As(err, &serr) {
		kind := Tool
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			kind = Canceled
		}
		serr = &Error{Kind: kind, Op: "run", Accession: string(acc), Err: err}
	}
	return &RunResult{Accession: acc, State: Failed, Err: serr}
}

// moveFile renames src to dst, copying across filesystems when rename is
// not possible.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func removeAll(paths []string) {
	for _, p := range paths {
		if p != "" {
			os.Remove(p)
		}
	}
}
