package sra

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"
)

// compressAll gzips every file independently and in parallel, keeping the
// base name plus a .gz suffix. Source files are removed once their
// compressed copy is safely on disk. Returns the compressed paths in the
// same order as the inputs.
func compressAll(acc Accession, paths []string) ([]string, error) {
	out := make([]string, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			gz, err := compressFile(path)
			if err != nil {
				return &Error{Kind: IO, Op: "compress", Accession: string(acc), Err: err}
			}
			out[i] = gz
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func compressFile(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	gzPath := path + ".gz"
	dst, err := os.Create(gzPath)
	if err != nil {
		return "", err
	}

	zw := gzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		dst.Close()
		os.Remove(gzPath)
		return "", err
	}
	if err := zw.Close(); err != nil {
		dst.Close()
		os.Remove(gzPath)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(gzPath)
		return "", err
	}

	os.Remove(path)
	return gzPath, nil
}
