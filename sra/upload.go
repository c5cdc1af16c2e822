package sra

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/FredHutch/docker-sra/ctxlog"
)

// Uploader copies finished outputs to a remote destination.
type Uploader interface {
	Upload(ctx context.Context, acc Accession, paths []string) error
}

// NewUploader picks an uploader for the destination: HTTP PUT for URLs,
// a plain copy for filesystem paths, nil for no destination.
func NewUploader(dest string) Uploader {
	switch {
	case dest == "":
		return nil
	case strings.HasPrefix(dest, "http://"), strings.HasPrefix(dest, "https://"):
		return &HTTPUploader{Base: dest, Client: http.DefaultClient}
	default:
		return &DirUploader{Dir: dest}
	}
}

// HTTPUploader PUTs each file under a base URL, one object per file. It
// suits pre-signed object-store endpoints; transfer failures are Network
// kind so the caller retries them.
type HTTPUploader struct {
	Base   string
	Client *http.Client
}

func (u *HTTPUploader) Upload(ctx context.Context, acc Accession, paths []string) error {
	for _, path := range paths {
		if err := u.put(ctx, path); err != nil {
			return &Error{Kind: Network, Op: "upload", Accession: string(acc), Err: err}
		}
	}
	return nil
}

func (u *HTTPUploader) put(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	url := strings.TrimSuffix(u.Base, "/") + "/" + filepath.Base(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	ctxlog.FromContext(ctx).Info("uploading file",
		"source", path, "url", url, "size", stat.Size())

	resp, err := u.Client.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload %s: status %s", path, resp.Status)
	}
	return nil
}

// DirUploader copies each file into a destination directory, for
// destinations mounted into the filesystem.
type DirUploader struct {
	Dir string
}

func (u *DirUploader) Upload(ctx context.Context, acc Accession, paths []string) error {
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return &Error{Kind: IO, Op: "upload", Accession: string(acc), Err: err}
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return &Error{Kind: IO, Op: "upload", Accession: string(acc), Err: err}
		}
		if err := copyFile(path, filepath.Join(u.Dir, filepath.Base(path))); err != nil {
			return &Error{Kind: IO, Op: "upload", Accession: string(acc), Err: err}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
