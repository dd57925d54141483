// Package staging implements the Stager port: archive extraction into
// isolated per-request directories with traversal and resource guards.
package staging

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ericfisherdev/autoreview/internal/domain/model"
	"github.com/ericfisherdev/autoreview/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Stager = (*Stager)(nil)

// Stager extracts uploaded archives under a configured parent directory.
// Each Stage call gets its own uniquely named directory, so concurrent
// requests never share staging state.
type Stager struct {
	parent     string
	maxEntries int
	maxBytes   int64
}

// New creates a Stager that stages under parent and enforces the given
// entry-count and total-extracted-bytes limits.
func New(parent string, maxEntries int, maxBytes int64) *Stager {
	return &Stager{
		parent:     parent,
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
	}
}

// Stage extracts archive into a fresh staging directory and returns the
// staged project together with a cleanup func that removes the directory.
// The cleanup func is non-nil whenever a directory was created, including
// on error paths, and is safe to call more than once.
//
// Entries whose normalized path escapes the root fail with
// *model.PathTraversalError; exceeding the entry or byte limits fails with
// *model.ArchiveTooLargeError. Extraction stops at the first violation, so
// oversized archives are rejected before they are fully written out.
func (s *Stager) Stage(ctx context.Context, archive []byte, filename string) (*model.StagedProject, func(), error) {
	if err := os.MkdirAll(s.parent, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating staging parent: %w", err)
	}

	root := filepath.Join(s.parent, "autoreview-"+uuid.NewString())
	if err := os.Mkdir(root, 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating staging directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(root) }

	var entries []string
	var err error
	switch {
	case isZip(archive):
		entries, err = s.extractZip(ctx, archive, root)
	case isGzip(archive) || isTarName(filename):
		entries, err = s.extractTar(ctx, archive, root, isGzip(archive))
	default:
		err = &model.ValidationError{Part: "project_zip", Reason: "unsupported archive format"}
	}
	if err != nil {
		cleanup()
		return nil, cleanup, err
	}

	sort.Strings(entries)
	return &model.StagedProject{Root: root, Entries: entries}, cleanup, nil
}

func (s *Stager) extractZip(ctx context.Context, archive []byte, root string) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, &model.ValidationError{Part: "project_zip", Reason: "archive is not a valid zip"}
	}

	var entries []string
	var written int64
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() {
			continue
		}
		// Symlinks inside a zip can point anywhere; skip them.
		if f.Mode()&os.ModeSymlink != 0 {
			continue
		}

		rel, err := safeRelPath(f.Name)
		if err != nil {
			return nil, err
		}
		if len(entries) >= s.maxEntries {
			return nil, &model.ArchiveTooLargeError{Kind: "entries", Limit: int64(s.maxEntries)}
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening zip entry %q: %w", f.Name, err)
		}
		n, err := s.writeEntry(root, rel, rc, s.maxBytes-written)
		_ = rc.Close()
		written += n
		if err != nil {
			return nil, err
		}
		entries = append(entries, rel)
	}
	return entries, nil
}

func (s *Stager) extractTar(ctx context.Context, archive []byte, root string, gzipped bool) ([]string, error) {
	var r io.Reader = bytes.NewReader(archive)
	if gzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, &model.ValidationError{Part: "project_zip", Reason: "archive is not a valid tar.gz"}
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	var entries []string
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &model.ValidationError{Part: "project_zip", Reason: "archive is not a valid tar"}
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			continue
		case tar.TypeReg:
		case tar.TypeSymlink, tar.TypeLink:
			// Links can re-point subsequent entries outside the root.
			return nil, &model.PathTraversalError{Entry: hdr.Name}
		default:
			continue
		}

		rel, err := safeRelPath(hdr.Name)
		if err != nil {
			return nil, err
		}
		if len(entries) >= s.maxEntries {
			return nil, &model.ArchiveTooLargeError{Kind: "entries", Limit: int64(s.maxEntries)}
		}

		n, err := s.writeEntry(root, rel, tr, s.maxBytes-written)
		written += n
		if err != nil {
			return nil, err
		}
		entries = append(entries, rel)
	}
	return entries, nil
}

// writeEntry writes one file under root, allowing at most budget bytes.
// The reader is never trusted to honor its declared size.
func (s *Stager) writeEntry(root, rel string, r io.Reader, budget int64) (int64, error) {
	if budget <= 0 {
		return 0, &model.ArchiveTooLargeError{Kind: "bytes", Limit: s.maxBytes}
	}

	dst := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("creating entry directory: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("creating entry %q: %w", rel, err)
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(r, budget+1))
	if err != nil {
		return n, fmt.Errorf("writing entry %q: %w", rel, err)
	}
	if n > budget {
		return n, &model.ArchiveTooLargeError{Kind: "bytes", Limit: s.maxBytes}
	}
	return n, nil
}

// safeRelPath normalizes an archive entry name and rejects anything that
// would resolve outside the staging root.
func safeRelPath(name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == "." || cleaned == "" {
		return "", &model.PathTraversalError{Entry: name}
	}
	if filepath.IsAbs(cleaned) || !filepath.IsLocal(cleaned) {
		return "", &model.PathTraversalError{Entry: name}
	}
	// Reject Windows-style separators smuggled into portable archives.
	if strings.Contains(name, `\`) {
		return "", &model.PathTraversalError{Entry: name}
	}
	return filepath.ToSlash(cleaned), nil
}

// isZip matches the local-file-header signature and the end-of-central-
// directory signature, so a zip with no entries still stages (as an empty
// project) instead of being rejected as an unknown format.
func isZip(b []byte) bool {
	return bytes.HasPrefix(b, []byte("PK\x03\x04")) || bytes.HasPrefix(b, []byte("PK\x05\x06"))
}

func isGzip(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

func isTarName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".tar") ||
		strings.HasSuffix(lower, ".tar.gz") ||
		strings.HasSuffix(lower, ".tgz")
}
