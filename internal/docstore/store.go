// Package docstore handles all label document I/O: decoding base64 PDF
// payloads to files, page-level merging, public URL resolution and
// best-effort cleanup. The store is stateless apart from its configured
// working directory.
package docstore

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/moshipping/labelbridge/pkg/carrier"
)

const storeName = "docstore"

// Riyadh is the reference timezone for generated artifact names, so that
// names sort the same regardless of where the service runs.
var riyadh = loadRiyadh()

func loadRiyadh() *time.Location {
	if loc, err := time.LoadLocation("Asia/Riyadh"); err == nil {
		return loc
	}
	return time.FixedZone("AST", 3*60*60)
}

// Store is the filesystem-backed document store. All artifacts live under
// Dir and are publicly reachable under BaseURL.
type Store struct {
	dir     string
	baseURL string
	logger  *otelzap.Logger
}

// New creates a Store rooted at dir. The directory is created if missing.
func New(dir, baseURL string, logger *otelzap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, carrier.NewError(storeName, carrier.KindIO, "cannot create working directory").WithCause(err)
	}

	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}, nil
}

// Dir returns the working directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// DecodeAndSave decodes a base64 PDF payload and writes it under the
// working directory. No file is created when the decode fails.
func (s *Store) DecodeAndSave(payload, filename string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", carrier.NewError(storeName, carrier.KindDecode, "invalid base64 payload").WithCause(err)
	}

	path := filepath.Join(s.dir, SanitizeFileName(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", carrier.NewError(storeName, carrier.KindIO, "cannot write "+filepath.Base(path)).WithCause(err)
	}

	return path, nil
}

// Merge copies every page of every input into outputPath, in input order,
// all pages of inputs[0] before inputs[1], preserving page size and
// orientation. Inputs that do not exist are skipped rather than failing
// the merge. On a structural failure the partial output is discarded.
func (s *Store) Merge(inputs []string, outputPath string) error {
	existing := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if _, err := os.Stat(in); err != nil {
			s.logger.Warn("Skipping missing merge input", zap.String("path", in))
			continue
		}
		existing = append(existing, in)
	}

	if len(existing) == 0 {
		return carrier.NewError(storeName, carrier.KindMerge, "no input documents to merge")
	}

	if err := api.MergeCreateFile(existing, outputPath, false, nil); err != nil {
		os.Remove(outputPath)
		return carrier.NewError(storeName, carrier.KindMerge, "document merge failed").WithCause(err)
	}

	return nil
}

// PageCount reports the number of pages in a PDF under the store.
func (s *Store) PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, carrier.NewError(storeName, carrier.KindMerge, "cannot read page count").WithCause(err)
	}
	return n, nil
}

// ResolveURL maps a path inside the working directory to its public URL.
func (s *Store) ResolveURL(path string) (string, error) {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", carrier.NewError(storeName, carrier.KindNotFound, "path outside working directory")
	}
	return s.baseURL + "/" + filepath.ToSlash(rel), nil
}

// Cleanup deletes every path that exists. Deletion is best-effort and
// idempotent: already-deleted paths count as success, and a failed
// deletion is logged but never stops the remaining paths.
func (s *Store) Cleanup(paths []string) bool {
	ok := true
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to delete artifact", zap.String("path", p), zap.Error(err))
			ok = false
		}
	}
	return ok
}

// GenerateName produces a collision-resistant artifact name from a prefix
// and a second-resolution timestamp in the Riyadh reference timezone.
func (s *Store) GenerateName(prefix, ext string) string {
	if ext == "" {
		ext = "pdf"
	}
	ts := time.Now().In(riyadh).Format("2006-01-02-15-04-05")
	return prefix + "-" + ts + "." + ext
}

// SanitizeFileName strips directory components and replaces characters
// that are unsafe in filenames.
func SanitizeFileName(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		out = "artifact.pdf"
	}
	return out
}
