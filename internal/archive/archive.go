// Package archive expands zip payloads into a destination directory.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/tecnobros/battly-setup/internal/progress"
	"github.com/tecnobros/battly-setup/internal/types"
)

const (
	// DefaultBaseline and DefaultSpan map extraction onto the overall
	// install progress: 0.6 .. 0.9.
	DefaultBaseline = 0.6
	DefaultSpan     = 0.3

	// DefaultEvery is the number of entries between progress reports.
	DefaultEvery = 10
)

// ErrUnsafePath is recorded for entries whose name would resolve outside
// the destination directory.
var ErrUnsafePath = errors.New("entry path escapes destination")

// Options controls progress reporting. The zero value reports nothing.
type Options struct {
	Progress progress.Updater
	Baseline float64
	Span     float64
	Every    int
}

// DefaultOptions reports into the 0.6 .. 0.9 range every 10 entries.
func DefaultOptions(up progress.Updater) Options {
	return Options{
		Progress: up,
		Baseline: DefaultBaseline,
		Span:     DefaultSpan,
		Every:    DefaultEvery,
	}
}

// SkippedEntry is an entry that was not written.
type SkippedEntry struct {
	Name   string `json:"name" yaml:"name"`
	Reason string `json:"reason" yaml:"reason"`
}

// Result summarizes an expansion. Paths are relative to the destination.
type Result struct {
	Files   []string       `json:"files" yaml:"files"`
	Dirs    []string       `json:"dirs" yaml:"dirs"`
	Skipped []SkippedEntry `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// ExpandFile expands the zip archive at path into dest.
func ExpandFile(ctx context.Context, path, dest string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Warnf("failed to close archive %s: %v", path, cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	return Expand(ctx, f, info.Size(), dest, opts)
}

// Expand extracts every entry of the archive into dest. Entries whose name
// escapes dest are skipped and recorded; every other entry is written,
// overwriting existing files. A malformed archive, an unreadable entry or
// a failed write aborts the expansion.
func Expand(ctx context.Context, r io.ReaderAt, size int64, dest string, opts Options) (*Result, error) {
	up := opts.Progress
	if up == nil {
		up = progress.Nop
	}
	every := opts.Every
	if every <= 0 {
		every = DefaultEvery
	}

	zr, err := zip.NewReader(r, size)
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && zr != nil) {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	root, err := filepath.Abs(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve destination: %w", err)
	}

	up.Report(opts.Baseline, types.StatusExtracting, "")

	result := &Result{}
	total := len(zr.File)

	for i, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := extractEntry(f, root, result); err != nil {
			return result, err
		}

		if n := i + 1; n%every == 0 || n == total {
			up.Report(opts.Baseline+opts.Span*float64(n)/float64(total), types.StatusInstalling, "")
		}
	}

	log.Infof("extracted %d files and %d directories to %s (%d skipped)",
		len(result.Files), len(result.Dirs), root, len(result.Skipped))
	return result, nil
}

func extractEntry(f *zip.File, root string, result *Result) error {
	target, err := Resolve(root, f.Name)
	if err != nil {
		log.Warnf("skipping archive entry %q: %v", f.Name, err)
		result.Skipped = append(result.Skipped, SkippedEntry{Name: f.Name, Reason: err.Error()})
		return nil
	}
	rel, _ := filepath.Rel(root, target)

	mode := f.Mode()
	switch {
	case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
		if err := os.MkdirAll(target, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", rel, err)
		}
		result.Dirs = append(result.Dirs, rel)
		return nil
	case mode&os.ModeSymlink != 0:
		log.Warnf("skipping symlink archive entry %q", f.Name)
		result.Skipped = append(result.Skipped, SkippedEntry{Name: f.Name, Reason: "symbolic link"})
		return nil
	}

	if target == root {
		result.Skipped = append(result.Skipped, SkippedEntry{Name: f.Name, Reason: ErrUnsafePath.Error()})
		return nil
	}

	if err := writeFile(f, target); err != nil {
		return err
	}
	result.Files = append(result.Files, rel)
	return nil
}

// Resolve returns the path an entry name maps to under root, or
// ErrUnsafePath if it would land outside root. Both separators are
// accepted in name.
func Resolve(root, name string) (string, error) {
	clean := strings.TrimRight(strings.ReplaceAll(name, `\`, "/"), "/")
	if clean == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnsafePath)
	}

	local := filepath.FromSlash(clean)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}

	target := filepath.Join(root, local)
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func writeFile(f *zip.File, target string) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", f.Name, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
	}
	defer func() { _ = src.Close() }()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", f.Name, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", f.Name, cerr)
		}
	}()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.Name, err)
	}
	return nil
}
