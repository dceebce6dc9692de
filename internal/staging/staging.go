// Package staging tracks the scratch files the installer leaves in the temp
// directory and prunes stale ones.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// PayloadPattern names the staged payload archive.
	PayloadPattern = "battly-payload-*.zip"
	// HelperPattern names copies of the deferred-deletion helper.
	HelperPattern = "battly-cleanup-*.exe"

	// DefaultMaxAge is how old a scratch file must be before it is pruned.
	DefaultMaxAge = time.Hour
)

// HelperName returns the file name of a helper copy.
func HelperName(id string) string {
	return strings.Replace(HelperPattern, "*", id, 1)
}

// File is a scratch file found in the temp directory.
type File struct {
	Path    string    `json:"path" yaml:"path"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	Size    int64     `json:"size" yaml:"size"`
}

// Manager lists and prunes scratch files in one directory.
type Manager struct {
	dir      string
	patterns []string
	now      func() time.Time
}

// NewManager creates a manager for dir covering the payload and helper
// patterns.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:      dir,
		patterns: []string{PayloadPattern, HelperPattern},
		now:      time.Now,
	}
}

// List returns the scratch files sorted by modification time, newest first.
func (m *Manager) List() ([]File, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []File{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", m.dir, err)
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() || !m.matches(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, File{
			Path:    filepath.Join(m.dir, entry.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

func (m *Manager) matches(name string) bool {
	for _, p := range m.patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// PruneResult contains information about what was pruned.
type PruneResult struct {
	Deleted []File
	Kept    int
}

// Prune removes scratch files older than maxAge. Files that cannot be
// removed, typically a helper that is still running, are kept.
func (m *Manager) Prune(maxAge time.Duration) (*PruneResult, error) {
	if maxAge < 0 {
		return nil, fmt.Errorf("max age must be non-negative")
	}

	files, err := m.List()
	if err != nil {
		return nil, err
	}

	result := &PruneResult{}
	cutoff := m.now().Add(-maxAge)

	for _, f := range files {
		if f.ModTime.After(cutoff) {
			result.Kept++
			continue
		}
		if err := os.Remove(f.Path); err != nil {
			log.Debugf("keeping %s: %v", f.Path, err)
			result.Kept++
			continue
		}
		result.Deleted = append(result.Deleted, f)
	}

	if len(result.Deleted) > 0 {
		log.Infof("pruned %d stale file(s) from %s", len(result.Deleted), m.dir)
	}
	return result, nil
}
