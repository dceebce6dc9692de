//go:build !windows

package registrar

import (
	"errors"
	"testing"
)

func TestUnsupportedPrimitives(t *testing.T) {
	if err := NewRegistry().Write(Record{Key: "x"}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Write() error = %v, want ErrUnsupported", err)
	}
	if _, err := NewRegistry().Read("x"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Read() error = %v, want ErrUnsupported", err)
	}
	if err := NewShortcuts().Create(Link{Path: "x.lnk"}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Create() error = %v, want ErrUnsupported", err)
	}
	if err := NewShortcuts().Remove("does-not-exist.lnk"); err != nil {
		t.Errorf("Remove() of a missing file error = %v", err)
	}
}
