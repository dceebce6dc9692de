package release

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

// ParseVersion parses release tags like "1.2.3", "v1.2" and "1.3.0-beta.2".
// A missing patch component is read as zero.
func ParseVersion(s string) (*version.Version, error) {
	v, err := version.NewVersion(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid version format %q: %w", s, err)
	}
	return v, nil
}

// Normalize strips a leading "v".
func Normalize(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "v")
}
