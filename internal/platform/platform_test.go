package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDetect(t *testing.T) {
	h := Detect()
	if h.OS != runtime.GOOS || h.Arch != runtime.GOARCH {
		t.Errorf("Detect() = %+v, want %s/%s", h, runtime.GOOS, runtime.GOARCH)
	}
	if got, want := h.String(), runtime.GOOS+"/"+runtime.GOARCH; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestHostCanRegister(t *testing.T) {
	tests := []struct {
		host Host
		want bool
	}{
		{Host{OS: "windows", Arch: "amd64"}, true},
		{Host{OS: "windows", Arch: "arm64"}, true},
		{Host{OS: "linux", Arch: "amd64"}, false},
		{Host{OS: "darwin", Arch: "arm64"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.host.String(), func(t *testing.T) {
			if got := tt.host.CanRegister(); got != tt.want {
				t.Errorf("CanRegister() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	locs, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if locs.LocalAppData == "" {
		t.Error("LocalAppData should not be empty")
	}
	if locs.Temp == "" {
		t.Error("Temp should not be empty")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if !Exists(dir) {
		t.Error("Exists(dir) should be true")
	}
	if Exists(file) {
		t.Error("Exists(file) should be false")
	}
	if Exists(filepath.Join(dir, "missing")) {
		t.Error("Exists(missing) should be false")
	}
	if Exists("") {
		t.Error("Exists(\"\") should be false")
	}
}
