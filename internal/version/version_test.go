package version

import (
	"runtime"
	"strings"
	"testing"
)

func withBuildInfo(t *testing.T, v, c, d string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = v, c, d
	t.Cleanup(func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	})
}

func TestGetInfo(t *testing.T) {
	withBuildInfo(t, "1.0.0", "abc123def456", "2026-01-01T12:00:00Z")

	info := GetInfo()

	if info.Version != "1.0.0" {
		t.Errorf("GetInfo().Version = %v, want 1.0.0", info.Version)
	}
	if info.Commit != "abc123def456" {
		t.Errorf("GetInfo().Commit = %v, want abc123def456", info.Commit)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GetInfo().GoVersion = %v, want %v", info.GoVersion, runtime.Version())
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("GetInfo().Platform = %v", info.Platform)
	}
}

func TestInfoString(t *testing.T) {
	withBuildInfo(t, "1.2.3", "abc123def456", "2026-01-01")

	s := GetInfo().String()
	if !strings.HasPrefix(s, "kavach 1.2.3 (abc123de)") {
		t.Errorf("String() = %q", s)
	}
}

func TestUserAgent(t *testing.T) {
	tests := []struct {
		commit string
		want   string
	}{
		{"abc123def456", "kavach/0.4.0 (abc123de; "},
		{"abc", "kavach/0.4.0 (abc; "},
	}

	for _, tt := range tests {
		withBuildInfo(t, "0.4.0", tt.commit, "unknown")
		if got := GetInfo().UserAgent(); !strings.HasPrefix(got, tt.want) {
			t.Errorf("UserAgent() = %q, want prefix %q", got, tt.want)
		}
	}
}
