package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestGet_Injected(t *testing.T) {
	oldVersion, oldCommit, oldTime := Version, Commit, BuildTime
	t.Cleanup(func() { Version, Commit, BuildTime = oldVersion, oldCommit, oldTime })

	Version, Commit, BuildTime = "v1.2.3", "abc123", "2026-01-02T03:04:05Z"

	info := Get()
	if info.Version != "v1.2.3" || info.Commit != "abc123" || info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("ldflags values not reported: %+v", info)
	}
}

func TestFillFromVCS(t *testing.T) {
	info := Info{Commit: "unknown", BuildTime: "unknown"}
	fillFromVCS(&info, []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2026-10-01T00:00:00Z"},
		{Key: "GOOS", Value: "linux"},
	})

	if info.Commit != "0123456789ab" {
		t.Errorf("Commit = %q, want short revision", info.Commit)
	}
	if info.BuildTime != "2026-10-01T00:00:00Z" {
		t.Errorf("BuildTime = %q", info.BuildTime)
	}

	injected := Info{Commit: "release", BuildTime: "today"}
	fillFromVCS(&injected, []debug.BuildSetting{{Key: "vcs.revision", Value: "zzz"}})
	if injected.Commit != "release" || injected.BuildTime != "today" {
		t.Errorf("VCS stamp overrode injected values: %+v", injected)
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, Version+" (") {
		t.Errorf("String() = %q, want version prefix", s)
	}
	if !strings.Contains(s, runtime.Version()) {
		t.Errorf("String() = %q, want Go version", s)
	}
}
