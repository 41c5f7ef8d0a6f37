package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func stubBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
	t.Cleanup(func() { readBuildInfo = orig })
}

func TestGet_Ldflags(t *testing.T) {
	orig := Version
	Version = "1.2.3"
	t.Cleanup(func() { Version = orig })
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "v9.9.9"}})

	if got := Get().Version; got != "1.2.3" {
		t.Errorf("Version = %q, ldflags should win", got)
	}
}

func TestGet_BuildInfoFallback(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-10-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	info := Get()
	if info.Version != "0.4.0" || info.Commit != "abc123" || info.BuildDate != "2026-10-01T10:00:00Z" || !info.Dirty {
		t.Errorf("unexpected info: %+v", info)
	}
	if String() != "0.4.0-dirty" {
		t.Errorf("String() = %q", String())
	}
}

func TestGet_DevelBuild(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})

	if got := Get().Version; got != "dev" {
		t.Errorf("Version = %q", got)
	}
}

func TestFull(t *testing.T) {
	stubBuildInfo(t, nil)

	out := Full()
	if !strings.HasPrefix(out, "storepage dev\n") {
		t.Errorf("unexpected header in %q", out)
	}
	for _, label := range []string{"Commit:", "Built:", "Go version:", "OS/Arch:"} {
		if !strings.Contains(out, label) {
			t.Errorf("missing %s in %q", label, out)
		}
	}
}
