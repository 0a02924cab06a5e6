package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/matzehuels/packetflow/pkg/buildinfo"
)

func restoreBuildinfo(t *testing.T) {
	t.Helper()
	v, c, d := buildinfo.Version, buildinfo.Commit, buildinfo.Date
	t.Cleanup(func() {
		buildinfo.Version, buildinfo.Commit, buildinfo.Date = v, c, d
	})
}

func TestSetVersion(t *testing.T) {
	restoreBuildinfo(t)

	SetVersion("1.0.0", "abc123", "2024-01-01")

	if buildinfo.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q", buildinfo.Version, "1.0.0")
	}
	if buildinfo.Commit != "abc123" {
		t.Errorf("Commit = %q, want %q", buildinfo.Commit, "abc123")
	}
	if buildinfo.Date != "2024-01-01" {
		t.Errorf("Date = %q, want %q", buildinfo.Date, "2024-01-01")
	}
}

func TestSetVersionEmptyKeepsDefaults(t *testing.T) {
	restoreBuildinfo(t)
	buildinfo.Version, buildinfo.Commit, buildinfo.Date = "v0.1.0", "deadbeef", "today"

	SetVersion("", "", "")

	if buildinfo.Version != "v0.1.0" || buildinfo.Commit != "deadbeef" || buildinfo.Date != "today" {
		t.Errorf("empty SetVersion changed build info to %s", buildinfo.String())
	}
}

func TestVersionCommand(t *testing.T) {
	restoreBuildinfo(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	SetVersion("v2.3.4", "cafe", "2025-06-01")

	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}

	got := out.String()
	for _, want := range []string{"packetflow", "v2.3.4", "cafe", "2025-06-01"} {
		if !strings.Contains(got, want) {
			t.Errorf("version output %q missing %q", got, want)
		}
	}
}
