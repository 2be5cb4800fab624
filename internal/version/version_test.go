package version_test

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"lumen/internal/version"
)

func TestColoredKeepsDigits(t *testing.T) {
	color.NoColor = true
	if got := version.Colored(); got != version.Version {
		t.Errorf("Colored() = %q without color, want %q", got, version.Version)
	}
}

func TestInfoString(t *testing.T) {
	orig := version.GitCommit
	defer func() { version.GitCommit = orig }()
	version.GitCommit = "abc123def4567890"

	s := version.Current().String()
	if !strings.HasPrefix(s, "lumen "+version.Version) || !strings.Contains(s, "(abc123def456") {
		t.Errorf("String() = %q", s)
	}
	if strings.Contains(s, "7890") {
		t.Errorf("commit not shortened: %q", s)
	}
}
