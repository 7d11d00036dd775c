package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadVersionFile_FillsDefaultsOnly(t *testing.T) {
	origVersion, origBuild, origCommit := Version, Build, GitCommit
	t.Cleanup(func() { Version, Build, GitCommit = origVersion, origBuild, origCommit })

	Version, Build, GitCommit = "dev", "unknown", "abc1234"

	path := filepath.Join(t.TempDir(), ".version")
	content := "# release metadata\nversion: 1.4.0\nbuild: 2026-10-01T08:00:00Z\ncommit: ffff000\nmalformed line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	loadVersionFile(path)

	if Version != "1.4.0" {
		t.Errorf("Version = %q, want 1.4.0", Version)
	}
	if Build != "2026-10-01T08:00:00Z" {
		t.Errorf("Build = %q, want file value", Build)
	}
	if GitCommit != "abc1234" {
		t.Errorf("GitCommit = %q, ldflags value should win", GitCommit)
	}

	info := GetVersionInfo()
	if info.Version != "1.4.0" || info.Commit != "abc1234" {
		t.Errorf("GetVersionInfo() = %+v", info)
	}
}

func TestLoadVersionFile_Missing(t *testing.T) {
	origVersion := Version
	t.Cleanup(func() { Version = origVersion })

	Version = "dev"
	loadVersionFile(filepath.Join(t.TempDir(), "nope"))
	if Version != "dev" {
		t.Errorf("Version = %q, want dev", Version)
	}
}
