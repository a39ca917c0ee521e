package sysconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rhdl.cfg")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesScalarFields(t *testing.T) {
	path := writeTemp(t, `
# a comment line
ram = 2M
program = firmware.bin
programaddr = 0x1000
disk = disk.img
loglevel = DEBUG
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RAMSize != 2*1024*1024 {
		t.Errorf("RAMSize = %d, want 2M", cfg.RAMSize)
	}
	if cfg.ProgramPath != "firmware.bin" {
		t.Errorf("ProgramPath = %q", cfg.ProgramPath)
	}
	if cfg.ProgramAddr != 0x1000 {
		t.Errorf("ProgramAddr = %#x, want 0x1000", cfg.ProgramAddr)
	}
	if cfg.DiskPath != "disk.img" {
		t.Errorf("DiskPath = %q", cfg.DiskPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeTemp(t, "bogus = 1\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.cfg")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefaultRAMSize(t *testing.T) {
	cfg := Default()
	if cfg.RAMSize != 16*1024*1024 {
		t.Errorf("Default RAMSize = %d, want 16M", cfg.RAMSize)
	}
}
