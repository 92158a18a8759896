package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): unexpected error: %v", err)
	}
	if cfg.Physics.BoxSize <= 0 {
		t.Errorf("BoxSize = %v, want > 0", cfg.Physics.BoxSize)
	}
	if cfg.Pool.MaxParticles <= 0 {
		t.Errorf("MaxParticles = %v, want > 0", cfg.Pool.MaxParticles)
	}
	if len(cfg.Substances) == 0 {
		t.Errorf("expected at least one default substance")
	}
}

func TestLoadMergesOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	override := []byte("physics:\n  box_size: 99.0\n")
	if err := os.WriteFile(path, override, 0644); err != nil {
		t.Fatalf("writing override file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q): unexpected error: %v", path, err)
	}
	if cfg.Physics.BoxSize != 99.0 {
		t.Errorf("BoxSize = %v, want 99.0", cfg.Physics.BoxSize)
	}
	// Fields absent from the override should retain the embedded default.
	if cfg.Pool.MaxParticles <= 0 {
		t.Errorf("MaxParticles = %v, want the embedded default to survive a partial override", cfg.Pool.MaxParticles)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/does-not-exist.yaml")
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	clone := cfg.Clone()
	clone.Substances[0].Label = "mutated"
	if cfg.Substances[0].Label == "mutated" {
		t.Error("Clone should deep-copy the Substances slice")
	}
}

func TestMustInitAndCfg(t *testing.T) {
	MustInit("")
	if Cfg().Physics.BoxSize <= 0 {
		t.Errorf("Cfg().Physics.BoxSize = %v, want > 0", Cfg().Physics.BoxSize)
	}
}

func TestWriteYAMLRoundTrips(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: unexpected error: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load(written file): unexpected error: %v", err)
	}
	if reloaded.Physics.BoxSize != cfg.Physics.BoxSize {
		t.Errorf("round-tripped BoxSize = %v, want %v", reloaded.Physics.BoxSize, cfg.Physics.BoxSize)
	}
}
