package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GridFile != "grid.txt" {
		t.Errorf("expected grid.txt, got %s", cfg.GridFile)
	}
	if cfg.CacheFile != "gen.cache/savedworld.data" {
		t.Errorf("unexpected cache path %s", cfg.CacheFile)
	}
	if cfg.Mesh.Tolerance <= 0 {
		t.Error("tolerance should be positive")
	}
	if cfg.Mesh.RefineIterations <= 0 {
		t.Error("refine iterations should be positive")
	}
	if cfg.Fit.Degree < 2 {
		t.Error("fit degree should support at least a quadratic well")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trapfield.yaml")
	contents := `grid_file: other_grid.txt
mesh:
  refine_iterations: 7
ions:
  count: 5
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.GridFile != "other_grid.txt" {
		t.Errorf("expected override, got %s", cfg.GridFile)
	}
	if cfg.Mesh.RefineIterations != 7 {
		t.Errorf("expected 7 refine iterations, got %d", cfg.Mesh.RefineIterations)
	}
	if cfg.Ions.Count != 5 {
		t.Errorf("expected 5 ions, got %d", cfg.Ions.Count)
	}
	// Untouched fields keep their defaults.
	if cfg.LayoutFile != DefaultLayoutFile {
		t.Errorf("expected default layout, got %s", cfg.LayoutFile)
	}
	if cfg.Mesh.MaxPanels != DefaultMaxPanels {
		t.Errorf("expected default panel cap, got %d", cfg.Mesh.MaxPanels)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trapfield.yaml")

	cfg := DefaultConfig()
	cfg.Ions.Count = 3
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Ions.Count != 3 {
		t.Errorf("expected 3 ions after round trip, got %d", loaded.Ions.Count)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
