package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Accelerator.Type != "BVH" {
		t.Errorf("default accelerator type = %q, want BVH", cfg.Accelerator.Type)
	}
	if cfg.Accelerator.BVH.TreeType != 4 {
		t.Errorf("default tree type = %d, want 4", cfg.Accelerator.BVH.TreeType)
	}
	if cfg.OpenCL.TaskCount <= 0 {
		t.Error("default task count should be positive")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Accelerator.Type = "QBVH"
	cfg.Accelerator.BVH.IsectCost = 120
	cfg.OpenCL.TaskCount = 1024

	path := filepath.Join(t.TempDir(), "accel.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("loaded config = %+v, want %+v", got, cfg)
	}
}

func TestLoadFillsOmittedKeysFromDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	content := []byte("accelerator:\n  type: MQBVH\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write test fixture: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Accelerator.Type != "MQBVH" {
		t.Errorf("Accelerator.Type = %q, want MQBVH", got.Accelerator.Type)
	}
	if got.Accelerator.BVH.TreeType != DefaultConfig().Accelerator.BVH.TreeType {
		t.Error("omitted bvh.treetype should keep its default value")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected an error loading a nonexistent file")
	}
}
