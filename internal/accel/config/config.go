// Package config holds the accelerator subsystem's configuration surface,
// loadable from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BVHConfig mirrors the accelerator.bvh.* YAML keys.
type BVHConfig struct {
	TreeType      int     `yaml:"treetype"`
	CostSamples   int     `yaml:"costsamples"`
	IsectCost     float64 `yaml:"isectcost"`
	TraversalCost float64 `yaml:"traversalcost"`
	EmptyBonus    float64 `yaml:"emptybonus"`
}

// QBVHConfig mirrors the accelerator.qbvh.* YAML keys. StackSizeMax is
// accepted and round-trips through Save/Load but is not wired into
// qbvh.Params: the traversal stack is a fixed-size array sized to match
// the default, not a runtime-configurable depth.
type QBVHConfig struct {
	StackSizeMax int `yaml:"stacksize_max"`
}

// AcceleratorConfig mirrors the accelerator.* YAML keys.
type AcceleratorConfig struct {
	Type string     `yaml:"type"`
	BVH  BVHConfig  `yaml:"bvh"`
	QBVH QBVHConfig `yaml:"qbvh"`
}

// OpenCLConfig mirrors the opencl.* YAML keys.
type OpenCLConfig struct {
	TaskCount         int   `yaml:"task_count"`
	MemoryMaxPageSize int64 `yaml:"memory_maxpagesize"`
}

// Config is the accelerator subsystem's full YAML-loadable configuration.
type Config struct {
	Accelerator AcceleratorConfig `yaml:"accelerator"`
	OpenCL      OpenCLConfig      `yaml:"opencl"`
}

// DefaultConfig returns the subsystem's default configuration, matching
// bvh.DefaultParams/qbvh.DefaultParams.
func DefaultConfig() Config {
	return Config{
		Accelerator: AcceleratorConfig{
			Type: "BVH",
			BVH: BVHConfig{
				TreeType:      4,
				CostSamples:   0,
				IsectCost:     80,
				TraversalCost: 1,
				EmptyBonus:    0.5,
			},
			QBVH: QBVHConfig{
				StackSizeMax: 64,
			},
		},
		OpenCL: OpenCLConfig{
			TaskCount:         65536,
			MemoryMaxPageSize: 256 << 20,
		},
	}
}

// Load reads and parses a YAML configuration file, starting from
// DefaultConfig so any keys the file omits keep their default value.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
