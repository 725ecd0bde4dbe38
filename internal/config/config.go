// Package config holds the run configuration for trapfield: file locations,
// mesh parameters and analysis settings, loadable from a YAML file with CLI
// flags layered on top.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultGridFile    = "grid.txt"
	DefaultLayoutFile  = "layout.dxf"
	DefaultCacheFile   = "gen.cache/savedworld.data"
	DefaultFieldPrefix = "field"
	DefaultFieldSuffix = ".txt"

	DefaultTolerance = 1e-5
	DefaultMaxPanels = 2048
	DefaultRefine    = 100

	DefaultFitDegree = 4
	DefaultIons      = 2
	DefaultCoulomb   = 1.0
)

type Config struct {
	GridFile    string `yaml:"grid_file"`
	LayoutFile  string `yaml:"layout_file"`
	CacheFile   string `yaml:"cache_file"`
	FieldPrefix string `yaml:"field_prefix"`
	FieldSuffix string `yaml:"field_suffix"`

	Mesh MeshConfig `yaml:"mesh"`
	Fit  FitConfig  `yaml:"fit"`
	Ions IonConfig  `yaml:"ions"`
}

type MeshConfig struct {
	Tolerance        float64    `yaml:"tolerance"`
	MaxPanels        int        `yaml:"max_panels"`
	RefineIterations int        `yaml:"refine_iterations"`
	NormalRef        [3]float64 `yaml:"normal_ref"`
}

type FitConfig struct {
	Degree int `yaml:"degree"`
}

type IonConfig struct {
	Count   int     `yaml:"count"`
	Coulomb float64 `yaml:"coulomb"`
}

func DefaultConfig() *Config {
	return &Config{
		GridFile:    DefaultGridFile,
		LayoutFile:  DefaultLayoutFile,
		CacheFile:   DefaultCacheFile,
		FieldPrefix: DefaultFieldPrefix,
		FieldSuffix: DefaultFieldSuffix,
		Mesh: MeshConfig{
			Tolerance:        DefaultTolerance,
			MaxPanels:        DefaultMaxPanels,
			RefineIterations: DefaultRefine,
		},
		Fit: FitConfig{
			Degree: DefaultFitDegree,
		},
		Ions: IonConfig{
			Count:   DefaultIons,
			Coulomb: DefaultCoulomb,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
