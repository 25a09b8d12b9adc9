package player

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the player configuration.
type Config struct {
	// DBPath is the replay archive database. Empty disables persistence;
	// reconstruction then lives only in memory.
	DBPath string `yaml:"db_path"`

	// Thumbnail requests thumbnail-mode reconstruction from the engine.
	Thumbnail bool `yaml:"thumbnail"`

	// SnapshotLimit caps the snapshots listed per session in queries.
	SnapshotLimit int `yaml:"snapshot_limit"`
}

func (c *Config) defaults() {
	if c.SnapshotLimit <= 0 {
		c.SnapshotLimit = 100
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
