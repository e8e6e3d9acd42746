package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

// DefaultConfigFile is read from the working directory when --config is
// not given.
const DefaultConfigFile = "dynir.toml"

// Config is the dynir.toml file.
//
//	db = "catalog.db"
//	dialects = ["dialects/", "extra/toy.dyn"]
//	verbose = false
type Config struct {
	DB       string   `toml:"db"`
	Dialects []string `toml:"dialects"`
	Verbose  bool     `toml:"verbose"`
}

// LoadConfig reads a TOML config file. Relative paths are resolved
// against the file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	base := filepath.Dir(path)
	if cfg.DB != "" && cfg.DB != ":memory:" {
		cfg.DB = resolvePath(base, cfg.DB)
	}
	for i, d := range cfg.Dialects {
		cfg.Dialects[i] = resolvePath(base, d)
	}
	return &cfg, nil
}

func resolvePath(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
