package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tkessler/daybook/internal/util"
)

// Config holds user-tunable settings read from the YAML config file.
type Config struct {
	DBPath       string `yaml:"db_path"`
	ReportsDir   string `yaml:"reports_dir"`
	ShowDone     bool   `yaml:"show_done"`
	DefaultQuery string `yaml:"default_query"`
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		DBPath:     filepath.Join(util.DataDir(AppName), DBFileName),
		ReportsDir: util.ReportsDir(AppName),
	}
}

// Load reads the config file at path, falling back to defaults when the
// file is absent. An empty path resolves to the standard config location.
func Load(path string) (Config, error) {
	if path == "" {
		path = filepath.Join(util.ConfigDir(AppName), ConfigFile)
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = Default().DBPath
	}
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = Default().ReportsDir
	}
	return cfg, nil
}
