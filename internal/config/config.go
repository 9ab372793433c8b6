package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sigreer/rdisk/internal/ramdisk"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// SQLite file holding restoration records, settings and event history
	Database string `yaml:"database"`

	// Seeds the persist toggle on first launch; the stored setting wins afterwards
	PersistSetup bool `yaml:"persist_setup"`

	RestoreDebounce time.Duration `yaml:"restore_debounce"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	InfoTTL         time.Duration `yaml:"info_ttl"`

	Tools          Tools              `yaml:"tools"`
	Classification ramdisk.Classifier `yaml:"classification"`
	Log            Log                `yaml:"log"`
}

type Tools struct {
	Allocate string `yaml:"allocate"`
	Diskutil string `yaml:"diskutil"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// defaultConfig mirrors the stock macOS tool locations
var defaultConfig = Config{
	Database:        filepath.Join(os.Getenv("HOME"), "Library/Application Support/rdisk/rdisk.db"),
	PersistSetup:    false,
	RestoreDebounce: 3 * time.Second,
	PollInterval:    2 * time.Second,
	InfoTTL:         5 * time.Second,
	Tools: Tools{
		Allocate: "/usr/bin/hdid",
		Diskutil: "/usr/sbin/diskutil",
	},
	Classification: ramdisk.DefaultClassifier,
	Log: Log{
		Level:  "info",
		Format: "console",
	},
}

// Default returns a copy of the built-in configuration
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// SearchPaths lists the locations tried when no path is given
func SearchPaths() []string {
	return []string{
		"/etc/rdisk/config.yaml",
		filepath.Join(os.Getenv("HOME"), ".config/rdisk/config.yaml"),
		"config.yaml",
	}
}

func Load(path string) (*Config, error) {
	if path == "" {
		for _, c := range SearchPaths() {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	var cfg Config
	if path == "" {
		// No config file found - run on defaults
		cfg = defaultConfig
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills every zero value from defaultConfig
func (c *Config) applyDefaults() {
	if c.Database == "" {
		c.Database = defaultConfig.Database
	}
	if c.RestoreDebounce <= 0 {
		c.RestoreDebounce = defaultConfig.RestoreDebounce
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultConfig.PollInterval
	}
	if c.InfoTTL <= 0 {
		c.InfoTTL = defaultConfig.InfoTTL
	}
	if c.Tools.Allocate == "" {
		c.Tools.Allocate = defaultConfig.Tools.Allocate
	}
	if c.Tools.Diskutil == "" {
		c.Tools.Diskutil = defaultConfig.Tools.Diskutil
	}
	if c.Classification == (ramdisk.Classifier{}) {
		c.Classification = defaultConfig.Classification
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultConfig.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultConfig.Log.Format
	}
}
