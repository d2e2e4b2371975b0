package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbbrowse"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbconn"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/table"
)

const (
	configFilename = "ddb.yaml"

	defaultPort    = 3070
	defaultDataDir = ".ddb/data"
)

// Config holds settings shared by every ddb command.
// Loaded from ddb.yaml if present, then overridden by the environment and
// by flags.
type Config struct {
	Region          string `yaml:"region"`
	Profile         string `yaml:"profile"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	SessionToken    string `yaml:"sessionToken"`

	// Port is the HTTP port for the browser API.
	Port int `yaml:"port"`
	// ScanLimit is the default number of records per scan.
	ScanLimit int `yaml:"scanLimit"`

	// DataDir is where BadgerDB stores local tables for --local, seed and
	// snapshot.
	DataDir string `yaml:"dataDir"`
	// Tables declares local tables so seed files can create them.
	Tables []table.TableDefinition `yaml:"tables"`
}

func defaultConfig() Config {
	return Config{
		Region:    ddbconn.DefaultRegion,
		Port:      defaultPort,
		ScanLimit: ddbbrowse.DefaultScanLimit,
		DataDir:   defaultDataDir,
	}
}

// LoadConfig reads the config file at path. With an empty path it searches
// for ddb.yaml starting from dir and walking up to the filesystem root;
// defaults are returned if none is found. The second result is the file
// that was read, if any.
func LoadConfig(path, dir string) (Config, string, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile(dir)
		if path == "" {
			return cfg, "", nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, "", fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, "", fmt.Errorf("parse %s: %w", path, err)
	}

	// Relative data directories are relative to the config file.
	if cfg.DataDir != "" && !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(filepath.Dir(path), cfg.DataDir)
	}
	return cfg, path, nil
}

// findConfigFile searches for ddb.yaml walking up from dir.
func findConfigFile(dir string) string {
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return ""
		}
	}

	for {
		path := filepath.Join(dir, configFilename)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// applyEnv overrides cfg with the standard AWS variables and DDB_ENDPOINT.
func (c *Config) applyEnv(getenv func(string) string) {
	for env, field := range map[string]*string{
		"AWS_REGION":            &c.Region,
		"AWS_PROFILE":           &c.Profile,
		"AWS_ACCESS_KEY_ID":     &c.AccessKeyID,
		"AWS_SECRET_ACCESS_KEY": &c.SecretAccessKey,
		"AWS_SESSION_TOKEN":     &c.SessionToken,
		"DDB_ENDPOINT":          &c.Endpoint,
	} {
		if v := getenv(env); v != "" {
			*field = v
		}
	}
}

func (c Config) validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.ScanLimit < 1 || c.ScanLimit > ddbbrowse.MaxScanLimit {
		errs = append(errs, fmt.Errorf("scanLimit must be between 1 and %d", ddbbrowse.MaxScanLimit))
	}
	for _, def := range c.Tables {
		if err := def.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c Config) connOptions() ddbconn.Options {
	return ddbconn.Options{
		Region:          c.Region,
		Profile:         c.Profile,
		Endpoint:        c.Endpoint,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
	}
}

// tableDefinition returns the configured definition of name.
func (c Config) tableDefinition(name string) (table.TableDefinition, bool) {
	for _, def := range c.Tables {
		if def.Name == name {
			return def, true
		}
	}
	return table.TableDefinition{}, false
}
