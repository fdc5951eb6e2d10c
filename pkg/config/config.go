// Package config loads taskboard settings from ~/.config/taskboard/config.yaml,
// a .env file and TASKBOARD_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/taskboard/pkg/auth"
	"github.com/harrisonrobin/taskboard/pkg/pipeline"
)

const (
	xdgAppName = "taskboard"
	configFile = "config.yaml"

	// DefaultWorksheet is the tab read when none is configured.
	DefaultWorksheet = "Tasks"
	DefaultCacheTTL  = 60 * time.Second
	DefaultAddr      = ":8080"
)

// Source kinds.
const (
	SourceSheets = "sheets"
	SourceFile   = "file"
)

type Config struct {
	Source      string          `yaml:"source"`
	Sheets      SheetsConfig    `yaml:"sheets"`
	FileDir     string          `yaml:"file_dir,omitempty"`
	Credentials auth.Options    `yaml:"credentials"`
	Cache       CacheConfig     `yaml:"cache"`
	Server      ServerConfig    `yaml:"server"`
	Logging     LoggingConfig   `yaml:"logging"`
	Schema      pipeline.Schema `yaml:"schema,omitempty"`
}

type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	WorksheetName string `yaml:"worksheet_name"`
}

type CacheConfig struct {
	TTL           string `yaml:"ttl"`
	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// TTLDuration returns the parsed cache TTL.
func (c CacheConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return DefaultCacheTTL
	}
	return d
}

// Target returns the spreadsheet tab the pipeline reads.
func (c *Config) Target() pipeline.Target {
	return pipeline.Target{SpreadsheetID: c.Sheets.SpreadsheetID, TableName: c.Sheets.WorksheetName}
}

// GetConfigPath returns ~/.config/taskboard/config.yaml.
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, configFile), nil
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the config file at path (the default location when empty),
// then applies .env and environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	// .env is optional.
	_ = godotenv.Load()

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg, nil
}

// ReadFile decodes only the config file, without overrides or defaults. It
// is what `config set-sheet` edits and saves back.
func ReadFile(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &Config{}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path (the default location when empty).
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = SourceSheets
	}
	if c.Sheets.WorksheetName == "" {
		c.Sheets.WorksheetName = DefaultWorksheet
	}
	if c.Credentials.Mode == "" {
		c.Credentials.Mode = auth.ModeServiceAccount
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = DefaultCacheTTL.String()
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Schema = c.Schema.WithDefaults()
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Source, "TASKBOARD_SOURCE")
	setString(&c.Sheets.SpreadsheetID, "TASKBOARD_SPREADSHEET_ID")
	setString(&c.Sheets.WorksheetName, "TASKBOARD_WORKSHEET")
	setString(&c.FileDir, "TASKBOARD_FILE_DIR")
	setString(&c.Credentials.Mode, "TASKBOARD_CREDENTIALS_MODE")
	setString(&c.Credentials.CredentialsFile, "TASKBOARD_CREDENTIALS_FILE")
	setString(&c.Cache.TTL, "TASKBOARD_CACHE_TTL")
	setString(&c.Cache.RedisAddr, "TASKBOARD_REDIS_ADDR")
	setString(&c.Cache.RedisPassword, "TASKBOARD_REDIS_PASSWORD")
	setString(&c.Server.Addr, "TASKBOARD_ADDR")
	setString(&c.Logging.Level, "TASKBOARD_LOG_LEVEL")
	setString(&c.Logging.Format, "TASKBOARD_LOG_FORMAT")

	if v := os.Getenv("TASKBOARD_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Cache.RedisDB = n
		}
	}
	if v := os.Getenv("TASKBOARD_SORT"); v != "" {
		c.Schema.Sort = pipeline.SortPolicy(strings.ToLower(v))
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate reports settings that would make every pipeline run fail.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceSheets:
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("sheets.spreadsheet_id is not set (use `taskboard config set-sheet <id>` or TASKBOARD_SPREADSHEET_ID)")
		}
	case SourceFile:
		if c.FileDir == "" {
			return errors.New("file_dir is required when source is \"file\"")
		}
	default:
		return fmt.Errorf("unknown source %q (want %q or %q)", c.Source, SourceSheets, SourceFile)
	}
	if !c.Schema.Sort.Valid() {
		return fmt.Errorf("unknown schema.sort %q (want %q or %q)", c.Schema.Sort, pipeline.SortByRank, pipeline.SortByDate)
	}
	if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
		return fmt.Errorf("invalid cache.ttl %q: %w", c.Cache.TTL, err)
	}
	return nil
}
