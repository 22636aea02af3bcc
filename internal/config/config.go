package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"socialtt/internal/model"
)

// MinIOConfig holds the connection settings for the profile document store.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA reference timezone for day keys and slot keys.
	// Empty means the fixed institutional zone (UTC+10, no DST).
	Timezone string `yaml:"timezone" json:"timezone"`

	// DefaultTerm is the term hint applied when an import request does not
	// name one. The planner export dialect does not self-describe its term.
	DefaultTerm string `yaml:"default_term" json:"default_term"`

	// RefreshCron is a cron-style schedule string (e.g. "0 */6 * * *") for
	// re-importing profiles that carry a saved source URL. Empty disables
	// the scheduler.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// DayStartHour / DayEndHour bound the rendered grid window in the
	// reference zone.
	DayStartHour int `yaml:"day_start_hour" json:"day_start_hour"`
	DayEndHour   int `yaml:"day_end_hour" json:"day_end_hour"`

	// CacheTTLMinutes controls the profile and fetch-body caches.
	CacheTTLMinutes int `yaml:"cache_ttl_minutes" json:"cache_ttl_minutes"`

	MinIO MinIOConfig `yaml:"minio" json:"minio"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "127.0.0.1:8080",
		Timezone:        "",
		DefaultTerm:     string(model.TermS1),
		RefreshCron:     "",
		DayStartHour:    8,
		DayEndHour:      20,
		CacheTTLMinutes: 10,
		MinIO: MinIOConfig{
			Endpoint:  "127.0.0.1:9000",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Bucket:    "social-timetable",
			UseSSL:    false,
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if _, ok := model.ParseTerm(c.DefaultTerm); !ok {
		c.DefaultTerm = def.DefaultTerm
	}
	// The zero value means "unset"; a midnight grid start is not a thing.
	if c.DayStartHour <= 0 || c.DayStartHour > 23 {
		c.DayStartHour = def.DayStartHour
	}
	if c.DayEndHour <= c.DayStartHour || c.DayEndHour > 24 {
		c.DayEndHour = def.DayEndHour
	}
	if c.CacheTTLMinutes <= 0 {
		c.CacheTTLMinutes = def.CacheTTLMinutes
	}
	if c.MinIO.Endpoint == "" {
		c.MinIO.Endpoint = def.MinIO.Endpoint
	}
	if c.MinIO.Bucket == "" {
		c.MinIO.Bucket = def.MinIO.Bucket
	}
}

// Location resolves the reference timezone. An unset Timezone yields the
// fixed institutional zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return model.ReferenceZone, nil
	}
	return time.LoadLocation(c.Timezone)
}

// CacheTTL returns the cache lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// Term returns the validated default term.
func (c *Config) Term() model.Term {
	term, ok := model.ParseTerm(c.DefaultTerm)
	if !ok {
		return model.TermS1
	}
	return term
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there (0600)
//     and returned.
//   - Otherwise the YAML is unmarshaled and normalized.
//   - Environment variables override store credentials and the listen
//     address afterwards; a .env file is honored when present.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.applyEnv()

	return &cfg, nil
}

// applyEnv overlays environment variables on top of the file config.
// Deployments keep credentials out of the YAML this way.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("SOCIALTT_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		c.MinIO.Endpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		c.MinIO.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.MinIO.SecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		c.MinIO.Bucket = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MinIO.UseSSL = b
		}
	}
}

// Save writes the configuration to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".socialtt-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
