// Package config loads server settings from an optional YAML file and
// LIFEMATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/lifemate/internal/geo"
)

type Config struct {
	Port           string   `yaml:"port"`
	DBPath         string   `yaml:"db_path"`
	LogLevel       string   `yaml:"log_level"`
	LogFormat      string   `yaml:"log_format"`
	Timezone       string   `yaml:"timezone"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	Gemini    GeminiConfig    `yaml:"gemini"`
	Notify    NotifyConfig    `yaml:"notify"`
	Push      PushConfig      `yaml:"push"`
	Backup    BackupConfig    `yaml:"backup"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Location is used for weather and market rates when a request carries
	// no coordinates.
	Location *geo.Point `yaml:"location"`
}

type GeminiConfig struct {
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type NotifyConfig struct {
	Interval time.Duration `yaml:"interval"`
	// Retention is how long the notification log is kept.
	Retention time.Duration `yaml:"retention"`
}

type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subscriber      string `yaml:"subscriber"`
}

type BackupConfig struct {
	Passphrase string `yaml:"passphrase"`
	Endpoint   string `yaml:"endpoint"`
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Prefix     string `yaml:"prefix"`

	// Interval between scheduled backups; zero disables the schedule.
	Interval  time.Duration `yaml:"interval"`
	Retention time.Duration `yaml:"retention"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:      "8080",
		DBPath:    "lifemate.db",
		LogLevel:  "info",
		LogFormat: "text",
		Timezone:  "Local",
		Gemini: GeminiConfig{
			Model:    "gemini-2.5-flash",
			CacheTTL: 30 * time.Minute,
		},
		Notify: NotifyConfig{
			Interval:  30 * time.Second,
			Retention: 30 * 24 * time.Hour,
		},
		Push: PushConfig{
			Subscriber: "mailto:noreply@lifemate.app",
		},
		Backup: BackupConfig{
			Region:    "auto",
			Prefix:    "lifemate",
			Interval:  24 * time.Hour,
			Retention: 30 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Requests: 20,
			Window:   time.Minute,
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup("LIFEMATE_" + key); ok {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup("LIFEMATE_" + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("LIFEMATE_%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("PORT", &c.Port)
	str("DB_PATH", &c.DBPath)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("TIMEZONE", &c.Timezone)
	if v, ok := lookup("LIFEMATE_ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}

	str("GEMINI_API_KEY", &c.Gemini.APIKey)
	str("GEMINI_MODEL", &c.Gemini.Model)
	dur("CACHE_TTL", &c.Gemini.CacheTTL)
	dur("REMINDER_INTERVAL", &c.Notify.Interval)
	dur("NOTIFICATION_RETENTION", &c.Notify.Retention)

	str("VAPID_PUBLIC_KEY", &c.Push.VAPIDPublicKey)
	str("VAPID_PRIVATE_KEY", &c.Push.VAPIDPrivateKey)
	str("VAPID_SUBSCRIBER", &c.Push.Subscriber)

	str("BACKUP_PASSPHRASE", &c.Backup.Passphrase)
	str("S3_ENDPOINT", &c.Backup.Endpoint)
	str("S3_BUCKET", &c.Backup.Bucket)
	str("S3_REGION", &c.Backup.Region)
	str("S3_ACCESS_KEY", &c.Backup.AccessKey)
	str("S3_SECRET_KEY", &c.Backup.SecretKey)
	str("S3_PREFIX", &c.Backup.Prefix)
	dur("BACKUP_INTERVAL", &c.Backup.Interval)
	dur("BACKUP_RETENTION", &c.Backup.Retention)

	if v, ok := lookup("LIFEMATE_RATE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LIFEMATE_RATE_LIMIT: %w", err))
		} else {
			c.RateLimit.Requests = n
		}
	}
	dur("RATE_LIMIT_WINDOW", &c.RateLimit.Window)

	lat, latOK := lookup("LIFEMATE_DEFAULT_LAT")
	lon, lonOK := lookup("LIFEMATE_DEFAULT_LON")
	if latOK || lonOK {
		p, err := parsePoint(lat, lon)
		if err != nil {
			errs = append(errs, fmt.Errorf("LIFEMATE_DEFAULT_LAT/LON: %w", err))
		} else {
			c.Location = &p
		}
	}

	return errors.Join(errs...)
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if _, err := c.Zone(); err != nil {
		errs = append(errs, err)
	}
	if c.Location != nil && !c.Location.Valid() {
		errs = append(errs, fmt.Errorf("location %s is out of range", c.Location))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit requests and window must be positive"))
	}
	return errors.Join(errs...)
}

// Zone returns the time zone reminders and daily notifications use.
func (c Config) Zone() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// BackupEnabled reports whether S3 backups are configured.
func (c Config) BackupEnabled() bool {
	b := c.Backup
	return b.Bucket != "" && b.AccessKey != "" && b.SecretKey != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePoint(lat, lon string) (geo.Point, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("parse latitude: %w", err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("parse longitude: %w", err)
	}
	return geo.Point{Lat: la, Lon: lo}, nil
}
