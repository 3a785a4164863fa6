package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dhocker/iex-localc/internal/ratelimit"
)

const (
	// FileName is the name of the JSON configuration file.
	FileName = "iex.conf"
	// CacheFileName is the default name of the durable cache database.
	CacheFileName = "iexcache.db"
	// EnvPrefix prefixes environment overrides, e.g. IEX_LOGLEVEL.
	EnvPrefix = "IEX"

	DefaultLogLevel    = "info"
	DefaultCacheDriver = "sqlite3"
	DefaultBaseURL     = "https://api.iextrading.com/1.0"
	DefaultListen      = "127.0.0.1:8086"
	DefaultRateLimit   = float64(ratelimit.DefaultIEXLimit)
	DefaultRetries     = 0
	DefaultTimeout     = 10 * time.Second
)

// Config holds all configuration for the IEX add-in.
type Config struct {
	LogLevel    string        `mapstructure:"loglevel"`
	CacheDB     string        `mapstructure:"cachedb"`
	CacheDriver string        `mapstructure:"cachedriver"`
	BaseURL     string        `mapstructure:"base_url"`
	Token       string        `mapstructure:"token"`
	Listen      string        `mapstructure:"listen"`
	RateLimit   float64       `mapstructure:"ratelimit"`
	Retries     int           `mapstructure:"retries"`
	Timeout     time.Duration `mapstructure:"timeout"`

	// File is the configuration file that was read or created.
	File string `mapstructure:"-"`
	// Created is set when File did not exist and was written with defaults.
	Created bool `mapstructure:"-"`
}

// Options controls where Load looks for configuration.
type Options struct {
	// File overrides the configuration file path.
	File string
	// EnvFile is a dotenv file loaded before the environment is read.
	// Defaults to ".env"; a missing file is ignored.
	EnvFile string
	// Flags, when set, are bound to the matching keys. Only flags the user
	// actually set take precedence over the file and environment.
	Flags *pflag.FlagSet
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"loglevel":    "loglevel",
	"cachedb":     "cachedb",
	"cachedriver": "cachedriver",
	"base-url":    "base_url",
	"token":       "token",
	"listen":      "listen",
	"ratelimit":   "ratelimit",
	"retries":     "retries",
	"timeout":     "timeout",
}

// DefaultDir returns the per-user directory holding the configuration file
// and the cache database.
func DefaultDir() string {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, "libreoffice", "iex")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, "libreoffice", "iex")
}

// DefaultFile returns the default configuration file path.
func DefaultFile() string {
	return filepath.Join(DefaultDir(), FileName)
}

// Load reads configuration from the JSON file, the environment and flags.
// Precedence, highest first: flags set by the user, IEX_ environment
// variables (including those from the dotenv file), the file, defaults.
//
// When the file does not exist it is created, readable by the user only,
// holding the default log level and cache database path.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	file := opts.File
	if file == "" {
		file = DefaultFile()
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetConfigFile(file)

	v.SetDefault("loglevel", DefaultLogLevel)
	v.SetDefault("cachedb", filepath.Join(filepath.Dir(file), CacheFileName))
	v.SetDefault("cachedriver", DefaultCacheDriver)
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("token", "")
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("ratelimit", DefaultRateLimit)
	v.SetDefault("retries", DefaultRetries)
	v.SetDefault("timeout", DefaultTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	created := false
	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		if err := writeDefaults(file, v); err != nil {
			return nil, err
		}
		created = true
	} else if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.CacheDB = expandPath(config.CacheDB)
	config.File = file
	config.Created = created

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// writeDefaults creates file with the default log level and cache path.
func writeDefaults(file string, v *viper.Viper) error {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(file), err)
	}

	w := viper.New()
	w.SetConfigType("json")
	w.Set("loglevel", DefaultLogLevel)
	w.Set("cachedb", filepath.Join(filepath.Dir(file), CacheFileName))
	if err := w.WriteConfigAs(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	if err := os.Chmod(file, 0o600); err != nil {
		return fmt.Errorf("failed to restrict %s: %w", file, err)
	}
	return nil
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return os.ExpandEnv(p)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var problems []string
	if c.BaseURL == "" {
		problems = append(problems, "base_url is empty")
	}
	if c.RateLimit <= 0 {
		problems = append(problems, "ratelimit must be positive")
	}
	if c.Retries < 0 {
		problems = append(problems, "retries must not be negative")
	}
	if c.Timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
	}
	return nil
}

// RegisterFlags adds the configuration flags to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("loglevel", DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("cachedb", "", "path of the durable cache database")
	flags.String("cachedriver", DefaultCacheDriver, "database/sql driver for the cache (sqlite3 or sqlite)")
	flags.String("base-url", DefaultBaseURL, "IEX API base URL")
	flags.String("token", "", "IEX API token")
	flags.String("listen", DefaultListen, "address the add-in server listens on")
	flags.Float64("ratelimit", DefaultRateLimit, "upstream requests per second")
	flags.Int("retries", DefaultRetries, "retries for failed upstream requests")
	flags.Duration("timeout", DefaultTimeout, "upstream request timeout")
}
