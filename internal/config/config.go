// Package config loads runtime settings from flags, IMPLANTA_* environment
// variables, an optional .env file and an optional implanta.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = "implanta"
	envPrefix  = "IMPLANTA"
)

type Config struct {
	DB        DBConfig        `mapstructure:"db"`
	Log       LogConfig       `mapstructure:"log"`
	Actor     string          `mapstructure:"actor" validate:"required"`
	Templates TemplatesConfig `mapstructure:"templates"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type TemplatesConfig struct {
	Dir string `mapstructure:"dir"`
}

// Options controls where Load looks. Zero values mean the defaults: .env and
// implanta.yaml in the working directory or $HOME/.implanta.
type Options struct {
	ConfigFile string
	EnvFile    string
	Home       string
	Flags      *pflag.FlagSet
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"actor":         "actor",
	"log-level":     "log.level",
	"db-driver":     "db.driver",
	"db-dsn":        "db.dsn",
	"templates-dir": "templates.dir",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load resolves the configuration. Precedence, highest first: flags that were
// set, environment, config file, defaults.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	home := opts.Home
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("actor", os.Getenv("USER"))
	v.SetDefault("templates.dir", "templates")

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding --%s: %w", name, err)
				}
			}
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home != "" {
			v.AddConfigPath(filepath.Join(home, ".implanta"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Actor = strings.TrimSpace(cfg.Actor)
	if cfg.DB.DSN == "" && cfg.DB.Driver == "sqlite" && home != "" {
		cfg.DB.DSN = filepath.Join(home, ".implanta", "implanta.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid field by its config key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid config: %s: failed %q rule (got %q)", keyFor(fe.Namespace()), fe.Tag(), fmt.Sprint(fe.Value()))
	}
	return fmt.Errorf("invalid config: %w", err)
}

// keyFor turns a validator namespace such as "Config.DB.DSN" into "db.dsn".
func keyFor(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}

// SlogLevel maps Log.Level to a slog level; unknown values fall back to warn.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// RegisterFlags adds the persistent flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default ./implanta.yaml or ~/.implanta/implanta.yaml)")
	fs.String("actor", "", "name recorded in history entries (default $USER)")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.String("db-driver", "", "database driver: sqlite or postgres")
	fs.String("db-dsn", "", "database path (sqlite) or connection string (postgres)")
	fs.String("templates-dir", "", "directory scanned by template import --all")
}
