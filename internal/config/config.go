package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/autoclean-cli/internal/normalize"
)

const dirName = ".autoclean"

// Global configuration structure.
type Global struct {
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat     string `mapstructure:"log_format" yaml:"log_format"`
	Workers       int    `mapstructure:"workers" yaml:"workers"`
	OutputDir     string `mapstructure:"output_dir" yaml:"output_dir"`
	DefaultPolicy string `mapstructure:"default_policy" yaml:"default_policy"`
	// Encoding of CSV input; empty means UTF-8.
	Encoding    string `mapstructure:"encoding" yaml:"encoding"`
	MaxRows     int    `mapstructure:"max_rows" yaml:"max_rows"`
	ProfilesDir string `mapstructure:"profiles_dir" yaml:"profiles_dir"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{"log_level", "log_format", "workers", "output_dir", "default_policy", "encoding", "max_rows", "profiles_dir"}

// LogConfig selects the zap logger flavor.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Log returns the logging part of the configuration.
func (c *Global) Log() LogConfig {
	return LogConfig{Level: c.LogLevel, Format: c.LogFormat}
}

// Get returns a key's current value as text.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "workers":
		return cast.ToString(c.Workers), nil
	case "output_dir":
		return c.OutputDir, nil
	case "default_policy":
		return c.DefaultPolicy, nil
	case "encoding":
		return c.Encoding, nil
	case "max_rows":
		return cast.ToString(c.MaxRows), nil
	case "profiles_dir":
		return c.ProfilesDir, nil
	}
	return "", eris.Errorf("unknown key: %s", key)
}

// Set validates and assigns one key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "log_level":
		if _, err := zapcore.ParseLevel(val); err != nil {
			return eris.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		switch strings.ToLower(val) {
		case "json", "console":
			c.LogFormat = strings.ToLower(val)
		default:
			return eris.Errorf("invalid log_format: %s (use json or console)", val)
		}
	case "workers":
		i, err := cast.ToIntE(val)
		if err != nil || i < 0 {
			return eris.Errorf("invalid int for workers: %v", val)
		}
		c.Workers = i
	case "output_dir":
		c.OutputDir = val
	case "default_policy":
		p, err := normalize.ParsePolicy(val)
		if err != nil {
			return err
		}
		c.DefaultPolicy = string(p)
	case "encoding":
		c.Encoding = val
	case "max_rows":
		i, err := cast.ToIntE(val)
		if err != nil || i < 0 {
			return eris.Errorf("invalid int for max_rows: %v", val)
		}
		c.MaxRows = i
	case "profiles_dir":
		c.ProfilesDir = val
	default:
		return eris.Errorf("unknown key: %s", key)
	}
	return nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.autoclean/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := homeDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "mkdir config dir")
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "marshal yaml")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return eris.Wrap(err, "write config")
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("AUTOCLEAN")
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("workers", 1)
	v.SetDefault("output_dir", ".")
	v.SetDefault("default_policy", string(normalize.DefaultPolicy))
	v.SetDefault("encoding", "")
	v.SetDefault("max_rows", 0)
	v.SetDefault("profiles_dir", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, eris.Wrap(err, "unmarshal config")
	}
	if c.ProfilesDir == "" {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		c.ProfilesDir = filepath.Join(dir, "profiles")
	}
	return &c, nil
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "resolve home dir")
	}
	return filepath.Join(home, dirName), nil
}

// InitLogger builds the process logger and installs it as zap's global.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	lvl := cfg.Level
	if lvl == "" {
		lvl = "info"
	}
	level, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
