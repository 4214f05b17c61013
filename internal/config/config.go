package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Voice   VoiceConfig   `mapstructure:"voice"`
	Storage StorageConfig `mapstructure:"storage"`
	Render  RenderConfig  `mapstructure:"render"`
	Log     LogConfig     `mapstructure:"log"`
}

// APIConfig points at the remote Damon service
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// VoiceConfig holds speech settings. An empty command disables the capability.
type VoiceConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Pitch       float64  `mapstructure:"pitch"`
	Rate        float64  `mapstructure:"rate"`
	Synthesizer []string `mapstructure:"synthesizer"`
	Recognizer  []string `mapstructure:"recognizer"`
}

// StorageConfig locates the durable client-side state
type StorageConfig struct {
	Path string `mapstructure:"path"`
	Key  string `mapstructure:"key"`
}

// RenderConfig tunes the background animation
type RenderConfig struct {
	FPS       int `mapstructure:"fps"`
	Particles int `mapstructure:"particles"`
}

// LogConfig holds the logger configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"base-url":  "api.base_url",
	"log-level": "log.level",
	"db":        "storage.path",
}

func setDefaults(v *viper.Viper) {
	home := homeDir()
	v.SetDefault("api.base_url", "https://damonai.onrender.com")
	v.SetDefault("api.timeout", "60s")
	v.SetDefault("voice.enabled", true)
	v.SetDefault("voice.pitch", 0.6)
	v.SetDefault("voice.rate", 0.9)
	v.SetDefault("voice.synthesizer", []string{"espeak"})
	v.SetDefault("voice.recognizer", []string{})
	v.SetDefault("storage.path", filepath.Join(home, "damon.db"))
	v.SetDefault("storage.key", "damon_files")
	v.SetDefault("render.fps", 30)
	v.SetDefault("render.particles", 700)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(home, "damon.log"))
}

// homeDir is the per-user directory holding config, database and logs.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".damon"
	}
	return filepath.Join(home, ".damon")
}

// Load reads config.yaml from $CONFIG_PATH, the working directory or ~/.damon,
// then applies DAMON_* environment variables and any flags that were set.
// A missing config file is not an error.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(homeDir())
	}

	v.SetEnvPrefix("damon")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.API.BaseURL = strings.TrimRight(config.API.BaseURL, "/")
	config.Storage.Path = expandHome(config.Storage.Path)
	config.Log.File = expandHome(config.Log.File)

	return &config, nil
}

// expandHome resolves a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
