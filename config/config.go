// Package config loads the naf configuration from defaults, an optional
// config file and NAF_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/revelaction/naf/engine"
	"github.com/revelaction/naf/naf"
	"github.com/revelaction/naf/pipeline"
)

// Config holds all configuration of naf.
type Config struct {
	Engine     string              `mapstructure:"engine"`
	Model      string              `mapstructure:"model"`
	Lang       string              `mapstructure:"lang"`
	NAFVersion string              `mapstructure:"naf_version"`
	Layers     []string            `mapstructure:"layers"`
	PosMapping bool                `mapstructure:"pos_mapping"`
	Validate   string              `mapstructure:"validate"`
	Commands   map[string][]string `mapstructure:"commands"`
	Log        LogConfig           `mapstructure:"log"`
	Batch      BatchConfig         `mapstructure:"batch"`
	Store      StoreConfig         `mapstructure:"store"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BatchConfig holds the batch driver configuration
type BatchConfig struct {
	Workers int `mapstructure:"workers"`
}

// StoreConfig holds the document store configuration
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads the configuration. An empty path looks for naf.yaml (or
// naf.toml, naf.json) in the working directory and in $HOME/.config/naf;
// a missing file there is not an error. An explicit path must exist.
// Environment variables such as NAF_LANG or NAF_LOG_LEVEL override the
// file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("naf")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/naf")
	}

	v.SetEnvPrefix("NAF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine", string(engine.Spacy))
	v.SetDefault("model", "")
	v.SetDefault("lang", "en")
	v.SetDefault("naf_version", naf.DefaultVersion)
	v.SetDefault("layers", []string{})
	v.SetDefault("pos_mapping", false)
	v.SetDefault("validate", pipeline.ValidateNone)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("batch.workers", 4)
	v.SetDefault("store.path", "naf.db")
}

// Pipeline returns the pipeline configuration.
func (c *Config) Pipeline() pipeline.Config {
	pc := pipeline.Config{
		Engine:     engine.Name(c.Engine),
		Language:   c.Lang,
		Model:      c.Model,
		Version:    c.NAFVersion,
		PosMapping: c.PosMapping,
		Validation: c.Validate,
	}
	for _, l := range c.Layers {
		pc.Layers = append(pc.Layers, naf.Layer(l))
	}
	if len(c.Commands) > 0 {
		pc.Commands = make(map[engine.Name][]string, len(c.Commands))
		for name, cmd := range c.Commands {
			pc.Commands[engine.Name(name)] = cmd
		}
	}
	return pc
}
