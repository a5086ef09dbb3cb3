// Package config loads the layered application configuration:
// embedded defaults, then ~/.config/popctl/config.toml, then POPCTL_*
// environment variables, highest layer winning.
package config

import (
	_ "embed"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/popctl/pkg/errors"
	"github.com/arthur-debert/popctl/pkg/paths"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// envPrefix namespaces the environment override layer.
const envPrefix = "POPCTL_CFG_"

// Config is the unmarshalled application configuration.
type Config struct {
	Defaults   DefaultsConfig   `koanf:"defaults"`
	Filesystem FilesystemConfig `koanf:"filesystem"`
	Advisor    AdvisorConfig    `koanf:"advisor"`
}

// DefaultsConfig tunes apply/sync behavior.
type DefaultsConfig struct {
	Purge   bool `koanf:"purge"`
	Confirm bool `koanf:"confirm"`
}

// FilesystemConfig tunes the orphan scanner.
type FilesystemConfig struct {
	IncludeEtc bool `koanf:"include_etc"`
	Files      bool `koanf:"files"`
}

// AdvisorConfig selects and bounds the external AI agent.
type AdvisorConfig struct {
	Provider       string `koanf:"provider"`
	Model          string `koanf:"model"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

// Advisor providers and their default models.
const (
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

var defaultModels = map[string]string{
	ProviderClaude: "sonnet",
	ProviderGemini: "gemini-2.5-pro",
}

// EffectiveModel returns the configured model, falling back to the
// provider default.
func (a AdvisorConfig) EffectiveModel() string {
	if a.Model != "" {
		return a.Model
	}
	return defaultModels[a.Provider]
}

// Default returns the built-in configuration with no file or
// environment layers applied. The embedded defaults are maintained to
// always validate.
func Default() *Config {
	return &Config{
		Defaults:   DefaultsConfig{Purge: false, Confirm: true},
		Filesystem: FilesystemConfig{IncludeEtc: false, Files: false},
		Advisor:    AdvisorConfig{Provider: ProviderClaude, TimeoutSeconds: 600},
	}
}

// Load builds the configuration from all layers.
func Load(p paths.Paths) (*Config, error) {
	return LoadFromFile(p.ConfigFile())
}

// LoadFromFile builds the configuration with an explicit user config
// path; a missing file is not an error, the defaults simply stand.
func LoadFromFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot load built-in defaults")
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot load config from %s", configPath)
		}
	}

	// POPCTL_CFG_ADVISOR_PROVIDER=gemini → advisor.provider
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(key, "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot load environment overrides")
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigInvalid, "cannot unmarshal configuration")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Advisor.Provider {
	case ProviderClaude, ProviderGemini:
	default:
		return errors.Newf(errors.ErrConfigInvalid,
			"unknown advisor provider %q (want claude or gemini)", c.Advisor.Provider)
	}
	if c.Advisor.TimeoutSeconds < 60 || c.Advisor.TimeoutSeconds > 3600 {
		return errors.Newf(errors.ErrConfigInvalid,
			"advisor timeout must be between 60 and 3600 seconds, got %d", c.Advisor.TimeoutSeconds)
	}
	return nil
}
