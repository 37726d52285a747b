// Package config resolves jusbot's settings from flags, environment variables
// and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mwiater/jusbot/internal/models"
	"github.com/spf13/viper"
)

// DefaultSystemInstruction is the persona sent with every prompt.
const DefaultSystemInstruction = "You are a legal advisor named Jusbot, the name is derived from the latin word Jus which means law. " +
	"You have been developed by Usman Habib, Danyal Ahmad, Maaz Ahmad and Hizru to make the world a better place and contribute to the SDGs. " +
	"You are very unhinged and chill and reply with casual language, using a sarcastic and fun tone."

// Guidance tells the operator how to supply a credential.
const Guidance = `Please set your Gemini API key:
  export GEMINI_API_KEY='your_api_key_here'
or put api_key in jusbot.yaml, or pass it through JUSBOT_API_KEY.`

// Config keys, shared by flags, env vars and config files.
const (
	KeyProvider          = "provider"
	KeyAPIKey            = "api_key"
	KeyBaseURL           = "base_url"
	KeyModel             = "model"
	KeyFastModel         = "fast_model"
	KeyCapableModel      = "capable_model"
	KeySystemInstruction = "system_instruction"
	KeyTimeout           = "timeout"
	KeyDebug             = "debug"
	KeyLogFile           = "log_file"
)

// Config contains the resolved application settings.
type Config struct {
	// Provider selects the backend: "gemini", "openai" or "ollama".
	Provider string `mapstructure:"provider" json:"provider"`
	// APIKey is the provider credential.
	APIKey string `mapstructure:"api_key" json:"api_key"`
	// BaseURL overrides the provider endpoint, e.g. "http://localhost:11434".
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// Model is the starting model: "fast", "capable" or a catalog identifier.
	Model string `mapstructure:"model" json:"model"`
	// Catalog holds the fast and capable model identifiers.
	Catalog models.Catalog `mapstructure:",squash" json:"catalog"`
	// SystemInstruction is the persona text sent with every prompt.
	SystemInstruction string `mapstructure:"system_instruction" json:"system_instruction"`
	// Timeout bounds each provider call.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
	// Debug writes diagnostics to LogFile and shows response metadata.
	Debug bool `mapstructure:"debug" json:"debug"`
	// LogFile receives log output when Debug is set.
	LogFile string `mapstructure:"log_file" json:"log_file"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyProvider, "gemini")
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyModel, "fast")
	v.SetDefault(KeyFastModel, string(models.DefaultFast))
	v.SetDefault(KeyCapableModel, string(models.DefaultCapable))
	v.SetDefault(KeySystemInstruction, DefaultSystemInstruction)
	v.SetDefault(KeyTimeout, 60*time.Second)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyLogFile, "debug.log")
}

// bindEnv maps config keys to environment variables. The API key falls back
// from JUSBOT_API_KEY to GEMINI_API_KEY to API_KEY.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("JUSBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v.BindEnv(KeyAPIKey, "JUSBOT_API_KEY", "GEMINI_API_KEY", "API_KEY")
}

// Load resolves the configuration held by v. If path is set the file must
// exist; otherwise jusbot.{yaml,json,toml} is looked up in the working
// directory and $HOME/.config/jusbot, and a missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("could not bind environment: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	} else {
		v.SetConfigName("jusbot")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "jusbot"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("could not parse config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that do not depend on the provider.
func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		return errors.New("provider must be set")
	}
	if c.Catalog.Fast == "" || c.Catalog.Capable == "" {
		return errors.New("fast_model and capable_model must both be set")
	}
	if _, err := c.Catalog.Resolve(c.Model); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// StartModel returns the model a new loop starts with.
func (c *Config) StartModel() models.Model {
	m, err := c.Catalog.Resolve(c.Model)
	if err != nil {
		return c.Catalog.Fast
	}
	return m
}

// Redacted returns a copy safe to print, with the credential masked.
func (c *Config) Redacted() Config {
	r := *c
	r.APIKey = MaskKey(r.APIKey)
	return r
}

// MaskKey hides all but the last four characters of a credential.
func MaskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 4:
		return strings.Repeat("*", len(key))
	default:
		return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
	}
}
