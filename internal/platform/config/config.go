package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Provider ProviderConfig `koanf:"provider"`
	Auth     AuthConfig     `koanf:"auth"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig controls the Prometheus listener. An empty Addr serves
// /metrics on the API listener.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

type ProviderConfig struct {
	Region     string `koanf:"region"`
	UserPoolID string `koanf:"userpoolid"`
	ClientID   string `koanf:"clientid"`
	Endpoint   string `koanf:"endpoint"`
}

type AuthConfig struct {
	AdminSecret   string `koanf:"adminsecret"`
	RegularSecret string `koanf:"regularsecret"`
}

// legacyEnv maps the variable names used by earlier deployments to config
// keys. AUTHGATE_* variables take precedence.
var legacyEnv = map[string]string{
	"AWS_REGION":           "provider.region",
	"COGNITO_USER_POOL_ID": "provider.userpoolid",
	"COGNITO_CLIENT_ID":    "provider.clientid",
	"SECRET_KEY":           "auth.adminsecret",
	"JWT_SECRET_KEY":       "auth.regularsecret",
}

func Load(configPaths ...string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	_ = k.Load(confmap.Provider(map[string]any{
		"server.port":     8080,
		"server.host":     "0.0.0.0",
		"log.level":       "info",
		"log.format":      "json",
		"provider.region": "us-east-1",
	}, "."), nil)

	// YAML file (optional)
	for _, path := range configPaths {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// Config file is optional, skip if not found
			continue
		}
	}

	_ = k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		name, ok := legacyEnv[key]
		if !ok || value == "" {
			return "", nil
		}
		return name, value
	}), nil)

	// Environment variables override everything; empty values are ignored.
	// AUTHGATE_PROVIDER_USERPOOLID -> provider.userpoolid
	_ = k.Load(env.ProviderWithValue("AUTHGATE_", ".", func(key, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(key, "AUTHGATE_")),
			"_", ".",
		), value
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Missing lists the required settings that are unset.
func (c *Config) Missing() []string {
	var missing []string
	if c.Auth.AdminSecret == "" {
		missing = append(missing, "auth.adminsecret")
	}
	if c.Auth.RegularSecret == "" {
		missing = append(missing, "auth.regularsecret")
	}
	if c.Provider.UserPoolID == "" {
		missing = append(missing, "provider.userpoolid")
	}
	if c.Provider.ClientID == "" {
		missing = append(missing, "provider.clientid")
	}
	return missing
}
