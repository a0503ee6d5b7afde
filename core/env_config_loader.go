package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const DefaultEnvPrefix = "ACCOUNTS_"

// envConfig mirrors Config for environment variables. Environments are given
// as name=endpoint|version pairs separated by commas, e.g.
// ACCOUNTS_ENVIRONMENTS=production=https://api.example.com|1.1
type envConfig struct {
	ServiceName        string            `env:"SERVICE_NAME"`
	VaultService       string            `env:"VAULT_SERVICE"`
	ManagementMode     string            `env:"MANAGEMENT_MODE"`
	DefaultEnvironment string            `env:"DEFAULT_ENVIRONMENT"`
	DefaultAPIVersion  string            `env:"DEFAULT_API_VERSION"`
	Environments       map[string]string `env:"ENVIRONMENTS" envKeyValSeparator:"="`
}

// EnvConfigLoader reads prefixed environment variables into the raw config
// layer consumed by CfgxConfigProvider. Unset variables are omitted so the
// defaults layer still applies.
type EnvConfigLoader struct {
	Prefix string
	// Environ replaces the process environment when set.
	Environ map[string]string
}

func NewEnvConfigLoader() *EnvConfigLoader {
	return &EnvConfigLoader{Prefix: DefaultEnvPrefix}
}

func (l *EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	prefix := DefaultEnvPrefix
	var environ map[string]string
	if l != nil {
		if l.Prefix != "" {
			prefix = l.Prefix
		}
		environ = l.Environ
	}

	var cfg envConfig
	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      prefix,
		Environment: environ,
	}); err != nil {
		return nil, fmt.Errorf("core: parse environment config: %w", err)
	}

	raw := map[string]any{}
	putString := func(key string, value string) {
		if value = strings.TrimSpace(value); value != "" {
			raw[key] = value
		}
	}
	putString("service_name", cfg.ServiceName)
	putString("vault_service", cfg.VaultService)
	putString("management_mode", cfg.ManagementMode)
	putString("default_environment", cfg.DefaultEnvironment)
	putString("default_api_version", cfg.DefaultAPIVersion)

	if len(cfg.Environments) > 0 {
		environments := make(map[string]any, len(cfg.Environments))
		for name, value := range cfg.Environments {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			endpoint, version, _ := strings.Cut(value, "|")
			environments[name] = map[string]any{
				"http_endpoint": strings.TrimSpace(endpoint),
				"api_version":   strings.TrimSpace(version),
			}
		}
		raw["environments"] = environments
	}
	return raw, nil
}
