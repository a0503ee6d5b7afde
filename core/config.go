package core

import (
	"fmt"
	"strings"
)

type ManagementMode string

const (
	ManagementModeSingle   ManagementMode = "single"
	ManagementModeMultiple ManagementMode = "multiple"
)

const (
	DefaultVaultService       = "com.goliatone.accounts.credentials"
	DefaultEnvironmentName    = "production"
	DefaultAPIVersionFallback = "1.1"
)

type EnvironmentConfig struct {
	HTTPEndpoint string `koanf:"http_endpoint" mapstructure:"http_endpoint"`
	APIVersion   string `koanf:"api_version" mapstructure:"api_version"`
}

type Config struct {
	ServiceName        string                       `koanf:"service_name" mapstructure:"service_name"`
	VaultService       string                       `koanf:"vault_service" mapstructure:"vault_service"`
	ManagementMode     ManagementMode               `koanf:"management_mode" mapstructure:"management_mode"`
	DefaultEnvironment string                       `koanf:"default_environment" mapstructure:"default_environment"`
	DefaultAPIVersion  string                       `koanf:"default_api_version" mapstructure:"default_api_version"`
	Environments       map[string]EnvironmentConfig `koanf:"environments" mapstructure:"environments"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:        "accounts",
		VaultService:       DefaultVaultService,
		ManagementMode:     ManagementModeMultiple,
		DefaultEnvironment: DefaultEnvironmentName,
		DefaultAPIVersion:  DefaultAPIVersionFallback,
		Environments: map[string]EnvironmentConfig{
			DefaultEnvironmentName: {
				HTTPEndpoint: "https://api.twitter.com",
				APIVersion:   DefaultAPIVersionFallback,
			},
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.VaultService) == "" {
		return fmt.Errorf("core: vault_service is required")
	}
	switch c.ManagementMode {
	case ManagementModeSingle, ManagementModeMultiple:
	default:
		return fmt.Errorf("core: management_mode %q is invalid", c.ManagementMode)
	}
	if strings.TrimSpace(c.DefaultEnvironment) == "" {
		return fmt.Errorf("core: default_environment is required")
	}
	return nil
}

// Endpoint resolves the environment table entry for environment, falling
// back to DefaultEnvironment for empty or unknown names.
func (c Config) Endpoint(environment string) (EnvironmentConfig, bool) {
	if entry, ok := c.Environments[environment]; ok && environment != "" {
		return entry, true
	}
	entry, ok := c.Environments[c.DefaultEnvironment]
	return entry, ok
}
