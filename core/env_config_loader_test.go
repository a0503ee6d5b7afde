package core

import (
	"context"
	"testing"
)

func TestEnvConfigLoader_ReadsPrefixedVariables(t *testing.T) {
	loader := &EnvConfigLoader{
		Prefix: "TEST_ACCOUNTS_",
		Environ: map[string]string{
			"TEST_ACCOUNTS_SERVICE_NAME":    "env-accounts",
			"TEST_ACCOUNTS_MANAGEMENT_MODE": "single",
			"TEST_ACCOUNTS_ENVIRONMENTS":    "staging=https://staging.example.com|2,production=https://api.example.com|1.1",
			"ACCOUNTS_VAULT_SERVICE":        "ignored",
		},
	}
	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	if raw["service_name"] != "env-accounts" || raw["management_mode"] != "single" {
		t.Fatalf("unexpected raw config %+v", raw)
	}
	if _, ok := raw["vault_service"]; ok {
		t.Fatalf("unprefixed variables must be ignored")
	}
	environments, ok := raw["environments"].(map[string]any)
	if !ok {
		t.Fatalf("expected environments map, got %T", raw["environments"])
	}
	staging, ok := environments["staging"].(map[string]any)
	if !ok || staging["http_endpoint"] != "https://staging.example.com" || staging["api_version"] != "2" {
		t.Fatalf("unexpected staging entry %+v", environments["staging"])
	}
}

func TestEnvConfigLoader_FeedsCfgxProvider(t *testing.T) {
	loader := &EnvConfigLoader{
		Environ: map[string]string{
			"ACCOUNTS_DEFAULT_API_VERSION": "2",
		},
	}
	cfg, err := NewCfgxConfigProvider(loader).Load(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultAPIVersion != "2" {
		t.Fatalf("expected env default api version, got %q", cfg.DefaultAPIVersion)
	}
	if cfg.ServiceName != "accounts" {
		t.Fatalf("expected defaults to survive, got %q", cfg.ServiceName)
	}
}

func TestEnvConfigLoader_EmptyEnvironmentYieldsEmptyLayer(t *testing.T) {
	raw, err := (&EnvConfigLoader{Environ: map[string]string{}}).LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	if len(raw) != 0 {
		t.Fatalf("expected empty layer, got %+v", raw)
	}
}
