package accounts

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-accounts/providers/oauth1"
)

// PlatformPack names the OAuth1 endpoints of a platform compatible with the
// three-legged flow.
type PlatformPack struct {
	Name      string
	Endpoints oauth1.Endpoints
}

// EnvironmentPack contributes named API environments to a registry config.
type EnvironmentPack struct {
	Name         string
	Environments map[string]EnvironmentConfig
}

type CommandQueryBundleFactory func(registry *Registry) (any, error)

type ExtensionHooks struct {
	mu sync.RWMutex

	platformPacks    map[string]PlatformPack
	environmentPacks map[string]EnvironmentPack
	bundles          map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		platformPacks:    map[string]PlatformPack{},
		environmentPacks: map[string]EnvironmentPack{},
		bundles:          map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterPlatformPack(pack PlatformPack) error {
	if h == nil {
		return fmt.Errorf("accounts: extension hooks are nil")
	}
	name := strings.TrimSpace(strings.ToLower(pack.Name))
	if name == "" {
		return fmt.Errorf("accounts: platform pack name is required")
	}
	if err := pack.Endpoints.Validate(); err != nil {
		return fmt.Errorf("accounts: platform pack %q: %w", name, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.platformPacks[name]; exists {
		return fmt.Errorf("accounts: platform pack %q already registered", name)
	}
	h.platformPacks[name] = PlatformPack{Name: name, Endpoints: pack.Endpoints}
	return nil
}

func (h *ExtensionHooks) RegisterEnvironmentPack(pack EnvironmentPack) error {
	if h == nil {
		return fmt.Errorf("accounts: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("accounts: environment pack name is required")
	}
	if len(pack.Environments) == 0 {
		return fmt.Errorf("accounts: environment pack %q has no environments", name)
	}
	environments := make(map[string]EnvironmentConfig, len(pack.Environments))
	for key, entry := range pack.Environments {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("accounts: environment pack %q has an unnamed environment", name)
		}
		if strings.TrimSpace(entry.HTTPEndpoint) == "" {
			return fmt.Errorf("accounts: environment %q in pack %q has no http endpoint", key, name)
		}
		environments[key] = entry
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.environmentPacks[name]; exists {
		return fmt.Errorf("accounts: environment pack %q already registered", name)
	}
	h.environmentPacks[name] = EnvironmentPack{Name: name, Environments: environments}
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(name string, factory CommandQueryBundleFactory) error {
	if h == nil {
		return fmt.Errorf("accounts: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("accounts: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("accounts: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("accounts: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// ApplyEnvironmentPacks returns a copy of cfg with every registered
// environment added. Packs are applied in name order; an environment already
// present in cfg or in an earlier pack is an error.
func (h *ExtensionHooks) ApplyEnvironmentPacks(cfg Config) (Config, error) {
	out := cfg
	out.Environments = make(map[string]EnvironmentConfig, len(cfg.Environments))
	for key, entry := range cfg.Environments {
		out.Environments[key] = entry
	}
	if h == nil {
		return out, nil
	}
	for _, pack := range h.EnvironmentPacks() {
		keys := make([]string, 0, len(pack.Environments))
		for key := range pack.Environments {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if _, exists := out.Environments[key]; exists {
				return Config{}, fmt.Errorf("accounts: environment %q from pack %q already defined", key, pack.Name)
			}
			out.Environments[key] = pack.Environments[key]
		}
	}
	return out, nil
}

func (h *ExtensionHooks) BuildCommandQueryBundles(registry *Registry) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if registry == nil {
		return nil, fmt.Errorf("accounts: registry is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		names = append(names, name)
		factories[name] = factory
	}
	h.mu.RUnlock()
	sort.Strings(names)

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](registry)
		if err != nil {
			return nil, err
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) PlatformPack(name string) (PlatformPack, bool) {
	if h == nil {
		return PlatformPack{}, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	pack, ok := h.platformPacks[strings.TrimSpace(strings.ToLower(name))]
	return pack, ok
}

func (h *ExtensionHooks) PlatformPacks() []PlatformPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.platformPacks))
	for name := range h.platformPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]PlatformPack, 0, len(names))
	for _, name := range names {
		out = append(out, h.platformPacks[name])
	}
	return out
}

func (h *ExtensionHooks) EnvironmentPacks() []EnvironmentPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.environmentPacks))
	for name := range h.environmentPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]EnvironmentPack, 0, len(names))
	for _, name := range names {
		pack := h.environmentPacks[name]
		environments := make(map[string]EnvironmentConfig, len(pack.Environments))
		for key, entry := range pack.Environments {
			environments[key] = entry
		}
		out = append(out, EnvironmentPack{Name: pack.Name, Environments: environments})
	}
	return out
}
