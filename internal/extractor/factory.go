// Package extractor turns analysed document text into per-category fields
// with a generative AI provider.
package extractor

import (
	"fmt"
	"sync"

	"fleetdocs/internal/config"
	"fleetdocs/internal/domain"
	"fleetdocs/internal/port"
)

// ProviderFactory creates a GenerativeBackend from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.GenerativeBackend, error)

var (
	providersMu sync.RWMutex
	providers   = map[string]ProviderFactory{}
)

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = factory
}

// NewBackend creates a GenerativeBackend from a provider config using the
// registered factory. Missing provider or credentials fail with
// domain.ErrAIConfigMissing.
func NewBackend(cfg *config.ProviderConfig) (port.GenerativeBackend, error) {
	if cfg == nil || cfg.Provider == "" {
		return nil, fmt.Errorf("%w: no extraction provider set", domain.ErrAIConfigMissing)
	}
	providersMu.RLock()
	factory, ok := providers[cfg.Provider]
	providersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown extraction provider %q", domain.ErrAIConfigMissing, cfg.Provider)
	}
	return factory(cfg)
}

// NewBackendFromConfig builds the primary backend and, when a secondary is
// configured, wraps both in a FallbackBackend.
func NewBackendFromConfig(cfg *config.ExtractorConfig) (port.GenerativeBackend, error) {
	primaryCfg := cfg.PrimaryConfig()
	primary, err := NewBackend(primaryCfg)
	if err != nil {
		return nil, fmt.Errorf("primary extraction provider: %w", err)
	}

	secondaryCfg := cfg.SecondaryConfig()
	if secondaryCfg == nil {
		return primary, nil
	}
	secondary, err := NewBackend(secondaryCfg)
	if err != nil {
		return nil, fmt.Errorf("secondary extraction provider: %w", err)
	}
	return NewFallbackBackend(
		[]port.GenerativeBackend{primary, secondary},
		[]string{primaryCfg.Provider, secondaryCfg.Provider},
	), nil
}

// RequireKey fails with domain.ErrAIConfigMissing when the selected API key is empty.
func RequireKey(cfg *config.ProviderConfig) error {
	if cfg.Key() == "" {
		return fmt.Errorf("%w: %s api key is empty", domain.ErrAIConfigMissing, cfg.Provider)
	}
	return nil
}
