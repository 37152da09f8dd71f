package parser

import (
	"fmt"

	"marksheet/internal/config"
	"marksheet/internal/port"
)

// ProviderFactory is a function that creates a ModelInvoker from a provider config.
type ProviderFactory func(cfg *config.ModelProviderConfig) (port.ModelInvoker, error)

// registry of model provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a model provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewInvoker creates a ModelInvoker from a provider config using the registered factory.
func NewInvoker(cfg *config.ModelProviderConfig) (port.ModelInvoker, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewInvokerChain builds one invoker per config. A single config yields that
// provider directly; several are wrapped in a FailoverInvoker in the given order.
func NewInvokerChain(cfgs []*config.ModelProviderConfig) (port.ModelInvoker, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("no model provider configured")
	}

	invokers := make([]port.ModelInvoker, 0, len(cfgs))
	names := make([]string, 0, len(cfgs))
	for _, cfg := range cfgs {
		inv, err := NewInvoker(cfg)
		if err != nil {
			return nil, err
		}
		invokers = append(invokers, inv)
		names = append(names, cfg.Provider)
	}

	if len(invokers) == 1 {
		return invokers[0], nil
	}
	return NewFailoverInvoker(invokers, names), nil
}
