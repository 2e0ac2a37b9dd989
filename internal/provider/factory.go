package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"streamnova/internal/config"
	"streamnova/internal/domain"
)

// Constructor builds a backend from a config entry.
type Constructor func(pc config.ProviderConfig, logger *slog.Logger) domain.LLMBackend

// Factory creates and caches LLM backends from config.
type Factory struct {
	cfg          *config.Config
	logger       *slog.Logger
	constructors map[string]Constructor
	cache        map[string]domain.LLMBackend
	mu           sync.RWMutex
}

// NewFactory creates a backend factory with the built-in constructors registered.
func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	f := &Factory{
		cfg:          cfg,
		logger:       logger,
		constructors: make(map[string]Constructor),
		cache:        make(map[string]domain.LLMBackend),
	}
	f.registerDefaults()
	return f
}

// RegisterConstructor adds (or replaces) a backend constructor by name.
func (f *Factory) RegisterConstructor(name string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[name] = ctor
}

func (f *Factory) registerDefaults() {
	f.constructors["ollama"] = func(pc config.ProviderConfig, logger *slog.Logger) domain.LLMBackend {
		return NewOllama(OllamaConfig{APIBase: pc.APIBase, Model: pc.DefaultModel, Logger: logger})
	}

	f.constructors["openai"] = func(pc config.ProviderConfig, logger *slog.Logger) domain.LLMBackend {
		return NewOpenAI(OpenAIConfig{APIKey: pc.APIKey, APIBase: pc.APIBase, Model: pc.DefaultModel, Logger: logger})
	}

	// Groq and Gemini both expose OpenAI-compatible chat endpoints.
	f.constructors["groq"] = f.constructors["openai"]
	f.constructors["gemini"] = f.constructors["openai"]
}

// Get returns the backend with the given name, or the default if name is empty.
// Created backends are cached so the same instance is reused across calls.
// Uses double-check locking to avoid TOCTOU races.
func (f *Factory) Get(name string) (domain.LLMBackend, error) {
	if name == "" {
		name = f.cfg.General.DefaultProvider
	}

	// Fast path: read lock.
	f.mu.RLock()
	if cached, ok := f.cache[name]; ok {
		f.mu.RUnlock()
		return cached, nil
	}
	f.mu.RUnlock()

	// Slow path: write lock with double-check.
	f.mu.Lock()
	defer f.mu.Unlock()

	if cached, ok := f.cache[name]; ok {
		return cached, nil
	}

	pc, ok := f.cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	if !pc.Enabled {
		return nil, fmt.Errorf("provider %s is disabled", name)
	}

	ctor, found := f.constructors[name]

	var b domain.LLMBackend
	if found {
		b = ctor(pc, f.logger)
	} else if pc.APIBase != "" && pc.APIKey != "" {
		// Fallback: treat unknown providers as OpenAI-compatible.
		b = NewOpenAI(OpenAIConfig{APIKey: pc.APIKey, APIBase: pc.APIBase, Model: pc.DefaultModel, Logger: f.logger})
	} else {
		return nil, fmt.Errorf("provider %s: no constructor registered and no API base/key configured", name)
	}

	f.cache[name] = b
	return b, nil
}

// DefaultBackend returns the configured default backend.
func (f *Factory) DefaultBackend() (domain.LLMBackend, error) {
	return f.Get("")
}

// Chain assembles the failover chain from config. With an empty chain it
// returns the default backend alone. A chain of one skips the failover
// wrapper entirely.
func (f *Factory) Chain() (domain.LLMBackend, error) {
	names := f.cfg.General.FailoverChain
	if len(names) == 0 {
		return f.DefaultBackend()
	}

	backends := make([]domain.LLMBackend, 0, len(names))
	for _, name := range names {
		b, err := f.Get(name)
		if err != nil {
			return nil, fmt.Errorf("failover chain: %w", err)
		}
		backends = append(backends, b)
	}
	if len(backends) == 1 {
		return backends[0], nil
	}
	return NewFailover(backends, f.logger), nil
}

// HealthyBackend returns the first backend that passes a health check, or nil.
func (f *Factory) HealthyBackend(ctx context.Context) domain.LLMBackend {
	for name := range f.cfg.Providers {
		b, err := f.Get(name)
		if err != nil || b == nil {
			continue
		}
		if b.Healthy(ctx) == nil {
			return b
		}
	}
	return nil
}
