package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"streamnova/internal/domain"
)

// Failover tries multiple backends in order, falling back to the next one
// when the current fails.
type Failover struct {
	backends []domain.LLMBackend
	logger   *slog.Logger
}

// NewFailover creates a failover chain. At least one backend is required.
func NewFailover(backends []domain.LLMBackend, logger *slog.Logger) *Failover {
	return &Failover{backends: backends, logger: logger}
}

func (f *Failover) Name() string {
	names := make([]string, len(f.backends))
	for i, b := range f.backends {
		names[i] = b.Name()
	}
	return "failover(" + strings.Join(names, ",") + ")"
}

func (f *Failover) Healthy(ctx context.Context) error {
	for _, b := range f.backends {
		if err := b.Healthy(ctx); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no healthy backend in failover chain")
}

// Generate returns the first successful reply in chain order.
func (f *Failover) Generate(ctx context.Context, system, prompt string) (string, error) {
	var lastErr error
	for i, b := range f.backends {
		resp, err := b.Generate(ctx, system, prompt)
		if err == nil {
			if i > 0 {
				f.logger.Info("failover succeeded", "backend", b.Name(), "position", i)
			}
			return resp, nil
		}
		lastErr = err
		f.logger.Warn("backend failed, trying next", "backend", b.Name(), "error", err)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("all backends failed: %w", lastErr)
}
