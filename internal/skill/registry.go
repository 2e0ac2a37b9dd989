// Package skill holds the lightweight pattern-matched responders that sit
// between prefix commands and LLM escalation.
package skill

import (
	"context"
	"log/slog"

	"streamnova/internal/domain"
)

// Registry consults skills in registration order; the first ShouldHandle
// match wins. A skill that panics or errors is skipped so the next one can
// try.
type Registry struct {
	skills []domain.Skill
	byName map[string]domain.Skill
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		byName: make(map[string]domain.Skill),
		logger: logger,
	}
}

func (r *Registry) Register(s domain.Skill) {
	r.skills = append(r.skills, s)
	r.byName[s.Name()] = s
	r.logger.Debug("registered skill", "name", s.Name())
}

// Names lists registered skills in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.skills))
	for i, s := range r.skills {
		names[i] = s.Name()
	}
	return names
}

// DispatchNamed runs one specific skill when the router produced a hint
// for it, falling back to the ordered scan when the hint is unknown.
func (r *Registry) DispatchNamed(ctx context.Context, name string, in domain.SkillInput) (string, bool) {
	if s, ok := r.byName[name]; ok {
		return r.try(ctx, s, in)
	}
	return r.Dispatch(ctx, in)
}

// Dispatch scans the registered skills and returns the first reply.
func (r *Registry) Dispatch(ctx context.Context, in domain.SkillInput) (string, bool) {
	for _, s := range r.skills {
		if !s.ShouldHandle(in.Author, in.Message) {
			continue
		}
		if resp, handled := r.try(ctx, s, in); handled {
			return resp, true
		}
	}
	return "", false
}

func (r *Registry) try(ctx context.Context, s domain.Skill, in domain.SkillInput) (resp string, handled bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("skill panicked", "skill", s.Name(), "panic", rec)
			resp, handled = "", false
		}
	}()

	out, err := s.Handle(ctx, in)
	if err != nil {
		r.logger.Warn("skill failed", "skill", s.Name(), "error", err)
		return "", false
	}
	if out == "" {
		return "", false
	}
	return out, true
}
