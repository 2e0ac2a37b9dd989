package domain

import "context"

// SkillInput carries everything a skill may need to build a reply.
type SkillInput struct {
	Author  string
	Message string
	Profile Profile
	Stats   StatsProvider
}

// Skill is a lightweight pattern-matched responder, distinct from a
// prefix command. Skills are consulted in registration order; the first
// one whose ShouldHandle returns true gets the message.
type Skill interface {
	Name() string
	ShouldHandle(author, message string) bool
	Handle(ctx context.Context, in SkillInput) (string, error)
}
