package domain

import "context"

// ChatSource reads and posts live-chat messages. Implementations own the
// paging/dedup state of the upstream API; the bridge still keeps its own
// processed-ID set because the source may re-deliver on reconnect.
type ChatSource interface {
	// FetchNewMessages returns messages published since the previous call.
	FetchNewMessages(ctx context.Context) ([]ChatMessage, error)
	// PostMessage sends text to the live chat and returns the ID the
	// platform assigned to it.
	PostMessage(ctx context.Context, text string) (string, error)
}

// StatsProvider exposes the channel/stream counters used by the growth
// timers and the stats command.
type StatsProvider interface {
	FollowerCount(ctx context.Context) (int64, error)
	StreamStats(ctx context.Context) (*StreamStats, error)
}

// ProfileStore is read-only access to the streamer profile.
type ProfileStore interface {
	Profile() Profile
}

// LLMBackend generates a free-text reply for a prompt. Invoked only when
// the router escalates a message past commands and skills.
type LLMBackend interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Name() string
	Healthy(ctx context.Context) error
}
