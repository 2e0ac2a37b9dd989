package domain

import "time"

// ChatMessage is a single live-chat message as delivered by the chat source.
// Immutable once received; the bridge consumes each message exactly once and
// records its ID in the processed set so re-delivery never double-processes.
type ChatMessage struct {
	ID              string
	Author          string
	AuthorChannelID string
	Text            string
	IsModerator     bool
	IsOwner         bool
	ReceivedAt      time.Time
}

// StreamStats is a point-in-time snapshot of the live stream.
type StreamStats struct {
	Viewers int64
	Likes   int64
	Subs    int64
}

// Profile holds the streamer identity shown to viewers and used to
// personalize replies. Read-only during a session.
type Profile struct {
	Name           string            `json:"name"`
	Location       string            `json:"location,omitempty"`
	Bio            string            `json:"bio,omitempty"`
	SystemSpecs    string            `json:"systemSpecs,omitempty"`
	CurrentGame    string            `json:"currentGame,omitempty"`
	StreamTopic    string            `json:"streamTopic,omitempty"`
	SocialLinks    map[string]string `json:"socialLinks,omitempty"`
	ValorantID     string            `json:"valorantId,omitempty"`
	ValorantRegion string            `json:"valorantRegion,omitempty"`
}
