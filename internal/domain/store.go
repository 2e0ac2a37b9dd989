package domain

import (
	"context"
	"time"
)

// GrowthSnapshot is the persisted form of the growth feature state.
// A single instance exists per process; it is loaded at startup and
// saved after every mutation.
type GrowthSnapshot struct {
	FollowerGoal           int                `json:"followerGoal"`
	CurrentFollowers       int                `json:"currentFollowers"`
	NewViewers             []string           `json:"newViewers"`
	WelcomeCursor          int                `json:"welcomeCursor"`
	Challenge              *ChallengeSnapshot `json:"challenge,omitempty"`
	LastCalloutAt          time.Time          `json:"lastCalloutAt"`
	LastFollowerAnnounceAt time.Time          `json:"lastFollowerAnnounceAt"`
}

// ChallengeState labels the community-challenge state machine.
type ChallengeState string

const (
	ChallengeInactive  ChallengeState = "inactive"
	ChallengeActive    ChallengeState = "active"
	ChallengeCompleted ChallengeState = "completed"
	ChallengeCancelled ChallengeState = "cancelled"
)

// ChallengeSnapshot is the persisted community-challenge record.
type ChallengeSnapshot struct {
	State             ChallengeState `json:"state"`
	MessageTarget     int            `json:"messageTarget"`
	RewardText        string         `json:"rewardText"`
	StartTime         time.Time      `json:"startTime"`
	StartMessageCount int            `json:"startMessageCount"`
}

// SessionReport summarizes one recorded stream session.
type SessionReport struct {
	SessionID    string
	VideoID      string
	StartedAt    time.Time
	EndedAt      *time.Time
	Messages     int
	Chatters     int
	PeakViewers  int64
	CommandRuns  int
	TopChatters  []ChatterCount
}

// ChatterCount is one leaderboard row in a session report.
type ChatterCount struct {
	Author   string
	Messages int
}

// PersistentStore is the durable storage consumed by the bridge and the
// growth features. Implementations must tolerate a missing store on first
// run; a read failure at startup degrades to in-memory defaults rather
// than aborting the session.
type PersistentStore interface {
	LoadGrowth(ctx context.Context) (*GrowthSnapshot, error)
	SaveGrowth(ctx context.Context, snap GrowthSnapshot) error

	LoadProcessedIDs(ctx context.Context) (map[string]struct{}, error)
	MarkProcessed(ctx context.Context, messageID string) error

	StartSession(ctx context.Context, videoID string) (string, error)
	EndSession(ctx context.Context, sessionID string) error
	RecordChatMessage(ctx context.Context, sessionID string, msg ChatMessage) error
	RecordCommand(ctx context.Context, sessionID, command string, ok bool) error
	RecordViewerSample(ctx context.Context, sessionID string, stats StreamStats) error
	SessionReport(ctx context.Context, sessionID string) (*SessionReport, error)

	Close() error
}
