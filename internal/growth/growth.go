package growth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"streamnova/internal/domain"
)

const (
	defaultFollowerGoal     = 2000
	defaultFollowerInterval = 60 * time.Minute
	defaultCalloutInterval  = 30 * time.Minute
)

// ErrChallengeActive is returned when a challenge start is attempted while
// another challenge is still running.
var ErrChallengeActive = errors.New("a community challenge is already active")

var defaultWelcomeMessages = []string{
	"🎉 Welcome to the stream %s! Glad to have you here! This is your first time chatting - hope you enjoy! 💙",
	"👋 Hey %s! Welcome to the community! First time here? You're gonna love this! 🔥",
	"🌟 Welcome %s! Fresh face in chat - let's make this awesome! 💪",
	"🚀 %s just joined the chat for the first time! Welcome aboard! 🎮",
}

// Summary is a point-in-time view of the growth state for the stats command.
type Summary struct {
	NewViewers         int
	FollowerGoal       int
	CurrentFollowers   int
	FollowersRemaining int
	ChallengeActive    bool
}

// Features owns follower goals, new-viewer welcomes, the community
// challenge and the periodic announcement timers. It is mutated only from
// the bridge loop; every mutation is written through to the store.
// Periodic behaviors are polled: the Due* predicates never mutate state,
// the matching Fire* methods perform the transition.
type Features struct {
	store  domain.PersistentStore
	logger *slog.Logger

	streamerName     string
	welcomeMessages  []string
	followerInterval time.Duration
	calloutInterval  time.Duration

	snap domain.GrowthSnapshot
}

// Option configures a Features instance.
type Option func(*Features)

// WithStreamerName sets the name used in follower announcements.
func WithStreamerName(name string) Option {
	return func(f *Features) {
		if name != "" {
			f.streamerName = name
		}
	}
}

// WithWelcomeMessages overrides the welcome rotation. Each entry is a
// fmt template with one %s verb for the author name.
func WithWelcomeMessages(msgs []string) Option {
	return func(f *Features) {
		if len(msgs) > 0 {
			f.welcomeMessages = msgs
		}
	}
}

// WithIntervals overrides the follower-announcement and callout periods.
func WithIntervals(follower, callout time.Duration) Option {
	return func(f *Features) {
		if follower > 0 {
			f.followerInterval = follower
		}
		if callout > 0 {
			f.calloutInterval = callout
		}
	}
}

// New creates growth features with defaults; call Load before use to pick
// up persisted state.
func New(store domain.PersistentStore, logger *slog.Logger, opts ...Option) *Features {
	f := &Features{
		store:            store,
		logger:           logger,
		streamerName:     "the stream",
		welcomeMessages:  defaultWelcomeMessages,
		followerInterval: defaultFollowerInterval,
		calloutInterval:  defaultCalloutInterval,
		snap: domain.GrowthSnapshot{
			FollowerGoal: defaultFollowerGoal,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load restores persisted growth state. A missing or unreadable store is
// not fatal; the in-memory defaults stay in effect.
func (f *Features) Load(ctx context.Context) {
	snap, err := f.store.LoadGrowth(ctx)
	if err != nil {
		f.logger.Warn("growth state unavailable, starting from defaults", "error", err)
		return
	}
	if snap == nil {
		return
	}
	f.snap = *snap
	if f.snap.FollowerGoal <= 0 {
		f.snap.FollowerGoal = defaultFollowerGoal
	}
	f.logger.Info("growth state loaded",
		"goal", f.snap.FollowerGoal,
		"new_viewers", len(f.snap.NewViewers),
		"challenge_active", f.challengeActive())
}

func (f *Features) persist(ctx context.Context) {
	if err := f.store.SaveGrowth(ctx, f.snap); err != nil {
		f.logger.Error("failed to save growth state", "error", err)
	}
}

// Save writes the current state through to the store. The bridge calls it
// once more during shutdown.
func (f *Features) Save(ctx context.Context) {
	f.persist(ctx)
}

// WelcomeNewViewer reports whether author has chatted before and, for a
// first-time chatter, returns the next welcome message in the rotation.
// The welcomed set only grows; a known author is never re-welcomed.
func (f *Features) WelcomeNewViewer(ctx context.Context, author string) (string, bool) {
	for _, v := range f.snap.NewViewers {
		if v == author {
			return "", false
		}
	}
	f.snap.NewViewers = append(f.snap.NewViewers, author)
	msg := fmt.Sprintf(f.welcomeMessages[f.snap.WelcomeCursor%len(f.welcomeMessages)], author)
	f.snap.WelcomeCursor++
	f.persist(ctx)
	f.logger.Info("new viewer welcomed", "author", author)
	return msg, true
}

// SetFollowerGoal updates the goal target.
func (f *Features) SetFollowerGoal(ctx context.Context, goal int) {
	f.snap.FollowerGoal = goal
	f.persist(ctx)
	f.logger.Info("follower goal set", "goal", goal)
}

// UpdateFollowerCount records the latest follower count from the stats
// provider.
func (f *Features) UpdateFollowerCount(ctx context.Context, count int) {
	f.snap.CurrentFollowers = count
	f.persist(ctx)
}

// FollowerProgress returns the remaining count and completion percentage
// toward the follower goal. Percent is 0 when no positive goal is set.
func (f *Features) FollowerProgress() (remaining int, percent float64) {
	remaining = f.snap.FollowerGoal - f.snap.CurrentFollowers
	if remaining < 0 {
		remaining = 0
	}
	if f.snap.FollowerGoal > 0 {
		percent = float64(f.snap.CurrentFollowers) / float64(f.snap.FollowerGoal) * 100
	}
	return remaining, percent
}

// DueFollowerAnnounce reports whether the follower announcement interval
// has elapsed. It does not mutate state.
func (f *Features) DueFollowerAnnounce(now time.Time) bool {
	return now.Sub(f.snap.LastFollowerAnnounceAt) >= f.followerInterval
}

// FireFollowerAnnounce emits the follower-progress announcement and resets
// the timer.
func (f *Features) FireFollowerAnnounce(ctx context.Context, now time.Time) string {
	f.snap.LastFollowerAnnounceAt = now
	f.persist(ctx)

	if f.snap.CurrentFollowers >= f.snap.FollowerGoal && f.snap.FollowerGoal > 0 {
		return fmt.Sprintf("🎉 %s just hit %d followers! Thanks to everyone for the support! 💙",
			f.streamerName, f.snap.CurrentFollowers)
	}
	remaining, percent := f.FollowerProgress()
	return fmt.Sprintf("📈 %s is %d followers away from %d! Let's help reach the goal! (%.1f%%)",
		f.streamerName, remaining, f.snap.FollowerGoal, percent)
}

func (f *Features) challengeActive() bool {
	return f.snap.Challenge != nil && f.snap.Challenge.State == domain.ChallengeActive
}

// StartChallenge begins a community challenge. totalMessages is the
// engagement tracker's running count at start time, captured so progress
// only counts messages sent after the challenge began.
func (f *Features) StartChallenge(ctx context.Context, target int, reward string, totalMessages int, now time.Time) (string, error) {
	if target <= 0 {
		return "", errors.New("challenge target must be positive")
	}
	if f.challengeActive() {
		return "", ErrChallengeActive
	}
	f.snap.Challenge = &domain.ChallengeSnapshot{
		State:             domain.ChallengeActive,
		MessageTarget:     target,
		RewardText:        reward,
		StartTime:         now,
		StartMessageCount: totalMessages,
	}
	f.persist(ctx)
	f.logger.Info("challenge started", "target", target, "reward", reward)
	return fmt.Sprintf("🎯 Community Challenge: If chat reaches %d messages, %s! Let's go! 🔥",
		target, reward), nil
}

// TrackChallengeMessage advances the active challenge against the current
// total message count. It returns the completion announcement exactly once,
// on the message that crosses the target.
func (f *Features) TrackChallengeMessage(ctx context.Context, totalMessages int) (string, bool) {
	if !f.challengeActive() {
		return "", false
	}
	c := f.snap.Challenge
	progressed := totalMessages - c.StartMessageCount
	if progressed < c.MessageTarget {
		return "", false
	}
	c.State = domain.ChallengeCompleted
	f.persist(ctx)
	f.logger.Info("challenge completed", "messages", progressed, "target", c.MessageTarget)
	return fmt.Sprintf("🎉 Challenge Complete! Chat reached %d messages! %s! 🎊",
		progressed, c.RewardText), true
}

// CancelChallenge aborts the active challenge.
func (f *Features) CancelChallenge(ctx context.Context) (string, error) {
	if !f.challengeActive() {
		return "", errors.New("no active challenge to cancel")
	}
	f.snap.Challenge.State = domain.ChallengeCancelled
	f.persist(ctx)
	f.logger.Info("challenge cancelled")
	return "🚫 The community challenge has been cancelled.", nil
}

// ChallengeProgress reports progress against the active challenge.
func (f *Features) ChallengeProgress(totalMessages int) string {
	if !f.challengeActive() {
		return "No active challenge right now!"
	}
	c := f.snap.Challenge
	progressed := totalMessages - c.StartMessageCount
	if progressed < 0 {
		progressed = 0
	}
	remaining := c.MessageTarget - progressed
	percent := float64(progressed) / float64(c.MessageTarget) * 100
	return fmt.Sprintf("📊 Challenge Progress: %d/%d messages (%.0f%%) - %d more needed!",
		progressed, c.MessageTarget, percent, remaining)
}

// DueCallout reports whether the viewer callout interval has elapsed. It
// does not mutate state.
func (f *Features) DueCallout(now time.Time) bool {
	return now.Sub(f.snap.LastCalloutAt) >= f.calloutInterval
}

// FireCallout emits a shoutout for the most active chatters and resets the
// timer. topAuthors comes from the engagement tracker, best first; an empty
// slice produces no message but still resets the timer.
func (f *Features) FireCallout(ctx context.Context, now time.Time, topAuthors []string) string {
	f.snap.LastCalloutAt = now
	f.persist(ctx)

	switch len(topAuthors) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("🌟 Big shoutout to %s for being super active in chat! Keep it up! 💪",
			topAuthors[0])
	case 2:
		return fmt.Sprintf("🌟 Shoutout to %s and %s for keeping chat alive! 💙",
			topAuthors[0], topAuthors[1])
	default:
		return fmt.Sprintf("🌟 Huge thanks to %s, %s, and %s for being amazing! 💪",
			topAuthors[0], topAuthors[1], topAuthors[2])
	}
}

// StatsSummary returns a snapshot of the growth counters.
func (f *Features) StatsSummary() Summary {
	remaining, _ := f.FollowerProgress()
	return Summary{
		NewViewers:         len(f.snap.NewViewers),
		FollowerGoal:       f.snap.FollowerGoal,
		CurrentFollowers:   f.snap.CurrentFollowers,
		FollowersRemaining: remaining,
		ChallengeActive:    f.challengeActive(),
	}
}
