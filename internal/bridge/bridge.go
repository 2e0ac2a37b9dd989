// Package bridge connects the live-chat source to the router, commands,
// skills, and the LLM backend. One bridge runs per stream session.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"streamnova/internal/bus"
	"streamnova/internal/command"
	"streamnova/internal/domain"
	"streamnova/internal/engagement"
	"streamnova/internal/growth"
	"streamnova/internal/moderation"
	"streamnova/internal/router"
	"streamnova/internal/skill"
	"streamnova/internal/telemetry"
)

const recentBotMessages = 20

// Config tunes the bridge loop.
type Config struct {
	BotName          string
	AdminUsers       []string
	SystemPrompt     string
	ResponseDelay    time.Duration
	ReplyMaxRunes    int
	PollInterval     time.Duration
	TimerTick        time.Duration
	ViewerSampleGap  time.Duration
	IgnoreModerators bool
	IgnoreOwner      bool
}

// Deps are the collaborators the bridge orchestrates. LLM may be nil; the
// router's LLM verdicts are then dropped.
type Deps struct {
	Logger     *slog.Logger
	Source     domain.ChatSource
	Stats      domain.StatsProvider
	Store      domain.PersistentStore
	Profile    domain.ProfileStore
	LLM        domain.LLMBackend
	Commands   *command.Registry
	Skills     *skill.Registry
	Router     *router.Router
	Growth     *growth.Features
	Engagement *engagement.Tracker
	Limiter    *moderation.RateLimiter
	Spam       *moderation.SpamDetector
}

// Bridge is the sequential message-handling loop. A poller goroutine feeds
// the bus; everything else runs on one goroutine so the collaborators never
// see concurrent calls.
type Bridge struct {
	cfg  Config
	deps Deps

	bus       *bus.InMemoryBus
	processed map[string]struct{}
	recentBot []string
	sessionID string
	startedAt time.Time

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func New(cfg Config, deps Deps) *Bridge {
	if cfg.ReplyMaxRunes <= 0 {
		cfg.ReplyMaxRunes = 200
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.TimerTick <= 0 {
		cfg.TimerTick = 30 * time.Second
	}
	if cfg.ViewerSampleGap <= 0 {
		cfg.ViewerSampleGap = 2 * time.Minute
	}
	return &Bridge{
		cfg:       cfg,
		deps:      deps,
		bus:       bus.New(256, deps.Logger),
		processed: make(map[string]struct{}),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// SessionID returns the analytics session, empty before Run starts one.
func (b *Bridge) SessionID() string { return b.sessionID }

// Run drives the bridge until ctx is cancelled or the chat source closes.
// Always ends the session and saves growth state on the way out.
func (b *Bridge) Run(ctx context.Context, videoID string) error {
	log := b.deps.Logger
	b.startedAt = b.now()

	ids, err := b.deps.Store.LoadProcessedIDs(ctx)
	if err != nil {
		log.Warn("cannot load processed message ids, starting fresh", "error", err)
	} else {
		b.processed = ids
	}

	sessionID, err := b.deps.Store.StartSession(ctx, videoID)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	b.sessionID = sessionID
	log.Info("session started", "session_id", sessionID, "video_id", videoID)

	b.deps.Growth.Load(ctx)

	pollCtx, stopPoller := context.WithCancel(ctx)
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		b.pollLoop(pollCtx)
	}()

	ticker := time.NewTicker(b.cfg.TimerTick)
	defer ticker.Stop()
	lastSample := b.startedAt

	inbound := b.bus.Subscribe()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case msg, ok := <-inbound:
			if !ok {
				break loop
			}
			b.handleMessage(ctx, msg)
		case <-ticker.C:
			b.runTimers(ctx)
			if b.now().Sub(lastSample) >= b.cfg.ViewerSampleGap {
				b.sampleViewers(ctx)
				lastSample = b.now()
			}
		}
	}

	stopPoller()
	<-pollerDone

	// Shutdown must not race the (already cancelled) ctx.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b.deps.Growth.Save(shutdownCtx)
	if err := b.deps.Store.EndSession(shutdownCtx, b.sessionID); err != nil {
		log.Warn("cannot end session", "error", err)
	}
	log.Info("session ended", "session_id", b.sessionID,
		"messages", b.deps.Engagement.TotalMessages(),
		"uptime", b.now().Sub(b.startedAt).Round(time.Second))
	return ctx.Err()
}

// streamCheckAfterErrors is how many consecutive fetch failures trigger a
// stream liveness check; the chat endpoint errors once the broadcast ends.
const streamCheckAfterErrors = 3

// pollLoop fetches chat messages and publishes them on the bus. Fetch errors
// back off rather than kill the session, but a dead stream closes the bus so
// the bridge shuts down instead of polling an ended broadcast forever.
func (b *Bridge) pollLoop(ctx context.Context) {
	failures := 0
	for {
		msgs, err := b.deps.Source.FetchNewMessages(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			b.deps.Logger.Error("fetch chat messages failed", "error", err, "consecutive", failures)
			if failures >= streamCheckAfterErrors && !b.streamActive(ctx) {
				b.deps.Logger.Info("stream ended, stopping chat poller")
				b.bus.Close()
				return
			}
			b.sleep(ctx, b.cfg.PollInterval)
			continue
		}
		failures = 0
		for _, m := range msgs {
			b.bus.Publish(m)
		}

		gap := b.cfg.PollInterval
		if s, ok := b.deps.Source.(interface{ SuggestedPollInterval() time.Duration }); ok {
			if g := s.SuggestedPollInterval(); g > gap {
				gap = g
			}
		}
		b.sleep(ctx, gap)
		if ctx.Err() != nil {
			return
		}
	}
}

// streamActive consults the source's liveness check when it has one. Sources
// without one are assumed live.
func (b *Bridge) streamActive(ctx context.Context) bool {
	if s, ok := b.deps.Source.(interface{ IsStreamActive(context.Context) bool }); ok {
		return s.IsStreamActive(ctx)
	}
	return true
}

// handleMessage runs the full pipeline for one chat message.
func (b *Bridge) handleMessage(ctx context.Context, msg domain.ChatMessage) {
	log := b.deps.Logger

	if _, seen := b.processed[msg.ID]; seen {
		return
	}
	b.processed[msg.ID] = struct{}{}
	if err := b.deps.Store.MarkProcessed(ctx, msg.ID); err != nil {
		log.Warn("cannot persist processed id", "error", err)
	}

	// The bot may run on the streamer's own account; skip anything that
	// matches a reply we recently posted.
	for _, sent := range b.recentBot {
		if msg.Text == sent {
			log.Debug("skipping own message", "text", truncate(msg.Text, 30))
			return
		}
	}

	if b.cfg.IgnoreModerators && msg.IsModerator {
		return
	}
	if b.cfg.IgnoreOwner && msg.IsOwner {
		return
	}

	telemetry.Inc(telemetry.MessagesProcessed)
	log.Info("chat message", "author", msg.Author, "text", msg.Text)

	b.deps.Engagement.RecordMessage(msg.Author)
	telemetry.SetChatters(len(b.deps.Engagement.TopUsers(0)))
	if err := b.deps.Store.RecordChatMessage(ctx, b.sessionID, msg); err != nil {
		log.Warn("cannot record chat message", "error", err)
	}

	// Every message counts toward an active challenge, even ones the bot
	// will not reply to.
	if done, ok := b.deps.Growth.TrackChallengeMessage(ctx, b.deps.Engagement.TotalMessages()); ok {
		b.post(ctx, done)
	}

	if welcome, ok := b.deps.Growth.WelcomeNewViewer(ctx, msg.Author); ok {
		b.post(ctx, welcome)
	}

	if b.deps.Spam.IsSpam(msg.Author, msg.Text) {
		telemetry.Inc(telemetry.SpamBlocked)
		log.Info("spam blocked", "author", msg.Author)
		return
	}

	verdict := b.deps.Router.Classify(msg.Author, msg.Text)
	if verdict.Kind == router.KindIgnore {
		telemetry.Inc(telemetry.MessagesIgnored)
		return
	}

	if !b.deps.Limiter.Allow(msg.Author) {
		telemetry.Inc(telemetry.RateLimited)
		log.Info("rate limited", "author", msg.Author)
		return
	}

	var reply string
	telemetry.TimeFunc(telemetry.HandleDuration, func() {
		reply = b.buildReply(ctx, msg, verdict)
	})
	if reply == "" {
		return
	}

	b.sleep(ctx, b.cfg.ResponseDelay)
	b.post(ctx, reply)
}

func (b *Bridge) buildReply(ctx context.Context, msg domain.ChatMessage, verdict router.Verdict) string {
	switch verdict.Kind {
	case router.KindCommand:
		cmdCtx := &command.Context{
			Author:     msg.Author,
			RawMessage: msg.Text,
			Timestamp:  msg.ReceivedAt,
			Profile:    b.deps.Profile.Profile(),
			Stats:      b.deps.Stats,
			AdminUsers: b.cfg.AdminUsers,
			Logger:     b.deps.Logger,
		}
		reply := b.deps.Commands.Run(ctx, verdict.Command, cmdCtx)
		telemetry.Inc(telemetry.CommandsRun)
		if err := b.deps.Store.RecordCommand(ctx, b.sessionID, verdict.Command.Name, reply != ""); err != nil {
			b.deps.Logger.Warn("cannot record command run", "error", err)
		}
		return reply

	case router.KindSkill:
		in := domain.SkillInput{
			Author:  msg.Author,
			Message: msg.Text,
			Profile: b.deps.Profile.Profile(),
			Stats:   b.deps.Stats,
		}
		reply, handled := b.deps.Skills.DispatchNamed(ctx, verdict.Skill, in)
		if !handled {
			return ""
		}
		telemetry.Inc(telemetry.SkillReplies)
		return reply

	case router.KindLLM:
		if b.deps.LLM == nil {
			return ""
		}
		prompt := fmt.Sprintf("Viewer '%s' says: %s", msg.Author, msg.Text)
		var reply string
		var err error
		telemetry.TimeFunc(telemetry.LLMDuration, func() {
			reply, err = b.deps.LLM.Generate(ctx, b.cfg.SystemPrompt, prompt)
		})
		if err != nil {
			b.deps.Logger.Error("llm generation failed", "backend", b.deps.LLM.Name(), "error", err)
			return ""
		}
		telemetry.Inc(telemetry.LLMReplies)
		return reply
	}
	return ""
}

// post clamps and sends a reply, then records it so the bot never answers
// itself. Empty text is dropped; YouTube rejects blank messages.
func (b *Bridge) post(ctx context.Context, text string) {
	if text == "" {
		return
	}
	text = clampRunes(text, b.cfg.ReplyMaxRunes)
	id, err := b.deps.Source.PostMessage(ctx, text)
	if err != nil {
		telemetry.Inc(telemetry.RepliesFailed)
		b.deps.Logger.Error("post reply failed", "error", err)
		return
	}
	telemetry.Inc(telemetry.RepliesPosted)
	b.deps.Logger.Info("posted reply", "text", truncate(text, 50))

	b.processed[id] = struct{}{}
	if err := b.deps.Store.MarkProcessed(ctx, id); err != nil {
		b.deps.Logger.Warn("cannot persist own message id", "error", err)
	}
	b.recentBot = append(b.recentBot, text)
	if len(b.recentBot) > recentBotMessages {
		b.recentBot = b.recentBot[len(b.recentBot)-recentBotMessages:]
	}
}

// runTimers fires the growth announcements that came due.
func (b *Bridge) runTimers(ctx context.Context) {
	now := b.now()

	if b.deps.Growth.DueFollowerAnnounce(now) {
		if n, err := b.deps.Stats.FollowerCount(ctx); err == nil {
			b.deps.Growth.UpdateFollowerCount(ctx, int(n))
		} else {
			b.deps.Logger.Warn("cannot refresh follower count", "error", err)
		}
		b.post(ctx, b.deps.Growth.FireFollowerAnnounce(ctx, now))
	}

	if b.deps.Growth.DueCallout(now) {
		top := b.deps.Engagement.TopUsers(3)
		authors := make([]string, len(top))
		for i, u := range top {
			authors[i] = u.Author
		}
		b.post(ctx, b.deps.Growth.FireCallout(ctx, now, authors))
	}
}

func (b *Bridge) sampleViewers(ctx context.Context) {
	stats, err := b.deps.Stats.StreamStats(ctx)
	if err != nil {
		b.deps.Logger.Warn("cannot sample stream stats", "error", err)
		return
	}
	telemetry.SetViewers(stats.Viewers)
	if err := b.deps.Store.RecordViewerSample(ctx, b.sessionID, *stats); err != nil {
		b.deps.Logger.Warn("cannot record viewer sample", "error", err)
	}
}

func clampRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
