package skill

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"streamnova/internal/domain"
)

// Greeting mirrors the viewer's own greeting word back at them.
type Greeting struct {
	BotName string
}

var greetMirror = []struct{ prefix, reply string }{
	{"hello", "Hello"},
	{"hii", "Hi"},
	{"hi", "Hi"},
	{"hey", "Hey"},
	{"namaste", "Namaste"},
	{"namaskar", "Namaskar"},
	{"hlo", "Hello"},
}

func (g *Greeting) Name() string { return "greeting" }

func (g *Greeting) ShouldHandle(author, message string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))
	for _, m := range greetMirror {
		if msg == m.prefix || strings.HasPrefix(msg, m.prefix+" ") {
			return true
		}
	}
	return false
}

func (g *Greeting) Handle(ctx context.Context, in domain.SkillInput) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(in.Message))
	greeting := "Hello"
	for _, m := range greetMirror {
		if strings.HasPrefix(lower, m.prefix) {
			greeting = m.reply
			break
		}
	}
	name := g.BotName
	if name == "" {
		name = "the bot"
	}
	return fmt.Sprintf("%s %s! Welcome to the stream, glad you're here. Tag me with @%s if you have any questions!",
		greeting, in.Author, name), nil
}

// Hype drops short hype lines on trigger words and answers bare stats
// requests. The line is picked by hashing the message so replies are
// deterministic but still vary across messages.
type Hype struct{}

var hypeTriggers = []string{"gg", "clutch", "win", "pog", "let's go", "fire", "insane"}
var hypeStatsTriggers = []string{"stats", "stream stats", "show stats"}

var hypeLines = []string{
	"That was clean! 🚀",
	"Chat, spam GG, this is heat! 🔥",
	"Certified clutch moment. 🏆",
	"Okay that was kinda cracked ngl 💯",
}

func (h *Hype) Name() string { return "hype" }

func (h *Hype) ShouldHandle(author, message string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))
	for _, t := range hypeTriggers {
		if msg == t || strings.HasPrefix(msg, "!"+t) {
			return true
		}
	}
	for _, t := range hypeStatsTriggers {
		if msg == t {
			return true
		}
	}
	return false
}

func (h *Hype) Handle(ctx context.Context, in domain.SkillInput) (string, error) {
	msg := strings.ToLower(strings.TrimSpace(in.Message))
	for _, t := range hypeStatsTriggers {
		if msg != t {
			continue
		}
		if in.Stats == nil {
			return "Stream stats are not available right now.", nil
		}
		stats, err := in.Stats.StreamStats(ctx)
		if err != nil {
			return "Could not fetch stream stats right now.", nil
		}
		return fmt.Sprintf("📊 Stream Stats: %d watching, %d likes, %d subs!",
			stats.Viewers, stats.Likes, stats.Subs), nil
	}
	return hypeLines[hashIndex(in.Message, len(hypeLines))], nil
}

func hashIndex(s string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() % uint32(n))
}

// GamingTips answers quick settings/aim questions with canned advice.
type GamingTips struct{}

func (g *GamingTips) Name() string { return "gaming_tips" }

func (g *GamingTips) ShouldHandle(author, message string) bool {
	msg := strings.ToLower(message)
	for _, k := range []string{"settings", "sens", "crosshair", "tip"} {
		if strings.Contains(msg, k) {
			return true
		}
	}
	return false
}

func (g *GamingTips) Handle(ctx context.Context, in domain.SkillInput) (string, error) {
	msg := strings.ToLower(in.Message)
	switch {
	case strings.Contains(msg, "sens"):
		return "General tip: pick a sens you can track with; avoid changing mid-week, consistency beats micro-optimizing.", nil
	case strings.Contains(msg, "crosshair"):
		return "Try a simple crosshair (1-2 thickness, no outlines). Prioritize clarity over style, muscle memory wins.", nil
	case strings.Contains(msg, "settings"):
		return "Low shadows, high texture clarity, limit post-processing. A stable FPS matters more than pretty frames.", nil
	case strings.Contains(msg, "tip"):
		return "Small tip: take 5s resets after bad rounds. Breathing plus a plan beats tilt.", nil
	}
	return "", nil
}

// Specs answers hardware questions from the streamer profile.
type Specs struct{}

func (s *Specs) Name() string { return "specs" }

func (s *Specs) ShouldHandle(author, message string) bool {
	msg := strings.ToLower(message)
	for _, k := range []string{"specs", "gpu", "cpu", "ram", "setup", "config"} {
		if strings.Contains(msg, k) {
			return true
		}
	}
	return false
}

func (s *Specs) Handle(ctx context.Context, in domain.SkillInput) (string, error) {
	if in.Profile.SystemSpecs == "" {
		return "The streamer hasn't shared their setup yet!", nil
	}
	return "🖥️ Setup: " + in.Profile.SystemSpecs, nil
}

// Community joins positive chat discussions, throttled by a minimum gap so
// it never spams.
type Community struct {
	MinGap time.Duration

	mu       sync.Mutex
	lastSent time.Time
	now      func() time.Time
}

var communityTriggers = []string{
	"love", "awesome", "great", "nice", "cool", "vibe", "fun",
	"enjoy", "favorite", "best", "amazing", "good map", "good game", "gg",
}

var communityLines = []string{
	"Love the energy in chat! You all make this stream awesome.",
	"Chat is vibing, keep the good times rolling!",
	"Great to see everyone enjoying the game together.",
	"This community is the best, thanks for hanging out!",
	"So many positive vibes here!",
	"Favorite map discussions always get the chat going!",
	"Glad to see everyone having fun!",
}

func NewCommunity(minGap time.Duration) *Community {
	if minGap <= 0 {
		minGap = 2 * time.Minute
	}
	return &Community{MinGap: minGap, now: time.Now}
}

func (c *Community) Name() string { return "community" }

func (c *Community) ShouldHandle(author, message string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))
	if strings.Contains(msg, "?") || strings.HasPrefix(msg, "!") {
		return false
	}
	for _, t := range communityTriggers {
		if strings.Contains(msg, t) {
			return true
		}
	}
	return false
}

func (c *Community) Handle(ctx context.Context, in domain.SkillInput) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if !c.lastSent.IsZero() && now.Sub(c.lastSent) < c.MinGap {
		return "", nil
	}
	c.lastSent = now
	return communityLines[hashIndex(in.Message, len(communityLines))], nil
}

// GrowthBooster drops a like/subscribe reminder at tasteful intervals.
type GrowthBooster struct {
	MinGap time.Duration

	mu       sync.Mutex
	lastSent time.Time
	now      func() time.Time
}

var boosterTriggers = []string{"love", "awesome", "great", "nice", "good stream", "cool"}

func NewGrowthBooster(minGap time.Duration) *GrowthBooster {
	if minGap <= 0 {
		minGap = 2 * time.Minute
	}
	return &GrowthBooster{MinGap: minGap, now: time.Now}
}

func (g *GrowthBooster) Name() string { return "growth_booster" }

func (g *GrowthBooster) ShouldHandle(author, message string) bool {
	msg := strings.ToLower(message)
	for _, t := range boosterTriggers {
		if strings.Contains(msg, t) {
			return true
		}
	}
	return false
}

func (g *GrowthBooster) Handle(ctx context.Context, in domain.SkillInput) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if !g.lastSent.IsZero() && now.Sub(g.lastSent) < g.MinGap {
		return "", nil
	}
	g.lastSent = now
	channel := in.Profile.Name
	if channel == "" {
		channel = "the channel"
	}
	return fmt.Sprintf("If you're enjoying, drop a like and consider subscribing to support %s! 💙", channel), nil
}

// CoHost answers "what are we doing" style questions with the current game
// or topic.
type CoHost struct{}

var coHostTriggers = []string{"cohost", "host", "topic", "what are we doing", "explain"}

func (c *CoHost) Name() string { return "cohost" }

func (c *CoHost) ShouldHandle(author, message string) bool {
	msg := strings.ToLower(message)
	for _, t := range coHostTriggers {
		if strings.Contains(msg, t) {
			return true
		}
	}
	return false
}

func (c *CoHost) Handle(ctx context.Context, in domain.SkillInput) (string, error) {
	streamer := in.Profile.Name
	if streamer == "" {
		streamer = "the streamer"
	}
	topic := in.Profile.CurrentGame
	if topic == "" {
		topic = in.Profile.StreamTopic
	}
	if topic != "" {
		return fmt.Sprintf("Quick recap: We're live with %s. Stick around, I'll keep chat flowing while %s focuses!",
			topic, streamer), nil
	}
	return fmt.Sprintf("I'm co-hosting, keeping vibes up and questions answered while %s streams!", streamer), nil
}
