package command

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"streamnova/internal/domain"
	"streamnova/internal/engagement"
	"streamnova/internal/growth"
	"streamnova/internal/valorant"
)

// Deps bundles the collaborators the built-in commands draw on.
type Deps struct {
	Logger     *slog.Logger
	Profile    domain.ProfileStore
	Stats      domain.StatsProvider
	Growth     *growth.Features
	Engagement *engagement.Tracker
	Valorant   *valorant.Client
	Store      domain.PersistentStore

	// SessionID returns the current analytics session, empty when none is
	// active.
	SessionID func() string
	StartedAt time.Time
}

// RegisterBuiltins installs the full built-in command set on reg.
func RegisterBuiltins(reg *Registry, deps Deps) error {
	sets := [][]*Descriptor{
		coreCommands(reg, deps),
		growthCommands(deps),
		valorantCommands(deps),
	}
	for _, set := range sets {
		for _, d := range set {
			if err := reg.Register(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func coreCommands(reg *Registry, deps Deps) []*Descriptor {
	return []*Descriptor{
		{
			Name:        "help",
			Aliases:     []string{"h", "commands"},
			Description: "Display help for commands",
			Usage:       "!help [command]",
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				if arg != "" {
					token := strings.TrimPrefix(strings.Fields(arg)[0], Prefix)
					d, ok := reg.Resolve(token)
					if !ok {
						return fmt.Sprintf("No such command !%s. Use !help to see available commands.", token), nil
					}
					return describeCommand(d), nil
				}
				var sb strings.Builder
				sb.WriteString("📜 Available commands: ")
				names := make([]string, 0, len(reg.All()))
				for _, d := range reg.All() {
					names = append(names, Prefix+d.Name)
				}
				sb.WriteString(strings.Join(names, ", "))
				sb.WriteString(" | Try !help [command] for details!")
				return sb.String(), nil
			},
		},
		{
			Name:        "ping",
			Aliases:     []string{"p", "online"},
			Description: "Check if the bot is online",
			Usage:       "!ping",
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				return fmt.Sprintf("Pong! %s, bot is live! 🎮", c.Author), nil
			},
		},
		{
			Name:        "uptime",
			Aliases:     []string{"up", "runtime"},
			Description: "Show how long the bot has been running",
			Usage:       "!uptime",
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				up := time.Since(deps.StartedAt).Round(time.Second)
				return fmt.Sprintf("Bot uptime: %s ⏱️", up), nil
			},
		},
		{
			Name:        "socials",
			Aliases:     []string{"links", "social", "follow"},
			Description: "Show the streamer's social links",
			Usage:       "!socials",
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				links := c.Profile.SocialLinks
				if len(links) == 0 {
					return "No social links configured yet.", nil
				}
				platforms := make([]string, 0, len(links))
				for platform := range links {
					platforms = append(platforms, platform)
				}
				sort.Strings(platforms)
				parts := make([]string, 0, len(platforms))
				for _, platform := range platforms {
					parts = append(parts, fmt.Sprintf("%s: %s", platform, links[platform]))
				}
				return "Follow the streamer: " + strings.Join(parts, " | "), nil
			},
		},
		{
			Name:        "stats",
			Aliases:     []string{"status", "stream"},
			Description: "Show detailed stream statistics",
			Usage:       "!stats",
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				stats, err := c.Stats.StreamStats(ctx)
				if err != nil {
					deps.Logger.Warn("stream stats unavailable", "error", err)
					return "Unable to fetch stream stats right now", nil
				}
				chatters := len(deps.Engagement.TopUsers(0))
				resp := fmt.Sprintf("📊 Stream Stats: 👥 Viewers: %d | 👍 Likes: %d | 📺 Subs: %d",
					stats.Viewers, stats.Likes, stats.Subs)
				if stats.Viewers > 0 && chatters > 0 {
					pct := float64(chatters) / float64(stats.Viewers) * 100
					resp += fmt.Sprintf(" | 💬 Chat: %d active (%.1f%% engagement)", chatters, pct)
				}
				return resp, nil
			},
		},
		{
			Name:        "viewers",
			Aliases:     []string{"viewercount", "watching"},
			Description: "Show viewer count and chat engagement",
			Usage:       "!viewers",
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				stats, err := c.Stats.StreamStats(ctx)
				if err != nil {
					deps.Logger.Warn("stream stats unavailable", "error", err)
					return "Unable to fetch viewer stats right now", nil
				}
				chatters := len(deps.Engagement.TopUsers(0))
				resp := fmt.Sprintf("👥 %d viewers watching | 💬 %d active chatters", stats.Viewers, chatters)
				if stats.Viewers > 0 {
					pct := float64(chatters) / float64(stats.Viewers) * 100
					resp += fmt.Sprintf(" | 📊 Engagement: %.1f%%", pct)
				}
				return resp, nil
			},
		},
		{
			Name:        "top",
			Aliases:     []string{"leaderboard", "chatters", "topchatter"},
			Description: "Show the most active chatters this stream",
			Usage:       "!top",
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				top := deps.Engagement.TopUsers(5)
				if len(top) == 0 {
					return "No chat activity yet this stream!", nil
				}
				medals := []string{"🥇", "🥈", "🥉", "4.", "5."}
				parts := make([]string, 0, len(top))
				for i, u := range top {
					parts = append(parts, fmt.Sprintf("%s %s - %d messages", medals[i], u.Author, u.Record.Messages))
				}
				return "🏆 Top Chatters: " + strings.Join(parts, " | "), nil
			},
		},
	}
}

func describeCommand(d *Descriptor) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "!%s", d.Name)
	if len(d.Aliases) > 0 {
		aliases := make([]string, len(d.Aliases))
		for i, a := range d.Aliases {
			aliases[i] = Prefix + a
		}
		fmt.Fprintf(&sb, " (aliases: %s)", strings.Join(aliases, ", "))
	}
	fmt.Fprintf(&sb, " - %s", d.Description)
	if d.Usage != "" {
		fmt.Fprintf(&sb, " | Usage: %s", d.Usage)
	}
	if d.AdminOnly {
		sb.WriteString(" | admin only")
	}
	return sb.String()
}
