package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

func growthCommands(deps Deps) []*Descriptor {
	return []*Descriptor{
		{
			Name:        "setgoal",
			Aliases:     []string{"goal"},
			Description: "Set the follower goal",
			Usage:       "!setgoal <number>",
			AdminOnly:   true,
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				fields := strings.Fields(arg)
				if len(fields) == 0 {
					return "Usage: !setgoal <number> (e.g., !setgoal 2000)", nil
				}
				goal, err := strconv.Atoi(fields[0])
				if err != nil {
					return fmt.Sprintf("'%s' is not a valid number!", fields[0]), nil
				}
				if goal <= 0 {
					return "Goal must be a positive number!", nil
				}
				deps.Growth.SetFollowerGoal(ctx, goal)
				return fmt.Sprintf("📈 Follower goal set to %d! Let's reach it together! 💪", goal), nil
			},
		},
		{
			Name:        "setfollowers",
			Description: "Override the current follower count",
			Usage:       "!setfollowers <number>",
			AdminOnly:   true,
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				fields := strings.Fields(arg)
				if len(fields) == 0 {
					return "Usage: !setfollowers <number>", nil
				}
				count, err := strconv.Atoi(fields[0])
				if err != nil || count < 0 {
					return fmt.Sprintf("'%s' is not a valid follower count!", fields[0]), nil
				}
				deps.Growth.UpdateFollowerCount(ctx, count)
				remaining, percent := deps.Growth.FollowerProgress()
				return fmt.Sprintf("Follower count set to %d (%d to go, %.1f%%)", count, remaining, percent), nil
			},
		},
		{
			Name:        "challenge",
			Aliases:     []string{"startchallenge"},
			Description: "Start a community challenge",
			Usage:       "!challenge <message_count> <reward>",
			AdminOnly:   true,
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				count, reward, ok := parseChallengeArgs(arg)
				if !ok {
					return "Usage: !challenge <message_count> <reward> (e.g., !challenge 500 play a raid)", nil
				}
				if count <= 0 {
					return "Message count must be a positive number!", nil
				}
				msg, err := deps.Growth.StartChallenge(ctx, count, reward,
					deps.Engagement.TotalMessages(), c.Timestamp)
				if err != nil {
					return fmt.Sprintf("Can't start a challenge: %v", err), nil
				}
				return msg, nil
			},
		},
		{
			Name:        "cancelchallenge",
			Aliases:     []string{"stopchallenge"},
			Description: "Cancel the current challenge",
			Usage:       "!cancelchallenge",
			AdminOnly:   true,
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				msg, err := deps.Growth.CancelChallenge(ctx)
				if err != nil {
					return "No active challenge to cancel!", nil
				}
				return msg, nil
			},
		},
		{
			Name:        "challengeprogress",
			Aliases:     []string{"cprogress"},
			Description: "Check current challenge progress",
			Usage:       "!challengeprogress",
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				return deps.Growth.ChallengeProgress(deps.Engagement.TotalMessages()), nil
			},
		},
		{
			Name:        "growthstats",
			Aliases:     []string{"gstats"},
			Description: "View growth statistics",
			Usage:       "!growthstats",
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				s := deps.Growth.StatsSummary()
				parts := []string{
					"📊 Growth Stats:",
					fmt.Sprintf("New Viewers: %d", s.NewViewers),
					fmt.Sprintf("Active Chatters: %d", len(deps.Engagement.TopUsers(0))),
				}
				if top := deps.Engagement.TopUsers(1); len(top) > 0 {
					parts = append(parts, fmt.Sprintf("Top Chatter: %s", top[0].Author))
				}
				parts = append(parts,
					fmt.Sprintf("Follower Goal: %d more to %d", s.FollowersRemaining, s.FollowerGoal),
					fmt.Sprintf("Challenge Active: %s", yesNo(s.ChallengeActive)),
				)
				return strings.Join(parts, " | "), nil
			},
		},
		{
			Name:        "export",
			Description: "Export the current session report",
			Usage:       "!export",
			AdminOnly:   true,
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				sessionID := deps.SessionID()
				if sessionID == "" {
					return "No session is being recorded right now.", nil
				}
				report, err := deps.Store.SessionReport(ctx, sessionID)
				if err != nil {
					return "", fmt.Errorf("build session report: %w", err)
				}
				parts := []string{
					fmt.Sprintf("📤 Session %s", report.SessionID),
					fmt.Sprintf("Messages: %d", report.Messages),
					fmt.Sprintf("Chatters: %d", report.Chatters),
					fmt.Sprintf("Commands: %d", report.CommandRuns),
					fmt.Sprintf("Peak Viewers: %d", report.PeakViewers),
				}
				if len(report.TopChatters) > 0 {
					tops := make([]string, 0, len(report.TopChatters))
					for _, tc := range report.TopChatters {
						tops = append(tops, fmt.Sprintf("%s (%d)", tc.Author, tc.Messages))
					}
					parts = append(parts, "Top: "+strings.Join(tops, ", "))
				}
				return strings.Join(parts, " | "), nil
			},
		},
	}
}

// parseChallengeArgs splits "<count> <reward...>" and strips a matching
// pair of surrounding quotes from the reward text if present.
func parseChallengeArgs(arg string) (count int, reward string, ok bool) {
	arg = strings.TrimSpace(arg)
	i := strings.IndexAny(arg, " \t")
	if i < 0 {
		return 0, "", false
	}
	count, err := strconv.Atoi(arg[:i])
	if err != nil {
		return 0, "", false
	}
	reward = strings.TrimSpace(arg[i+1:])
	if reward == "" {
		return 0, "", false
	}
	if len(reward) >= 2 {
		first, last := reward[0], reward[len(reward)-1]
		if first == last && (first == '"' || first == '\'') {
			reward = reward[1 : len(reward)-1]
		}
	}
	if reward == "" {
		return 0, "", false
	}
	return count, reward, true
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
