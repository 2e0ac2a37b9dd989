package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"streamnova/internal/valorant"
)

func valorantCommands(deps Deps) []*Descriptor {
	return []*Descriptor{
		{
			Name:        "val",
			Aliases:     []string{"valorant"},
			Description: "Get Valorant stats for a player",
			Usage:       "!val [rank|stats] username#TAG",
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				return handleVal(ctx, deps, c, arg)
			},
		},
		{
			Name:        "agent",
			Aliases:     []string{"agents", "champions"},
			Description: "Show information about a Valorant agent",
			Usage:       "!agent [name] or !agents for the list",
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				fields := strings.Fields(arg)
				if len(fields) == 0 || isListToken(fields[0]) {
					return "Valorant agents: " + strings.Join(valorant.AgentNames(), ", "), nil
				}
				info, ok := valorant.AgentInfo(fields[0])
				if !ok {
					return fmt.Sprintf("Agent '%s' not found. Use !agents for the full list.", fields[0]), nil
				}
				return info, nil
			},
		},
		{
			Name:        "map",
			Aliases:     []string{"maps"},
			Description: "Show Valorant map information",
			Usage:       "!map [name] or !maps for the list",
			Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
				fields := strings.Fields(arg)
				if len(fields) == 0 || isListToken(fields[0]) {
					return "Valorant maps: " + strings.Join(valorant.MapNames(), ", "), nil
				}
				name, ok := valorant.KnownMap(fields[0])
				if !ok {
					return fmt.Sprintf("Map '%s' not found. Available: %s",
						fields[0], strings.Join(valorant.MapNames(), ", ")), nil
				}
				return fmt.Sprintf("Map: %s - Try !map %s for strategies", name, strings.ToLower(name)), nil
			},
		},
	}
}

func isListToken(s string) bool {
	s = strings.ToLower(s)
	return s == "list" || s == "all"
}

// handleVal interprets the !val argument grammar:
//
//	!val username#TAG            rank plus last match
//	!val rank username#TAG       rank only
//	!val stats username#TAG      averages over recent matches
func handleVal(ctx context.Context, deps Deps, c *Context, arg string) (string, error) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return "Usage: !val [rank|stats] username#TAG (e.g., !val Player#123)", nil
	}

	queryType := "summary"
	riotID := fields[0]
	if len(fields) >= 2 {
		switch strings.ToLower(fields[0]) {
		case "rank", "stats":
			queryType = strings.ToLower(fields[0])
			riotID = fields[1]
		}
	}

	name, tag, ok := valorant.SplitRiotID(riotID)
	if !ok {
		return "Invalid format. Use: !val username#TAG (e.g., !val Player#123)", nil
	}

	region := deps.Valorant.ResolveRegion(c.Profile.ValorantRegion)
	deps.Logger.Info("valorant lookup",
		"author", c.Author, "player", name+"#"+tag, "query", queryType, "region", region)

	switch queryType {
	case "stats":
		matches, err := deps.Valorant.GetMatchHistory(ctx, region, name, tag, 5)
		if err != nil {
			return valLookupFailure(deps, name, tag, err), nil
		}
		avgKills, avgDeaths, wins, played := valorant.AverageStats(matches, name)
		if played == 0 {
			return fmt.Sprintf("❌ No match data found for %s#%s", name, tag), nil
		}
		winRate := float64(wins) / float64(played) * 100
		return fmt.Sprintf("📊 %s#%s (Last %d games) Avg K/D: %.1f/%.1f | Win Rate: %.0f%% (%dW %dL)",
			name, tag, played, avgKills, avgDeaths, winRate, wins, played-wins), nil

	default:
		mmr, err := deps.Valorant.GetMMR(ctx, region, name, tag)
		if err != nil {
			return valLookupFailure(deps, name, tag, err), nil
		}
		resp := valorant.FormatRank(mmr, name, tag)
		if queryType == "summary" {
			if matches, err := deps.Valorant.GetMatchHistory(ctx, region, name, tag, 1); err == nil {
				resp += " | " + valorant.FormatMatchSummary(matches, name, tag)
			}
		}
		return resp, nil
	}
}

func valLookupFailure(deps Deps, name, tag string, err error) string {
	if errors.Is(err, valorant.ErrNotFound) {
		return fmt.Sprintf("❌ Could not find stats for %s#%s. Check spelling and region!", name, tag)
	}
	deps.Logger.Error("valorant lookup failed", "player", name+"#"+tag, "error", err)
	return fmt.Sprintf("❌ Error fetching stats for %s#%s. Try again later!", name, tag)
}
