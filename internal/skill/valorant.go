package skill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"streamnova/internal/domain"
	"streamnova/internal/valorant"
)

// ValorantStats answers rank and K/D questions from chat. The Riot ID
// comes from the message itself ("my id is Player#123") or falls back to
// the streamer's profile.
type ValorantStats struct {
	Client *valorant.Client
	Logger *slog.Logger
}

var valorantTriggers = []string{"kd", "k/d", "rank", "last match", "valorant", "rr"}

func (v *ValorantStats) Name() string { return "valorant_stats" }

func (v *ValorantStats) ShouldHandle(author, message string) bool {
	msg := strings.ToLower(message)
	// Never react to the bot's own stat replies echoed back by the source.
	if strings.HasPrefix(msg, "valorant stats for") {
		return false
	}
	for _, t := range valorantTriggers {
		if strings.Contains(msg, t) {
			return true
		}
	}
	return false
}

func (v *ValorantStats) Handle(ctx context.Context, in domain.SkillInput) (string, error) {
	name, tag, ok := valorant.ExtractRiotID(in.Message)
	if !ok {
		name, tag, ok = valorant.SplitRiotID(in.Profile.ValorantID)
	}
	if !ok {
		return "Valorant ID not found. Use !val YourName#TAG or ask the streamer to set theirs!", nil
	}

	region := v.Client.ResolveRegion(in.Profile.ValorantRegion)
	v.Logger.Info("valorant skill lookup", "author", in.Author, "player", name+"#"+tag, "region", region)

	mmr, err := v.Client.GetMMR(ctx, region, name, tag)
	if err != nil {
		if errors.Is(err, valorant.ErrNotFound) {
			return fmt.Sprintf("Could not find Valorant stats for %s#%s.", name, tag), nil
		}
		return "", fmt.Errorf("valorant lookup: %w", err)
	}

	resp := valorant.FormatRank(mmr, name, tag)
	lower := strings.ToLower(in.Message)
	if strings.Contains(lower, "last match") || strings.Contains(lower, "kd") || strings.Contains(lower, "k/d") {
		if matches, err := v.Client.GetMatchHistory(ctx, region, name, tag, 1); err == nil {
			resp += " | " + valorant.FormatMatchSummary(matches, name, tag)
		}
	}
	return resp, nil
}
