// Package valorant wraps the HenrikDev community API for player ranks and
// match history.
package valorant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.henrikdev.xyz/valorant"
	defaultTimeout = 15 * time.Second
	maxMatches     = 20
)

// Client queries the HenrikDev Valorant API. The API key is optional but
// recommended; without one the upstream rate limit is much tighter.
type Client struct {
	baseURL string
	apiKey  string
	region  string
	client  *http.Client
	logger  *slog.Logger
}

type Config struct {
	BaseURL string
	APIKey  string
	// Region is the fallback when neither the message nor the profile
	// names one ("eu", "na", "ap", "kr").
	Region string
	Logger *slog.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Region == "" {
		cfg.Region = "eu"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		logger.Warn("valorant api key not set, upstream rate limits apply")
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		region:  cfg.Region,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// ResolveRegion prefers the profile's region over the configured fallback.
func (c *Client) ResolveRegion(profileRegion string) string {
	if profileRegion != "" {
		return profileRegion
	}
	return c.region
}

// MMR is the subset of the v2 MMR payload the bot formats.
type MMR struct {
	CurrentData struct {
		CurrentTierPatched string `json:"currenttierpatched"`
		RankingInTier      int    `json:"ranking_in_tier"`
		Elo                int    `json:"elo"`
	} `json:"current_data"`
	MMRChangeToLastGame int `json:"mmr_change_to_last_game"`
}

// Match is one entry of the v3 match-history payload.
type Match struct {
	Metadata struct {
		Map  string `json:"map"`
		Mode string `json:"mode"`
	} `json:"metadata"`
	Players struct {
		AllPlayers []MatchPlayer `json:"all_players"`
	} `json:"players"`
	Teams map[string]struct {
		HasWon bool `json:"has_won"`
	} `json:"teams"`
}

// MatchPlayer is one player's line in a match.
type MatchPlayer struct {
	Name      string `json:"name"`
	Tag       string `json:"tag"`
	Team      string `json:"team"`
	Character string `json:"character"`
	Stats     struct {
		Kills   int `json:"kills"`
		Deaths  int `json:"deaths"`
		Assists int `json:"assists"`
	} `json:"stats"`
}

type apiEnvelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// ErrNotFound is reported when the upstream has no record of the player.
var ErrNotFound = fmt.Errorf("valorant: player not found")

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("valorant api not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("valorant api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode valorant response: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode valorant data: %w", err)
	}
	return nil
}

// GetMMR fetches current rank data for a player.
func (c *Client) GetMMR(ctx context.Context, region, name, tag string) (*MMR, error) {
	var mmr MMR
	path := fmt.Sprintf("/v2/mmr/%s/%s/%s",
		url.PathEscape(region), url.PathEscape(name), url.PathEscape(tag))
	if err := c.get(ctx, path, nil, &mmr); err != nil {
		return nil, err
	}
	return &mmr, nil
}

// GetMatchHistory fetches up to size recent competitive matches.
func (c *Client) GetMatchHistory(ctx context.Context, region, name, tag string, size int) ([]Match, error) {
	if size > maxMatches {
		size = maxMatches
	}
	q := url.Values{}
	q.Set("mode", "competitive")
	q.Set("size", strconv.Itoa(size))

	var matches []Match
	path := fmt.Sprintf("/v3/matches/%s/%s/%s",
		url.PathEscape(region), url.PathEscape(name), url.PathEscape(tag))
	if err := c.get(ctx, path, q, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// FormatRank renders MMR data as a chat line.
func FormatRank(mmr *MMR, name, tag string) string {
	tier := mmr.CurrentData.CurrentTierPatched
	if tier == "" {
		tier = "Unranked"
	}
	resp := fmt.Sprintf("🎮 %s#%s Rank: %s", name, tag, tier)
	if tier != "Unranked" {
		resp += fmt.Sprintf(" (%d RR)", mmr.CurrentData.RankingInTier)
	}
	if change := mmr.MMRChangeToLastGame; change != 0 {
		sign := ""
		if change > 0 {
			sign = "+"
		}
		resp += fmt.Sprintf(" | Last game: %s%d RR", sign, change)
	}
	return resp
}

// FormatMatchSummary renders the player's most recent match as a chat line.
func FormatMatchSummary(matches []Match, name, tag string) string {
	if len(matches) == 0 {
		return fmt.Sprintf("No recent matches found for %s#%s", name, tag)
	}
	match := matches[0]
	player, ok := findPlayer(match, name, tag)
	if !ok {
		return fmt.Sprintf("Stats not found in recent match for %s#%s", name, tag)
	}

	kills, deaths, assists := player.Stats.Kills, player.Stats.Deaths, player.Stats.Assists
	kd := float64(kills)
	if deaths > 0 {
		kd = float64(kills) / float64(deaths)
	}

	result := "❌ LOSS"
	if team, found := match.Teams[strings.ToLower(player.Team)]; found && team.HasWon {
		result = "🏆 WIN"
	}
	return fmt.Sprintf("%s | Last game on %s | Agent: %s | K/D/A: %d/%d/%d (%.2f KD)",
		result, match.Metadata.Map, player.Character, kills, deaths, assists, kd)
}

// AverageStats aggregates kills, deaths and win rate over a match list.
func AverageStats(matches []Match, name string) (avgKills, avgDeaths float64, wins, played int) {
	for _, match := range matches {
		player, ok := findPlayerByName(match, name)
		if !ok {
			continue
		}
		avgKills += float64(player.Stats.Kills)
		avgDeaths += float64(player.Stats.Deaths)
		played++
		if team, found := match.Teams[strings.ToLower(player.Team)]; found && team.HasWon {
			wins++
		}
	}
	if played > 0 {
		avgKills /= float64(played)
		avgDeaths /= float64(played)
	}
	return avgKills, avgDeaths, wins, played
}

func findPlayer(match Match, name, tag string) (MatchPlayer, bool) {
	for _, p := range match.Players.AllPlayers {
		if strings.EqualFold(p.Name, name) && strings.EqualFold(p.Tag, tag) {
			return p, true
		}
	}
	return MatchPlayer{}, false
}

func findPlayerByName(match Match, name string) (MatchPlayer, bool) {
	for _, p := range match.Players.AllPlayers {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return MatchPlayer{}, false
}
