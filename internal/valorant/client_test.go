package valorant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Logger: testLogger()})
}

func TestGetMMR(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/mmr/eu/Player/123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "test-key" {
			t.Error("missing api key header")
		}
		w.Write([]byte(`{
			"status": 200,
			"data": {
				"current_data": {"currenttierpatched": "Diamond 2", "ranking_in_tier": 43, "elo": 1843},
				"mmr_change_to_last_game": 18
			}
		}`))
	})

	mmr, err := c.GetMMR(context.Background(), "eu", "Player", "123")
	if err != nil {
		t.Fatalf("GetMMR failed: %v", err)
	}
	if mmr.CurrentData.CurrentTierPatched != "Diamond 2" || mmr.CurrentData.RankingInTier != 43 {
		t.Errorf("unexpected mmr: %+v", mmr)
	}

	line := FormatRank(mmr, "Player", "123")
	for _, want := range []string{"Player#123", "Diamond 2", "43 RR", "+18 RR"} {
		if !strings.Contains(line, want) {
			t.Errorf("rank line missing %q: %s", want, line)
		}
	}
}

func TestGetMMR_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetMMR(context.Background(), "eu", "Ghost", "000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetMatchHistory_QueryAndSizeClamp(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("mode") != "competitive" {
			t.Errorf("mode = %q", q.Get("mode"))
		}
		if q.Get("size") != "20" {
			t.Errorf("size not clamped: %q", q.Get("size"))
		}
		w.Write([]byte(`{"status": 200, "data": []}`))
	})

	matches, err := c.GetMatchHistory(context.Background(), "eu", "Player", "123", 50)
	if err != nil {
		t.Fatalf("GetMatchHistory failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected empty history, got %d", len(matches))
	}
}

func sampleMatch(name, tag, team string, kills, deaths, assists int, won bool) Match {
	var m Match
	m.Metadata.Map = "Ascent"
	m.Metadata.Mode = "Competitive"
	p := MatchPlayer{Name: name, Tag: tag, Team: team, Character: "Jett"}
	p.Stats.Kills = kills
	p.Stats.Deaths = deaths
	p.Stats.Assists = assists
	m.Players.AllPlayers = []MatchPlayer{p}
	m.Teams = map[string]struct {
		HasWon bool `json:"has_won"`
	}{strings.ToLower(team): {HasWon: won}}
	return m
}

func TestFormatMatchSummary(t *testing.T) {
	matches := []Match{sampleMatch("Player", "123", "Red", 24, 12, 6, true)}

	line := FormatMatchSummary(matches, "Player", "123")
	for _, want := range []string{"WIN", "Ascent", "Jett", "24/12/6", "2.00 KD"} {
		if !strings.Contains(line, want) {
			t.Errorf("summary missing %q: %s", want, line)
		}
	}

	if got := FormatMatchSummary(nil, "Player", "123"); !strings.Contains(got, "No recent matches") {
		t.Errorf("empty history summary: %s", got)
	}
}

func TestAverageStats(t *testing.T) {
	matches := []Match{
		sampleMatch("Player", "123", "Red", 20, 10, 2, true),
		sampleMatch("Player", "123", "Blue", 10, 10, 4, false),
	}

	avgKills, avgDeaths, wins, played := AverageStats(matches, "Player")
	if played != 2 || wins != 1 {
		t.Fatalf("played=%d wins=%d", played, wins)
	}
	if avgKills != 15 || avgDeaths != 10 {
		t.Errorf("avgKills=%v avgDeaths=%v", avgKills, avgDeaths)
	}
}

func TestExtractRiotID(t *testing.T) {
	cases := []struct {
		in        string
		name, tag string
		ok        bool
	}{
		{"my id is Player#123", "Player", "123", true},
		{"ID: Loki#EUW", "Loki", "EUW", true},
		{"riot id is SomeName#007 check my rank", "SomeName", "007", true},
		{"what is my kd", "", "", false},
	}
	for _, tc := range cases {
		name, tag, ok := ExtractRiotID(tc.in)
		if ok != tc.ok || name != tc.name || tag != tc.tag {
			t.Errorf("ExtractRiotID(%q) = %q,%q,%v want %q,%q,%v",
				tc.in, name, tag, ok, tc.name, tc.tag, tc.ok)
		}
	}
}

func TestSplitRiotID(t *testing.T) {
	name, tag, ok := SplitRiotID("Player#123")
	if !ok || name != "Player" || tag != "123" {
		t.Fatalf("SplitRiotID = %q,%q,%v", name, tag, ok)
	}
	if _, _, ok := SplitRiotID("noseparator"); ok {
		t.Fatal("expected failure without #")
	}
}

func TestResolveRegion(t *testing.T) {
	c := NewClient(Config{Region: "ap", Logger: testLogger()})
	if got := c.ResolveRegion(""); got != "ap" {
		t.Errorf("fallback region = %q", got)
	}
	if got := c.ResolveRegion("na"); got != "na" {
		t.Errorf("profile region = %q", got)
	}
}

func TestKnownMapAndAgents(t *testing.T) {
	if name, ok := KnownMap("ascent"); !ok || name != "Ascent" {
		t.Errorf("KnownMap(ascent) = %q,%v", name, ok)
	}
	if _, ok := KnownMap("Summoners Rift"); ok {
		t.Error("unexpected known map")
	}
	if len(AgentNames()) == 0 {
		t.Error("agent list empty")
	}
}
