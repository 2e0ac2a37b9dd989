package valorant

import (
	"regexp"
	"strings"
)

// RiotIDPattern matches a self-introduced Riot ID inside a chat message,
// e.g. "my id is Player#123".
var RiotIDPattern = regexp.MustCompile(`(?i)(?:my\s+id\s+is|id:|riot\s+id\s+is|valorant\s+id\s+is)\s*([a-zA-Z0-9]+)#([a-zA-Z0-9]+)`)

// ExtractRiotID pulls a self-introduced Riot ID out of free-form chat text.
func ExtractRiotID(text string) (name, tag string, ok bool) {
	m := RiotIDPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// SplitRiotID splits a "name#tag" token.
func SplitRiotID(s string) (name, tag string, ok bool) {
	name, tag, found := strings.Cut(s, "#")
	if !found || name == "" || tag == "" {
		return "", "", false
	}
	return name, tag, true
}

var agentNames = []string{
	"Reyna", "Jett", "Phoenix", "Sage", "Omen", "Brimstone",
	"Cypher", "Killjoy", "Viper", "Sova", "Yoru", "Astra",
	"Skye", "Chamber", "Neon", "Fade", "Gekko", "Harbor", "Iso", "Clove",
}

var agentInfo = map[string]string{
	"reyna":   "Reyna (Duelist) - Aggressive player with abilities to heal and dismiss herself",
	"jett":    "Jett (Duelist) - Fast, mobile agent with dash and projectile abilities",
	"phoenix": "Phoenix (Duelist) - Utility-focused duelist with fire abilities",
	"sage":    "Sage (Sentinel) - Support/healer with slow orb and resurrection",
	"omen":    "Omen (Controller) - Smoke controller with shadow abilities",
}

var mapNames = []string{
	"Ascent", "Bind", "Haven", "Split", "Icebox", "Breeze",
	"Fracture", "Pearl", "Sunset",
}

// AgentNames returns the playable agent roster.
func AgentNames() []string { return agentNames }

// AgentInfo returns a short blurb for a known agent.
func AgentInfo(name string) (string, bool) {
	info, ok := agentInfo[strings.ToLower(name)]
	return info, ok
}

// MapNames returns the map pool.
func MapNames() []string { return mapNames }

// KnownMap reports whether name is a map in the pool, returning its
// canonical capitalization.
func KnownMap(name string) (string, bool) {
	for _, m := range mapNames {
		if strings.EqualFold(m, name) {
			return m, true
		}
	}
	return "", false
}
