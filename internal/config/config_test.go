package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("STREAMNOVA_TEST_KEY", "sk-abc123")
	defer os.Unsetenv("STREAMNOVA_TEST_KEY")

	cases := []struct {
		in   string
		want string
	}{
		{"${STREAMNOVA_TEST_KEY}", "sk-abc123"},
		{"prefix ${STREAMNOVA_TEST_KEY} suffix", "prefix sk-abc123 suffix"},
		{"${STREAMNOVA_UNSET_VAR:-fallback}", "fallback"},
		{"${STREAMNOVA_UNSET_VAR}", "${STREAMNOVA_UNSET_VAR}"},
		{"no vars here", "no vars here"},
	}
	for _, tc := range cases {
		if got := ExpandEnvVars(tc.in); got != tc.want {
			t.Errorf("ExpandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExpandEnvVarsEmptyValueUsesDefault(t *testing.T) {
	os.Setenv("STREAMNOVA_EMPTY_VAR", "")
	defer os.Unsetenv("STREAMNOVA_EMPTY_VAR")

	if got := ExpandEnvVars("${STREAMNOVA_EMPTY_VAR:-def}"); got != "def" {
		t.Errorf("expected default for empty env var, got %q", got)
	}
}

func TestLoadAppliesDefaultsAndExpansion(t *testing.T) {
	os.Setenv("STREAMNOVA_TEST_VIDEO", "abc-video-id")
	defer os.Unsetenv("STREAMNOVA_TEST_VIDEO")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	raw := `{
		"bot": {"name": "NovaBot", "adminUsers": ["LokiVersee"]},
		"youtube": {"videoId": "${STREAMNOVA_TEST_VIDEO}"},
		"storage": {"dbPath": "` + filepath.Join(dir, "test.db") + `"}
	}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Bot.Name != "NovaBot" {
		t.Errorf("bot name = %q, want NovaBot", cfg.Bot.Name)
	}
	if cfg.YouTube.VideoID != "abc-video-id" {
		t.Errorf("videoId = %q, want expanded env value", cfg.YouTube.VideoID)
	}
	// Unspecified fields keep defaults.
	if cfg.Bot.ReplyMaxRunes != 200 {
		t.Errorf("replyMaxRunes default = %d, want 200", cfg.Bot.ReplyMaxRunes)
	}
	if cfg.Bot.ResponseDelaySeconds != 2 {
		t.Errorf("responseDelaySeconds default = %v, want 2", cfg.Bot.ResponseDelaySeconds)
	}
	if cfg.Growth.FollowerGoal != 2000 {
		t.Errorf("followerGoal default = %d, want 2000", cfg.Growth.FollowerGoal)
	}
	if cfg.Moderation.SpamRepetitionThreshold != 3 {
		t.Errorf("spamRepetitionThreshold default = %d, want 3", cfg.Moderation.SpamRepetitionThreshold)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Bot.Name = ""
	cfg.Bot.ReplyMaxRunes = 0
	cfg.Moderation.SpamRepetitionThreshold = 1
	cfg.General.FailoverChain = []string{"nonexistent"}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"bot.name is required",
		"bot.replyMaxRunes",
		"moderation.spamRepetitionThreshold",
		"unknown provider: nonexistent",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("validation error missing %q:\n%s", want, msg)
		}
	}
}

func TestValidateDefaultsPass(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.json")

	cfg := Defaults()
	cfg.Bot.Name = "TestNova"
	cfg.YouTube.VideoID = "vid123"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Bot.Name != "TestNova" || loaded.YouTube.VideoID != "vid123" {
		t.Errorf("round trip lost values: %+v", loaded.Bot)
	}
}

func TestGetByPath(t *testing.T) {
	cfg := Defaults()
	cfg.Bot.Name = "NovaBot"

	v, err := GetByPath(cfg, "bot.name")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if v != "NovaBot" {
		t.Errorf("bot.name = %v, want NovaBot", v)
	}

	v, err = GetByPath(cfg, "providers.ollama.defaultModel")
	if err != nil {
		t.Fatalf("GetByPath nested failed: %v", err)
	}
	if v != "llama3.1:8b" {
		t.Errorf("defaultModel = %v", v)
	}

	if _, err := GetByPath(cfg, "bot.missing"); err == nil {
		t.Error("expected error for unknown path")
	}
}

func TestSetByPath(t *testing.T) {
	cfg := Defaults()

	if err := SetByPath(cfg, "bot.replyMaxRunes", "150"); err != nil {
		t.Fatalf("SetByPath int failed: %v", err)
	}
	if cfg.Bot.ReplyMaxRunes != 150 {
		t.Errorf("replyMaxRunes = %d, want 150", cfg.Bot.ReplyMaxRunes)
	}

	if err := SetByPath(cfg, "telemetry.enabled", "true"); err != nil {
		t.Fatalf("SetByPath bool failed: %v", err)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("telemetry.enabled should be true")
	}

	if err := SetByPath(cfg, "general.logLevel", "debug"); err != nil {
		t.Fatalf("SetByPath string failed: %v", err)
	}
	if cfg.General.LogLevel != "debug" {
		t.Errorf("logLevel = %q", cfg.General.LogLevel)
	}

	if err := SetByPath(cfg, "bot.missing", "x"); err == nil {
		t.Error("expected error for unknown path")
	}
}

func TestSanitizeMasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Providers["openai"] = ProviderConfig{
		Enabled: true,
		APIBase: "https://api.openai.com/v1",
		APIKey:  "sk-verysecretkey12345",
	}
	cfg.Valorant.APIKey = "HDEV-1234-5678-abcd"

	out := Sanitize(cfg)

	if got := out.Providers["openai"].APIKey; got != "sk-v****2345" {
		t.Errorf("masked provider key = %q", got)
	}
	if got := out.Valorant.APIKey; got != "HDEV****abcd" {
		t.Errorf("masked valorant key = %q", got)
	}
	// Original must be untouched.
	if cfg.Providers["openai"].APIKey != "sk-verysecretkey12345" {
		t.Error("Sanitize mutated the original config")
	}
}

func TestMaskString(t *testing.T) {
	if got := maskString(""); got != "" {
		t.Errorf("empty mask = %q", got)
	}
	if got := maskString("short"); got != "****" {
		t.Errorf("short mask = %q", got)
	}
}

func TestListPathsIncludesKnownKeys(t *testing.T) {
	paths := ListPaths(Defaults())
	found := map[string]bool{}
	for _, p := range paths {
		found[p] = true
	}
	for _, want := range []string{"bot.name", "storage.dbPath", "growth.followerGoal", "moderation.rateMaxCalls"} {
		if !found[want] {
			t.Errorf("ListPaths missing %s", want)
		}
	}
}
