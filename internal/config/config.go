package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for StreamNova.
type Config struct {
	General    GeneralConfig             `json:"general"`
	Bot        BotConfig                 `json:"bot"`
	YouTube    YouTubeConfig             `json:"youtube"`
	Providers  map[string]ProviderConfig `json:"providers"`
	Moderation ModerationConfig          `json:"moderation"`
	Growth     GrowthConfig              `json:"growth"`
	Skills     SkillsConfig              `json:"skills"`
	Storage    StorageConfig             `json:"storage"`
	Valorant   ValorantConfig            `json:"valorant"`
	Telemetry  TelemetryConfig           `json:"telemetry"`
}

type GeneralConfig struct {
	LogLevel        string   `json:"logLevel"`
	LogFile         string   `json:"logFile,omitempty"`
	DefaultProvider string   `json:"defaultProvider"`
	FailoverChain   []string `json:"failoverChain,omitempty"` // backend failover order
}

// BotConfig shapes the bot's identity and reply behavior.
type BotConfig struct {
	Name       string   `json:"name"`
	Aliases    []string `json:"aliases,omitempty"` // extra accepted names beyond "bot"/"host"
	AdminUsers []string `json:"adminUsers"`
	// ResponseDelaySeconds spaces outbound replies so the bot feels human.
	ResponseDelaySeconds float64 `json:"responseDelaySeconds"`
	// ReplyMaxRunes clamps outbound replies; YouTube rejects long messages.
	ReplyMaxRunes int    `json:"replyMaxRunes"`
	ProfilePath   string `json:"profilePath"`
	SystemPrompt  string `json:"systemPrompt,omitempty"`
}

type YouTubeConfig struct {
	CredentialsFile     string `json:"credentialsFile"`
	TokenFile           string `json:"tokenFile"`
	VideoID             string `json:"videoId"`
	PollIntervalSeconds int    `json:"pollIntervalSeconds"`
}

type ProviderConfig struct {
	Enabled      bool   `json:"enabled"`
	APIBase      string `json:"apiBase,omitempty"`
	APIKey       string `json:"apiKey,omitempty"`
	DefaultModel string `json:"defaultModel,omitempty"`
}

type ModerationConfig struct {
	RateMaxCalls            int      `json:"rateMaxCalls"`
	RatePeriodSeconds       int      `json:"ratePeriodSeconds"`
	SpamPatterns            []string `json:"spamPatterns,omitempty"`
	SpamRepetitionThreshold int      `json:"spamRepetitionThreshold"`
	// IgnoreModerators and IgnoreOwner drop matching messages before
	// classification, so moderator chatter never draws a reply.
	IgnoreModerators bool `json:"ignoreModerators"`
	IgnoreOwner      bool `json:"ignoreOwner"`
}

type GrowthConfig struct {
	FollowerGoal                int      `json:"followerGoal"`
	WelcomeMessages             []string `json:"welcomeMessages,omitempty"`
	FollowerIntervalMinutes     int      `json:"followerIntervalMinutes"`
	CalloutIntervalMinutes      int      `json:"calloutIntervalMinutes"`
	ViewerSampleIntervalSeconds int      `json:"viewerSampleIntervalSeconds"`
}

type SkillsConfig struct {
	Dir                    string `json:"dir,omitempty"` // user skill YAML directory
	CommunityMinGapSeconds int    `json:"communityMinGapSeconds"`
}

type StorageConfig struct {
	DBPath string `json:"dbPath"`
}

type ValorantConfig struct {
	APIKey string `json:"apiKey,omitempty"`
	Region string `json:"region,omitempty"`
}

// TelemetryConfig configures the Prometheus metrics endpoint.
type TelemetryConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}

// DefaultConfigDir returns the default config directory (~/.streamnova).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".streamnova"
	}
	return filepath.Join(home, ".streamnova")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Bot.ProfilePath = ExpandPath(cfg.Bot.ProfilePath)
	cfg.Storage.DBPath = ExpandPath(cfg.Storage.DBPath)
	cfg.Skills.Dir = ExpandPath(cfg.Skills.Dir)
	cfg.YouTube.CredentialsFile = ExpandPath(cfg.YouTube.CredentialsFile)
	cfg.YouTube.TokenFile = ExpandPath(cfg.YouTube.TokenFile)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Bot.Name == "" {
		errs = append(errs, "bot.name is required")
	}
	if cfg.Bot.ResponseDelaySeconds < 0 {
		errs = append(errs, "bot.responseDelaySeconds must be >= 0")
	}
	if cfg.Bot.ReplyMaxRunes < 1 {
		errs = append(errs, "bot.replyMaxRunes must be >= 1")
	}

	if cfg.YouTube.PollIntervalSeconds < 1 {
		errs = append(errs, "youtube.pollIntervalSeconds must be >= 1")
	}

	if cfg.Moderation.RateMaxCalls < 1 {
		errs = append(errs, "moderation.rateMaxCalls must be >= 1")
	}
	if cfg.Moderation.RatePeriodSeconds < 1 {
		errs = append(errs, "moderation.ratePeriodSeconds must be >= 1")
	}
	if cfg.Moderation.SpamRepetitionThreshold < 2 {
		errs = append(errs, "moderation.spamRepetitionThreshold must be >= 2")
	}

	if cfg.Growth.FollowerIntervalMinutes < 1 {
		errs = append(errs, "growth.followerIntervalMinutes must be >= 1")
	}
	if cfg.Growth.CalloutIntervalMinutes < 1 {
		errs = append(errs, "growth.calloutIntervalMinutes must be >= 1")
	}

	if cfg.Storage.DBPath == "" {
		errs = append(errs, "storage.dbPath is required")
	}

	// Validate failover chain references exist in providers.
	for _, provName := range cfg.General.FailoverChain {
		if _, ok := cfg.Providers[provName]; !ok {
			errs = append(errs, fmt.Sprintf("general.failoverChain references unknown provider: %s", provName))
		}
	}

	for name, pc := range cfg.Providers {
		if pc.Enabled && pc.APIBase == "" && name != "ollama" {
			errs = append(errs, fmt.Sprintf("providers.%s: apiBase is required", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
