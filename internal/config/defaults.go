package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:        "info",
			DefaultProvider: "ollama",
		},
		Bot: BotConfig{
			Name:                 "StreamNova",
			Aliases:              []string{"bot", "host"},
			ResponseDelaySeconds: 2,
			ReplyMaxRunes:        200,
			ProfilePath:          "~/.streamnova/profile.json",
		},
		YouTube: YouTubeConfig{
			CredentialsFile:     "~/.streamnova/credentials.json",
			TokenFile:           "~/.streamnova/token.json",
			PollIntervalSeconds: 5,
		},
		Providers: map[string]ProviderConfig{
			"ollama": {
				Enabled:      true,
				APIBase:      "http://localhost:11434",
				DefaultModel: "llama3.1:8b",
			},
		},
		Moderation: ModerationConfig{
			RateMaxCalls:            3,
			RatePeriodSeconds:       30,
			SpamPatterns:            defaultSpamPatterns(),
			SpamRepetitionThreshold: 3,
		},
		Growth: GrowthConfig{
			FollowerGoal:                2000,
			WelcomeMessages:             defaultWelcomeMessages(),
			FollowerIntervalMinutes:     60,
			CalloutIntervalMinutes:      30,
			ViewerSampleIntervalSeconds: 120,
		},
		Skills: SkillsConfig{
			Dir:                    "~/.streamnova/skills",
			CommunityMinGapSeconds: 300,
		},
		Storage: StorageConfig{
			DBPath: "~/.streamnova/streamnova.db",
		},
		Valorant: ValorantConfig{
			Region: "ap",
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
		},
	}
}

func defaultSpamPatterns() []string {
	return []string{
		`(?i)\bfree\s+(robux|vbucks|v-bucks|nitro)\b`,
		`(?i)\bcheck\s+out\s+my\s+channel\b`,
		`(?i)\bsub\s*4\s*sub\b`,
		`(?i)\bfollow\s*4\s*follow\b`,
		`(?i)https?://\S+\s+paid\b`,
		`(?i)\bbuy\s+(followers|subs|views)\b`,
	}
}

func defaultWelcomeMessages() []string {
	return []string{
		"Welcome to the stream, %s! Grab a seat and enjoy! 🎮",
		"Hey %s, glad you made it! Say hi in chat! 👋",
		"%s just joined the party! Welcome! 🎉",
	}
}
