package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"streamnova/internal/bridge"
	"streamnova/internal/command"
	"streamnova/internal/config"
	"streamnova/internal/domain"
	"streamnova/internal/engagement"
	"streamnova/internal/growth"
	"streamnova/internal/moderation"
	"streamnova/internal/profile"
	"streamnova/internal/provider"
	"streamnova/internal/router"
	"streamnova/internal/skill"
	"streamnova/internal/store"
	"streamnova/internal/telemetry"
	"streamnova/internal/valorant"
	"streamnova/internal/youtube"
)

var (
	version    = "0.3.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	// .env carries API keys during local development; missing is fine.
	_ = godotenv.Load()

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "streamnova",
		Short: "StreamNova: YouTube live-chat co-host bot",
		Long:  "StreamNova reads a YouTube live chat, answers commands and questions, and runs channel growth features.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.streamnova/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(authCmd())
	root.AddCommand(runCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(configCmd())
	root.AddCommand(exportCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the default config and a starter profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}

			profPath := config.ExpandPath(cfg.Bot.ProfilePath)
			if _, err := os.Stat(profPath); os.IsNotExist(err) {
				starter := domain.Profile{
					Name:        "YourName",
					CurrentGame: "Valorant",
					SocialLinks: map[string]string{"youtube": "https://youtube.com/@yourchannel"},
				}
				if err := profile.Save(profPath, starter); err != nil {
					return err
				}
			}

			logger.Info("initialized", "config", cfgPath, "profile", profPath)
			fmt.Println("Next steps:")
			fmt.Println("  1. Put your Google OAuth client JSON at", cfg.YouTube.CredentialsFile)
			fmt.Println("  2. Run 'streamnova auth' to authorize the bot account")
			fmt.Println("  3. Edit", profPath, "with your streamer details")
			fmt.Println("  4. Start a live stream and run 'streamnova run'")
			return nil
		},
	}
}

func authCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Run the OAuth2 flow and save the YouTube token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			oauthCfg, url, err := youtube.Authorize(cfg.YouTube.CredentialsFile)
			if err != nil {
				return err
			}
			fmt.Println("Open this URL in a browser and authorize the bot account:")
			fmt.Println()
			fmt.Println("  " + url)
			fmt.Println()
			fmt.Print("Paste the authorization code: ")

			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read code: %w", err)
			}
			code = strings.TrimSpace(code)

			if err := youtube.Exchange(cmd.Context(), oauthCfg, code, cfg.YouTube.TokenFile); err != nil {
				return err
			}
			logger.Info("token saved", "path", cfg.YouTube.TokenFile)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	var videoID string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the live chat and run the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(videoID)
		},
	}
	cmd.Flags().StringVar(&videoID, "video", "", "video ID of the live stream (default: active broadcast)")
	return cmd
}

func runBot(videoID string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closeLog, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	logger = log
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		telemetry.Init()
		go func() {
			if err := telemetry.Serve(ctx, cfg.Telemetry.Addr, log); err != nil {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	db, err := store.NewSQLiteStore(cfg.Storage.DBPath, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	prof, err := profile.Load(cfg.Bot.ProfilePath, log)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	if videoID == "" {
		videoID = cfg.YouTube.VideoID
	}
	yt, err := youtube.Connect(ctx, youtube.Config{
		CredentialsFile: cfg.YouTube.CredentialsFile,
		TokenFile:       cfg.YouTube.TokenFile,
		VideoID:         videoID,
		Logger:          log,
	})
	if err != nil {
		return fmt.Errorf("connect to youtube: %w", err)
	}

	valClient := valorant.NewClient(valorant.Config{
		APIKey: cfg.Valorant.APIKey,
		Region: cfg.Valorant.Region,
		Logger: log,
	})

	streamerName := prof.Profile().Name
	if streamerName == "" {
		streamerName = cfg.Bot.Name
	}
	growthFeatures := growth.New(db, log,
		growth.WithStreamerName(streamerName),
		growth.WithWelcomeMessages(cfg.Growth.WelcomeMessages),
		growth.WithIntervals(
			time.Duration(cfg.Growth.FollowerIntervalMinutes)*time.Minute,
			time.Duration(cfg.Growth.CalloutIntervalMinutes)*time.Minute,
		),
	)

	tracker := engagement.NewTracker()

	var br *bridge.Bridge

	registry := command.NewRegistry(log)
	err = command.RegisterBuiltins(registry, command.Deps{
		Logger:     log,
		Profile:    prof,
		Stats:      yt,
		Growth:     growthFeatures,
		Engagement: tracker,
		Valorant:   valClient,
		Store:      db,
		SessionID: func() string {
			if br == nil {
				return ""
			}
			return br.SessionID()
		},
		StartedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("register commands: %w", err)
	}

	skills := buildSkills(cfg, valClient, log)

	words := router.DefaultWords()
	words.BotNames = append([]string{cfg.Bot.Name, streamerName}, cfg.Bot.Aliases...)
	rt := router.New(registry, words, log)

	llm, err := provider.NewFactory(cfg, log).Chain()
	if err != nil {
		log.Warn("no llm backend available, question replies disabled", "error", err)
		llm = nil
	} else if herr := llm.Healthy(ctx); herr != nil {
		log.Warn("llm backend unhealthy at startup", "backend", llm.Name(), "error", herr)
	}

	br = bridge.New(bridge.Config{
		BotName:          cfg.Bot.Name,
		AdminUsers:       cfg.Bot.AdminUsers,
		SystemPrompt:     systemPrompt(cfg, prof.Profile()),
		ResponseDelay:    time.Duration(cfg.Bot.ResponseDelaySeconds * float64(time.Second)),
		ReplyMaxRunes:    cfg.Bot.ReplyMaxRunes,
		PollInterval:     time.Duration(cfg.YouTube.PollIntervalSeconds) * time.Second,
		ViewerSampleGap:  time.Duration(cfg.Growth.ViewerSampleIntervalSeconds) * time.Second,
		IgnoreModerators: cfg.Moderation.IgnoreModerators,
		IgnoreOwner:      cfg.Moderation.IgnoreOwner,
	}, bridge.Deps{
		Logger:     log,
		Source:     yt,
		Stats:      yt,
		Store:      db,
		Profile:    prof,
		LLM:        llm,
		Commands:   registry,
		Skills:     skills,
		Router:     rt,
		Growth:     growthFeatures,
		Engagement: tracker,
		Limiter: moderation.NewRateLimiter(
			cfg.Moderation.RateMaxCalls,
			time.Duration(cfg.Moderation.RatePeriodSeconds)*time.Second,
		),
		Spam: moderation.NewSpamDetector(
			cfg.Moderation.SpamPatterns,
			cfg.Moderation.SpamRepetitionThreshold,
			log,
		),
	})

	log.Info("starting bot", "version", version, "bot", cfg.Bot.Name, "video_id", yt.VideoID())
	err = br.Run(ctx, yt.VideoID())
	if err == context.Canceled {
		log.Info("bot stopped")
		return nil
	}
	return err
}

// buildSkills assembles the skill chain. User YAML skills register first so
// streamers can shadow a built-in trigger.
func buildSkills(cfg *config.Config, valClient *valorant.Client, log *slog.Logger) *skill.Registry {
	reg := skill.NewRegistry(log)

	if cfg.Skills.Dir != "" {
		userSkills, err := skill.LoadFromDirectory(cfg.Skills.Dir, log)
		if err != nil {
			log.Warn("cannot load user skills", "dir", cfg.Skills.Dir, "error", err)
		}
		for _, s := range userSkills {
			reg.Register(s)
		}
	}

	reg.Register(&skill.Greeting{BotName: cfg.Bot.Name})
	reg.Register(&skill.ValorantStats{Client: valClient, Logger: log})
	reg.Register(&skill.Specs{})
	reg.Register(&skill.Hype{})
	reg.Register(&skill.GamingTips{})
	reg.Register(skill.NewCommunity(time.Duration(cfg.Skills.CommunityMinGapSeconds) * time.Second))
	reg.Register(skill.NewGrowthBooster(10 * time.Minute))
	reg.Register(&skill.CoHost{})
	return reg
}

func systemPrompt(cfg *config.Config, prof domain.Profile) string {
	if cfg.Bot.SystemPrompt != "" {
		return cfg.Bot.SystemPrompt
	}
	var b strings.Builder
	b.WriteString("You are the streamer's chat co-host on a YouTube live stream. ")
	b.WriteString("Reply in one or two short sentences, casual and friendly. ")
	if prof.Name != "" {
		fmt.Fprintf(&b, "You speak as %s in the first person. ", prof.Name)
	}
	if prof.CurrentGame != "" {
		fmt.Fprintf(&b, "The stream is currently playing %s. ", prof.CurrentGame)
	} else if prof.StreamTopic != "" {
		fmt.Fprintf(&b, "The stream topic is %s. ", prof.StreamTopic)
	}
	if prof.Name != "" {
		fmt.Fprintf(&b, "If you cannot answer, say you'll let %s answer it.", prof.Name)
	}
	return b.String()
}

func buildLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.General.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := os.Stderr
	closeFn := func() {}
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = func() { f.Close() }
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closeFn, nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and backend health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false)
				cfg = config.Defaults()
			} else {
				logger.Info("config", "path", cfgPath, "loaded", true)
			}

			ctx := cmd.Context()
			factory := provider.NewFactory(cfg, logger)
			if b := factory.HealthyBackend(ctx); b != nil {
				logger.Info("llm backend", "name", b.Name(), "healthy", true)
			} else {
				logger.Info("llm backend", "healthy", false)
			}

			if _, err := os.Stat(cfg.YouTube.TokenFile); err == nil {
				logger.Info("youtube token", "path", cfg.YouTube.TokenFile, "present", true)
			} else {
				logger.Info("youtube token", "path", cfg.YouTube.TokenFile, "present", false)
			}
			logger.Info("valorant api", "key_configured", cfg.Valorant.APIKey != "")
			logger.Info("storage", "db", cfg.Storage.DBPath)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [session-id]",
		Short: "Print the analytics report for a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := store.NewSQLiteStore(cfg.Storage.DBPath, logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer db.Close()

			report, err := db.SessionReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(report, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. bot.name)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. general.defaultProvider ollama)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values (secrets masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sanitized := config.Sanitize(cfg)
			data, _ := json.MarshalIndent(sanitized, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
