// Package youtube wraps Google OAuth2 and the YouTube Data API for live-chat
// reading, posting, and stream stats. Tokens are persisted to a JSON file so
// they survive restarts and refresh silently.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	yt "google.golang.org/api/youtube/v3"
	"google.golang.org/api/option"

	"streamnova/internal/domain"
)

// ErrNoLiveStream is returned when the channel has no active broadcast.
var ErrNoLiveStream = errors.New("no active live stream found")

// scope covers reading and posting live chat messages.
const scope = "https://www.googleapis.com/auth/youtube.force-ssl"

const (
	maxChatResults = 200
	minPollGap     = 10 * time.Second
	statsCacheTTL  = 5 * time.Minute
)

type Config struct {
	CredentialsFile string
	TokenFile       string
	VideoID         string
	Logger          *slog.Logger
}

// Client implements domain.ChatSource and domain.StatsProvider against the
// YouTube Data API v3.
type Client struct {
	svc        *yt.Service
	logger     *slog.Logger
	videoID    string
	liveChatID string
	channelID  string

	pageToken    string
	suggestedGap time.Duration

	statsMu    sync.Mutex
	statsCache *domain.StreamStats
	subsCache  int64
	statsAt    time.Time
}

// Connect authenticates with OAuth2, resolves the live chat ID for the
// configured (or currently active) broadcast, and returns a ready client.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	svc, err := buildService(ctx, cfg.CredentialsFile, cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	c := &Client{
		svc:          svc,
		logger:       cfg.Logger,
		videoID:      cfg.VideoID,
		suggestedGap: minPollGap,
	}

	if err := c.resolveChannelID(ctx); err != nil {
		cfg.Logger.Warn("cannot resolve own channel id", "error", err)
	}

	if c.videoID == "" {
		id, err := c.findActiveBroadcast(ctx)
		if err != nil {
			return nil, err
		}
		c.videoID = id
	}

	chatID, err := c.resolveLiveChatID(ctx, c.videoID)
	if err != nil {
		return nil, err
	}
	c.liveChatID = chatID
	cfg.Logger.Info("connected to live chat", "video_id", c.videoID, "live_chat_id", chatID)
	return c, nil
}

func buildService(ctx context.Context, credFile, tokenFile string) (*yt.Service, error) {
	credJSON, err := os.ReadFile(credFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(credJSON, scope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	tok, err := loadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("load token (run the init command first): %w", err)
	}

	// The token source refreshes transparently; wrap it so refreshed tokens
	// land back on disk.
	src := oauthCfg.TokenSource(ctx, tok)
	persisting := &persistingTokenSource{src: src, path: tokenFile, last: tok}

	svc, err := yt.NewService(ctx, option.WithTokenSource(persisting))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return svc, nil
}

// Authorize runs the out-of-band half of the OAuth2 flow for first-time setup:
// it returns the consent URL, then Exchange swaps the pasted code for a token
// file.
func Authorize(credFile string) (*oauth2.Config, string, error) {
	credJSON, err := os.ReadFile(credFile)
	if err != nil {
		return nil, "", fmt.Errorf("read credentials file: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(credJSON, scope)
	if err != nil {
		return nil, "", fmt.Errorf("parse credentials: %w", err)
	}
	url := oauthCfg.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return oauthCfg, url, nil
}

// Exchange completes the flow started by Authorize and saves the token.
func Exchange(ctx context.Context, oauthCfg *oauth2.Config, code, tokenFile string) error {
	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange auth code: %w", err)
	}
	return saveToken(tokenFile, tok)
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// persistingTokenSource writes refreshed tokens back to disk.
type persistingTokenSource struct {
	src  oauth2.TokenSource
	path string
	mu   sync.Mutex
	last *oauth2.Token
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil || tok.AccessToken != p.last.AccessToken {
		p.last = tok
		if err := saveToken(p.path, tok); err != nil {
			// Refresh still succeeded. Next run re-refreshes from the old token.
			slog.Warn("cannot persist refreshed token", "error", err)
		}
	}
	return tok, nil
}

func (c *Client) resolveChannelID(ctx context.Context) error {
	resp, err := c.svc.Channels.List([]string{"id"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return err
	}
	if len(resp.Items) == 0 {
		return errors.New("no channel for authenticated user")
	}
	c.channelID = resp.Items[0].Id
	c.logger.Info("authenticated", "channel_id", c.channelID)
	return nil
}

func (c *Client) findActiveBroadcast(ctx context.Context) (string, error) {
	resp, err := c.svc.LiveBroadcasts.List([]string{"id", "snippet"}).
		BroadcastStatus("active").MaxResults(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list broadcasts: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", ErrNoLiveStream
	}
	b := resp.Items[0]
	c.logger.Info("found active broadcast", "title", b.Snippet.Title, "video_id", b.Id)
	return b.Id, nil
}

func (c *Client) resolveLiveChatID(ctx context.Context, videoID string) (string, error) {
	resp, err := c.svc.Videos.List([]string{"liveStreamingDetails"}).
		Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("look up video %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("video %s not found", videoID)
	}
	details := resp.Items[0].LiveStreamingDetails
	if details == nil || details.ActiveLiveChatId == "" {
		return "", fmt.Errorf("video %s has no active live chat", videoID)
	}
	return details.ActiveLiveChatId, nil
}

// VideoID returns the broadcast the client is attached to.
func (c *Client) VideoID() string { return c.videoID }

// ChannelID returns the authenticated channel, empty if lookup failed.
func (c *Client) ChannelID() string { return c.channelID }

// SuggestedPollInterval is the API-advised gap before the next fetch,
// floored at 10 seconds to conserve quota.
func (c *Client) SuggestedPollInterval() time.Duration { return c.suggestedGap }

// FetchNewMessages returns chat messages published since the previous call.
// Only plain text events are returned; super chats and membership events are
// skipped.
func (c *Client) FetchNewMessages(ctx context.Context) ([]domain.ChatMessage, error) {
	call := c.svc.LiveChatMessages.List(c.liveChatID, []string{"snippet", "authorDetails"}).
		MaxResults(maxChatResults).Context(ctx)
	if c.pageToken != "" {
		call = call.PageToken(c.pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("fetch chat messages: %w", err)
	}
	c.pageToken = resp.NextPageToken

	if gap := time.Duration(resp.PollingIntervalMillis) * time.Millisecond; gap > minPollGap {
		c.suggestedGap = gap
	} else {
		c.suggestedGap = minPollGap
	}

	var out []domain.ChatMessage
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.Type != "textMessageEvent" {
			continue
		}
		msg := domain.ChatMessage{
			ID:         item.Id,
			Text:       item.Snippet.DisplayMessage,
			ReceivedAt: time.Now(),
		}
		if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			msg.ReceivedAt = t
		}
		if a := item.AuthorDetails; a != nil {
			msg.Author = a.DisplayName
			msg.AuthorChannelID = a.ChannelId
			msg.IsModerator = a.IsChatModerator
			msg.IsOwner = a.IsChatOwner
		}
		out = append(out, msg)
	}

	c.logger.Debug("fetched chat messages", "count", len(out), "next_poll", c.suggestedGap)
	return out, nil
}

// PostMessage sends text to the live chat. Messages longer than the platform
// limit are truncated rather than rejected.
func (c *Client) PostMessage(ctx context.Context, text string) (string, error) {
	if runes := []rune(text); len(runes) > 200 {
		text = string(runes[:197]) + "..."
	}
	msg := &yt.LiveChatMessage{
		Snippet: &yt.LiveChatMessageSnippet{
			LiveChatId: c.liveChatID,
			Type:       "textMessageEvent",
			TextMessageDetails: &yt.LiveChatTextMessageDetails{
				MessageText: text,
			},
		},
	}
	resp, err := c.svc.LiveChatMessages.Insert([]string{"snippet"}, msg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("post chat message: %w", err)
	}
	return resp.Id, nil
}

// IsStreamActive reports whether the broadcast still has a live chat and has
// not ended. Errors lean active so a transient API failure does not shut the
// bot down.
func (c *Client) IsStreamActive(ctx context.Context) bool {
	resp, err := c.svc.Videos.List([]string{"liveStreamingDetails"}).
		Id(c.videoID).Context(ctx).Do()
	if err != nil {
		c.logger.Warn("stream status check failed", "error", err)
		return true
	}
	if len(resp.Items) == 0 {
		return false
	}
	details := resp.Items[0].LiveStreamingDetails
	if details == nil {
		return false
	}
	return details.ActiveLiveChatId != "" && details.ActualEndTime == ""
}

// StreamStats returns viewers, likes, and subscriber count. Results are
// cached for five minutes to conserve quota.
func (c *Client) StreamStats(ctx context.Context) (*domain.StreamStats, error) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	if c.statsCache != nil && time.Since(c.statsAt) < statsCacheTTL {
		cached := *c.statsCache
		return &cached, nil
	}

	resp, err := c.svc.Videos.List([]string{"liveStreamingDetails", "statistics"}).
		Id(c.videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch stream stats: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", c.videoID)
	}

	stats := &domain.StreamStats{}
	item := resp.Items[0]
	if item.LiveStreamingDetails != nil {
		stats.Viewers = int64(item.LiveStreamingDetails.ConcurrentViewers)
	}
	if item.Statistics != nil {
		stats.Likes = int64(item.Statistics.LikeCount)
	}

	if c.channelID != "" {
		chResp, err := c.svc.Channels.List([]string{"statistics"}).
			Id(c.channelID).Context(ctx).Do()
		if err == nil && len(chResp.Items) > 0 && chResp.Items[0].Statistics != nil {
			stats.Subs = int64(chResp.Items[0].Statistics.SubscriberCount)
			c.subsCache = stats.Subs
		} else {
			stats.Subs = c.subsCache
		}
	}

	c.statsCache = stats
	c.statsAt = time.Now()
	cached := *stats
	return &cached, nil
}

// FollowerCount returns the channel's subscriber count.
func (c *Client) FollowerCount(ctx context.Context) (int64, error) {
	stats, err := c.StreamStats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.Subs, nil
}
