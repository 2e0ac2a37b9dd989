package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"streamnova/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "bot.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGrowthRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// First run: nothing persisted yet.
	snap, err := s.LoadGrowth(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Fatal("fresh store should have no growth state")
	}

	want := domain.GrowthSnapshot{
		FollowerGoal:     2000,
		CurrentFollowers: 1753,
		NewViewers:       []string{"alice", "bob"},
		WelcomeCursor:    2,
		Challenge: &domain.ChallengeSnapshot{
			State:         domain.ChallengeActive,
			MessageTarget: 500,
			RewardText:    "play a raid",
		},
	}
	if err := s.SaveGrowth(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Saving twice overwrites the singleton row.
	want.CurrentFollowers = 1800
	if err := s.SaveGrowth(ctx, want); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.LoadGrowth(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got == nil || got.CurrentFollowers != 1800 || got.FollowerGoal != 2000 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if len(got.NewViewers) != 2 || got.NewViewers[0] != "alice" {
		t.Fatalf("new viewers not preserved: %+v", got.NewViewers)
	}
	if got.Challenge == nil || got.Challenge.State != domain.ChallengeActive {
		t.Fatalf("challenge not preserved: %+v", got.Challenge)
	}
}

func TestProcessedIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.MarkProcessed(ctx, "m1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	// Marking the same ID twice is fine.
	if err := s.MarkProcessed(ctx, "m1"); err != nil {
		t.Fatalf("re-mark: %v", err)
	}
	if err := s.MarkProcessed(ctx, "m2"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	ids, err := s.LoadProcessedIDs(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	if _, ok := ids["m1"]; !ok {
		t.Fatal("m1 missing from processed set")
	}
}

func TestSessionReport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sessionID, err := s.StartSession(ctx, "video-123")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if sessionID == "" {
		t.Fatal("session id should not be empty")
	}

	now := time.Now()
	msgs := []domain.ChatMessage{
		{ID: "a1", Author: "alice", Text: "hello", ReceivedAt: now},
		{ID: "a2", Author: "alice", Text: "gg", ReceivedAt: now},
		{ID: "b1", Author: "bob", Text: "hey", ReceivedAt: now},
	}
	for _, m := range msgs {
		if err := s.RecordChatMessage(ctx, sessionID, m); err != nil {
			t.Fatalf("record message: %v", err)
		}
	}
	if err := s.RecordCommand(ctx, sessionID, "ping", true); err != nil {
		t.Fatalf("record command: %v", err)
	}
	for _, v := range []int64{10, 25, 18} {
		if err := s.RecordViewerSample(ctx, sessionID, domain.StreamStats{Viewers: v}); err != nil {
			t.Fatalf("record sample: %v", err)
		}
	}
	if err := s.EndSession(ctx, sessionID); err != nil {
		t.Fatalf("end session: %v", err)
	}

	report, err := s.SessionReport(ctx, sessionID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.VideoID != "video-123" {
		t.Fatalf("unexpected video id %q", report.VideoID)
	}
	if report.Messages != 3 || report.Chatters != 2 {
		t.Fatalf("unexpected counts: %d messages, %d chatters", report.Messages, report.Chatters)
	}
	if report.PeakViewers != 25 {
		t.Fatalf("expected peak 25, got %d", report.PeakViewers)
	}
	if report.CommandRuns != 1 {
		t.Fatalf("expected 1 command run, got %d", report.CommandRuns)
	}
	if report.EndedAt == nil {
		t.Fatal("ended session should have an end time")
	}
	if len(report.TopChatters) != 2 || report.TopChatters[0].Author != "alice" || report.TopChatters[0].Messages != 2 {
		t.Fatalf("unexpected leaderboard %+v", report.TopChatters)
	}
}

func TestSessionReportUnknown(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.SessionReport(context.Background(), "nope"); err == nil {
		t.Fatal("unknown session should error")
	}
}
