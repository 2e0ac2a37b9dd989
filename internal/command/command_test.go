package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"streamnova/internal/engagement"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testContext(author string, raw string, admins ...string) *Context {
	return &Context{
		Author:     author,
		RawMessage: raw,
		Timestamp:  time.Unix(1_700_000_000, 0),
		AdminUsers: admins,
		Logger:     testLogger(),
	}
}

func echoDescriptor(name string, aliases ...string) *Descriptor {
	return &Descriptor{
		Name:    name,
		Aliases: aliases,
		Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
			return name + ":" + arg, nil
		},
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	reg := NewRegistry(testLogger())
	if err := reg.Register(echoDescriptor("help", "h")); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	var dup *DuplicateNameError
	if err := reg.Register(echoDescriptor("HELP")); !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateNameError for name collision, got %v", err)
	}
	// Alias collisions count too, case-insensitively.
	if err := reg.Register(echoDescriptor("hype", "H")); !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateNameError for alias collision, got %v", err)
	}
}

func TestResolveAliasAnyCase(t *testing.T) {
	reg := NewRegistry(testLogger())
	d := echoDescriptor("uptime", "up", "runtime")
	if err := reg.Register(d); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for _, token := range []string{"uptime", "UPTIME", "up", "Up", "RUNTIME"} {
		got, ok := reg.Resolve(token)
		if !ok || got != d {
			t.Fatalf("token %q did not resolve to the descriptor", token)
		}
	}
	if _, ok := reg.Resolve("nope"); ok {
		t.Fatal("unknown token must not resolve")
	}
}

func TestDispatchArgString(t *testing.T) {
	reg := NewRegistry(testLogger())
	if err := reg.Register(echoDescriptor("say")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	resp, handled := reg.Dispatch(context.Background(), "!say hello   world", testContext("a", ""))
	if !handled {
		t.Fatal("expected dispatch to handle")
	}
	// Only the first token is split off; the rest stays raw.
	if resp != "say:hello   world" {
		t.Fatalf("unexpected arg string: %q", resp)
	}
}

func TestDispatchUnknown(t *testing.T) {
	reg := NewRegistry(testLogger())
	if _, handled := reg.Dispatch(context.Background(), "!nope", testContext("a", "")); handled {
		t.Fatal("unknown command must not be handled")
	}
	if _, handled := reg.Dispatch(context.Background(), "plain chat", testContext("a", "")); handled {
		t.Fatal("non-command text must not be handled")
	}
}

func TestDispatchContainsFailures(t *testing.T) {
	reg := NewRegistry(testLogger())
	err1 := reg.Register(&Descriptor{
		Name: "boom",
		Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
			panic("kaboom")
		},
	})
	err2 := reg.Register(&Descriptor{
		Name: "fail",
		Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
			return "", errors.New("nope")
		},
	})
	if err1 != nil || err2 != nil {
		t.Fatalf("register failed: %v %v", err1, err2)
	}

	resp, handled := reg.Dispatch(context.Background(), "!boom", testContext("a", ""))
	if !handled || resp != genericFailure {
		t.Fatalf("panic should yield the generic failure, got %q", resp)
	}
	resp, handled = reg.Dispatch(context.Background(), "!fail", testContext("a", ""))
	if !handled || resp != genericFailure {
		t.Fatalf("error should yield the generic failure, got %q", resp)
	}
}

func TestDispatchFailureLogsArgs(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry(slog.New(slog.NewTextHandler(&buf, nil)))
	err := reg.Register(&Descriptor{
		Name: "fail",
		Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
			return "", errors.New("nope")
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	reg.Dispatch(context.Background(), "!fail some args", testContext("a", ""))

	if !strings.Contains(buf.String(), `args="some args"`) {
		t.Fatalf("failure log missing argument string: %s", buf.String())
	}
}

func TestAdminGate(t *testing.T) {
	reg := NewRegistry(testLogger())
	err := reg.Register(&Descriptor{
		Name:      "secret",
		AdminOnly: true,
		Handler: func(ctx context.Context, c *Context, arg string) (string, error) {
			return "granted", nil
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Exact match passes, surrounding whitespace is trimmed first.
	resp, _ := reg.Dispatch(context.Background(), "!secret", testContext(" LokiVersee ", "", "LokiVersee"))
	if resp != "granted" {
		t.Fatalf("trimmed exact match should pass, got %q", resp)
	}

	// The comparison is case-sensitive.
	resp, _ = reg.Dispatch(context.Background(), "!secret", testContext("lokiversee", "", "LokiVersee"))
	if resp == "granted" {
		t.Fatal("case mismatch must be denied")
	}
	if !strings.Contains(resp, "LokiVersee") {
		t.Fatalf("denial should list the configured admins, got %q", resp)
	}
}

func TestTopCommandFormatsCounts(t *testing.T) {
	tracker := engagement.NewTracker()
	for i := 0; i < 4; i++ {
		tracker.RecordMessage("alice")
	}
	tracker.RecordMessage("bob")

	reg := NewRegistry(testLogger())
	for _, d := range coreCommands(reg, Deps{Logger: testLogger(), Engagement: tracker}) {
		if err := reg.Register(d); err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}

	resp, handled := reg.Dispatch(context.Background(), "!top", testContext("a", ""))
	if !handled {
		t.Fatal("expected !top to be handled")
	}
	if !strings.Contains(resp, "alice - 4 messages") || !strings.Contains(resp, "bob - 1 messages") {
		t.Fatalf("leaderboard should carry per-author counts, got %q", resp)
	}
}

func TestParseChallengeArgs(t *testing.T) {
	count, reward, ok := parseChallengeArgs("500 play a raid")
	if !ok || count != 500 || reward != "play a raid" {
		t.Fatalf("plain reward: got %d %q ok=%v", count, reward, ok)
	}

	count, reward, ok = parseChallengeArgs(`100 "do 50 pushups"`)
	if !ok || count != 100 || reward != "do 50 pushups" {
		t.Fatalf("quoted reward: got %d %q ok=%v", count, reward, ok)
	}

	if _, _, ok := parseChallengeArgs("500"); ok {
		t.Fatal("missing reward must not parse")
	}
	if _, _, ok := parseChallengeArgs("abc reward"); ok {
		t.Fatal("non-numeric count must not parse")
	}
	if _, _, ok := parseChallengeArgs(""); ok {
		t.Fatal("empty args must not parse")
	}
}

func TestSplitCommand(t *testing.T) {
	token, arg := splitCommand("!help")
	if token != "help" || arg != "" {
		t.Fatalf("got %q %q", token, arg)
	}
	token, arg = splitCommand("!val rank Player#123")
	if token != "val" || arg != "rank Player#123" {
		t.Fatalf("got %q %q", token, arg)
	}
	if token, _ := splitCommand("!"); token != "" {
		t.Fatalf("bare prefix should yield no token, got %q", token)
	}
}
