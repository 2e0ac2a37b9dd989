package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"streamnova/internal/config"
	"streamnova/internal/domain"
)

// mockBackend implements domain.LLMBackend for testing.
type mockBackend struct {
	name    string
	healthy bool
	genErr  error
	reply   string
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Healthy(ctx context.Context) error {
	if !m.healthy {
		return errors.New("unhealthy")
	}
	return nil
}

func (m *mockBackend) Generate(ctx context.Context, system, prompt string) (string, error) {
	if m.genErr != nil {
		return "", m.genErr
	}
	return m.reply, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFailover_UsesFirstBackend(t *testing.T) {
	b1 := &mockBackend{name: "primary", healthy: true, reply: "from-primary"}
	b2 := &mockBackend{name: "secondary", healthy: true, reply: "from-secondary"}
	fo := NewFailover([]domain.LLMBackend{b1, b2}, testLogger())

	reply, err := fo.Generate(context.Background(), "sys", "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "from-primary" {
		t.Fatalf("expected 'from-primary', got %q", reply)
	}
}

func TestFailover_FallsBackOnError(t *testing.T) {
	b1 := &mockBackend{name: "primary", healthy: true, genErr: errors.New("api error")}
	b2 := &mockBackend{name: "secondary", healthy: true, reply: "from-secondary"}
	fo := NewFailover([]domain.LLMBackend{b1, b2}, testLogger())

	reply, err := fo.Generate(context.Background(), "sys", "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "from-secondary" {
		t.Fatalf("expected 'from-secondary', got %q", reply)
	}
}

func TestFailover_AllBackendsFail(t *testing.T) {
	b1 := &mockBackend{name: "b1", healthy: true, genErr: errors.New("fail 1")}
	b2 := &mockBackend{name: "b2", healthy: true, genErr: errors.New("fail 2")}
	fo := NewFailover([]domain.LLMBackend{b1, b2}, testLogger())

	_, err := fo.Generate(context.Background(), "sys", "hi")
	if err == nil {
		t.Fatal("expected error when all backends fail")
	}
}

func TestFailover_ContextCancelStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b1 := &mockBackend{name: "b1", healthy: true, genErr: errors.New("fail")}
	b2 := &mockBackend{name: "b2", healthy: true, reply: "never"}
	fo := NewFailover([]domain.LLMBackend{b1, b2}, testLogger())

	cancel()
	if _, err := fo.Generate(ctx, "sys", "hi"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestFailover_Healthy(t *testing.T) {
	sick := &mockBackend{name: "sick", healthy: false}
	well := &mockBackend{name: "well", healthy: true}

	fo := NewFailover([]domain.LLMBackend{sick, well}, testLogger())
	if err := fo.Healthy(context.Background()); err != nil {
		t.Fatalf("expected healthy, got: %v", err)
	}

	fo = NewFailover([]domain.LLMBackend{sick}, testLogger())
	if err := fo.Healthy(context.Background()); err == nil {
		t.Fatal("expected unhealthy error")
	}
}

func TestFailover_Name(t *testing.T) {
	b1 := &mockBackend{name: "ollama"}
	b2 := &mockBackend{name: "openai"}
	fo := NewFailover([]domain.LLMBackend{b1, b2}, testLogger())

	if got := fo.Name(); got != "failover(ollama,openai)" {
		t.Fatalf("expected 'failover(ollama,openai)', got %q", got)
	}
}

func testFactoryConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Providers = map[string]config.ProviderConfig{
		"ollama": {Enabled: true, APIBase: "http://localhost:11434", DefaultModel: "llama3.1:8b"},
		"openai": {Enabled: true, APIBase: "https://api.openai.com/v1", APIKey: "sk-test", DefaultModel: "gpt-4o-mini"},
		"dead":   {Enabled: false},
	}
	cfg.General.DefaultProvider = "ollama"
	cfg.General.FailoverChain = nil
	return cfg
}

func TestFactory_GetCachesInstances(t *testing.T) {
	f := NewFactory(testFactoryConfig(), testLogger())

	a, err := f.Get("ollama")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	b, err := f.Get("ollama")
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if a != b {
		t.Fatal("expected cached instance")
	}
}

func TestFactory_EmptyNameUsesDefault(t *testing.T) {
	f := NewFactory(testFactoryConfig(), testLogger())

	b, err := f.Get("")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if b.Name() != "ollama" {
		t.Fatalf("expected default ollama, got %q", b.Name())
	}
}

func TestFactory_RejectsUnknownAndDisabled(t *testing.T) {
	f := NewFactory(testFactoryConfig(), testLogger())

	if _, err := f.Get("nope"); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := f.Get("dead"); err == nil {
		t.Error("expected error for disabled provider")
	}
}

func TestFactory_UnknownNameWithAPIBaseIsOpenAICompatible(t *testing.T) {
	cfg := testFactoryConfig()
	cfg.Providers["groqlike"] = config.ProviderConfig{
		Enabled: true, APIBase: "https://api.example.com/v1", APIKey: "k", DefaultModel: "m",
	}
	f := NewFactory(cfg, testLogger())

	b, err := f.Get("groqlike")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, ok := b.(*OpenAI); !ok {
		t.Fatalf("expected OpenAI-compatible backend, got %T", b)
	}
}

func TestFactory_ChainBuildsFailover(t *testing.T) {
	cfg := testFactoryConfig()
	cfg.General.FailoverChain = []string{"ollama", "openai"}
	f := NewFactory(cfg, testLogger())

	b, err := f.Chain()
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}
	if b.Name() != "failover(ollama,openai)" {
		t.Fatalf("unexpected chain name %q", b.Name())
	}
}

func TestFactory_ChainSingleSkipsWrapper(t *testing.T) {
	cfg := testFactoryConfig()
	cfg.General.FailoverChain = []string{"openai"}
	f := NewFactory(cfg, testLogger())

	b, err := f.Chain()
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}
	if _, ok := b.(*Failover); ok {
		t.Fatal("single-entry chain should not be wrapped")
	}
}

func TestFactory_ChainEmptyUsesDefault(t *testing.T) {
	f := NewFactory(testFactoryConfig(), testLogger())

	b, err := f.Chain()
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}
	if b.Name() != "ollama" {
		t.Fatalf("expected default backend, got %q", b.Name())
	}
}
