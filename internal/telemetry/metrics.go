// Package telemetry provides Prometheus metrics for the chat bridge and an
// optional /metrics HTTP endpoint.
package telemetry

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	// Counters
	MessagesProcessed prometheus.Counter
	MessagesIgnored   prometheus.Counter
	CommandsRun       prometheus.Counter
	SkillReplies      prometheus.Counter
	LLMReplies        prometheus.Counter
	RepliesPosted     prometheus.Counter
	RepliesFailed     prometheus.Counter
	SpamBlocked       prometheus.Counter
	RateLimited       prometheus.Counter

	// Histograms (seconds)
	HandleDuration prometheus.Observer
	LLMDuration    prometheus.Observer

	// Gauges
	ViewersGauge  prometheus.Gauge
	ChattersGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesProcessed = promauto.NewCounter(prometheus.CounterOpts{Name: "streamnova_messages_processed_total", Help: "Chat messages consumed from the live chat"})
		MessagesIgnored = promauto.NewCounter(prometheus.CounterOpts{Name: "streamnova_messages_ignored_total", Help: "Messages the router classified as ignore"})
		CommandsRun = promauto.NewCounter(prometheus.CounterOpts{Name: "streamnova_commands_run_total", Help: "Bang commands dispatched"})
		SkillReplies = promauto.NewCounter(prometheus.CounterOpts{Name: "streamnova_skill_replies_total", Help: "Replies produced by skills"})
		LLMReplies = promauto.NewCounter(prometheus.CounterOpts{Name: "streamnova_llm_replies_total", Help: "Replies produced by the LLM backend"})
		RepliesPosted = promauto.NewCounter(prometheus.CounterOpts{Name: "streamnova_replies_posted_total", Help: "Replies successfully posted to chat"})
		RepliesFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "streamnova_replies_failed_total", Help: "Reply posts that failed"})
		SpamBlocked = promauto.NewCounter(prometheus.CounterOpts{Name: "streamnova_spam_blocked_total", Help: "Messages dropped by the spam detector"})
		RateLimited = promauto.NewCounter(prometheus.CounterOpts{Name: "streamnova_rate_limited_total", Help: "Messages dropped by the per-user rate limiter"})
		HandleDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "streamnova_handle_duration_seconds", Help: "Time to handle one chat message", Buckets: prometheus.DefBuckets})
		LLMDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "streamnova_llm_duration_seconds", Help: "LLM generation latency", Buckets: prometheus.DefBuckets})
		ViewersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "streamnova_viewers", Help: "Concurrent viewers at last sample"})
		ChattersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "streamnova_chatters", Help: "Unique chatters this session"})
	})
}

// Inc increments a counter if registered, safe when Init was skipped.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// SetViewers records the latest viewer sample.
func SetViewers(n int64) {
	if ViewersGauge != nil {
		ViewersGauge.Set(float64(n))
	}
}

// SetChatters records the unique chatter count.
func SetChatters(n int) {
	if ChattersGauge != nil {
		ChattersGauge.Set(float64(n))
	}
}

// TimeFunc measures fn and records the duration in obs if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Serve starts the /metrics endpoint and blocks until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
