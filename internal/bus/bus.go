// Package bus decouples the chat poller from the message handler with a
// buffered in-process channel.
package bus

import (
	"log/slog"
	"sync"
	"time"

	"streamnova/internal/domain"
)

const publishTimeout = 10 * time.Second

// InMemoryBus is a Go-channel based bus carrying live-chat messages from the
// poller goroutine to the sequential handler loop.
type InMemoryBus struct {
	inbound chan domain.ChatMessage
	mu      sync.RWMutex
	closed  bool
	logger  *slog.Logger
}

// New creates an InMemoryBus with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &InMemoryBus{
		inbound: make(chan domain.ChatMessage, bufferSize),
		logger:  logger,
	}
}

// Publish enqueues a message. Blocks up to 10 seconds if the bus is full
// instead of dropping; a burst of chat during a raid should queue, not vanish.
func (b *InMemoryBus) Publish(msg domain.ChatMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("attempted to publish to closed bus")
		return
	}

	select {
	case b.inbound <- msg:
	default:
		b.logger.Warn("inbound bus full, waiting...", "author", msg.Author)
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.inbound <- msg:
			b.logger.Info("message delivered after wait", "author", msg.Author)
		case <-timer.C:
			b.logger.Error("message dropped: bus full for 10s",
				"author", msg.Author,
				"id", msg.ID,
			)
		}
	}
}

// Subscribe returns the receive side of the bus. The channel closes when the
// bus closes.
func (b *InMemoryBus) Subscribe() <-chan domain.ChatMessage {
	return b.inbound
}

func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.inbound)
	}
}
