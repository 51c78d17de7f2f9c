package messaging

import (
	"context"
	"io"
	"slices"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Noop discards every message.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) Publish(ctx context.Context, destination string, _ OutgoingMessage) (PublishResult, error) {
	if err := validate(ctx, destination); err != nil {
		return PublishResult{}, err
	}
	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

func (*Noop) Close() error { return nil }

// Published is a message captured by Memory.
type Published struct {
	Destination string
	Message     OutgoingMessage
}

// Memory records published messages in order. It is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	messages []Published
	seq      atomic.Uint64
	closed   atomic.Bool
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := validate(ctx, destination); err != nil {
		return PublishResult{}, err
	}
	if m.closed.Load() {
		return PublishResult{}, io.ErrClosedPipe
	}

	m.mu.Lock()
	m.messages = append(m.messages, Published{Destination: destination, Message: msg})
	m.mu.Unlock()

	return PublishResult{
		MessageID: strconv.FormatUint(m.seq.Inc(), 10),
		Topic:     destination,
		Timestamp: time.Now(),
	}, nil
}

// Messages returns a snapshot of everything published so far.
func (m *Memory) Messages() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.messages)
}

func (m *Memory) Close() error {
	m.closed.Store(true)
	return nil
}
