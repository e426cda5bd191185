package messaging

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultMemoryBuffer = 256
	memoryMaxAttempts   = 3
)

// Memory is an in-process bus for running the API and the worker in one
// process. Messages are lost on restart.
type Memory struct {
	topic  string
	logger *zap.Logger
	ch     chan Message

	mu     sync.RWMutex
	closed bool
	offset int64
}

// NewMemory returns a bus buffering up to buffer unconsumed messages.
func NewMemory(topic string, buffer int, logger *zap.Logger) *Memory {
	if buffer <= 0 {
		buffer = defaultMemoryBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{topic: topic, logger: logger, ch: make(chan Message, buffer)}
}

// Publish enqueues a message, blocking while the buffer is full.
func (m *Memory) Publish(ctx context.Context, key []byte, value []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.offset++
	msg := Message{
		Topic:  m.topic,
		Key:    append([]byte(nil), key...),
		Value:  append([]byte(nil), value...),
		Offset: m.offset,
		Time:   time.Now().UTC(),
	}
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	select {
	case m.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume hands messages to handler until ctx is done or the bus closes.
// A failing message is retried a few times and then dropped.
func (m *Memory) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-m.ch:
			if !ok {
				return nil
			}
			var err error
			for attempt := 1; attempt <= memoryMaxAttempts; attempt++ {
				if err = handler(ctx, msg); err == nil {
					break
				}
			}
			if err != nil {
				m.logger.Error("dropping order event after retries",
					zap.ByteString("key", msg.Key),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
			}
		}
	}
}

func (m *Memory) Topic() string { return m.topic }

// Close stops the bus. Pending messages are still drained by consumers.
func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.ch)
}
