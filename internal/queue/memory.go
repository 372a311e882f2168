package queue

import (
	"context"
	"sync"
)

// MemoryClient collects sent messages in memory for tests and local development.
type MemoryClient struct {
	mu       sync.Mutex
	messages []Message
}

// NewMemoryClient constructs an in-memory queue client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

// Send records the message.
func (m *MemoryClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns a copy of all sent messages.
func (m *MemoryClient) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

var _ Client = (*MemoryClient)(nil)
