package channel

import (
	"context"
	"sync"

	"github.com/corehaven/agentcore/pkg/models"
)

// StreamTestChannel is an in-memory Channel double for tests: it
// records every call in order so a test can assert on streaming
// lifecycle and final sent messages.
type StreamTestChannel struct {
	mu      sync.Mutex
	id      string
	group   bool
	user    *User
	sourceID string

	Deltas   []string
	Sent     []models.Message
	Started  int
	Finished int
	Closed   bool
}

// NewStreamTestChannel returns a channel double with the given id.
func NewStreamTestChannel(id string) *StreamTestChannel {
	return &StreamTestChannel{id: id, user: &User{ID: "test-user", DisplayName: "Test User"}}
}

func (c *StreamTestChannel) StartStreaming(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Started++
	return nil
}

func (c *StreamTestChannel) AppendToStream(ctx context.Context, delta string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deltas = append(c.Deltas, delta)
	return nil
}

func (c *StreamTestChannel) FinishStreaming(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Finished++
	return nil
}

func (c *StreamTestChannel) SendMessage(ctx context.Context, msg models.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sent = append(c.Sent, msg)
	return nil
}

func (c *StreamTestChannel) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

func (c *StreamTestChannel) ChannelID() string       { return c.id }
func (c *StreamTestChannel) IsGroup() bool           { return c.group }
func (c *StreamTestChannel) IsPrivate() bool         { return !c.group }
func (c *StreamTestChannel) CurrentUser() *User      { return c.user }
func (c *StreamTestChannel) SourceMessageID() string { return c.sourceID }

// SetGroup marks the channel as a group channel for tests that need
// IsGroup()==true.
func (c *StreamTestChannel) SetGroup(group bool) { c.group = group }

// FullText concatenates every appended delta.
func (c *StreamTestChannel) FullText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out string
	for _, d := range c.Deltas {
		out += d
	}
	return out
}

var _ Channel = (*StreamTestChannel)(nil)
