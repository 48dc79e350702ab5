package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/corehaven/agentcore/internal/channel"
	"github.com/corehaven/agentcore/pkg/models"
)

// stdioChannel is the smallest possible Channel implementation: it
// streams assistant text straight to an io.Writer (normally stdout),
// standing in for a real frontend transport (HTTP, websocket, a chat
// platform's event API) that a host process would supply instead.
type stdioChannel struct {
	id   string
	out  *bufio.Writer
	user *channel.User
}

func newStdioChannel(id string, out io.Writer) *stdioChannel {
	return &stdioChannel{id: id, out: bufio.NewWriter(out), user: &channel.User{ID: "local", DisplayName: "local"}}
}

func (c *stdioChannel) StartStreaming(ctx context.Context) error {
	_, err := fmt.Fprint(c.out, "> ")
	return err
}

func (c *stdioChannel) AppendToStream(ctx context.Context, delta string) error {
	_, err := fmt.Fprint(c.out, delta)
	return err
}

func (c *stdioChannel) FinishStreaming(ctx context.Context) error {
	if _, err := fmt.Fprintln(c.out); err != nil {
		return err
	}
	return c.out.Flush()
}

func (c *stdioChannel) SendMessage(ctx context.Context, msg models.Message) error {
	_, err := fmt.Fprintln(c.out, models.MessageText(msg))
	if err != nil {
		return err
	}
	return c.out.Flush()
}

func (c *stdioChannel) Close(ctx context.Context) error { return c.out.Flush() }

func (c *stdioChannel) ChannelID() string          { return c.id }
func (c *stdioChannel) IsGroup() bool               { return false }
func (c *stdioChannel) IsPrivate() bool             { return true }
func (c *stdioChannel) CurrentUser() *channel.User  { return c.user }
func (c *stdioChannel) SourceMessageID() string     { return "" }

var _ channel.Channel = (*stdioChannel)(nil)
