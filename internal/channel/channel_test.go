package channel

import (
	"context"
	"testing"

	"github.com/corehaven/agentcore/pkg/models"
)

func TestIsSilentDetectsLeadingSentinelAfterWhitespace(t *testing.T) {
	cases := map[string]bool{
		"∅":            true,
		"  \n∅ignored": true,
		"∅ whatever":   true,
		"hello":        false,
		"":              false,
		"  hi ∅":        false,
	}
	for in, want := range cases {
		if got := IsSilent(in); got != want {
			t.Errorf("IsSilent(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMultiChannelFansOutToEveryMember(t *testing.T) {
	a := NewStreamTestChannel("a")
	b := NewStreamTestChannel("b")
	m := MultiChannel{a, b}
	ctx := context.Background()

	if err := m.StartStreaming(ctx); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	if err := m.AppendToStream(ctx, "hi"); err != nil {
		t.Fatalf("AppendToStream: %v", err)
	}
	if err := m.FinishStreaming(ctx); err != nil {
		t.Fatalf("FinishStreaming: %v", err)
	}

	if a.Started != 1 || b.Started != 1 {
		t.Fatalf("expected both members started, got a=%d b=%d", a.Started, b.Started)
	}
	if a.FullText() != "hi" || b.FullText() != "hi" {
		t.Fatalf("expected both members to receive the delta, got a=%q b=%q", a.FullText(), b.FullText())
	}
	if m.ChannelID() != "a" {
		t.Fatalf("expected ChannelID to defer to the first member, got %q", m.ChannelID())
	}
}

func TestMultiChannelContinuesPastAMemberError(t *testing.T) {
	a := &failingChannel{err: errTestFailure}
	b := NewStreamTestChannel("b")
	m := MultiChannel{a, b}

	err := m.SendMessage(context.Background(), models.NewUserText("hi"))
	if err != errTestFailure {
		t.Fatalf("expected the first member's error to surface, got %v", err)
	}
	if len(b.Sent) != 1 {
		t.Fatal("expected the second member to still receive the message despite the first's failure")
	}
}

var errTestFailure = &channelTestError{"boom"}

type channelTestError struct{ msg string }

func (e *channelTestError) Error() string { return e.msg }

// failingChannel always returns err from every method, to exercise
// MultiChannel's continue-past-a-broken-member behavior.
type failingChannel struct {
	err error
}

func (f *failingChannel) StartStreaming(ctx context.Context) error                  { return f.err }
func (f *failingChannel) AppendToStream(ctx context.Context, d string) error        { return f.err }
func (f *failingChannel) FinishStreaming(ctx context.Context) error                 { return f.err }
func (f *failingChannel) SendMessage(ctx context.Context, msg models.Message) error { return f.err }
func (f *failingChannel) Close(ctx context.Context) error                           { return f.err }
func (f *failingChannel) ChannelID() string                                         { return "failing" }
func (f *failingChannel) IsGroup() bool                                             { return false }
func (f *failingChannel) IsPrivate() bool                                           { return true }
func (f *failingChannel) CurrentUser() *User                                        { return nil }
func (f *failingChannel) SourceMessageID() string                                   { return "" }
