package nats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

// connectOrSkip dials the local NATS broker these tests exercise against;
// they're skipped in environments without one running (no embedded broker
// is started — this package only talks to a real NATS server).
func connectOrSkip(t *testing.T) *Transport {
	t.Helper()
	tr := New(nil)
	if err := tr.Connect(context.Background(), "localhost:4222", transport.Credentials{Identity: "org/ns/test"}); err != nil {
		t.Skipf("no local NATS broker available: %v", err)
	}
	return tr
}

func TestRequestReply(t *testing.T) {
	tr := connectOrSkip(t)
	defer tr.Close()

	subject := "org.ns.echo"
	_, err := tr.Subscribe(context.Background(), subject, func(ctx context.Context, frame transport.Frame) {
		_ = tr.Publish(ctx, frame.ReplyTo, append([]byte("echo:"), frame.Payload...), transport.PublishOptions{})
	})
	require.NoError(t, err)

	reply, err := tr.RequestReply(context.Background(), subject, []byte("hi"), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", string(reply))
}

func TestRequestReplyTimesOut(t *testing.T) {
	tr := connectOrSkip(t)
	defer tr.Close()

	_, err := tr.RequestReply(context.Background(), "org.ns.nobody-listening", []byte("hi"), 150*time.Millisecond)
	assert.ErrorIs(t, err, transport.ErrTimeout)
}

func TestStartGroupChatUnsupported(t *testing.T) {
	tr := connectOrSkip(t)
	defer tr.Close()

	_, err := tr.StartGroupChat(context.Background(), "channel", []string{"org/ns/a"})
	assert.ErrorIs(t, err, transport.ErrUnsupportedOperation)
}

func TestSubscribeTwiceFails(t *testing.T) {
	tr := connectOrSkip(t)
	defer tr.Close()

	_, err := tr.Subscribe(context.Background(), "org.ns.dup", func(context.Context, transport.Frame) {})
	require.NoError(t, err)

	_, err = tr.Subscribe(context.Background(), "org.ns.dup", func(context.Context, transport.Frame) {})
	assert.ErrorIs(t, err, transport.ErrAlreadySubscribed)
}
