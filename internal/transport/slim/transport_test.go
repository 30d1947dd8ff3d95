package slim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

func mustConnect(t *testing.T, tr *Transport, identity string) string {
	t.Helper()
	err := tr.Connect(context.Background(), "127.0.0.1:0", transport.Credentials{Identity: identity})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	return tr.ListenAddr()
}

func TestRequestReply(t *testing.T) {
	server := New(nil)
	defer server.Close()
	serverAddr := mustConnect(t, server, "org/ns/server")

	_, err := server.Subscribe(context.Background(), "org/ns/server", func(ctx context.Context, frame transport.Frame) {
		_ = server.Publish(ctx, frame.ReplyTo, []byte("pong:"+string(frame.Payload)), transport.PublishOptions{})
	})
	require.NoError(t, err)

	client := New(nil)
	defer client.Close()
	client.SetRoute("org/ns/server", serverAddr)

	reply, err := client.RequestReply(context.Background(), "org/ns/server", []byte("ping"), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "pong:ping", string(reply))
}

func TestRequestReplyTimesOutWithoutSubscriber(t *testing.T) {
	server := New(nil)
	defer server.Close()
	serverAddr := mustConnect(t, server, "org/ns/server")

	client := New(nil)
	defer client.Close()
	client.SetRoute("org/ns/server", serverAddr)

	_, err := client.RequestReply(context.Background(), "org/ns/server", []byte("ping"), 150*time.Millisecond)
	assert.ErrorIs(t, err, transport.ErrTimeout)
}

func TestSubscribeTwiceFails(t *testing.T) {
	tr := New(nil)
	defer tr.Close()
	_, err := tr.Subscribe(context.Background(), "topic", func(context.Context, transport.Frame) {})
	require.NoError(t, err)

	_, err = tr.Subscribe(context.Background(), "topic", func(context.Context, transport.Frame) {})
	assert.ErrorIs(t, err, transport.ErrAlreadySubscribed)
}

func TestBroadcastCollectsPartialResults(t *testing.T) {
	var recipients []string
	server := New(nil)
	defer server.Close()
	serverAddr := mustConnect(t, server, "org/ns/server")

	for _, name := range []string{"org/ns/a", "org/ns/b"} {
		recipients = append(recipients, name)
	}

	_, err := server.Subscribe(context.Background(), "org/ns/broadcast", func(ctx context.Context, frame transport.Frame) {
		_ = server.Publish(ctx, frame.ReplyTo, []byte("ack"), transport.PublishOptions{})
	})
	require.NoError(t, err)

	client := New(nil)
	defer client.Close()
	client.SetRoute("org/ns/a", serverAddr)
	client.SetRoute("org/ns/b", serverAddr)

	results, err := client.Broadcast(context.Background(), "org/ns/broadcast", []byte("hi"), recipients, 2, time.Second)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "ack", string(r))
	}
}

func TestGroupChatRelaysBetweenParticipants(t *testing.T) {
	moderator := New(nil)
	defer moderator.Close()
	modAddr := mustConnect(t, moderator, "org/ns/moderator")

	participant := New(nil)
	defer participant.Close()
	participantAddr := mustConnect(t, participant, "org/ns/participant")
	participant.SetRoute("channel/test", modAddr)

	var mu sync.Mutex
	var received []string
	done := make(chan struct{}, 1)
	_, err := participant.Subscribe(context.Background(), "channel/test", func(ctx context.Context, frame transport.Frame) {
		mu.Lock()
		received = append(received, string(frame.Payload))
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	moderator.SetRoute("org/ns/participant", participantAddr)
	sess, err := moderator.StartGroupChat(context.Background(), "channel/test", []string{"org/ns/participant"})
	require.NoError(t, err)
	defer sess.Close()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, sess.Send(context.Background(), []byte("hello")))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("participant never received relayed message")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "hello", received[0])
}

func TestPublishWithoutRouteFails(t *testing.T) {
	tr := New(nil)
	defer tr.Close()
	err := tr.Publish(context.Background(), "nowhere", []byte("x"), transport.PublishOptions{})
	assert.ErrorIs(t, err, transport.ErrTransport)
}
