package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agntcy/go-bridge-sdk/internal/a2a"
	"github.com/agntcy/go-bridge-sdk/internal/transport"
	"github.com/agntcy/go-bridge-sdk/internal/transport/slim"
)

func marshalMessageSend(t *testing.T, id string, text string) []byte {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{
		"message": a2a.Message{Role: "user", Parts: []a2a.Part{{Text: text}}},
	})
	require.NoError(t, err)

	env := a2a.BroadcastEnvelope{
		JSONRPCRequest: a2a.JSONRPCRequest{JSONRPC: "2.0", ID: id, Method: "message/send", Params: params},
	}
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return data
}

func TestA2APatternsBridgeUnaryRoundTrip(t *testing.T) {
	server := slim.New(nil)
	defer server.Close()
	serverAddr := mustConnectSlim(t, server, "org/ns/agent")

	handler := a2a.NewJSONRPCHandler(echoHandler, nil, nil)
	b := NewA2APatternsBridge(server, "org/ns/agent", handler, nil)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	client := slim.New(nil)
	defer client.Close()
	client.SetRoute("org/ns/agent", serverAddr)

	raw, err := client.RequestReply(context.Background(), "org/ns/agent", marshalMessageSend(t, "1", "hi"), 2*time.Second)
	require.NoError(t, err)

	var resp a2a.JSONRPCResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Nil(t, resp.Error)

	var task a2a.Task
	require.NoError(t, json.Unmarshal(resp.Result, &task))
	assert.Equal(t, "echo:hi", task.Status.Message.Parts[0].Text)
}

func TestA2APatternsBridgeBroadcastRepliesToGroupTopic(t *testing.T) {
	server := slim.New(nil)
	defer server.Close()
	serverAddr := mustConnectSlim(t, server, "org/ns/agent")

	handler := a2a.NewJSONRPCHandler(echoHandler, nil, nil)
	b := NewA2APatternsBridge(server, "org/ns/agent", handler, nil)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	client := slim.New(nil)
	defer client.Close()
	clientAddr := mustConnectSlim(t, client, "org/ns/client")
	client.SetRoute("org/ns/agent", serverAddr)
	// The bridge's reply goes out as a fresh Publish on org/ns/group-reply
	// from the server's own transport, so the server needs a route back to
	// the client just as the client needs one to the server.
	server.SetRoute("org/ns/group-reply", clientAddr)

	replyCh := make(chan []byte, 1)
	_, err := client.Subscribe(context.Background(), "org/ns/group-reply", func(_ context.Context, frame transport.Frame) {
		replyCh <- frame.Payload
	})
	require.NoError(t, err)

	params, err := json.Marshal(map[string]interface{}{
		"message": a2a.Message{Role: "user", Parts: []a2a.Part{{Text: "status"}}},
	})
	require.NoError(t, err)
	env := a2a.BroadcastEnvelope{
		JSONRPCRequest: a2a.JSONRPCRequest{JSONRPC: "2.0", ID: "1", Method: "message/send", Params: params},
		BroadcastTopic: "org/ns/group-reply",
	}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	require.NoError(t, client.Publish(context.Background(), "org/ns/agent", data, transport.PublishOptions{}))

	select {
	case raw := <-replyCh:
		var resp a2a.JSONRPCResponse
		require.NoError(t, json.Unmarshal(raw, &resp))
		var task a2a.Task
		require.NoError(t, json.Unmarshal(resp.Result, &task))
		assert.Equal(t, "echo:status", task.Status.Message.Parts[0].Text)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast-group reply")
	}
}

func TestA2APatternsBridgeGroupChatTerminatesOnEndMessage(t *testing.T) {
	moderator := slim.New(nil)
	defer moderator.Close()
	modAddr := mustConnectSlim(t, moderator, "org/ns/moderator")

	handler := a2a.NewJSONRPCHandler(echoHandler, nil, nil)
	b := NewA2APatternsBridge(moderator, "channel/test", handler, nil)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	// Two participants: A emits the end token, B is the witness that the
	// relay still fans it out to everyone else before the session closes.
	participantA := slim.New(nil)
	defer participantA.Close()
	participantAAddr := mustConnectSlim(t, participantA, "org/ns/participant-a")
	participantA.SetRoute("channel/test/groupchat", modAddr)

	participantB := slim.New(nil)
	defer participantB.Close()
	participantBAddr := mustConnectSlim(t, participantB, "org/ns/participant-b")

	received := make(chan string, 4)
	_, err := participantB.Subscribe(context.Background(), "channel/test/groupchat", func(_ context.Context, frame transport.Frame) {
		received <- string(frame.Payload)
	})
	require.NoError(t, err)

	moderator.SetRoute("org/ns/participant-a", participantAAddr)
	moderator.SetRoute("org/ns/participant-b", participantBAddr)

	initiator := slim.New(nil)
	defer initiator.Close()
	initiator.SetRoute("channel/test", modAddr)

	env := a2a.BroadcastEnvelope{
		JSONRPCRequest: a2a.JSONRPCRequest{
			JSONRPC: "2.0",
			ID:      "1",
			Method:  groupChatMethod,
			Params:  json.RawMessage(`{"participants":["org/ns/participant-a","org/ns/participant-b"],"endMessage":"DONE","timeoutMs":2000}`),
		},
	}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	require.NoError(t, initiator.Publish(context.Background(), "channel/test", data, transport.PublishOptions{}))

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, participantA.Publish(context.Background(), "channel/test/groupchat", []byte("DONE"), transport.PublishOptions{}))

	select {
	case msg := <-received:
		assert.Equal(t, "DONE", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("participant-b never observed the relayed end message")
	}
}
