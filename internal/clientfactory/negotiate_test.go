package clientfactory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
	"github.com/agntcy/go-bridge-sdk/pkg/agentcard"
)

func TestNegotiatePrefersCardOrder(t *testing.T) {
	card := &agentcard.Card{
		Name:               "weather",
		PreferredTransport: agentcard.TransportSlimPatterns,
		AdditionalInterfaces: []agentcard.Interface{
			{Transport: agentcard.TransportSlimRPC, URL: "org/ns/weather"},
			{Transport: agentcard.TransportJSONRPC, URL: "http://weather/"},
		},
		URL: "org/ns/weather",
	}
	cfg := transport.ClientConfig{
		Slim:        &transport.SlimRpcConnectionConfig{Identity: "org/ns/client", SharedSecret: "x", Endpoint: "127.0.0.1:1"},
		HTTPBaseURL: "http://weather/",
	}

	chosen, err := negotiate(card, cfg)
	require.NoError(t, err)
	assert.Equal(t, agentcard.TransportSlimPatterns, chosen)
}

func TestNegotiateFallsBackToLaterTransport(t *testing.T) {
	card := &agentcard.Card{
		Name:               "weather",
		PreferredTransport: agentcard.TransportNatsPatterns,
		AdditionalInterfaces: []agentcard.Interface{
			{Transport: agentcard.TransportJSONRPC, URL: "http://weather/"},
		},
	}
	cfg := transport.ClientConfig{HTTPBaseURL: "http://weather/"}

	chosen, err := negotiate(card, cfg)
	require.NoError(t, err)
	assert.Equal(t, agentcard.TransportJSONRPC, chosen)
}

func TestNegotiateFailsWhenNoOverlap(t *testing.T) {
	card := &agentcard.Card{Name: "weather", PreferredTransport: agentcard.TransportNatsPatterns}
	cfg := transport.ClientConfig{HTTPBaseURL: "http://weather/"}

	_, err := negotiate(card, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, transport.ErrNoCompatibleTransport)
}
