package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	id, err := Parse("default/default/weather_server")
	require.NoError(t, err)
	assert.Equal(t, ID{Org: "default", Namespace: "default", Name: "weather_server"}, id)
	assert.Equal(t, "default/default/weather_server", id.String())
}

func TestParseRejectsMissingSegments(t *testing.T) {
	_, err := Parse("default/weather_server")
	assert.Error(t, err)

	_, err = Parse("default//weather_server")
	assert.Error(t, err)
}

func TestMangle(t *testing.T) {
	assert.Equal(t, "Weather_Agent", Mangle("Weather Agent"))
	assert.Equal(t, "weather", Mangle("weather"))
}

func TestFromDisplayName(t *testing.T) {
	id := FromDisplayName("org", "ns", "My Agent")
	assert.Equal(t, ID{Org: "org", Namespace: "ns", Name: "My_Agent"}, id)
}

func TestDistinctFrom(t *testing.T) {
	a := ID{Org: "o", Namespace: "n", Name: "a"}
	b := ID{Org: "o", Namespace: "n", Name: "b"}
	assert.True(t, a.DistinctFrom(b))
	assert.False(t, a.DistinctFrom(a))
}
