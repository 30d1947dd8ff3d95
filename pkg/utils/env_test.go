package utils

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvFallsBackToDefault(t *testing.T) {
	os.Unsetenv("BRIDGE_TEST_VAR")
	assert.Equal(t, "fallback", GetEnv("BRIDGE_TEST_VAR", "fallback"))

	os.Setenv("BRIDGE_TEST_VAR", "set")
	defer os.Unsetenv("BRIDGE_TEST_VAR")
	assert.Equal(t, "set", GetEnv("BRIDGE_TEST_VAR", "fallback"))
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("BRIDGE_TEST_ENDPOINT", "127.0.0.1:46357")
	defer os.Unsetenv("BRIDGE_TEST_ENDPOINT")

	assert.Equal(t, "127.0.0.1:46357", ExpandEnvVars("${BRIDGE_TEST_ENDPOINT}"))
}

func TestBoolFromEnv(t *testing.T) {
	cases := []struct {
		val  string
		want bool
	}{
		{"true", true},
		{"YES", true},
		{"1", true},
		{"on", true},
		{"false", false},
		{"no", false},
		{"", false},
	}

	for _, c := range cases {
		os.Setenv("BRIDGE_TEST_BOOL", c.val)
		if c.val == "" {
			os.Unsetenv("BRIDGE_TEST_BOOL")
		}
		assert.Equal(t, c.want, BoolFromEnv("BRIDGE_TEST_BOOL", false), "value %q", c.val)
	}
	os.Unsetenv("BRIDGE_TEST_BOOL")
}
