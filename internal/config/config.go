package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/agntcy/go-bridge-sdk/pkg/utils"
)

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(path string, logger *logrus.Logger) (*AppConfig, error) {
	if logger == nil {
		logger = logrus.New()
	}

	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warnf("configuration file %s not found, using defaults", path)
		applyEnvironmentOverrides(config)
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	configString := utils.ExpandEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(configString), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	applyEnvironmentOverrides(config)

	return config, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(config *AppConfig, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateConfig checks if the configuration is valid.
func validateConfig(config *AppConfig) error {
	if config.Agent.Name == "" {
		return fmt.Errorf("agent name cannot be empty")
	}

	switch config.Agent.PreferredTransport {
	case "", "slimrpc", "slimpatterns", "natspatterns", "jsonrpc":
	default:
		return fmt.Errorf("agent.preferred_transport %q is not a recognized transport", config.Agent.PreferredTransport)
	}

	if config.Slim.Endpoint == "" && config.Nats.Endpoint == "" {
		return fmt.Errorf("at least one of slim.endpoint or nats.endpoint must be set")
	}

	if config.FastMCP.Port < 0 || config.FastMCP.Port > 65535 {
		return fmt.Errorf("fast_mcp.port must be between 0 and 65535")
	}

	if config.Identity.AuthEnabled && config.Identity.ServiceAPIKey == "" {
		return fmt.Errorf("identity.service_api_key must be set when identity.auth_enabled is true")
	}

	return nil
}

// applyEnvironmentOverrides applies environment variable overrides to the
// configuration, matching the env vars spec.md §6 recognizes.
func applyEnvironmentOverrides(config *AppConfig) {
	if name := os.Getenv("AGENT_NAME"); name != "" {
		config.Agent.Name = name
	}
	if transport := os.Getenv("AGENT_PREFERRED_TRANSPORT"); transport != "" {
		config.Agent.PreferredTransport = transport
	}

	if endpoint := os.Getenv("SLIM_ENDPOINT"); endpoint != "" {
		config.Slim.Endpoint = endpoint
	}
	if identity := os.Getenv("SLIM_IDENTITY"); identity != "" {
		config.Slim.Identity = identity
	}
	config.Slim.TLSInsecure = utils.BoolFromEnv("SLIM_TLS_INSECURE", config.Slim.TLSInsecure)

	if endpoint := os.Getenv("NATS_ENDPOINT"); endpoint != "" {
		config.Nats.Endpoint = endpoint
	}

	if portStr := os.Getenv("FAST_MCP_PORT"); portStr != "" {
		if v, err := strconv.Atoi(portStr); err != nil {
			logrus.Warnf("invalid FAST_MCP_PORT: %s", portStr)
		} else {
			config.FastMCP.Port = v
		}
	}

	config.Identity.AuthEnabled = utils.BoolFromEnv("IDENTITY_AUTH_ENABLED", config.Identity.AuthEnabled)
	if key := os.Getenv("IDENTITY_SERVICE_API_KEY"); key != "" {
		config.Identity.ServiceAPIKey = key
	}

	if endpoint := os.Getenv("OTLP_HTTP_ENDPOINT"); endpoint != "" {
		config.Tracing.OTLPHTTPEndpoint = endpoint
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	config.Metrics.Enabled = utils.BoolFromEnv("METRICS_ENABLED", config.Metrics.Enabled)
}
