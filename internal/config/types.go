package config

// AppConfig is the top-level configuration for a bridge process: which
// transports to dial or listen on, the FastMCP HTTP surface, identity/tracing
// hooks, logging and metrics.
type AppConfig struct {
	Agent    AgentConfig    `yaml:"agent" json:"agent"`
	Slim     SlimConfig     `yaml:"slim" json:"slim"`
	Nats     NatsConfig     `yaml:"nats" json:"nats"`
	FastMCP  FastMCPConfig  `yaml:"fast_mcp" json:"fast_mcp"`
	Identity IdentityConfig `yaml:"identity" json:"identity"`
	Tracing  TracingConfig  `yaml:"tracing" json:"tracing"`
	Logging  LogConfig      `yaml:"logging" json:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// AgentConfig names the agent this process serves and its preferred wire
// transport, mirroring pkg/agentcard.Card's PreferredTransport tags.
type AgentConfig struct {
	Name               string `yaml:"name" json:"name"`
	PreferredTransport string `yaml:"preferred_transport" json:"preferred_transport"`
}

// SlimConfig configures the SLIM (websocket) transport, used both to listen
// (server side) and to dial a peer (client side).
type SlimConfig struct {
	Endpoint     string `yaml:"endpoint" json:"endpoint"`
	Identity     string `yaml:"identity" json:"identity"`
	SharedSecret string `yaml:"shared_secret" json:"shared_secret"`
	TLSInsecure  bool   `yaml:"tls_insecure" json:"tls_insecure"`
}

// NatsConfig configures the NATS transport.
type NatsConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// FastMCPConfig configures the FastMCP streamable-HTTP bridge.
type FastMCPConfig struct {
	Port int `yaml:"port" json:"port"`
}

// IdentityConfig toggles the pluggable identity/auth hook described in
// spec.md §6; the bridge itself performs no TBAC, only recognizes these
// settings for whatever auth middleware a caller wires in front of it.
type IdentityConfig struct {
	AuthEnabled   bool   `yaml:"auth_enabled" json:"auth_enabled"`
	ServiceAPIKey string `yaml:"service_api_key" json:"service_api_key"`
}

// TracingConfig names the OTLP HTTP endpoint a caller-supplied tracing hook
// may export to; the bridge itself does not implement tracing internals.
type TracingConfig struct {
	OTLPHTTPEndpoint string `yaml:"otlp_http_endpoint" json:"otlp_http_endpoint"`
}

// LogConfig controls the shared logrus logger's level.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// MetricsConfig toggles the Prometheus collector.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// DefaultConfig returns the configuration used when no file is present,
// matching spec.md §6's documented defaults.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Agent: AgentConfig{
			Name:               "bridge-agent",
			PreferredTransport: "slimrpc",
		},
		Slim: SlimConfig{
			Endpoint: "http://localhost:46357",
		},
		Nats: NatsConfig{
			Endpoint: "localhost:4222",
		},
		FastMCP: FastMCPConfig{
			Port: 8081,
		},
		Tracing: TracingConfig{
			OTLPHTTPEndpoint: "http://localhost:4318",
		},
		Logging: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
