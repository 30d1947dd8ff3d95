// Package agentcard defines the immutable descriptor of a server-side agent
// used to negotiate a compatible transport between a client and a server.
package agentcard

// Transport is a transport tag as declared on an agent card or a client
// config. The zero value is not a valid transport.
type Transport string

const (
	TransportSlimRPC      Transport = "slimrpc"
	TransportSlimPatterns Transport = "slimpatterns"
	TransportNatsPatterns Transport = "natspatterns"
	TransportJSONRPC      Transport = "jsonrpc"
)

// Skill describes a single capability an agent exposes.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// Provider contains information about the organization behind the agent.
type Provider struct {
	Organization string `json:"organization"`
	URL          string `json:"url"`
}

// Capabilities declares optional protocol-level features of the agent.
type Capabilities struct {
	Streaming              bool `json:"streaming,omitempty"`
	PushNotifications      bool `json:"pushNotifications,omitempty"`
	StateTransitionHistory bool `json:"stateTransitionHistory,omitempty"`
}

// Interface pairs a transport tag with the URL an agent can be reached at
// over that transport. AdditionalInterfaces lets a card advertise more than
// one transport beyond PreferredTransport.
type Interface struct {
	Transport Transport `json:"transport"`
	URL       string    `json:"url"`
}

// Card is the immutable descriptor of a server-side agent (spec.md §3).
// Card values are shared by reference and must never be mutated after
// construction; callers that need a variant should copy the struct.
type Card struct {
	Name                  string        `json:"name"`
	Description           string        `json:"description"`
	Version               string        `json:"version"`
	ProtocolVersion       string        `json:"protocolVersion,omitempty"`
	URL                   string        `json:"url"`
	PreferredTransport    Transport     `json:"preferredTransport"`
	AdditionalInterfaces  []Interface   `json:"additionalInterfaces,omitempty"`
	Provider              *Provider     `json:"provider,omitempty"`
	Capabilities          Capabilities  `json:"capabilities"`
	DefaultInputModes     []string      `json:"defaultInputModes"`
	DefaultOutputModes    []string      `json:"defaultOutputModes"`
	Skills                []Skill       `json:"skills"`
	SecuritySchemes       interface{}   `json:"securitySchemes,omitempty"`
	Security              interface{}   `json:"security,omitempty"`
}

// SupportedTransports returns the ordered, deduplicated list of transports
// this card can be reached over: PreferredTransport first, then whatever
// AdditionalInterfaces declare. Ordering matters for negotiation (spec.md
// §4.5 step 3: "ordered by the card's preference").
func (c *Card) SupportedTransports() []Transport {
	seen := make(map[Transport]bool, 1+len(c.AdditionalInterfaces))
	var out []Transport
	if c.PreferredTransport != "" {
		out = append(out, c.PreferredTransport)
		seen[c.PreferredTransport] = true
	}
	for _, iface := range c.AdditionalInterfaces {
		if iface.Transport == "" || seen[iface.Transport] {
			continue
		}
		seen[iface.Transport] = true
		out = append(out, iface.Transport)
	}
	return out
}

// URLForTransport returns the URL advertised for a given transport, checking
// PreferredTransport/URL first and then AdditionalInterfaces.
func (c *Card) URLForTransport(t Transport) (string, bool) {
	if c.PreferredTransport == t {
		return c.URL, true
	}
	for _, iface := range c.AdditionalInterfaces {
		if iface.Transport == t {
			return iface.URL, true
		}
	}
	return "", false
}
