package radar

import (
	"embed"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/connectors.yaml
var connectorsYAML embed.FS

// Registry holds the configured (program, region) -> connector wiring.
type Registry struct {
	Wiring     WiringConfig      `yaml:"wiring"`
	Connectors []ConnectorConfig `yaml:"connectors"`
}

// WiringConfig carries settings shared by all connectors.
type WiringConfig struct {
	RelayBase string `yaml:"relay_base"` // CORS relay for plain-http endpoints
}

// ConnectorConfig binds one (program, region) pair to a fetch strategy.
type ConnectorConfig struct {
	ID         string `yaml:"id"`
	Program    string `yaml:"program"`     // token matched against the institution name
	RegionCode string `yaml:"region_code"` // short alias, e.g. "RN"
	RegionName string `yaml:"region_name"` // long form, matched by containment
	Strategy   string `yaml:"strategy"`    // "api_sesc", "html_listing"
	Active     *bool  `yaml:"active,omitempty"`

	// api_* strategies
	Endpoint string `yaml:"endpoint,omitempty"`

	// html_listing strategy
	BaseURL   string         `yaml:"base_url,omitempty"`
	Selectors SelectorConfig `yaml:"selectors,omitempty"`
}

// SelectorConfig holds the CSS selectors for the generic HTML listing strategy.
type SelectorConfig struct {
	Container string `yaml:"container"`
	Title     string `yaml:"title,omitempty"`
	Link      string `yaml:"link,omitempty"`
	Date      string `yaml:"date,omitempty"`
	Content   string `yaml:"content,omitempty"`
}

// IsActive defaults to true when the flag is omitted.
func (c ConnectorConfig) IsActive() bool {
	return c.Active == nil || *c.Active
}

// LoadRegistry reads the embedded connectors.yaml. A path can be given to
// override it from the filesystem during local development.
func LoadRegistry(path string) (*Registry, error) {
	data, err := connectorsYAML.ReadFile("config/connectors.yaml")
	if path != "" {
		if fsData, fsErr := os.ReadFile(path); fsErr == nil {
			data, err = fsData, nil
		}
	}
	if err != nil {
		return nil, err
	}

	// Expand environment variables within the YAML content (e.g. ${RELAY_BASE})
	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, err
	}

	return &reg, nil
}
