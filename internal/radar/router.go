package radar

import (
	"fmt"
	"log"
	"strings"
)

// rule binds a program token and region aliases to a connector.
type rule struct {
	program    string
	regionCode string
	regionName string
	connector  Connector
}

// Router selects the connector for an institution. Rules are checked in
// registration order, first match wins; institutions nobody registered for
// fall through to the default connector (the unconfigured stub).
type Router struct {
	rules      []rule
	defaultCon Connector
}

func NewRouter(defaultCon Connector) *Router {
	if defaultCon == nil {
		defaultCon = &StubConnector{}
	}
	return &Router{defaultCon: defaultCon}
}

// Register adds a (program, region) -> connector mapping. Adding a connector
// never requires touching call sites.
func (r *Router) Register(program, regionCode, regionName string, c Connector) {
	r.rules = append(r.rules, rule{
		program:    program,
		regionCode: regionCode,
		regionName: regionName,
		connector:  c,
	})
}

// Route picks the connector for the given institution identity. Pure
// selection, no side effects.
func (r *Router) Route(institutionName, state string) Connector {
	for _, rl := range r.rules {
		if !strings.Contains(strings.ToLower(institutionName), strings.ToLower(rl.program)) {
			continue
		}
		if matchesRegion(state, rl.regionCode, rl.regionName) {
			return rl.connector
		}
	}
	return r.defaultCon
}

// ConnectorBuilder constructs a connector from its registry entry.
type ConnectorBuilder func(cfg ConnectorConfig, wiring WiringConfig) (Connector, error)

// StrategyFactory maps strategy IDs (from connectors.yaml) to builders.
type StrategyFactory struct {
	builders map[string]ConnectorBuilder
}

func NewStrategyFactory() *StrategyFactory {
	return &StrategyFactory{builders: make(map[string]ConnectorBuilder)}
}

func (f *StrategyFactory) Register(id string, b ConnectorBuilder) {
	f.builders[id] = b
}

func (f *StrategyFactory) Get(id string) (ConnectorBuilder, error) {
	b, ok := f.builders[id]
	if !ok {
		return nil, fmt.Errorf("strategy not found: %s", id)
	}
	return b, nil
}

// DefaultFactory returns a factory with the built-in strategies registered.
func DefaultFactory() *StrategyFactory {
	f := NewStrategyFactory()
	f.Register("api_sesc", func(cfg ConnectorConfig, wiring WiringConfig) (Connector, error) {
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("api_sesc connector %q requires an endpoint", cfg.ID)
		}
		return NewSESCConnector(cfg.Endpoint, wiring.RelayBase), nil
	})
	f.Register("html_listing", func(cfg ConnectorConfig, wiring WiringConfig) (Connector, error) {
		if cfg.BaseURL == "" || cfg.Selectors.Container == "" {
			return nil, fmt.Errorf("html_listing connector %q requires base_url and a container selector", cfg.ID)
		}
		return NewHTMLListingConnector(cfg.BaseURL, cfg.Selectors), nil
	})
	return f
}

// BuildRouter assembles a Router from the registry, skipping inactive or
// misconfigured entries. Institutions no rule matches go to defaultCon; pass
// nil for the unconfigured stub, or a search connector to make AI search the
// universal fallback.
func BuildRouter(reg *Registry, factory *StrategyFactory, defaultCon Connector) *Router {
	router := NewRouter(defaultCon)

	for _, cfg := range reg.Connectors {
		if !cfg.IsActive() {
			continue
		}
		builder, err := factory.Get(cfg.Strategy)
		if err != nil {
			log.Printf("[Router] Skipping %q: %v", cfg.ID, err)
			continue
		}
		c, err := builder(cfg, reg.Wiring)
		if err != nil {
			log.Printf("[Router] Skipping %q: %v", cfg.ID, err)
			continue
		}
		router.Register(cfg.Program, cfg.RegionCode, cfg.RegionName, c)
	}

	return router
}
