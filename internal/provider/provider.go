// Package provider maps a configured backend name to the connector that
// builds its client.
package provider

import (
	"fmt"
	"sort"

	"github.com/mwiater/jusbot/internal/config"
	"github.com/mwiater/jusbot/internal/provider/gemini"
	"github.com/mwiater/jusbot/internal/provider/ollama"
	"github.com/mwiater/jusbot/internal/provider/openai"
	"github.com/mwiater/jusbot/internal/session"
)

// Backend names accepted in the "provider" setting.
const (
	Gemini = "gemini"
	OpenAI = "openai"
	Ollama = "ollama"
)

var connectors = map[string]func(cfg *config.Config) session.Connector{
	Gemini: func(cfg *config.Config) session.Connector {
		return gemini.Connector(gemini.Options{BaseURL: cfg.BaseURL, HTTPClient: NewHTTPClient(cfg.Timeout)})
	},
	OpenAI: func(cfg *config.Config) session.Connector {
		return openai.Connector(openai.Options{BaseURL: cfg.BaseURL, HTTPClient: NewHTTPClient(cfg.Timeout)})
	},
	Ollama: func(cfg *config.Config) session.Connector {
		return ollama.Connector(cfg.BaseURL, NewHTTPClient(cfg.Timeout))
	},
}

// Names lists the supported backends in sorted order.
func Names() []string {
	names := make([]string, 0, len(connectors))
	for name := range connectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Connector returns the connector for cfg.Provider.
func Connector(cfg *config.Config) (session.Connector, error) {
	build, ok := connectors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (supported: %v)", cfg.Provider, Names())
	}
	return build(cfg), nil
}
