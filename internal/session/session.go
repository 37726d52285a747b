// Package session owns the connection to the hosted generation service and
// turns each prompt into a Response. A Session is built once at startup and
// is read-only afterwards.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mwiater/jusbot/internal/models"
)

// DefaultTimeout bounds a single provider call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Role identifies who spoke an earlier turn of a conversation.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one earlier message of a conversation.
type Turn struct {
	Role Role
	Text string
}

// Request is one prompt sent to the provider. History holds the earlier
// turns, oldest first, and is empty for single-turn requests.
type Request struct {
	Prompt            string
	Model             models.Model
	SystemInstruction string
	History           []Turn
}

// Provider generates text for a request. Implementations wrap a vendor SDK
// or HTTP API.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Connector builds a Provider from a credential.
type Connector interface {
	Connect(ctx context.Context, credential string) (Provider, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, credential string) (Provider, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, credential string) (Provider, error) {
	return f(ctx, credential)
}

// keyless is implemented by connectors whose backend accepts an empty
// credential, such as a local Ollama host.
type keyless interface {
	Keyless() bool
}

// Session is an initialized client for the generation service.
type Session struct {
	id       string
	provider Provider
	catalog  models.Catalog
	timeout  time.Duration
	name     string
}

// Option customizes a Session during Initialize.
type Option func(*Session)

// WithCatalog sets the models the session accepts.
func WithCatalog(c models.Catalog) Option {
	return func(s *Session) { s.catalog = c }
}

// WithTimeout bounds each provider call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithName labels the session's backend in errors and log lines.
func WithName(name string) Option {
	return func(s *Session) { s.name = name }
}

// Initialize validates the credential and builds the provider handle.
// It returns a *ConfigError for a missing credential and a *ConnectionError
// when the connector fails.
func Initialize(ctx context.Context, credential string, connector Connector, opts ...Option) (*Session, error) {
	s := &Session{
		id:      uuid.Must(uuid.NewV7()).String(),
		catalog: models.DefaultCatalog(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	credential = strings.TrimSpace(credential)
	if credential == "" && !isKeyless(connector) {
		return nil, &ConfigError{Reason: "API key is not set"}
	}
	if connector == nil {
		return nil, &ConnectionError{Provider: s.name, Err: fmt.Errorf("no connector configured")}
	}

	p, err := connector.Connect(ctx, credential)
	if err != nil {
		return nil, &ConnectionError{Provider: s.name, Err: err}
	}
	if p == nil {
		return nil, &ConnectionError{Provider: s.name, Err: fmt.Errorf("connector returned no provider")}
	}
	s.provider = p

	log.Printf("session %s: connected to %s (timeout %s)", s.id, s.label(), s.timeout)
	return s, nil
}

func isKeyless(c Connector) bool {
	k, ok := c.(keyless)
	return ok && k.Keyless()
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Catalog returns the models the session accepts.
func (s *Session) Catalog() models.Catalog { return s.catalog }

// Timeout returns the per-request timeout.
func (s *Session) Timeout() time.Duration { return s.timeout }

func (s *Session) label() string {
	if s.name == "" {
		return "provider"
	}
	return s.name
}

// Request sends prompt to the provider and returns the generated text or a
// failure reason. It never panics and never returns an error: provider
// errors, timeouts and empty results all become failed Responses.
func (s *Session) Request(ctx context.Context, prompt string, model models.Model, systemInstruction string) Response {
	return s.send(ctx, Request{Prompt: prompt, Model: model, SystemInstruction: systemInstruction})
}

// Converse is Request with the earlier turns of a conversation sent along,
// so the model can refer back to them. history is not modified.
func (s *Session) Converse(ctx context.Context, history []Turn, prompt string, model models.Model, systemInstruction string) Response {
	return s.send(ctx, Request{
		Prompt:            prompt,
		Model:             model,
		SystemInstruction: systemInstruction,
		History:           append([]Turn(nil), history...),
	})
}

func (s *Session) send(ctx context.Context, req Request) (resp Response) {
	prompt, model := req.Prompt, req.Model
	if strings.TrimSpace(prompt) == "" {
		return Failure("Please enter a message.")
	}
	if !s.catalog.Supports(model) {
		return failed(&RequestError{Model: string(model), Err: fmt.Errorf("unsupported model %q", model)})
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("session %s: provider panic: %v", s.id, r)
			resp = failed(&RequestError{Model: string(model), Err: fmt.Errorf("provider panic: %v", r)})
		}
	}()

	start := time.Now()
	text, err := s.provider.Generate(ctx, req)
	log.Printf("session %s: %s answered %d-turn request in %s (err=%v)", s.id, model, len(req.History)+1, time.Since(start).Round(time.Millisecond), err)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("request timed out after %s: %w", s.timeout, err)
		}
		return failed(&RequestError{Model: string(model), Err: err})
	}
	if strings.TrimSpace(text) == "" {
		return Response{reason: NoResponseMessage, err: ErrNoResponse}
	}
	return Success(text)
}
