// Package gemini talks to Google's Gemini API through the genai SDK.
package gemini

import (
	"context"
	"errors"
	"net/http"

	"github.com/mwiater/jusbot/internal/session"
	"google.golang.org/genai"
)

// Options tunes the client. Zero values use the SDK defaults.
type Options struct {
	// BaseURL overrides the Gemini endpoint.
	BaseURL string
	// HTTPClient replaces the SDK's HTTP client.
	HTTPClient *http.Client
}

// Client implements session.Provider for Gemini.
type Client struct {
	client *genai.Client
}

// New builds a Gemini client for apiKey. No request is made.
func New(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions.BaseURL = opts.BaseURL
	}
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Client{client: c}, nil
}

// Connector returns a session.Connector that builds Gemini clients.
func Connector(opts Options) session.Connector {
	return session.ConnectorFunc(func(ctx context.Context, credential string) (session.Provider, error) {
		return New(ctx, credential, opts)
	})
}

// Generate sends the conversation with the system instruction attached and
// returns the concatenated text of the first candidate.
func (c *Client) Generate(ctx context.Context, req session.Request) (string, error) {
	var gc *genai.GenerateContentConfig
	if req.SystemInstruction != "" {
		gc = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		}
	}
	resp, err := c.client.Models.GenerateContent(ctx, req.Model.String(), contents(req), gc)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// contents lays out earlier turns followed by the new prompt.
func contents(req session.Request) []*genai.Content {
	out := make([]*genai.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		role := genai.Role(genai.RoleUser)
		if t.Role == session.RoleModel {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(t.Text, role))
	}
	return append(out, genai.NewContentFromText(req.Prompt, genai.RoleUser))
}
