// Package openai talks to OpenAI-compatible chat completion endpoints.
package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/mwiater/jusbot/internal/session"
	gptLib "github.com/sashabaranov/go-openai"
)

// Options tunes the client.
type Options struct {
	// BaseURL points at a compatible server, e.g. "http://localhost:1234/v1".
	BaseURL string
	// HTTPClient replaces the library's default client.
	HTTPClient *http.Client
}

// Client implements session.Provider with chat completions.
type Client struct {
	client *gptLib.Client
}

// New builds a client for apiKey. No request is made.
func New(apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	cfg := gptLib.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	return &Client{client: gptLib.NewClientWithConfig(cfg)}, nil
}

// Connector returns a session.Connector that builds OpenAI clients.
func Connector(opts Options) session.Connector {
	return session.ConnectorFunc(func(_ context.Context, credential string) (session.Provider, error) {
		return New(credential, opts)
	})
}

// Generate sends the system instruction, earlier turns and prompt as one
// conversation and returns the first choice's content.
func (c *Client) Generate(ctx context.Context, req session.Request) (string, error) {
	var msgs []gptLib.ChatCompletionMessage
	if req.SystemInstruction != "" {
		msgs = append(msgs, gptLib.ChatCompletionMessage{
			Role:    gptLib.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	for _, t := range req.History {
		role := gptLib.ChatMessageRoleUser
		if t.Role == session.RoleModel {
			role = gptLib.ChatMessageRoleAssistant
		}
		msgs = append(msgs, gptLib.ChatCompletionMessage{Role: role, Content: t.Text})
	}
	msgs = append(msgs, gptLib.ChatCompletionMessage{
		Role:    gptLib.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, gptLib.ChatCompletionRequest{
		Model:    req.Model.String(),
		Messages: msgs,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
