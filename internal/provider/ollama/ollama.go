// Package ollama talks to an Ollama host's /api/chat endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/jusbot/internal/session"
)

// DefaultURL is the address of a local Ollama install.
const DefaultURL = "http://localhost:11434"

// chatMessage is one entry of an /api/chat conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Model      string      `json:"model"`
	CreatedAt  time.Time   `json:"created_at"`
	Message    chatMessage `json:"message"`
	Done       bool        `json:"done"`
	DoneReason string      `json:"done_reason,omitempty"`
	EvalCount  int         `json:"eval_count,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// messages lays out the system instruction, earlier turns and the prompt.
func messages(req session.Request) []chatMessage {
	out := make([]chatMessage, 0, len(req.History)+2)
	if req.SystemInstruction != "" {
		out = append(out, chatMessage{Role: "system", Content: req.SystemInstruction})
	}
	for _, t := range req.History {
		role := "user"
		if t.Role == session.RoleModel {
			role = "assistant"
		}
		out = append(out, chatMessage{Role: role, Content: t.Text})
	}
	return append(out, chatMessage{Role: "user", Content: req.Prompt})
}

// Client implements session.Provider for a single Ollama host.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New returns a client for baseURL. token may be empty; when set it is sent
// as a bearer token for hosts behind an authenticating proxy.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

type connector struct {
	baseURL    string
	httpClient *http.Client
}

func (c connector) Connect(_ context.Context, credential string) (session.Provider, error) {
	return New(c.baseURL, credential, c.httpClient), nil
}

// Keyless reports that Ollama needs no credential.
func (connector) Keyless() bool { return true }

// Connector returns a session.Connector for baseURL.
func Connector(baseURL string, httpClient *http.Client) session.Connector {
	return connector{baseURL: baseURL, httpClient: httpClient}
}

// Generate performs one non-streamed /api/chat call.
func (c *Client) Generate(ctx context.Context, req session.Request) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    req.Model.String(),
		Messages: messages(req),
		Stream:   false,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("could not decode ollama response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}
	return out.Message.Content, nil
}
