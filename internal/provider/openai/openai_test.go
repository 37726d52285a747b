package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mwiater/jusbot/internal/session"
	gptLib "github.com/sashabaranov/go-openai"
)

func TestGenerate_SendsSystemAndUserMessages(t *testing.T) {
	var got gptLib.ChatCompletionRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Objection overruled."},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`))
	}))
	defer server.Close()

	c, err := New("sk-test", Options{BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	text, err := c.Generate(context.Background(), session.Request{
		Prompt:            "can I object?",
		Model:             "gpt-4o-mini",
		SystemInstruction: "You are Jusbot.",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Objection overruled." {
		t.Fatalf("unexpected text %q", text)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.Model != "gpt-4o-mini" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Messages[0].Role != gptLib.ChatMessageRoleSystem || got.Messages[1].Content != "can I object?" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestGenerate_SendsHistory(t *testing.T) {
	var got gptLib.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Still no."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	c, _ := New("sk-test", Options{BaseURL: server.URL + "/v1"})
	_, err := c.Generate(context.Background(), session.Request{
		Prompt:            "what about my dog",
		Model:             "gpt-4o-mini",
		SystemInstruction: "You are Jusbot.",
		History: []session.Turn{
			{Role: session.RoleUser, Text: "can I sue my cat"},
			{Role: session.RoleModel, Text: "No."},
		},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []gptLib.ChatCompletionMessage{
		{Role: gptLib.ChatMessageRoleSystem, Content: "You are Jusbot."},
		{Role: gptLib.ChatMessageRoleUser, Content: "can I sue my cat"},
		{Role: gptLib.ChatMessageRoleAssistant, Content: "No."},
		{Role: gptLib.ChatMessageRoleUser, Content: "what about my dog"},
	}
	if len(got.Messages) != len(want) {
		t.Fatalf("expected %d messages, got %+v", len(want), got.Messages)
	}
	for i := range want {
		if got.Messages[i].Role != want[i].Role || got.Messages[i].Content != want[i].Content {
			t.Fatalf("message %d: got %+v, want %+v", i, got.Messages[i], want[i])
		}
	}
}

func TestGenerate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	c, _ := New("sk-test", Options{BaseURL: server.URL + "/v1"})
	text, err := c.Generate(context.Background(), session.Request{Prompt: "hi", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestGenerate_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	}))
	defer server.Close()

	c, _ := New("sk-test", Options{BaseURL: server.URL + "/v1"})
	if _, err := c.Generate(context.Background(), session.Request{Prompt: "hi", Model: "gpt-4o-mini"}); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := New("", Options{}); err == nil {
		t.Fatal("expected error for empty API key")
	}
}
