package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"helpdesk-system/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assistantConfig(baseURL string) *config.Config {
	return &config.Config{
		GeminiAPIKey:   "test-key",
		GeminiModel:    "gemini-2.5-flash",
		GeminiBaseURL:  baseURL,
		GeminiTimeout:  2 * time.Second,
		AssistantReply: "Sorry, I'm having trouble connecting to my brain right now. Please try again later.",
	}
}

func TestAssistant_ReturnsCompletionText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "how do I reset my password?", req.Contents[0].Parts[0].Text)

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "Open the portal and follow the reset link."}}}},
			},
		})
	}))
	defer srv.Close()

	svc := NewAssistantService(assistantConfig(srv.URL))

	reply := svc.SendMessage(context.Background(), "how do I reset my password?")
	assert.Equal(t, "Open the portal and follow the reset link.", reply)
}

func TestAssistant_FallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := assistantConfig(srv.URL)
	svc := NewAssistantService(cfg)

	reply := svc.SendMessage(context.Background(), "hello")
	assert.Equal(t, cfg.AssistantReply, reply)
}

func TestAssistant_FallsBackOnEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer srv.Close()

	cfg := assistantConfig(srv.URL)
	svc := NewAssistantService(cfg)

	reply := svc.SendMessage(context.Background(), "hello")
	assert.Equal(t, cfg.AssistantReply, reply)
}

func TestAssistant_FallsBackWhenUnreachable(t *testing.T) {
	cfg := assistantConfig("http://127.0.0.1:1")
	svc := NewAssistantService(cfg)

	reply := svc.SendMessage(context.Background(), "hello")
	assert.Equal(t, cfg.AssistantReply, reply)
}
