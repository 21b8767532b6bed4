package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"helpdesk-system/config"
	"helpdesk-system/monitoring"
	"helpdesk-system/utils"
)

// AssistantService is a passthrough to the Gemini generateContent API.
// Failures never surface to the caller: any error collapses into the
// configured fallback reply.
type AssistantService struct {
	hc       *http.Client
	breaker  *utils.CircuitBreaker
	apiKey   string
	model    string
	baseURL  string
	fallback string
}

func NewAssistantService(cfg *config.Config) *AssistantService {
	return &AssistantService{
		hc:       &http.Client{Timeout: cfg.GeminiTimeout},
		breaker:  utils.NewCircuitBreaker("assistant"),
		apiKey:   cfg.GeminiAPIKey,
		model:    cfg.GeminiModel,
		baseURL:  cfg.GeminiBaseURL,
		fallback: cfg.AssistantReply,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// SendMessage exchanges one free-text prompt for a completion. The
// circuit breaker keeps a flapping upstream from stalling every chat
// turn for the full request timeout.
func (s *AssistantService) SendMessage(ctx context.Context, message string) string {
	start := time.Now()

	reply, err := s.breaker.Execute(ctx, func() (string, error) {
		return s.generate(ctx, message)
	})
	if err != nil {
		log.Printf("assistant: %v", err)
		monitoring.TrackAssistantRequest(time.Since(start), "error")
		return s.fallback
	}

	monitoring.TrackAssistantRequest(time.Since(start), "ok")
	return reply
}

func (s *AssistantService) generate(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: message}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var reply generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(reply.Candidates) == 0 || len(reply.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return reply.Candidates[0].Content.Parts[0].Text, nil
}
