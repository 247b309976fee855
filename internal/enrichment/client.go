// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

// Package enrichment calls an Ollama-compatible model server to turn a
// deterministic fact summary into coaching feedback. The call is wrapped in
// a circuit breaker so a dead model server fails reports fast instead of
// tying up report workers for the full timeout.
package enrichment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/attentra/internal/config"
	"github.com/tomtom215/attentra/internal/logging"
	"github.com/tomtom215/attentra/internal/metrics"
)

// ErrEmptyResponse indicates the model returned no usable text.
var ErrEmptyResponse = errors.New("model returned empty response")

// systemPrompt frames the model as a study-focus coach. The /api/generate
// endpoint applies no chat template, so the prompt is assembled in ChatML
// form by hand.
const systemPrompt = `You are an AI study coach analyzing attention data from an online learning session.
Structure your answer in this order:

1. Greeting and praise: open warmly and highlight something positive from the data, such as consistent session attendance.
2. Data-driven analysis: quote the numbers from the fact summary directly and identify which area most needs improvement.
3. Concrete strategies: suggest one or two specific actions the learner can take right away.
4. Encouraging close: finish with a short positive message.

Rules:
- Keep a friendly, warm tone throughout.
- Stay strictly on the topic of studying and focus.
- Answer in English.`

// generateRequest is the Ollama /api/generate request body.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumCtx      int     `json:"num_ctx"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Client talks to the enrichment model server.
type Client struct {
	cfg        config.EnrichmentConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
}

// NewClient builds an enrichment client. The breaker opens after repeated
// consecutive failures and probes again after a cooldown.
func NewClient(cfg config.EnrichmentConfig) *Client {
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "enrichment",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Enrichment circuit breaker state change")
		},
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
	}
}

// CoachingFeedback sends the fact summary to the model and returns its
// feedback text. The call is bounded by the configured timeout regardless
// of the caller's context deadline.
func (c *Client) CoachingFeedback(ctx context.Context, factSummary string) (string, error) {
	start := time.Now()
	feedback, err := c.breaker.Execute(func() (string, error) {
		return c.generate(ctx, factSummary)
	})
	metrics.EnrichmentDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EnrichmentErrors.WithLabelValues(errorReason(err)).Inc()
		return "", err
	}
	return feedback, nil
}

func (c *Client) generate(ctx context.Context, factSummary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	prompt := fmt.Sprintf("<|im_start|>system\n%s<|im_end|>\n<|im_start|>user\n%s<|im_end|>\n<|im_start|>assistant\n",
		systemPrompt, factSummary)

	body, err := json.Marshal(generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: c.cfg.Temperature,
			TopP:        c.cfg.TopP,
			NumCtx:      c.cfg.NumCtx,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.URL, "/")+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a little of the body for the log, then discard.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("model server returned %d: %s", resp.StatusCode, snippet)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}

	feedback := strings.TrimSpace(result.Response)
	if feedback == "" {
		return "", ErrEmptyResponse
	}
	return feedback, nil
}

// errorReason buckets failures for the error counter.
func errorReason(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case strings.Contains(err.Error(), "model server returned"):
		return "status"
	default:
		return "transport"
	}
}
