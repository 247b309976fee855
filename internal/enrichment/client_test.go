// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package enrichment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/attentra/internal/config"
)

func testConfig(url string) config.EnrichmentConfig {
	return config.EnrichmentConfig{
		URL:         url,
		Model:       "attention-coach-model:latest",
		Timeout:     5 * time.Second,
		Temperature: 0.7,
		TopP:        0.9,
		NumCtx:      4096,
	}
}

func TestCoachingFeedback(t *testing.T) {
	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s, want /api/generate", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(generateResponse{
			Response: "  Great work staying consistent! \n",
			Done:     true,
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	feedback, err := client.CoachingFeedback(context.Background(), "Between 2025-08-01 and 2025-08-30, 4 sessions were recorded.")
	if err != nil {
		t.Fatalf("CoachingFeedback() error = %v", err)
	}
	if feedback != "Great work staying consistent!" {
		t.Errorf("feedback = %q, want trimmed model text", feedback)
	}

	if captured.Model != "attention-coach-model:latest" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.Stream {
		t.Error("stream must be false")
	}
	if captured.Options.Temperature != 0.7 || captured.Options.TopP != 0.9 || captured.Options.NumCtx != 4096 {
		t.Errorf("options = %+v", captured.Options)
	}
	if !strings.Contains(captured.Prompt, "<|im_start|>system") {
		t.Error("prompt missing system block")
	}
	if !strings.Contains(captured.Prompt, "4 sessions were recorded") {
		t.Error("prompt missing fact summary")
	}
	if !strings.HasSuffix(captured.Prompt, "<|im_start|>assistant\n") {
		t.Error("prompt must end with the assistant header")
	}
}

func TestCoachingFeedbackEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "   ", Done: true})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.CoachingFeedback(context.Background(), "summary")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
}

func TestCoachingFeedbackServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.CoachingFeedback(context.Background(), "summary")
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %v, want status code included", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := client.CoachingFeedback(ctx, "summary"); err == nil {
			t.Fatalf("call %d should fail", i)
		}
	}

	// Breaker is open now; the request never reaches the server.
	_, err := client.CoachingFeedback(ctx, "summary")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want ErrOpenState", err)
	}
}

func TestCoachingFeedbackRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.CoachingFeedback(ctx, "summary")
	if err == nil {
		t.Fatal("expected error when context expires")
	}
}
