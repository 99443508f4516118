package gnn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/degkit/degkit/chem"
)

const (
	maxRetries     = 2
	baseRetryDelay = time.Second
)

// httpScorer calls a remote scoring service over JSON/HTTP.
type httpScorer struct {
	cfg    Config
	client *http.Client
}

func newHTTPScorer(cfg Config) *httpScorer {
	// Generous timeout: the service may batch-compute graph embeddings on
	// first request after a cold start.
	return &httpScorer{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type scoreRequest struct {
	SMILES     string   `json:"smiles"`
	Candidates []string `json:"candidates"`
	StressType string   `json:"stress_type"`
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
	Error  string    `json:"error,omitempty"`
}

func (s *httpScorer) ScoreCandidates(ctx context.Context, parent string, candidates []string, stress chem.Stress) ([]float64, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(scoreRequest{
		SMILES:     parent,
		Candidates: candidates,
		StressType: string(stress),
	})
	if err != nil {
		return nil, err
	}

	respBody, err := s.doPost(ctx, "/score", body)
	if err != nil {
		return nil, err
	}

	var resp scoreResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding score response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("gnn: service error: %s", resp.Error)
	}
	if err := ValidateScores(resp.Scores, len(candidates)); err != nil {
		return nil, err
	}
	return resp.Scores, nil
}

func (s *httpScorer) doPost(ctx context.Context, path string, body []byte) ([]byte, error) {
	url := s.cfg.BaseURL + path

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1))
			slog.Warn("gnn: retrying request",
				"url", url,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if s.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request to %s failed: %w", url, err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading response body: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return respBody, nil
		}

		lastErr = fmt.Errorf("scoring service error %d: %s", resp.StatusCode, string(respBody))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
