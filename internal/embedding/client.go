package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/asklore/asklore/internal/domain"
)

const (
	// DefaultDimensions is the vector length stored and queried when no
	// dimension is configured.
	DefaultDimensions = 768

	defaultTimeout = 30 * time.Second
)

// Config configures the embedding client.
type Config struct {
	URL        string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// Client calls a remote embedding endpoint and normalizes whatever shape
// it answers with into a vector of exactly the configured length. The
// endpoint may be OpenAI, Ollama, or any proxy speaking a recognizable
// JSON dialect; decoding goes through the extractor strategy chain.
type Client struct {
	url        string
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
}

// NewClient creates an embedding client for the given endpoint.
func NewClient(cfg Config) *Client {
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Dimensions returns the configured vector length.
func (c *Client) Dimensions() int {
	return c.dimensions
}

type embedRequest struct {
	Input string `json:"input,omitempty"`
	Text  string `json:"text,omitempty"`
	Model string `json:"model,omitempty"`
}

// Embed returns the embedding vector for text, always of length exactly
// Dimensions. Vectors the remote returns longer than that are truncated
// to the leading entries; shorter ones are right-padded with zeros. Both
// cases log a warning since they signal upstream contract drift. A
// failed call or an unrecognizable response yields an
// EMBEDDING_UNAVAILABLE domain error.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, domain.ErrEmptyQuestion
	}

	payload, err := json.Marshal(embedRequest{Input: text, Text: text, Model: c.model})
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingUnavailable, "encode embedding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingUnavailable, "build embedding request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingUnavailable, "call embedding endpoint", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingUnavailable,
			"embedding endpoint returned error", fmt.Errorf("status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingUnavailable, "read embedding response", err)
	}

	vec, ok := extractVector(body)
	if !ok {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingUnavailable,
			"no embedding vector in response", fmt.Errorf("unrecognized response shape (%d bytes)", len(body)))
	}

	return c.reconcile(vec), nil
}

// reconcile forces vec to length c.dimensions: front-truncate when too
// long, zero-pad on the right when too short.
func (c *Client) reconcile(vec []float32) []float32 {
	if len(vec) == c.dimensions {
		return vec
	}

	log.Printf("[embedding] dimension mismatch: got %d, want %d (reconciling)", len(vec), c.dimensions)

	if len(vec) > c.dimensions {
		return vec[:c.dimensions]
	}

	padded := make([]float32, c.dimensions)
	copy(padded, vec)
	return padded
}
