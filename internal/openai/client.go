package openai

import (
	"context"
	"errors"
	"os"

	"github.com/asklore/asklore/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultGenerationModel is the chat model used when none is configured
	DefaultGenerationModel = openai.GPT4oMini
)

var (
	// ErrEmptyPrompt is returned when the prompt is empty
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	// ErrNoAPIKey is returned when the OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// CompletionAPI defines the interface for text generation
type CompletionAPI interface {
	CreateCompletion(ctx context.Context, prompt string) (string, error)
}

// Client wraps a completion API behind the pipeline's generation contract.
type Client struct {
	api CompletionAPI
}

type OpenAIAdapter struct {
	client *openai.Client
	model  string
}

// Config configures the generation client. BaseURL is optional and
// points at any OpenAI-compatible gateway.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	model := cfg.Model
	if model == "" {
		model = DefaultGenerationModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// CreateCompletion sends the prompt as a single user message and returns
// the first choice's content.
func (a *OpenAIAdapter) CreateCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// NewClient creates a generation client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a generation client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	return &Client{api: NewOpenAIAdapter(cfg)}
}

// NewClientFromEnv creates a generation client using the OPENAI_API_KEY
// environment variable.
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Generate produces a text answer for the given prompt. The response is
// returned verbatim; a failed call yields a GENERATION_UNAVAILABLE
// domain error with the cause attached.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	text, err := c.api.CreateCompletion(ctx, prompt)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeGenerationUnavailable, "failed to create completion", err)
	}

	return text, nil
}
