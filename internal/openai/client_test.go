package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/asklore/asklore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockCompletionAPI is a mock for the completion API
type MockCompletionAPI struct {
	mock.Mock
}

func (m *MockCompletionAPI) CreateCompletion(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestClient_Generate_Success(t *testing.T) {
	mockAPI := new(MockCompletionAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	prompt := "Answer using only the supplied context."
	mockAPI.On("CreateCompletion", ctx, prompt).Return("The answer is 42.", nil)

	answer, err := client.Generate(ctx, prompt)

	assert.NoError(t, err)
	assert.Equal(t, "The answer is 42.", answer)
	mockAPI.AssertExpectations(t)
}

func TestClient_Generate_EmptyPrompt(t *testing.T) {
	mockAPI := new(MockCompletionAPI)
	client := &Client{api: mockAPI}

	_, err := client.Generate(context.Background(), "")

	assert.ErrorIs(t, err, ErrEmptyPrompt)
	mockAPI.AssertNotCalled(t, "CreateCompletion")
}

func TestClient_Generate_APIError(t *testing.T) {
	mockAPI := new(MockCompletionAPI)
	client := &Client{api: mockAPI}

	mockAPI.On("CreateCompletion", mock.Anything, mock.Anything).Return("", errors.New("rate limited"))

	_, err := client.Generate(context.Background(), "prompt")

	assert.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.ErrCodeGenerationUnavailable))
	assert.Contains(t, err.Error(), "rate limited")
}

func TestNewClientFromEnv_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewClientFromEnv()
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
