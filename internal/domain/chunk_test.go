package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceConstants(t *testing.T) {
	tests := []struct {
		name     string
		source   Source
		expected string
	}{
		{"PDF", SourcePDF, "pdf"},
		{"Article", SourceArticle, "article"},
		{"ChatFeed", SourceChatFeed, "chat-feed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.source))
		})
	}
}

func TestParseSource(t *testing.T) {
	source, err := ParseSource("pdf")
	require.NoError(t, err)
	assert.Equal(t, SourcePDF, source)

	source, err = ParseSource("chat-feed")
	require.NoError(t, err)
	assert.Equal(t, SourceChatFeed, source)

	_, err = ParseSource("carrier-pigeon")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestNewChunk(t *testing.T) {
	chunk := NewChunk(SourceArticle, "https://example.com/post", 3, "some text", []float32{0.1, 0.2})

	assert.Equal(t, SourceArticle, chunk.Source)
	assert.Equal(t, "https://example.com/post", chunk.SourceID)
	assert.Equal(t, 3, chunk.ChunkIndex)
	assert.Equal(t, "some text", chunk.Content)
	assert.Equal(t, []float32{0.1, 0.2}, chunk.Embedding)
	assert.True(t, chunk.CreatedAt.IsZero())
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid chunk",
			chunk: &Chunk{
				Source:     SourcePDF,
				SourceID:   "handbook.pdf",
				ChunkIndex: 0,
				Content:    "chapter one",
			},
			wantErr: false,
		},
		{
			name: "valid chunk without embedding",
			chunk: &Chunk{
				Source:     SourceChatFeed,
				SourceID:   "general",
				ChunkIndex: 1,
				Content:    "alice: hello",
				Embedding:  nil,
			},
			wantErr: false,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: true,
			errMsg:  "nil",
		},
		{
			name: "invalid Source",
			chunk: &Chunk{
				Source:     Source("wiki"),
				SourceID:   "page",
				ChunkIndex: 0,
				Content:    "text",
			},
			wantErr: true,
			errMsg:  "Source",
		},
		{
			name: "missing SourceID",
			chunk: &Chunk{
				Source:     SourcePDF,
				ChunkIndex: 0,
				Content:    "text",
			},
			wantErr: true,
			errMsg:  "SourceID",
		},
		{
			name: "negative ChunkIndex",
			chunk: &Chunk{
				Source:     SourcePDF,
				SourceID:   "handbook.pdf",
				ChunkIndex: -1,
				Content:    "text",
			},
			wantErr: true,
			errMsg:  "ChunkIndex",
		},
		{
			name: "whitespace-only Content",
			chunk: &Chunk{
				Source:     SourcePDF,
				SourceID:   "handbook.pdf",
				ChunkIndex: 0,
				Content:    "   \n\t ",
			},
			wantErr: true,
			errMsg:  "Content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSourceSummaryKey(t *testing.T) {
	summary := SourceSummary{
		Source:      SourcePDF,
		SourceID:    "handbook.pdf",
		ChunkCount:  12,
		LastUpdated: time.Now(),
	}
	assert.Equal(t, "pdf:handbook.pdf", summary.Key())
}
