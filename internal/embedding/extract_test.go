package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVector_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []float32
	}{
		{
			name: "nested values field",
			body: `{"embedding":{"values":[0.1,0.2,0.3]}}`,
			want: []float32{0.1, 0.2, 0.3},
		},
		{
			name: "flat values field",
			body: `{"values":[1,2]}`,
			want: []float32{1, 2},
		},
		{
			name: "bare array",
			body: `[0.5,0.25]`,
			want: []float32{0.5, 0.25},
		},
		{
			name: "ollama embedding field",
			body: `{"embedding":[0.9,0.8,0.7]}`,
			want: []float32{0.9, 0.8, 0.7},
		},
		{
			name: "openai data array",
			body: `{"data":[{"embedding":[0.4,0.6]}]}`,
			want: []float32{0.4, 0.6},
		},
		{
			name: "batched embeddings",
			body: `{"embeddings":[[0.11,0.22],[0.33,0.44]]}`,
			want: []float32{0.11, 0.22},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, ok := extractVector([]byte(tt.body))
			assert.True(t, ok)
			assert.Equal(t, tt.want, vec)
		})
	}
}

func TestExtractVector_NoVector(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"empty array", `[]`},
		{"empty values", `{"values":[]}`},
		{"empty data", `{"data":[]}`},
		{"data without embedding", `{"data":[{"index":0}]}`},
		{"not json", `oops`},
		{"string value", `"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, ok := extractVector([]byte(tt.body))
			assert.False(t, ok)
			assert.Nil(t, vec)
		})
	}
}

func TestExtractVector_CanonicalShapeWins(t *testing.T) {
	// A body matching both the nested shape and an alternate resolves
	// through the first strategy in the chain.
	body := `{"embedding":{"values":[1,2,3]},"data":[{"embedding":[9,9,9]}]}`
	vec, ok := extractVector([]byte(body))
	assert.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}
