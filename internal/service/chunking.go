package service

import (
	"strings"
)

// ChunkConfig controls how source text is split before embedding.
type ChunkConfig struct {
	// WindowSize is the number of whitespace-separated words per chunk.
	WindowSize int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		WindowSize: 400,
	}
}

// chunkText splits text into consecutive windows of cfg.WindowSize words.
// Words are whitespace-separated tokens; each chunk joins its words with a
// single space, so runs of whitespace in the input collapse. The final
// window may hold fewer words. Empty or whitespace-only input yields nil.
func chunkText(text string, cfg ChunkConfig) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if cfg.WindowSize <= 0 {
		cfg = DefaultChunkConfig()
	}

	chunks := make([]string, 0, (len(words)+cfg.WindowSize-1)/cfg.WindowSize)
	for start := 0; start < len(words); start += cfg.WindowSize {
		end := start + cfg.WindowSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}

	return chunks
}
