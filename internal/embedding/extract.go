package embedding

import (
	"encoding/json"
)

// extractor attempts to pull an embedding vector out of a raw response
// body. It reports false when the body does not match its shape or the
// matched vector is empty.
type extractor func(body []byte) ([]float32, bool)

// extractors is the ordered strategy chain applied to every response.
// The first non-empty vector wins. Order matters: the canonical wrapped
// shape goes first, the bare array second, known alternates last.
var extractors = []extractor{
	extractWrappedValues,
	extractBareArray,
	extractAlternates,
}

// extractVector runs the strategy chain over body.
func extractVector(body []byte) ([]float32, bool) {
	for _, extract := range extractors {
		if vec, ok := extract(body); ok {
			return vec, true
		}
	}
	return nil, false
}

// extractWrappedValues handles the canonical wrapped shapes:
// {"embedding":{"values":[...]}} and {"values":[...]}.
func extractWrappedValues(body []byte) ([]float32, bool) {
	var nested struct {
		Embedding struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && len(nested.Embedding.Values) > 0 {
		return nested.Embedding.Values, true
	}

	var flat struct {
		Values []float32 `json:"values"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && len(flat.Values) > 0 {
		return flat.Values, true
	}

	return nil, false
}

// extractBareArray handles a response body that is the vector itself:
// [0.1, 0.2, ...].
func extractBareArray(body []byte) ([]float32, bool) {
	var vec []float32
	if err := json.Unmarshal(body, &vec); err == nil && len(vec) > 0 {
		return vec, true
	}
	return nil, false
}

// extractAlternates scans known alternate field layouts seen across
// embedding providers: {"embedding":[...]} (Ollama),
// {"data":[{"embedding":[...]}]} (OpenAI), {"embeddings":[[...]]}.
func extractAlternates(body []byte) ([]float32, bool) {
	var ollama struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &ollama); err == nil && len(ollama.Embedding) > 0 {
		return ollama.Embedding, true
	}

	var openai struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &openai); err == nil && len(openai.Data) > 0 && len(openai.Data[0].Embedding) > 0 {
		return openai.Data[0].Embedding, true
	}

	var batched struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &batched); err == nil && len(batched.Embeddings) > 0 && len(batched.Embeddings[0]) > 0 {
		return batched.Embeddings[0], true
	}

	return nil, false
}
