//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/asklore/asklore/internal/api/handlers"
	"github.com/asklore/asklore/internal/embedding"
	"github.com/asklore/asklore/internal/openai"
	"github.com/asklore/asklore/internal/repository"
	"github.com/asklore/asklore/internal/server"
	"github.com/asklore/asklore/internal/service"
	"github.com/asklore/asklore/internal/sources"
	"github.com/asklore/asklore/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	HTTPClient   *http.Client

	EmbedServer *httptest.Server
	GenServer   *fakeGenerator
	ArticleSrv  *httptest.Server
	ArticleURLs []string

	APIToken  string
	BinaryDir string
}

// EnvConfig tweaks the environment under test.
type EnvConfig struct {
	APIToken string
	Articles []string // HTML bodies served as one article each
}

// SetupE2EEnv creates a full test environment: pgvector container, fake
// embedding and generation endpoints, a fake article site, and the HTTP
// server wired the same way serve does.
func SetupE2EEnv(t *testing.T, cfg EnvConfig) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	embedSrv := newFakeEmbeddingServer()
	genSrv := newFakeGenerator()
	articleSrv := newFakeArticleSite(cfg.Articles)

	articleURLs := make([]string, len(cfg.Articles))
	for i := range cfg.Articles {
		articleURLs[i] = fmt.Sprintf("%s/articles/%d", articleSrv.URL, i)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, embedSrv.URL, genSrv.srv.URL+"/v1", articleURLs, cfg.APIToken, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		EmbedServer:  embedSrv,
		GenServer:    genSrv,
		ArticleSrv:   articleSrv,
		ArticleURLs:  articleURLs,
		APIToken:     cfg.APIToken,
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.EmbedServer != nil {
		e.EmbedServer.Close()
	}
	if e.GenServer != nil {
		e.GenServer.srv.Close()
	}
	if e.ArticleSrv != nil {
		e.ArticleSrv.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIToken)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// BuildBinary builds the asklored binary into a temp dir.
func (e *E2ETestEnv) BuildBinary() {
	tmpDir, err := os.MkdirTemp("", "asklore-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "asklored"), "./cmd/asklored")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build asklored: %v\n%s", err, out)
	}
}

// RunAsklored runs the asklored CLI against the test environment.
func (e *E2ETestEnv) RunAsklored(args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "asklored"), args...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("ASKLORE_DATABASE_URL=%s", e.PostgresC.ConnectionString()),
		fmt.Sprintf("ASKLORE_EMBEDDING_URL=%s", e.EmbedServer.URL),
		"ASKLORE_OPENAI_API_KEY=e2e-test-key",
		fmt.Sprintf("ASKLORE_GENERATION_BASE_URL=%s/v1", e.GenServer.srv.URL),
		fmt.Sprintf("ASKLORE_ARTICLE_URLS=%s", strings.Join(e.ArticleURLs, ",")),
		"ASKLORE_MIGRATIONS_DIR=../../migrations",
		"ASKLORE_EMBED_MIN_INTERVAL=1ms",
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// newFakeEmbeddingServer returns deterministic low-dimension vectors
// wrapped in the {"embedding":{"values":[...]}} shape. The client
// zero-pads them to the full schema width.
func newFakeEmbeddingServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		vec := hashVector(req.Input, 8)
		resp := map[string]interface{}{
			"embedding": map[string]interface{}{"values": vec},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

// hashVector maps text to a deterministic unit-ish vector so equal texts
// embed identically and similarity queries stay stable.
func hashVector(text string, dims int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(seed%1000)/1000.0 + 0.001
	}
	return vec
}

// fakeGenerator is an OpenAI-compatible chat endpoint that records the
// prompts it receives and answers with a fixed string.
type fakeGenerator struct {
	srv *httptest.Server

	mu      sync.Mutex
	prompts []string
}

const fakeAnswer = "According to the loaded sources, the answer is 42."

func newFakeGenerator() *fakeGenerator {
	g := &fakeGenerator{}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		g.mu.Lock()
		for _, m := range req.Messages {
			g.prompts = append(g.prompts, m.Content)
		}
		g.mu.Unlock()

		resp := map[string]interface{}{
			"id":     "chatcmpl-e2e",
			"object": "chat.completion",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": fakeAnswer,
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	return g
}

// Prompts returns a copy of every prompt the generator has seen.
func (g *fakeGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// newFakeArticleSite serves each body as a minimal readable HTML page at
// /articles/{index}.
func newFakeArticleSite(bodies []string) *httptest.Server {
	mux := http.NewServeMux()
	for i, body := range bodies {
		page := fmt.Sprintf(`<!DOCTYPE html>
<html><head><title>Article %d</title></head>
<body><article><h1>Article %d</h1><p>%s</p></article></body></html>`, i, i, body)
		mux.HandleFunc(fmt.Sprintf("/articles/%d", i), func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, page)
		})
	}
	return httptest.NewServer(mux)
}

// startServer wires the full pipeline against the fake endpoints and
// serves it on the given port.
func startServer(t *testing.T, pool *pgxpool.Pool, embedURL, genBaseURL string, articleURLs []string, apiToken string, port int) (string, func()) {
	chunkRepo := repository.NewChunkRepository(pool)

	embedder := embedding.NewClient(embedding.Config{
		URL:        embedURL,
		Dimensions: testutil.EmbeddingDimensions,
	})
	generator := openai.NewClientWithConfig(openai.Config{
		APIKey:  "e2e-test-key",
		BaseURL: genBaseURL,
	})

	ingestSvc := service.NewIngestServiceWithConfig(
		chunkRepo, embedder, service.NewThrottle(time.Millisecond), service.ChunkConfig{WindowSize: 50},
	)
	answerSvc := service.NewAnswerService(chunkRepo, embedder, generator)

	catalog := sources.NewCatalog(sources.CatalogConfig{
		ArticleURLs:    articleURLs,
		ArticleTimeout: 10 * time.Second,
	})

	cfg := server.RouterConfig{
		APIToken:       apiToken,
		AskHandler:     handlers.NewAskHandler(answerSvc),
		IngestHandler:  handlers.NewIngestHandler(catalog, ingestSvc),
		StatusHandler:  handlers.NewStatusHandler(chunkRepo),
		SourcesHandler: handlers.NewSourcesHandler(chunkRepo),
	}

	router := server.NewRouter(cfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
