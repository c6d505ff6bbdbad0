package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/asklore/asklore/internal/api/handlers"
	"github.com/asklore/asklore/internal/pagination"
	"github.com/asklore/asklore/internal/repository"
	"github.com/asklore/asklore/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAskService struct {
	mock.Mock
}

func (m *MockAskService) Answer(ctx context.Context, question string, k int) (string, error) {
	args := m.Called(ctx, question, k)
	return args.String(0), args.Error(1)
}

type MockDocumentCatalog struct {
	mock.Mock
}

func (m *MockDocumentCatalog) Documents(ctx context.Context) []service.Document {
	args := m.Called(ctx)
	return args.Get(0).([]service.Document)
}

type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) LoadAll(ctx context.Context, docs []service.Document) []service.SourceResult {
	args := m.Called(ctx, docs)
	return args.Get(0).([]service.SourceResult)
}

type MockStatusStore struct {
	mock.Mock
}

func (m *MockStatusStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockStatusStore) CountSources(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockSourceLister struct {
	mock.Mock
}

func (m *MockSourceLister) ListSources(ctx context.Context, cursor *pagination.Cursor, limit int) (*repository.SourcePageResult, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SourcePageResult), args.Error(1)
}

type routerMocks struct {
	ask     *MockAskService
	catalog *MockDocumentCatalog
	loader  *MockLoader
	status  *MockStatusStore
	lister  *MockSourceLister
}

func setupRouter(apiToken string) (http.Handler, *routerMocks) {
	mocks := &routerMocks{
		ask:     new(MockAskService),
		catalog: new(MockDocumentCatalog),
		loader:  new(MockLoader),
		status:  new(MockStatusStore),
		lister:  new(MockSourceLister),
	}

	cfg := RouterConfig{
		APIToken:       apiToken,
		AskHandler:     handlers.NewAskHandler(mocks.ask),
		IngestHandler:  handlers.NewIngestHandler(mocks.catalog, mocks.loader),
		StatusHandler:  handlers.NewStatusHandler(mocks.status),
		SourcesHandler: handlers.NewSourcesHandler(mocks.lister),
	}

	return NewRouter(cfg), mocks
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _ := setupRouter("")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_AskEndpoint(t *testing.T) {
	router, mocks := setupRouter("")
	mocks.ask.On("Answer", mock.Anything, "what is kept where?", 0).Return("In the store.", nil)

	body, _ := json.Marshal(handlers.AskRequest{Question: "what is kept where?"})
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mocks.ask.AssertExpectations(t)
}

func TestRouter_StatusEndpoint(t *testing.T) {
	router, mocks := setupRouter("")
	mocks.status.On("Count", mock.Anything).Return(10, nil)
	mocks.status.On("CountSources", mock.Anything).Return(2, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mocks.status.AssertExpectations(t)
}

func TestRouter_SourcesEndpoint(t *testing.T) {
	router, mocks := setupRouter("")
	mocks.lister.On("ListSources", mock.Anything, (*pagination.Cursor)(nil), 20).
		Return(&repository.SourcePageResult{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/sources", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mocks.lister.AssertExpectations(t)
}

func TestRouter_TokenGuardsAPIRoutes(t *testing.T) {
	router, _ := setupRouter("sekrit-token")

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/ask"},
		{http.MethodPost, "/ingest"},
		{http.MethodGet, "/status"},
		{http.MethodGet, "/sources"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_TokenDoesNotGuardHealth(t *testing.T) {
	router, _ := setupRouter("sekrit-token")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ValidTokenPassesThrough(t *testing.T) {
	router, mocks := setupRouter("sekrit-token")
	mocks.status.On("Count", mock.Anything).Return(0, nil)
	mocks.status.On("CountSources", mock.Anything).Return(0, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer sekrit-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mocks.status.AssertExpectations(t)
}
