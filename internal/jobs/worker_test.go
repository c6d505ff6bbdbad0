package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/asklore/asklore/internal/domain"
	"github.com/asklore/asklore/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProcessor is a mock implementation of Processor
type MockProcessor struct {
	mock.Mock
	mu    sync.Mutex
	calls int
}

func (m *MockProcessor) Process(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockProcessor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockCatalog is a mock implementation of DocumentCatalog
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Documents(ctx context.Context) []service.Document {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]service.Document)
}

// MockLoader is a mock implementation of Loader
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) LoadAll(ctx context.Context, docs []service.Document) []service.SourceResult {
	args := m.Called(ctx, docs)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]service.SourceResult)
}

func TestWorker_ProcessesOnTicks(t *testing.T) {
	processor := new(MockProcessor)
	processor.On("Process", mock.Anything).Return(nil)

	worker := NewWorker(processor, 10*time.Millisecond)
	go worker.Start(context.Background())

	time.Sleep(55 * time.Millisecond)
	worker.Stop()

	assert.GreaterOrEqual(t, processor.callCount(), 3)
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	processor := new(MockProcessor)
	processor.On("Process", mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	worker := NewWorker(processor, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}

func TestWorker_KeepsRunningAfterProcessorError(t *testing.T) {
	processor := new(MockProcessor)
	processor.On("Process", mock.Anything).Return(errors.New("transient failure"))

	worker := NewWorker(processor, 10*time.Millisecond)
	go worker.Start(context.Background())

	time.Sleep(45 * time.Millisecond)
	worker.Stop()

	assert.GreaterOrEqual(t, processor.callCount(), 2)
}

func TestLoadRunner_Process(t *testing.T) {
	catalog := new(MockCatalog)
	loader := new(MockLoader)
	runner := NewLoadRunner(catalog, loader)

	docs := []service.Document{
		{Source: domain.SourcePDF, SourceID: "doc1"},
		{Source: domain.SourceArticle, SourceID: "https://example.com"},
	}
	catalog.On("Documents", mock.Anything).Return(docs)
	loader.On("LoadAll", mock.Anything, docs).Return([]service.SourceResult{
		{Source: domain.SourcePDF, SourceID: "doc1", Status: service.IngestLoaded},
		{Source: domain.SourceArticle, SourceID: "https://example.com", Status: service.IngestSkipped},
	})

	err := runner.Process(context.Background())

	assert.NoError(t, err)
	loader.AssertExpectations(t)
}

func TestLoadRunner_EmptyCatalogSkipsLoad(t *testing.T) {
	catalog := new(MockCatalog)
	loader := new(MockLoader)
	runner := NewLoadRunner(catalog, loader)

	catalog.On("Documents", mock.Anything).Return([]service.Document{})

	err := runner.Process(context.Background())

	assert.NoError(t, err)
	loader.AssertNotCalled(t, "LoadAll")
}
