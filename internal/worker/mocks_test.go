package worker

import (
	"context"
	"sync"

	"github.com/pokebattlelogger/dashboard-api/internal/backend"
	"github.com/pokebattlelogger/dashboard-api/internal/models"
)

// MockExtractor implements Extractor for testing
type MockExtractor struct {
	ExtractStreamFunc func(ctx context.Context, q backend.ExtractQuery, onEvent func(models.ExtractProgress)) error

	mu    sync.Mutex
	Calls []backend.ExtractQuery
}

func (m *MockExtractor) ExtractStream(ctx context.Context, q backend.ExtractQuery, onEvent func(models.ExtractProgress)) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, q)
	m.mu.Unlock()
	if m.ExtractStreamFunc != nil {
		return m.ExtractStreamFunc(ctx, q, onEvent)
	}
	onEvent(models.ExtractProgress{Progress: 1, Message: []string{"done"}})
	return nil
}

func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
