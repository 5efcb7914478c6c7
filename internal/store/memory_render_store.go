package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dunamismax/pixlab/internal/domain"
)

var ErrRenderNotFound = errors.New("render not found")

// MemoryRenderStore backs dev setups and tests; it also keeps usage logs so
// it can stand in for the full postgres store.
type MemoryRenderStore struct {
	mu      sync.RWMutex
	renders map[string]domain.Render
	usage   []domain.UsageLog
}

func NewMemoryRenderStore() *MemoryRenderStore {
	return &MemoryRenderStore{
		renders: make(map[string]domain.Render),
	}
}

func (s *MemoryRenderStore) Create(_ context.Context, render domain.Render) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders[render.ID] = render
	return nil
}

func (s *MemoryRenderStore) Get(_ context.Context, id string) (domain.Render, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	render, ok := s.renders[id]
	return render, ok, nil
}

func (s *MemoryRenderStore) UpdateStatus(_ context.Context, id, status string) (domain.Render, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	render, ok := s.renders[id]
	if !ok {
		return domain.Render{}, ErrRenderNotFound
	}

	render.Status = status
	render.UpdatedAt = time.Now().UTC()
	s.renders[id] = render
	return render, nil
}

func (s *MemoryRenderStore) CreateUsageLog(_ context.Context, usage domain.UsageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = append(s.usage, usage)
	return nil
}

// UsageLogs returns a copy of the recorded usage entries; test helper.
func (s *MemoryRenderStore) UsageLogs() []domain.UsageLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UsageLog, len(s.usage))
	copy(out, s.usage)
	return out
}
