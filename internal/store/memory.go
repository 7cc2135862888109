package store

import (
	"context"
	"sync"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/pipeline"
)

// Memory is the default in-process store.
type Memory struct {
	mu   sync.RWMutex
	runs []*PlanRun
	byID map[string]*PlanRun
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[string]*PlanRun)}
}

func (m *Memory) SavePlanRun(_ context.Context, run *PlanRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.runs = append(m.runs, &cp)
	m.byID[cp.ID] = &cp
	return nil
}

func (m *Memory) GetPlanRun(_ context.Context, id string) (*PlanRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (m *Memory) ListPlanRuns(_ context.Context, limit int) ([]*PlanRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.runs) {
		limit = len(m.runs)
	}
	out := make([]*PlanRun, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.runs[i]
		cp.Payload = pipeline.Payload{}
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
