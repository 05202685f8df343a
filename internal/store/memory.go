// Package store implements core.Store on PostgreSQL and in memory.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/JonMunkholm/agentstats/internal/core"
)

// Memory is a process-local core.Store. Every method holds one lock for its
// whole duration, which makes ApplyUpdates atomic with respect to readers.
type Memory struct {
	mu     sync.RWMutex
	teams  map[string]*team
	now    func() time.Time
	failOn func(op string) error
}

type team struct {
	agents []core.Agent // creation order
	stats  map[string]core.StatRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		teams: make(map[string]*team),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// FailOn makes the named operation ("ApplyUpdates", "ListAgents", ...)
// return the error produced by fn. Used to exercise commit failures.
func (m *Memory) FailOn(fn func(op string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = fn
}

func (m *Memory) fail(op string) error {
	if m.failOn == nil {
		return nil
	}
	return m.failOn(op)
}

func (m *Memory) lookup(ownerID string, create bool) *team {
	t, ok := m.teams[ownerID]
	if !ok && create {
		t = &team{stats: make(map[string]core.StatRecord)}
		m.teams[ownerID] = t
	}
	return t
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error { return nil }

func (t *team) indexOf(agentID string) int {
	return slices.IndexFunc(t.agents, func(a core.Agent) bool { return a.ID == agentID })
}

func (m *Memory) ListAgents(ctx context.Context, ownerID string) ([]core.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("ListAgents"); err != nil {
		return nil, err
	}

	t := m.lookup(ownerID, false)
	if t == nil {
		return []core.Agent{}, nil
	}
	return slices.Clone(t.agents), nil
}

func (m *Memory) GetAgent(ctx context.Context, ownerID, agentID string) (core.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t := m.lookup(ownerID, false)
	if t == nil {
		return core.Agent{}, core.ErrAgentNotFound
	}
	i := t.indexOf(agentID)
	if i < 0 {
		return core.Agent{}, core.ErrAgentNotFound
	}
	return t.agents[i], nil
}

func (m *Memory) CreateAgent(ctx context.Context, agent core.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateAgent"); err != nil {
		return err
	}

	t := m.lookup(agent.OwnerID, true)
	for _, a := range t.agents {
		if a.Name == agent.Name {
			return fmt.Errorf("%w: %q", core.ErrDuplicateAgent, agent.Name)
		}
	}
	t.agents = append(t.agents, agent)
	return nil
}

// DeleteAgent removes the agent and its stat record together.
func (m *Memory) DeleteAgent(ctx context.Context, ownerID, agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.lookup(ownerID, false)
	if t == nil {
		return core.ErrAgentNotFound
	}
	i := t.indexOf(agentID)
	if i < 0 {
		return core.ErrAgentNotFound
	}
	t.agents = slices.Delete(t.agents, i, i+1)
	delete(t.stats, agentID)
	return nil
}

func (m *Memory) ListStats(ctx context.Context, ownerID string) (map[string]core.StatRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("ListStats"); err != nil {
		return nil, err
	}

	out := make(map[string]core.StatRecord)
	if t := m.lookup(ownerID, false); t != nil {
		for id, rec := range t.stats {
			out[id] = rec
		}
	}
	return out, nil
}

func (m *Memory) GetStats(ctx context.Context, ownerID, agentID string) (core.StatRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t := m.lookup(ownerID, false)
	if t == nil {
		return core.StatRecord{}, false, nil
	}
	rec, ok := t.stats[agentID]
	return rec, ok, nil
}

// ApplyUpdates merges the batch under one lock. Either every update is
// applied or, on failure, none is.
func (m *Memory) ApplyUpdates(ctx context.Context, ownerID string, updates []core.StatUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ApplyUpdates"); err != nil {
		return err
	}

	t := m.lookup(ownerID, true)
	at := m.now()
	staged := make(map[string]core.StatRecord, len(updates))
	for _, u := range updates {
		if t.indexOf(u.AgentID) < 0 {
			return fmt.Errorf("apply update for %s: %w", u.AgentID, core.ErrAgentNotFound)
		}
		cur, ok := staged[u.AgentID]
		if !ok {
			cur = t.stats[u.AgentID]
		}
		staged[u.AgentID] = cur.Merge(u, at)
	}

	for id, rec := range staged {
		t.stats[id] = rec
	}
	return nil
}

func (m *Memory) ReplaceStats(ctx context.Context, ownerID string, record core.StatRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ReplaceStats"); err != nil {
		return err
	}

	t := m.lookup(ownerID, false)
	if t == nil || t.indexOf(record.AgentID) < 0 {
		return core.ErrAgentNotFound
	}
	record.LastUpdated = m.now()
	t.stats[record.AgentID] = record
	return nil
}

var _ core.Store = (*Memory)(nil)
