// Package profile owns the persisted profile document: loading with
// fallback, serialized mutations and write-back after every change.
package profile

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tofixx/mymovieflip/internal/domain"
	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/store"
)

// Model guards a domain.Profile and persists it after each mutation.
// Persistence failures are logged and never returned: the in-memory
// profile stays authoritative for the session.
type Model struct {
	mu      sync.RWMutex
	profile *domain.Profile
	store   store.Store
	logger  logger.Logger
	now     func() time.Time
	table   domain.KeywordTable
}

// NewModel creates a model holding an empty profile until Load is called.
func NewModel(s store.Store, table domain.KeywordTable, log logger.Logger) *Model {
	return &Model{
		profile: domain.NewProfile(),
		store:   s,
		logger:  log,
		now:     time.Now,
		table:   table,
	}
}

// SetClock overrides the time source. Used by tests.
func (m *Model) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// SetKeywordTable swaps the category table used by SetIntent.
func (m *Model) SetKeywordTable(table domain.KeywordTable) {
	m.mu.Lock()
	m.table = table
	m.mu.Unlock()
}

// Load reads the stored document. A missing, unreadable or corrupt document
// yields an empty profile; Load never fails.
func (m *Model) Load(ctx context.Context) {
	p := m.read(ctx)

	m.mu.Lock()
	m.profile = p
	m.mu.Unlock()

	m.logger.Info("profile loaded",
		logger.Int("flips", p.Flips),
		logger.Int("seen", len(p.SeenIDs)))
}

func (m *Model) read(ctx context.Context) *domain.Profile {
	data, ok, err := m.store.Get(ctx, store.KeyProfile)
	if err != nil {
		m.logger.Warn("failed to read profile, starting empty", logger.Error(err))
		return domain.NewProfile()
	}
	if !ok {
		return domain.NewProfile()
	}

	var p domain.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		m.logger.Warn("stored profile is corrupt, starting empty", logger.Error(err))
		return domain.NewProfile()
	}
	p.Normalize()
	return &p
}

// persist writes the whole document. Callers hold m.mu.
func (m *Model) persist(ctx context.Context) {
	data, err := json.Marshal(m.profile)
	if err != nil {
		m.logger.Warn("failed to encode profile", logger.Error(err))
		return
	}
	if err := m.store.Set(ctx, store.KeyProfile, data); err != nil {
		m.logger.Warn("failed to save profile", logger.Error(err))
	}
}

// mutate runs fn under the write lock and persists when fn reports a change.
func (m *Model) mutate(ctx context.Context, fn func(p *domain.Profile) bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := fn(m.profile)
	if changed {
		m.persist(ctx)
	}
	return changed
}

// RecordDecision applies a decision. countFlip is false for a redo.
func (m *Model) RecordDecision(ctx context.Context, item domain.Item, t domain.DecisionType, countFlip bool) bool {
	return m.mutate(ctx, func(p *domain.Profile) bool {
		return p.Apply(item, t, countFlip, m.now())
	})
}

// UndoDecision removes a decision's item from its list, keeping flips and
// the seen set until the override is resolved.
func (m *Model) UndoDecision(ctx context.Context, id int, t domain.DecisionType) bool {
	return m.mutate(ctx, func(p *domain.Profile) bool {
		p.Revert(id, t)
		return t.Valid()
	})
}

// AbandonDecision reverts the flip of a suspended decision.
func (m *Model) AbandonDecision(ctx context.Context, id int, seenBefore bool) {
	m.mutate(ctx, func(p *domain.Profile) bool {
		p.Abandon(id, seenBefore)
		return true
	})
}

func (m *Model) RemoveItem(ctx context.Context, v domain.View, id int) bool {
	return m.mutate(ctx, func(p *domain.Profile) bool {
		return p.Remove(v, id)
	})
}

func (m *Model) ClearView(ctx context.Context, v domain.View) bool {
	return m.mutate(ctx, func(p *domain.Profile) bool {
		return p.Clear(v)
	})
}

func (m *Model) SetRating(ctx context.Context, id, score int) bool {
	return m.mutate(ctx, func(p *domain.Profile) bool {
		return p.SetRating(id, score)
	})
}

func (m *Model) MoveToWatched(ctx context.Context, id int) bool {
	return m.mutate(ctx, func(p *domain.Profile) bool {
		return p.MoveToWatched(id)
	})
}

// SetIntent stores the intent derived from categories and resolves the prompt.
func (m *Model) SetIntent(ctx context.Context, who string, categories []string) {
	m.mutate(ctx, func(p *domain.Profile) bool {
		p.SetIntent(who, categories, m.table, m.now())
		return true
	})
}

func (m *Model) SkipIntentPrompt(ctx context.Context) {
	m.mutate(ctx, func(p *domain.Profile) bool {
		p.SkipIntentPrompt()
		return true
	})
}

// IsExcluded reports whether id must not be offered again.
func (m *Model) IsExcluded(id int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile.IsExcluded(id)
}

func (m *Model) IsSeen(id int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile.IsSeen(id)
}

func (m *Model) Flips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile.Flips
}

// Keywords returns a copy of the intent keywords.
func (m *Model) Keywords() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.profile.Keywords()...)
}

// Snapshot returns a deep copy safe to read without locking.
func (m *Model) Snapshot() *domain.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile.Clone()
}
