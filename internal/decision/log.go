// Package decision implements the single-level undo/redo controller.
package decision

import (
	"context"
	"sync"

	"github.com/tofixx/mymovieflip/internal/domain"
)

// State is the position of the log in its three-state machine.
type State int

const (
	// Idle has neither a last action nor a pending override.
	Idle State = iota
	// Committed holds the last committed decision; Back is available.
	Committed
	// Overridden holds a decision suspended by Undo until it is redone or skipped.
	Overridden
)

func (s State) String() string {
	switch s {
	case Committed:
		return "committed"
	case Overridden:
		return "overridden"
	default:
		return "idle"
	}
}

// Profile is the part of the profile model the log drives.
type Profile interface {
	RecordDecision(ctx context.Context, item domain.Item, t domain.DecisionType, countFlip bool) bool
	UndoDecision(ctx context.Context, id int, t domain.DecisionType) bool
	AbandonDecision(ctx context.Context, id int, seenBefore bool)
	IsSeen(id int) bool
}

// Log holds at most one record: either the last committed decision or the
// pending override. Overrides are never stacked.
type Log struct {
	mu      sync.Mutex
	profile Profile
	state   State
	record  domain.DecisionRecord
}

// NewLog creates an idle log.
func NewLog(p Profile) *Log {
	return &Log{profile: p}
}

// Commit applies a decision and makes it the last action. When a pending
// override exists for the same item the decision is a redo and does not
// count a new flip. A pending override for another item is dropped.
func (l *Log) Commit(ctx context.Context, item domain.Item, t domain.DecisionType) bool {
	if !t.Valid() {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	redo := l.state == Overridden && l.record.Item.ID == item.ID
	seenBefore := l.profile.IsSeen(item.ID)
	if redo {
		seenBefore = l.record.SeenBefore
	}

	l.profile.RecordDecision(ctx, item, t, !redo)

	l.state = Committed
	l.record = domain.DecisionRecord{Item: item, Type: t, SeenBefore: seenBefore}
	return true
}

// Undo suspends the last committed decision. It is a no-op unless the log
// is Committed, so at most one level can be undone.
func (l *Log) Undo(ctx context.Context) (domain.DecisionRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != Committed {
		return domain.DecisionRecord{}, false
	}

	rec := l.record
	l.profile.UndoDecision(ctx, rec.Item.ID, rec.Type)
	l.state = Overridden
	return rec, true
}

// Skip moves past item id. Skipping the item of a pending override confirms
// its abandonment: the suspended flip is reverted. Any other skip just
// clears the last action.
func (l *Log) Skip(ctx context.Context, id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == Overridden && l.record.Item.ID == id {
		l.profile.AbandonDecision(ctx, id, l.record.SeenBefore)
	}
	l.state = Idle
	l.record = domain.DecisionRecord{}
}

// Reset forgets any record without touching the profile.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = Idle
	l.record = domain.DecisionRecord{}
}

// CanGoBack reports whether Undo would do anything.
func (l *Log) CanGoBack() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == Committed
}

func (l *Log) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Pending returns the suspended decision while Overridden.
func (l *Log) Pending() (domain.DecisionRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != Overridden {
		return domain.DecisionRecord{}, false
	}
	return l.record, true
}
