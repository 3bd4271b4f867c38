package decision

import (
	"context"
	"reflect"
	"testing"

	"github.com/tofixx/mymovieflip/internal/domain"
	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/profile"
	"github.com/tofixx/mymovieflip/internal/store/memory"
)

func newLog(t *testing.T) (*Log, *profile.Model) {
	t.Helper()
	m := profile.NewModel(memory.NewStore(), nil, logger.Nop())
	m.Load(context.Background())
	return NewLog(m), m
}

var movieX = domain.Item{ID: 42, Title: "X", GenreIDs: []int{18}}

func TestLikeUndoSkipRestoresProfile(t *testing.T) {
	ctx := context.Background()
	l, m := newLog(t)
	l.Commit(ctx, domain.Item{ID: 1, GenreIDs: []int{35}}, domain.DecisionLike)
	l.Skip(ctx, 5)
	before := m.Snapshot()

	l.Commit(ctx, movieX, domain.DecisionLike)
	if _, ok := l.Undo(ctx); !ok {
		t.Fatal("Undo() after Commit() failed")
	}
	l.Skip(ctx, movieX.ID)

	after := m.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("profile not restored:\nbefore %+v\nafter  %+v", before, after)
	}
	if after.IsSeen(movieX.ID) {
		t.Error("X should not be seen after abandonment")
	}
	if l.State() != Idle {
		t.Errorf("state = %v, want idle", l.State())
	}
}

func TestRedoCountsOneFlip(t *testing.T) {
	ctx := context.Background()
	l, m := newLog(t)

	l.Commit(ctx, movieX, domain.DecisionLike)
	l.Undo(ctx)
	l.Commit(ctx, movieX, domain.DecisionLike)

	if got := m.Flips(); got != 1 {
		t.Errorf("flips = %d, want 1", got)
	}
	if !m.Snapshot().Has(domain.ViewLikes, movieX.ID) {
		t.Error("X missing from likes after redo")
	}
}

func TestRedoWithDifferentTypeCountsOneFlip(t *testing.T) {
	ctx := context.Background()
	l, m := newLog(t)

	l.Commit(ctx, movieX, domain.DecisionLike)
	l.Undo(ctx)
	l.Commit(ctx, movieX, domain.DecisionWatched)

	p := m.Snapshot()
	if p.Flips != 1 {
		t.Errorf("flips = %d, want 1", p.Flips)
	}
	if p.Has(domain.ViewLikes, movieX.ID) || !p.Has(domain.ViewWatched, movieX.ID) {
		t.Errorf("expected X only in watched: %+v", p)
	}
}

func TestUndoOnlyFromCommitted(t *testing.T) {
	ctx := context.Background()
	l, _ := newLog(t)

	if _, ok := l.Undo(ctx); ok {
		t.Error("Undo() from idle should be a no-op")
	}

	l.Commit(ctx, movieX, domain.DecisionDislike)
	if !l.CanGoBack() {
		t.Error("CanGoBack() should be true after Commit()")
	}
	rec, ok := l.Undo(ctx)
	if !ok || rec.Item.ID != movieX.ID || rec.Type != domain.DecisionDislike {
		t.Fatalf("Undo() = %+v, %v", rec, ok)
	}
	if l.CanGoBack() {
		t.Error("CanGoBack() should be false while overridden")
	}
	if _, ok := l.Undo(ctx); ok {
		t.Error("second Undo() should be a no-op")
	}
	if p, ok := l.Pending(); !ok || p.Item.ID != movieX.ID {
		t.Errorf("Pending() = %+v, %v", p, ok)
	}
}

func TestCommitOnOtherItemDropsOverride(t *testing.T) {
	ctx := context.Background()
	l, m := newLog(t)

	l.Commit(ctx, movieX, domain.DecisionLike)
	l.Undo(ctx)
	l.Commit(ctx, domain.Item{ID: 7}, domain.DecisionLike)

	if got := m.Flips(); got != 2 {
		t.Errorf("flips = %d, want 2 (dropped override keeps its flip)", got)
	}
	if _, ok := l.Pending(); ok {
		t.Error("override should be gone")
	}
	l.Undo(ctx)
	l.Skip(ctx, movieX.ID)
	if m.Flips() != 2 {
		t.Errorf("skipping a stale override must not revert a flip, flips = %d", m.Flips())
	}
}

func TestSkipWhileCommittedClearsLastAction(t *testing.T) {
	ctx := context.Background()
	l, m := newLog(t)

	l.Commit(ctx, movieX, domain.DecisionLike)
	l.Skip(ctx, 99)

	if l.CanGoBack() {
		t.Error("CanGoBack() should be false after Skip()")
	}
	if m.Flips() != 1 {
		t.Errorf("flips = %d, want 1", m.Flips())
	}
}

func TestUnknownDecisionIgnored(t *testing.T) {
	ctx := context.Background()
	l, m := newLog(t)

	if l.Commit(ctx, movieX, "love") {
		t.Error("Commit() with unknown type returned true")
	}
	if l.State() != Idle || m.Flips() != 0 {
		t.Errorf("state = %v, flips = %d", l.State(), m.Flips())
	}
}

func TestStateTransitions(t *testing.T) {
	ctx := context.Background()
	l, _ := newLog(t)

	steps := []struct {
		name string
		do   func()
		want State
	}{
		{name: "start", do: func() {}, want: Idle},
		{name: "commit", do: func() { l.Commit(ctx, movieX, domain.DecisionLike) }, want: Committed},
		{name: "commit again", do: func() { l.Commit(ctx, domain.Item{ID: 2}, domain.DecisionBookmark) }, want: Committed},
		{name: "undo", do: func() { l.Undo(ctx) }, want: Overridden},
		{name: "redo", do: func() { l.Commit(ctx, domain.Item{ID: 2}, domain.DecisionBookmark) }, want: Committed},
		{name: "undo again", do: func() { l.Undo(ctx) }, want: Overridden},
		{name: "skip override", do: func() { l.Skip(ctx, 2) }, want: Idle},
	}

	for _, s := range steps {
		s.do()
		if got := l.State(); got != s.want {
			t.Fatalf("after %s: state = %v, want %v", s.name, got, s.want)
		}
	}
}
