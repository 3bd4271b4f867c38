package session

import (
	"context"
	"slices"

	"github.com/tofixx/mymovieflip/internal/domain"
	"github.com/tofixx/mymovieflip/internal/metrics"
)

// State returns the session summary.
func (s *Session) State() StateView {
	p := s.model.Snapshot()

	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()

	return StateView{
		SessionID:        s.id,
		Ready:            ready,
		Flips:            p.Flips,
		MinFlips:         s.opts.MinFlips,
		RecsUnlocked:     p.Flips >= s.opts.MinFlips,
		Likes:            len(p.Likes),
		Dislikes:         len(p.Dislikes),
		Watched:          len(p.Watched),
		Bookmarks:        len(p.Bookmarks),
		Decision:         s.log.State().String(),
		CanGoBack:        s.log.CanGoBack(),
		Buffered:         s.queue.Len(),
		IntentPromptDone: p.IntentPromptDone,
		Settings:         s.settings.Get(),
	}
}

// Card returns the current item with its enrichment. Enrichment failures
// leave the corresponding fields empty.
func (s *Session) Card(ctx context.Context) (CardView, error) {
	s.mu.Lock()
	if s.current == nil && !s.ready {
		s.mu.Unlock()
		return CardView{}, ErrNotReady
	}
	// the buffer ran dry earlier, or the card was decided from another view
	if s.current == nil || s.decidedElsewhereLocked() {
		if err := s.advanceLocked(ctx); err != nil {
			s.mu.Unlock()
			return CardView{}, err
		}
	}
	item := *s.current
	s.mu.Unlock()

	prefs := s.settings.Get()
	view := CardView{
		Item:      item,
		Year:      item.Year(),
		Genres:    s.genres.Names(item.GenreIDs),
		PosterURL: s.posterURL(item.PosterPath),
		CanGoBack: s.log.CanGoBack(),
	}
	if s.enricher != nil {
		view.Details = s.enricher.Details(ctx, item.ID, prefs.Language, prefs.Region, prefs.Providers)
	}
	return view, nil
}

// Decide records a decision on the current card and moves to the next one.
// The decision is kept even when no next card can be loaded. A card decided
// meanwhile from the recommendations is only moved past.
func (s *Session) Decide(ctx context.Context, t domain.DecisionType) error {
	if !t.Valid() {
		return ErrInvalidDecision
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if replaced, err := s.requireCardLocked(ctx); replaced || err != nil {
		return err
	}

	s.log.Commit(ctx, *s.current, t)
	metrics.Decisions.WithLabelValues(string(t)).Inc()

	err := s.advanceLocked(ctx)
	s.refreshAsync(false)
	return err
}

// Skip moves past the current card without recording a decision. Skipping
// an item whose decision was just undone abandons that decision.
func (s *Session) Skip(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if replaced, err := s.requireCardLocked(ctx); replaced || err != nil {
		return err
	}

	s.log.Skip(ctx, s.current.ID)
	metrics.Decisions.WithLabelValues("skip").Inc()
	return s.advanceLocked(ctx)
}

// Back undoes the last decision and shows its item again. Reports false
// when there is nothing to undo.
func (s *Session) Back(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.log.Undo(ctx)
	if !ok {
		return false
	}
	if s.current != nil {
		s.queue.PushFront(*s.current)
	}
	item := rec.Item
	s.current = &item
	metrics.Decisions.WithLabelValues("back").Inc()
	return true
}

// requireCardLocked makes sure an undecided card is on screen before a
// swipe. A card already decided from the recommendations is replaced and
// replaced is true: the swipe was meant for that card and is dropped.
func (s *Session) requireCardLocked(ctx context.Context) (replaced bool, err error) {
	if s.current == nil {
		if !s.ready {
			return false, ErrNotReady
		}
		return false, ErrNoCard
	}
	if s.decidedElsewhereLocked() {
		return true, s.advanceLocked(ctx)
	}
	return false, nil
}

// decidedElsewhereLocked reports whether the current card already carries a
// terminal decision. An undone card stays current while it is in no list.
func (s *Session) decidedElsewhereLocked() bool {
	id := s.current.ID
	if !s.model.IsExcluded(id) {
		return false
	}
	if rec, ok := s.log.Pending(); ok && rec.Item.ID == id {
		p := s.model.Snapshot()
		return slices.ContainsFunc(domain.Views, func(v domain.View) bool { return p.Has(v, id) })
	}
	return true
}
