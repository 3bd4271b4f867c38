package session

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tofixx/mymovieflip/internal/catalog"
	"github.com/tofixx/mymovieflip/internal/domain"
	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/metrics"
	"github.com/tofixx/mymovieflip/internal/queue"
)

// Recommendations returns the ranked list. Below the flip threshold the list
// stays locked unless force is set. A forced refresh surfaces its error; an
// unforced one falls back to the last list.
func (s *Session) Recommendations(ctx context.Context, force bool) (RecommendationsView, error) {
	flips := s.model.Flips()
	view := RecommendationsView{
		Unlocked: flips >= s.opts.MinFlips,
		Flips:    flips,
		MinFlips: s.opts.MinFlips,
		Items:    []RecView{},
	}
	if !force && !view.Unlocked {
		metrics.RecommendationRefreshes.WithLabelValues("gated").Inc()
		return view, nil
	}
	view.Unlocked = true

	cands, at, fresh := s.cachedRecs()
	if force || !fresh {
		refreshed, err := s.refresh(ctx)
		switch {
		case err == nil:
			cands, at = refreshed, time.Now()
		case force:
			return view, err
		default:
			s.logger.Warn("recommendation refresh failed, serving last list", logger.Error(err))
		}
	}

	return s.listView(view, cands, at), nil
}

// listView fills view with the candidates that are still undecided.
func (s *Session) listView(view RecommendationsView, cands []domain.Candidate, at time.Time) RecommendationsView {
	for _, c := range cands {
		if !s.model.IsExcluded(c.Item.ID) {
			view.Items = append(view.Items, s.recView(c))
		}
	}
	view.UpdatedAt = at
	return view
}

// DecideRecommendation records a decision on a recommended item and
// re-ranks the list.
func (s *Session) DecideRecommendation(ctx context.Context, id int, t domain.DecisionType) (RecommendationsView, error) {
	if !t.Valid() {
		return RecommendationsView{}, ErrInvalidDecision
	}

	cands, _, _ := s.cachedRecs()
	idx := slices.IndexFunc(cands, func(c domain.Candidate) bool { return c.Item.ID == id })
	if idx < 0 {
		return RecommendationsView{}, ErrUnknownItem
	}

	s.model.RecordDecision(ctx, cands[idx].Item, t, true)
	metrics.Decisions.WithLabelValues(string(t)).Inc()

	view, err := s.Recommendations(ctx, true)
	if err != nil {
		// the list was on screen, so it stays unlocked whatever the flip count
		s.logger.Warn("recommendation refresh failed after decision, serving last list", logger.Error(err))
		cands, at, _ := s.cachedRecs()
		flips := s.model.Flips()
		return s.listView(RecommendationsView{
			Unlocked: true,
			Flips:    flips,
			MinFlips: s.opts.MinFlips,
			Items:    []RecView{},
		}, cands, at), nil
	}
	return view, nil
}

// cachedRecs returns the last published list, its time and whether one exists.
func (s *Session) cachedRecs() ([]domain.Candidate, time.Time, bool) {
	s.recsMu.Lock()
	defer s.recsMu.Unlock()
	return slices.Clone(s.recs), s.recsAt, s.recsApplied > 0
}

// refreshAsync re-ranks in the background when the gate allows it.
func (s *Session) refreshAsync(force bool) {
	if !force && s.model.Flips() < s.opts.MinFlips {
		metrics.RecommendationRefreshes.WithLabelValues("gated").Inc()
		return
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.RecTimeout)
		defer cancel()
		if _, err := s.refresh(ctx); err != nil {
			s.logger.Warn("background recommendation refresh failed", logger.Error(err))
		}
	}()
}

// refresh fetches a recommendation pool and ranks it. A refresh started
// later always wins over one that finishes later.
func (s *Session) refresh(ctx context.Context) ([]domain.Candidate, error) {
	seq := s.recsSeq.Add(1)

	weights := domain.BuildGenreWeights(s.model.Snapshot())
	top := domain.SelectTopGenres(weights, s.opts.TopGenres)
	base := s.baseQuery(s.settings.Get())
	base.SortBy = catalog.SortVoteCount
	base.WithGenres = top

	s.rngMu.Lock()
	pages := queue.DistinctPages(s.opts.Rand, s.opts.RecPages, s.opts.RecMaxPage)
	s.rngMu.Unlock()

	results := make([][]domain.Item, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	for i, page := range pages {
		q := base
		q.Page = page
		g.Go(func() error {
			items, err := s.catalog.Discover(gctx, q)
			if err != nil {
				return fmt.Errorf("discover page %d: %w", page, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.RecommendationRefreshes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to refresh recommendations: %w", err)
	}

	var pool []domain.Item
	for _, items := range results {
		pool = append(pool, items...)
	}
	ranked := domain.RankRecommendations(domain.DedupeItems(pool), weights, s.model.IsExcluded, s.opts.RecLimit)

	s.recsMu.Lock()
	if seq > s.recsApplied {
		s.recs = ranked
		s.recsAt = time.Now()
		s.recsApplied = seq
	}
	out := slices.Clone(s.recs)
	s.recsMu.Unlock()

	metrics.RecommendationRefreshes.WithLabelValues("ranked").Inc()
	s.logger.Debug("recommendations ranked",
		logger.Ints("top_genres", top),
		logger.Ints("pages", pages),
		logger.Int("pool", len(pool)),
		logger.Int("kept", len(ranked)))
	return out, nil
}
