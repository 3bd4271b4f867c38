// Package session wires the profile, decision log, swipe queue and scoring
// into the operations exposed to the presentation layer.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tofixx/mymovieflip/internal/catalog"
	"github.com/tofixx/mymovieflip/internal/decision"
	"github.com/tofixx/mymovieflip/internal/domain"
	"github.com/tofixx/mymovieflip/internal/enrich"
	"github.com/tofixx/mymovieflip/internal/index"
	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/profile"
	"github.com/tofixx/mymovieflip/internal/queue"
	"github.com/tofixx/mymovieflip/internal/settings"
	"github.com/tofixx/mymovieflip/internal/sources/intents"
	"github.com/tofixx/mymovieflip/internal/store"
)

var (
	// ErrNotReady is returned until a catalog credential is configured and
	// the first card could be loaded.
	ErrNotReady = errors.New("session: not ready, set a catalog token")
	// ErrNoCard is returned by card operations when nothing is on screen.
	ErrNoCard = errors.New("session: no current card")
	// ErrInvalidDecision rejects unknown decision types.
	ErrInvalidDecision = errors.New("session: invalid decision type")
	// ErrInvalidView rejects unknown library views.
	ErrInvalidView = errors.New("session: invalid library view")
	// ErrUnknownItem is returned for ids not in the current recommendations.
	ErrUnknownItem = errors.New("session: unknown item")
)

// Options tunes recommendations and card rendering.
type Options struct {
	ImageBase  string // prefix for poster paths
	MinFlips   int    // flips needed before recommendations unlock
	RecPages   int
	RecMaxPage int
	RecLimit   int
	TopGenres  int
	RecTimeout time.Duration
	Queue      queue.Options
	Rand       *rand.Rand // optional, for tests
}

func (o *Options) defaults() {
	if o.MinFlips <= 0 {
		o.MinFlips = 10
	}
	if o.RecPages <= 0 {
		o.RecPages = 2
	}
	if o.RecMaxPage <= 0 {
		o.RecMaxPage = 70
	}
	if o.RecLimit <= 0 {
		o.RecLimit = domain.DefaultRecommendationLimit
	}
	if o.TopGenres <= 0 {
		o.TopGenres = domain.DefaultTopGenres
	}
	if o.RecTimeout <= 0 {
		o.RecTimeout = 20 * time.Second
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
}

// Session is the single local user's swipe session. Entry points that touch
// the current card are serialized by mu; recommendation refreshes run on
// their own and publish through recsMu.
type Session struct {
	id       string
	catalog  catalog.Client
	model    *profile.Model
	log      *decision.Log
	queue    *queue.Manager
	enricher *enrich.Enricher
	settings *settings.Service
	genres   *index.GenreIndex
	intents  intents.Table
	logger   logger.Logger
	opts     Options

	mu       sync.Mutex
	current  *domain.Item
	ready    bool
	loadOnce sync.Once

	rngMu sync.Mutex

	recsMu      sync.Mutex
	recs        []domain.Candidate
	recsAt      time.Time
	recsSeq     atomic.Uint64
	recsApplied uint64

	bg sync.WaitGroup
}

// New assembles a session over client and st. Nothing is loaded until
// Bootstrap.
func New(client catalog.Client, st store.Store, table intents.Table, enricher *enrich.Enricher, opts Options, log logger.Logger) *Session {
	opts.defaults()

	s := &Session{
		id:       uuid.NewString(),
		catalog:  client,
		enricher: enricher,
		genres:   index.NewGenreIndex(),
		intents:  table,
		opts:     opts,
	}
	s.logger = log.With(logger.String("session_id", s.id))
	s.model = profile.NewModel(st, table.Keywords, s.logger)
	s.settings = settings.New(st, s.logger)
	s.log = decision.NewLog(s.model)
	s.queue = queue.New(client, s.model.IsExcluded, s.queueShape, opts.Queue, s.logger)
	return s
}

// ID identifies this process's session in logs and responses.
func (s *Session) ID() string { return s.id }

// Genres exposes the genre index to the schedulers and health checks.
func (s *Session) Genres() *index.GenreIndex { return s.genres }

// Ready reports whether the first card has been served.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Bootstrap loads persisted state once, then loads genres and the first
// card. Failures are returned: this is a blocking step.
func (s *Session) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadOnce.Do(func() {
		s.model.Load(ctx)
		s.settings.Load(ctx)
		if tok := s.settings.Token(); tok != "" {
			if ts, ok := s.catalog.(catalog.TokenSetter); ok {
				ts.SetToken(tok)
			}
		}
	})
	return s.bootstrapLocked(ctx)
}

func (s *Session) bootstrapLocked(ctx context.Context) error {
	if !s.hasToken() {
		s.ready = false
		return ErrNotReady
	}
	if err := s.ReloadGenres(ctx); err != nil {
		return err
	}
	if s.current == nil {
		if err := s.advanceLocked(ctx); err != nil {
			return err
		}
	}
	s.ready = true
	s.logger.Info("session ready",
		logger.Int("flips", s.model.Flips()),
		logger.Int("genres", s.genres.Count()))
	s.refreshAsync(false)
	return nil
}

func (s *Session) hasToken() bool {
	if ts, ok := s.catalog.(catalog.TokenSetter); ok {
		return ts.HasToken()
	}
	return true
}

// ReloadGenres refreshes the genre names for the current language.
func (s *Session) ReloadGenres(ctx context.Context) error {
	if !s.hasToken() {
		return ErrNotReady
	}
	lang := s.settings.Get().Language
	names, err := s.catalog.ListGenres(ctx, lang)
	if err != nil {
		return fmt.Errorf("failed to load genres: %w", err)
	}
	s.genres.Update(lang, names)
	return nil
}

// WarmQueue tops the swipe buffer up and recovers a missing card. A session
// whose bootstrap failed is bootstrapped again. Best effort.
func (s *Session) WarmQueue(ctx context.Context) error {
	if !s.hasToken() {
		return nil
	}
	if !s.Ready() {
		return s.Bootstrap(ctx)
	}
	if s.queue.NeedsRefill() {
		if err := s.queue.Refill(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready && s.current == nil {
		return s.advanceLocked(ctx)
	}
	return nil
}

// Wait blocks until background work started so far has finished.
func (s *Session) Wait() {
	s.bg.Wait()
	s.queue.Wait()
}

// advanceLocked replaces the current card with the next candidate.
func (s *Session) advanceLocked(ctx context.Context) error {
	item, err := s.queue.Next(ctx)
	if err != nil {
		s.current = nil
		return err
	}
	s.current = &item
	return nil
}

// queueShape describes the user state a refill is computed for.
func (s *Session) queueShape() queue.Shape {
	prefs := s.settings.Get()
	return queue.Shape{
		Query:     s.baseQuery(prefs),
		Keywords:  s.model.Keywords(),
		GenreName: s.genres.Name,
	}
}

func (s *Session) baseQuery(prefs settings.Preferences) catalog.DiscoverQuery {
	country, lte := prefs.Certification()
	return catalog.DiscoverQuery{
		Language:             prefs.Language,
		WatchRegion:          prefs.Region,
		WithProviders:        prefs.Providers,
		CertificationCountry: country,
		CertificationLTE:     lte,
	}
}

// resetQueueLocked drops buffered candidates computed for an older state
// and starts a new batch.
func (s *Session) resetQueueLocked() {
	s.queue.Reset()
	if s.ready {
		s.queue.TriggerRefill()
	}
}
