// Package queue buffers unseen swipe candidates and refills the buffer from
// the catalog in the background.
package queue

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tofixx/mymovieflip/internal/catalog"
	"github.com/tofixx/mymovieflip/internal/domain"
	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/metrics"
)

// ErrNoCandidates is returned by Next when a refill produced nothing new.
var ErrNoCandidates = errors.New("queue: no candidates available")

var errStale = errors.New("queue: refill computed before reset")

const refillKey = "refill"

// Discoverer is the part of the catalog the queue needs.
type Discoverer interface {
	Discover(ctx context.Context, q catalog.DiscoverQuery) ([]domain.Item, error)
}

// Shape is the user state a refill is computed for. Query carries the
// language and filters; Page, SortBy and MinVoteCount are set by the manager.
type Shape struct {
	Query     catalog.DiscoverQuery
	Keywords  []string
	GenreName func(int) string
}

// Options tunes a Manager. Zero values get defaults.
type Options struct {
	Pages         int           // concurrent pages per refill
	MaxPage       int           // pages are drawn from [1, MaxPage]
	MinVoteCount  int           // vote_count.gte
	Cap           int           // items kept per refill
	LowWatermark  int           // background refill below this length
	RefillTimeout time.Duration // per batch
	Rand          *rand.Rand    // optional, for tests
}

func (o *Options) defaults() {
	if o.Pages <= 0 {
		o.Pages = 3
	}
	if o.MaxPage <= 0 {
		o.MaxPage = 60
	}
	if o.Cap <= 0 {
		o.Cap = 30
	}
	if o.LowWatermark <= 0 {
		o.LowWatermark = 8
	}
	if o.RefillTimeout <= 0 {
		o.RefillTimeout = 20 * time.Second
	}
	if o.Pages > o.MaxPage {
		o.Pages = o.MaxPage
	}
}

// Manager owns the FIFO buffer. Concurrent refill requests collapse into the
// batch in flight; results computed for a state that has since been Reset
// are dropped.
type Manager struct {
	client     Discoverer
	isExcluded func(id int) bool
	shape      func() Shape
	opts       Options
	logger     logger.Logger

	mu     sync.Mutex
	buf    []domain.Item
	served map[int]struct{} // handed out since the last Reset
	gen    uint64
	rng    *rand.Rand

	sf       singleflight.Group
	inFlight atomic.Bool
	joins    atomic.Int64
	bg       sync.WaitGroup
}

// New creates a Manager. isExcluded and shape are read on every refill.
func New(client Discoverer, isExcluded func(int) bool, shape func() Shape, opts Options, log logger.Logger) *Manager {
	opts.defaults()
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if shape == nil {
		shape = func() Shape { return Shape{} }
	}
	return &Manager{
		client:     client,
		isExcluded: isExcluded,
		shape:      shape,
		opts:       opts,
		logger:     log,
		rng:        rng,
		served:     make(map[int]struct{}),
	}
}

// Len returns the number of buffered candidates.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buf)
}

// NeedsRefill reports whether the buffer is below the low watermark.
func (m *Manager) NeedsRefill() bool {
	return m.Len() < m.opts.LowWatermark
}

// InFlight reports whether a refill batch is running.
func (m *Manager) InFlight() bool {
	return m.inFlight.Load()
}

// Next pops the next candidate. On an empty buffer it waits for a refill
// and returns its error, or ErrNoCandidates when nothing new came back.
func (m *Manager) Next(ctx context.Context) (domain.Item, error) {
	item, ok := m.pop()
	if !ok {
		if err := m.Refill(ctx); err != nil {
			return domain.Item{}, err
		}
		if item, ok = m.pop(); !ok {
			return domain.Item{}, ErrNoCandidates
		}
	}

	if m.NeedsRefill() {
		m.TriggerRefill()
	}
	return item, nil
}

// PushFront puts item back at the head of the buffer.
func (m *Manager) PushFront(item domain.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Item, 0, len(m.buf)+1)
	out = append(out, item)
	for _, it := range m.buf {
		if it.ID != item.ID {
			out = append(out, it)
		}
	}
	m.buf = out
	metrics.QueueBuffered.Set(float64(len(m.buf)))
}

// Reset empties the buffer and invalidates any batch in flight.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf = nil
	m.served = make(map[int]struct{})
	m.gen++
	metrics.QueueBuffered.Set(0)
}

// TriggerRefill starts a background refill unless one is already running.
// Errors are logged.
func (m *Manager) TriggerRefill() {
	if m.inFlight.Load() {
		return
	}
	m.bg.Add(1)
	go func() {
		defer m.bg.Done()
		if err := m.Refill(context.Background()); err != nil {
			m.logger.Warn("background refill failed", logger.Error(err))
		}
	}()
}

// Wait blocks until background refills started so far have returned.
func (m *Manager) Wait() {
	m.bg.Wait()
}

// Refill runs one batch or joins the batch in flight. The batch itself is
// detached from ctx; ctx only bounds how long the caller waits.
func (m *Manager) Refill(ctx context.Context) error {
	batchCtx := context.WithoutCancel(ctx)
	// A joined batch that started before a Reset is retried once for the new state.
	for attempt := 0; ; attempt++ {
		joined := m.inFlight.Load()
		ch := m.sf.DoChan(refillKey, func() (any, error) {
			m.inFlight.Store(true)
			defer m.inFlight.Store(false)
			return nil, m.refill(batchCtx)
		})
		if joined {
			m.joins.Add(1)
			metrics.QueueRefillJoins.Inc()
		}

		select {
		case res := <-ch:
			if errors.Is(res.Err, errStale) {
				if attempt == 0 {
					continue
				}
				return nil
			}
			return res.Err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Manager) refill(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.RefillTimeout)
	defer cancel()

	m.mu.Lock()
	gen := m.gen
	pages := m.pickPages()
	m.mu.Unlock()

	shape := m.shape()
	started := time.Now()

	results := make([][]domain.Item, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	for i, page := range pages {
		q := shape.Query
		q.Page = page
		q.SortBy = catalog.SortPopularity
		q.MinVoteCount = m.opts.MinVoteCount
		g.Go(func() error {
			items, err := m.client.Discover(gctx, q)
			if err != nil {
				return fmt.Errorf("discover page %d: %w", page, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.QueueRefills.WithLabelValues("error").Inc()
		return fmt.Errorf("refill failed: %w", err)
	}

	var merged []domain.Item
	for _, items := range results {
		merged = append(merged, items...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen {
		metrics.QueueRefills.WithLabelValues("stale").Inc()
		m.logger.Debug("dropping refill computed before reset")
		return errStale
	}

	present := make(map[int]struct{}, len(m.buf))
	for _, it := range m.buf {
		present[it.ID] = struct{}{}
	}
	fresh := make([]domain.Item, 0, len(merged))
	for _, it := range domain.DedupeItems(merged) {
		if _, dup := present[it.ID]; dup {
			continue
		}
		if _, dup := m.served[it.ID]; dup {
			continue
		}
		if m.isExcluded != nil && m.isExcluded(it.ID) {
			continue
		}
		fresh = append(fresh, it)
	}

	ordered := domain.FilterByIntentCategories(fresh, shape.Keywords, shape.GenreName, m.rng)
	if len(ordered) > m.opts.Cap {
		ordered = ordered[:m.opts.Cap]
	}
	m.buf = append(m.buf, ordered...)

	metrics.QueueRefills.WithLabelValues("ok").Inc()
	metrics.QueueBuffered.Set(float64(len(m.buf)))
	m.logger.Debug("queue refilled",
		logger.Ints("pages", pages),
		logger.Int("fetched", len(merged)),
		logger.Int("added", len(ordered)),
		logger.Int("buffered", len(m.buf)),
		logger.Duration("took", time.Since(started)))
	return nil
}

// pop returns the head, skipping items excluded since they were buffered.
func (m *Manager) pop() (domain.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.buf) > 0 {
		item := m.buf[0]
		m.buf = m.buf[1:]
		if m.isExcluded != nil && m.isExcluded(item.ID) {
			continue
		}
		m.served[item.ID] = struct{}{}
		metrics.QueueBuffered.Set(float64(len(m.buf)))
		return item, true
	}
	metrics.QueueBuffered.Set(0)
	return domain.Item{}, false
}

// pickPages draws distinct pages. Caller holds m.mu.
func (m *Manager) pickPages() []int {
	return DistinctPages(m.rng, m.opts.Pages, m.opts.MaxPage)
}

// DistinctPages draws n distinct page numbers from [1, maxPage].
func DistinctPages(rng *rand.Rand, n, maxPage int) []int {
	n = min(n, maxPage)
	picked := make(map[int]struct{}, n)
	pages := make([]int, 0, n)
	for len(pages) < n {
		p := rng.IntN(maxPage) + 1
		if _, dup := picked[p]; dup {
			continue
		}
		picked[p] = struct{}{}
		pages = append(pages, p)
	}
	return pages
}
