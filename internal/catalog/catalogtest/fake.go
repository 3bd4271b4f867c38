// Package catalogtest provides an in-memory catalog.Client for tests.
package catalogtest

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tofixx/mymovieflip/internal/catalog"
	"github.com/tofixx/mymovieflip/internal/domain"
)

// Fake serves canned pages. Pages maps a page number to its items; the
// same pages are served for every sort order and genre filter.
type Fake struct {
	mu sync.Mutex

	Genres    map[int]string
	Pages     map[int][]domain.Item
	Certs     map[int]string
	Trailers  map[int]string
	Available map[int]catalog.Providers
	Services  []catalog.Provider

	// Err, when set, is returned by every call.
	Err error
	// Gate, when set, blocks Discover until it is closed or ctx ends.
	Gate chan struct{}

	DiscoverCalls atomic.Int32
	GenreCalls    atomic.Int32
	EnrichCalls   atomic.Int32

	queries []catalog.DiscoverQuery
	token   string
}

var _ catalog.Client = (*Fake)(nil)
var _ catalog.TokenSetter = (*Fake)(nil)

// NewFake returns a fake with a bearer already set.
func NewFake() *Fake {
	return &Fake{
		Genres:    map[int]string{},
		Pages:     map[int][]domain.Item{},
		Certs:     map[int]string{},
		Trailers:  map[int]string{},
		Available: map[int]catalog.Providers{},
		token:     "test",
	}
}

func (f *Fake) SetToken(token string) {
	f.mu.Lock()
	f.token = strings.TrimSpace(token)
	f.mu.Unlock()
}

func (f *Fake) HasToken() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token != ""
}

// SetErr swaps the injected error.
func (f *Fake) SetErr(err error) {
	f.mu.Lock()
	f.Err = err
	f.mu.Unlock()
}

// Queries returns every Discover query received so far.
func (f *Fake) Queries() []catalog.DiscoverQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.queries)
}

func (f *Fake) check() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token == "" {
		return catalog.ErrMissingToken
	}
	return f.Err
}

func (f *Fake) ListGenres(ctx context.Context, locale string) (map[int]string, error) {
	f.GenreCalls.Add(1)
	if err := f.check(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int]string, len(f.Genres))
	for k, v := range f.Genres {
		out[k] = v
	}
	return out, nil
}

func (f *Fake) Discover(ctx context.Context, q catalog.DiscoverQuery) ([]domain.Item, error) {
	f.DiscoverCalls.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate := f.Gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.check(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Pages[q.Page]), nil
}

func (f *Fake) Search(ctx context.Context, query, locale string) ([]domain.Item, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []domain.Item{}
	if query == "" {
		return out, nil
	}
	pages := make([]int, 0, len(f.Pages))
	for p := range f.Pages {
		pages = append(pages, p)
	}
	slices.Sort(pages)
	for _, p := range pages {
		for _, it := range f.Pages[p] {
			if strings.Contains(strings.ToLower(it.Title), query) {
				out = append(out, it)
			}
		}
	}
	return domain.DedupeItems(out), nil
}

func (f *Fake) Certification(ctx context.Context, id int, region string) (string, error) {
	f.EnrichCalls.Add(1)
	if err := f.check(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Certs[id], nil
}

func (f *Fake) TrailerURL(ctx context.Context, id int, locale string) (string, error) {
	f.EnrichCalls.Add(1)
	if err := f.check(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Trailers[id], nil
}

func (f *Fake) WatchProviders(ctx context.Context, id int, region string) (catalog.Providers, error) {
	f.EnrichCalls.Add(1)
	if err := f.check(); err != nil {
		return catalog.Providers{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Available[id]
	if !ok {
		return catalog.Providers{Names: map[int]string{}}, nil
	}
	return p, nil
}

func (f *Fake) ListProviders(ctx context.Context, locale, region string) ([]catalog.Provider, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Services), nil
}

// Movies builds n items with ids from first, all in the given genres.
func Movies(first, n int, genres ...int) []domain.Item {
	out := make([]domain.Item, n)
	for i := range out {
		id := first + i
		out[i] = domain.Item{
			ID:          id,
			Title:       "Movie " + strconv.Itoa(id),
			GenreIDs:    slices.Clone(genres),
			VoteAverage: 6.5,
			Popularity:  float64(100 - i),
		}
	}
	return out
}
