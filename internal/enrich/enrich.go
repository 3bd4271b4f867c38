// Package enrich memoizes per-title metadata shown on a card: age rating,
// trailer link and streaming availability.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/tofixx/mymovieflip/internal/catalog"
	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/metrics"
)

const (
	defaultMaxEntries = 4096
)

// Availability is where a title streams among the selected providers.
type Availability struct {
	Link  string   `json:"link,omitempty"`
	Names []string `json:"names"`
}

// Details bundles every enrichment for one card.
type Details struct {
	Certification string       `json:"certification,omitempty"`
	Trailer       string       `json:"trailer,omitempty"`
	Providers     Availability `json:"providers"`
}

// Enricher fronts the catalog with three caches. Failed lookups return the
// zero value and are not cached.
type Enricher struct {
	client catalog.Client
	logger logger.Logger

	certs     *ristretto.Cache[string, string]
	trailers  *ristretto.Cache[string, string]
	providers *ristretto.Cache[string, Availability]
}

// New builds an enricher holding up to maxEntries items per cache.
func New(client catalog.Client, maxEntries int64, log logger.Logger) (*Enricher, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	certs, err := newCache[string](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create certification cache: %w", err)
	}
	trailers, err := newCache[string](maxEntries)
	if err != nil {
		certs.Close()
		return nil, fmt.Errorf("failed to create trailer cache: %w", err)
	}
	providers, err := newCache[Availability](maxEntries)
	if err != nil {
		certs.Close()
		trailers.Close()
		return nil, fmt.Errorf("failed to create provider cache: %w", err)
	}

	return &Enricher{
		client:    client,
		logger:    log,
		certs:     certs,
		trailers:  trailers,
		providers: providers,
	}, nil
}

func newCache[V any](maxEntries int64) (*ristretto.Cache[string, V], error) {
	return ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		// costs count entries, not bytes
		IgnoreInternalCost: true,
	})
}

// Certification returns the age rating of id in region, or "".
func (e *Enricher) Certification(ctx context.Context, id int, region string) string {
	key := strconv.Itoa(id) + "|" + strings.ToUpper(region)
	if v, ok := e.certs.Get(key); ok {
		metrics.EnrichCache.WithLabelValues("certification", "hit").Inc()
		return v
	}
	metrics.EnrichCache.WithLabelValues("certification", "miss").Inc()

	cert, err := e.client.Certification(ctx, id, region)
	if err != nil {
		e.logFailure("certification", id, err)
		return ""
	}
	e.certs.Set(key, cert, 1)
	return cert
}

// Trailer returns a trailer link for id, or "".
func (e *Enricher) Trailer(ctx context.Context, id int, locale string) string {
	key := strconv.Itoa(id) + "|" + locale
	if v, ok := e.trailers.Get(key); ok {
		metrics.EnrichCache.WithLabelValues("trailer", "hit").Inc()
		return v
	}
	metrics.EnrichCache.WithLabelValues("trailer", "miss").Inc()

	link, err := e.client.TrailerURL(ctx, id, locale)
	if err != nil {
		e.logFailure("trailer", id, err)
		return ""
	}
	e.trailers.Set(key, link, 1)
	return link
}

// Providers returns the names of the selected providers streaming id in
// region. An empty selection keeps every provider.
func (e *Enricher) Providers(ctx context.Context, id int, region string, selected []int) Availability {
	sel := slices.Clone(selected)
	slices.Sort(sel)
	sel = slices.Compact(sel)

	key := strconv.Itoa(id) + "|" + strings.ToUpper(region) + "|" + joinInts(sel)
	if v, ok := e.providers.Get(key); ok {
		metrics.EnrichCache.WithLabelValues("providers", "hit").Inc()
		return v
	}
	metrics.EnrichCache.WithLabelValues("providers", "miss").Inc()

	res, err := e.client.WatchProviders(ctx, id, region)
	if err != nil {
		e.logFailure("providers", id, err)
		return Availability{Names: []string{}}
	}

	out := Availability{Link: res.Link, Names: []string{}}
	for pid, name := range res.Names {
		if len(sel) > 0 {
			if _, found := slices.BinarySearch(sel, pid); !found {
				continue
			}
		}
		out.Names = append(out.Names, name)
	}
	slices.Sort(out.Names)

	e.providers.Set(key, out, 1)
	return out
}

// Details fetches every enrichment of id.
func (e *Enricher) Details(ctx context.Context, id int, locale, region string, selected []int) Details {
	return Details{
		Certification: e.Certification(ctx, id, region),
		Trailer:       e.Trailer(ctx, id, locale),
		Providers:     e.Providers(ctx, id, region, selected),
	}
}

// ClearAll drops every cached value. Called on language change.
func (e *Enricher) ClearAll() {
	e.certs.Clear()
	e.trailers.Clear()
	e.providers.Clear()
}

// ClearProviders drops cached availability. Called on provider selection change.
func (e *Enricher) ClearProviders() {
	e.providers.Clear()
}

// Wait blocks until pending cache writes are applied.
func (e *Enricher) Wait() {
	e.certs.Wait()
	e.trailers.Wait()
	e.providers.Wait()
}

func (e *Enricher) Close() {
	e.certs.Close()
	e.trailers.Close()
	e.providers.Close()
}

func (e *Enricher) logFailure(kind string, id int, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, catalog.ErrMissingToken) {
		return
	}
	e.logger.Debug("enrichment lookup failed",
		logger.String("kind", kind),
		logger.Int("id", id),
		logger.Error(err))
}

func joinInts(ids []int) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}
