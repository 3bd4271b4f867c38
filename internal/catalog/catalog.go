// Package catalog defines the contract of the remote movie catalog.
package catalog

import (
	"context"
	"errors"

	"github.com/tofixx/mymovieflip/internal/domain"
)

var (
	// ErrMissingToken is returned before any network call when no bearer is configured.
	ErrMissingToken = errors.New("catalog: missing bearer token")
	// ErrUnauthorized is returned when the catalog rejects the bearer.
	ErrUnauthorized = errors.New("catalog: unauthorized")
	// ErrNotFound is returned for unknown ids.
	ErrNotFound = errors.New("catalog: not found")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("catalog: temporarily unavailable")
)

// Sort orders accepted by Discover.
const (
	SortPopularity = "popularity.desc"
	SortVoteCount  = "vote_count.desc"
)

// DiscoverQuery is one page of a discovery query.
type DiscoverQuery struct {
	Page         int
	SortBy       string
	Language     string
	MinVoteCount int
	// WithGenres narrows to any of the genres.
	WithGenres []int
	// WatchRegion and WithProviders narrow to titles streamable on any of the providers.
	WatchRegion   string
	WithProviders []int
	// CertificationCountry and CertificationLTE cap the age rating.
	CertificationCountry string
	CertificationLTE     string
}

// Providers is the streaming availability of one title in one region.
type Providers struct {
	Link  string         `json:"link,omitempty"`
	Names map[int]string `json:"names"`
}

// Provider is a selectable streaming service.
type Provider struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// Client is the catalog boundary. Every call may fail with a transport or
// authorization error.
type Client interface {
	ListGenres(ctx context.Context, locale string) (map[int]string, error)
	Discover(ctx context.Context, q DiscoverQuery) ([]domain.Item, error)
	Search(ctx context.Context, query, locale string) ([]domain.Item, error)
	Certification(ctx context.Context, id int, region string) (string, error)
	TrailerURL(ctx context.Context, id int, locale string) (string, error)
	WatchProviders(ctx context.Context, id int, region string) (Providers, error)
	ListProviders(ctx context.Context, locale, region string) ([]Provider, error)
}

// TokenSetter is implemented by clients whose bearer can change at runtime.
type TokenSetter interface {
	SetToken(token string)
	HasToken() bool
}
