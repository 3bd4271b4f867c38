// Package settings keeps the user preferences that shape catalog queries:
// credential, locale, streaming services, bookmark order and audience.
package settings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/store"
)

const (
	DefaultLanguage = "en-US"
	DefaultRegion   = "US"
)

// Bookmark orderings.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortTitle  = "title"
)

// Audience filters.
const (
	AudienceAll    = "all"
	AudienceFamily = "family"
	AudienceTeen   = "teen"
)

// ErrInvalid is returned for values outside the accepted set.
var ErrInvalid = errors.New("settings: invalid value")

var localeRe = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

// certificationCeilings maps an audience to the highest age rating allowed
// per certification country.
var certificationCeilings = map[string]map[string]string{
	AudienceFamily: {"US": "PG", "GB": "PG", "DE": "6", "FR": "U", "CA": "PG", "AU": "PG", "NL": "6", "ES": "7"},
	AudienceTeen:   {"US": "PG-13", "GB": "12A", "DE": "12", "FR": "12", "CA": "14A", "AU": "M", "NL": "12", "ES": "12"},
}

// Preferences is a snapshot of the stored settings. The token itself is
// never part of a snapshot.
type Preferences struct {
	Language     string `json:"language"`
	Region       string `json:"region"`
	Providers    []int  `json:"providers"`
	BookmarkSort string `json:"bookmarkSort"`
	Audience     string `json:"audience"`
	HasToken     bool   `json:"hasToken"`
}

// Certification returns the country and ceiling to pass to Discover, or
// empty strings when the audience is unrestricted.
func (p Preferences) Certification() (country, lte string) {
	ceilings, ok := certificationCeilings[p.Audience]
	if !ok {
		return "", ""
	}
	if lte, ok := ceilings[p.Region]; ok {
		return p.Region, lte
	}
	return DefaultRegion, ceilings[DefaultRegion]
}

// Service reads preferences once and writes each change through to the store.
// A failed write keeps the new value in memory and is returned to the caller.
type Service struct {
	mu     sync.RWMutex
	store  store.Store
	logger logger.Logger

	token string
	prefs Preferences
}

// New creates a service holding defaults until Load is called.
func New(s store.Store, log logger.Logger) *Service {
	return &Service{
		store:  s,
		logger: log,
		prefs:  defaults(),
	}
}

func defaults() Preferences {
	return Preferences{
		Language:     DefaultLanguage,
		Region:       DefaultRegion,
		Providers:    []int{},
		BookmarkSort: SortNewest,
		Audience:     AudienceAll,
	}
}

// Load reads every key. Absent or invalid values fall back to defaults.
func (s *Service) Load(ctx context.Context) {
	p := defaults()
	token := ""

	if v, ok := s.read(ctx, store.KeyToken); ok {
		token = strings.TrimSpace(v)
	}
	if v, ok := s.read(ctx, store.KeyLanguage); ok && localeRe.MatchString(v) {
		p.Language = v
	}
	p.Region = RegionOf(p.Language)
	if raw, ok, err := s.store.Get(ctx, store.KeyProviders); err == nil && ok {
		var ids []int
		if err := json.Unmarshal(raw, &ids); err == nil {
			p.Providers = normalizeIDs(ids)
		} else {
			s.logger.Warn("ignoring corrupt provider selection", logger.Error(err))
		}
	}
	if v, ok := s.read(ctx, store.KeyBookmarkSort); ok && validSort(v) {
		p.BookmarkSort = v
	}
	if v, ok := s.read(ctx, store.KeyAudience); ok && validAudience(v) {
		p.Audience = v
	}

	s.mu.Lock()
	s.token = token
	p.HasToken = token != ""
	s.prefs = p
	s.mu.Unlock()
}

func (s *Service) read(ctx context.Context, key string) (string, bool) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read setting", logger.String("key", key), logger.Error(err))
		return "", false
	}
	if !ok {
		return "", false
	}
	return string(raw), true
}

// Get returns the current preferences.
func (s *Service) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.prefs
	p.Providers = slices.Clone(s.prefs.Providers)
	return p
}

// Token returns the stored bearer credential.
func (s *Service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken stores the bearer credential. An empty token removes it.
func (s *Service) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)

	s.mu.Lock()
	s.token = token
	s.prefs.HasToken = token != ""
	s.mu.Unlock()

	if token == "" {
		if err := s.store.Remove(ctx, store.KeyToken); err != nil {
			return fmt.Errorf("failed to remove token: %w", err)
		}
		return nil
	}
	return s.write(ctx, store.KeyToken, []byte(token))
}

// SetLanguage stores the locale and derives the region. Reports whether it changed.
func (s *Service) SetLanguage(ctx context.Context, lang string) (bool, error) {
	lang = strings.TrimSpace(lang)
	if !localeRe.MatchString(lang) {
		return false, fmt.Errorf("%w: language %q", ErrInvalid, lang)
	}

	s.mu.Lock()
	changed := s.prefs.Language != lang
	s.prefs.Language = lang
	s.prefs.Region = RegionOf(lang)
	s.mu.Unlock()

	if !changed {
		return false, nil
	}
	return true, s.write(ctx, store.KeyLanguage, []byte(lang))
}

// SetProviders stores the selected provider ids. Reports whether the selection changed.
func (s *Service) SetProviders(ctx context.Context, ids []int) (bool, error) {
	ids = normalizeIDs(ids)

	s.mu.Lock()
	changed := !slices.Equal(s.prefs.Providers, ids)
	s.prefs.Providers = ids
	s.mu.Unlock()

	if !changed {
		return false, nil
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return true, fmt.Errorf("failed to encode providers: %w", err)
	}
	return true, s.write(ctx, store.KeyProviders, raw)
}

func (s *Service) SetBookmarkSort(ctx context.Context, order string) error {
	if !validSort(order) {
		return fmt.Errorf("%w: bookmark sort %q", ErrInvalid, order)
	}
	s.mu.Lock()
	s.prefs.BookmarkSort = order
	s.mu.Unlock()
	return s.write(ctx, store.KeyBookmarkSort, []byte(order))
}

// SetAudience stores the audience filter. Reports whether it changed.
func (s *Service) SetAudience(ctx context.Context, audience string) (bool, error) {
	if !validAudience(audience) {
		return false, fmt.Errorf("%w: audience %q", ErrInvalid, audience)
	}
	s.mu.Lock()
	changed := s.prefs.Audience != audience
	s.prefs.Audience = audience
	s.mu.Unlock()

	if !changed {
		return false, nil
	}
	return true, s.write(ctx, store.KeyAudience, []byte(audience))
}

func (s *Service) write(ctx context.Context, key string, value []byte) error {
	if err := s.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to save %s: %w", strings.TrimPrefix(key, store.KeyPrefix), err)
	}
	return nil
}

// RegionOf derives the watch region from a locale: "de-AT" -> "AT".
func RegionOf(locale string) string {
	if _, region, ok := strings.Cut(locale, "-"); ok && region != "" {
		return strings.ToUpper(region)
	}
	return DefaultRegion
}

func validSort(v string) bool {
	return v == SortNewest || v == SortOldest || v == SortTitle
}

func validAudience(v string) bool {
	return v == AudienceAll || v == AudienceFamily || v == AudienceTeen
}

func normalizeIDs(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
