package session

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/tofixx/mymovieflip/internal/catalog"
	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/settings"
)

// Intent returns the intent prompt state.
func (s *Session) Intent() IntentView {
	p := s.model.Snapshot()
	return IntentView{
		Prompt:     !p.IntentPromptDone,
		Current:    p.Intent,
		Categories: s.intents.Categories(),
		Audiences:  slices.Clone(s.intents.Audiences),
	}
}

// SetIntent stores the intent and rebuilds the swipe queue around it.
func (s *Session) SetIntent(ctx context.Context, who string, categories []string) IntentView {
	s.mu.Lock()
	s.model.SetIntent(ctx, strings.TrimSpace(who), categories)
	s.resetQueueLocked()
	s.mu.Unlock()
	return s.Intent()
}

// SkipIntent resolves the prompt without setting an intent.
func (s *Session) SkipIntent(ctx context.Context) IntentView {
	s.model.SkipIntentPrompt(ctx)
	return s.Intent()
}

// Settings returns the stored preferences.
func (s *Session) Settings() settings.Preferences {
	return s.settings.Get()
}

// SetToken stores the catalog credential and bootstraps with it. An empty
// token clears the credential and parks the session.
func (s *Session) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.settings.SetToken(ctx, token); err != nil {
		s.logger.Warn("failed to persist token", logger.Error(err))
	}
	if ts, ok := s.catalog.(catalog.TokenSetter); ok {
		ts.SetToken(token)
	}
	if strings.TrimSpace(token) == "" {
		s.ready = false
		return nil
	}
	return s.bootstrapLocked(ctx)
}

// SetLanguage switches the catalog locale: genre names are reloaded, caches
// are dropped and the queue is rebuilt.
func (s *Session) SetLanguage(ctx context.Context, lang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.settings.SetLanguage(ctx, lang)
	if err := s.settingErr(err); err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if s.enricher != nil {
		s.enricher.ClearAll()
	}
	if err := s.ReloadGenres(ctx); err != nil && !errors.Is(err, ErrNotReady) {
		s.logger.Warn("failed to reload genres after language change", logger.Error(err))
	}
	s.resetQueueLocked()
	s.refreshAsync(false)
	return nil
}

// SetProviders narrows discovery to the selected streaming services.
func (s *Session) SetProviders(ctx context.Context, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.settings.SetProviders(ctx, ids)
	if err := s.settingErr(err); err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if s.enricher != nil {
		s.enricher.ClearProviders()
	}
	s.resetQueueLocked()
	s.refreshAsync(false)
	return nil
}

func (s *Session) SetBookmarkSort(ctx context.Context, order string) error {
	return s.settingErr(s.settings.SetBookmarkSort(ctx, order))
}

// SetAudience caps the age rating of discovered titles.
func (s *Session) SetAudience(ctx context.Context, audience string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.settings.SetAudience(ctx, audience)
	if err := s.settingErr(err); err != nil {
		return err
	}
	if changed {
		s.resetQueueLocked()
		s.refreshAsync(false)
	}
	return nil
}

// Providers lists the streaming services selectable in the current region.
func (s *Session) Providers(ctx context.Context) ([]catalog.Provider, error) {
	if !s.hasToken() {
		return nil, ErrNotReady
	}
	prefs := s.settings.Get()
	return s.catalog.ListProviders(ctx, prefs.Language, prefs.Region)
}

// settingErr returns validation errors and logs persistence failures: the
// new value already applies to this session.
func (s *Session) settingErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, settings.ErrInvalid) {
		return err
	}
	s.logger.Warn("failed to persist setting", logger.Error(err))
	return nil
}
