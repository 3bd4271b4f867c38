package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/tofixx/mymovieflip/internal/catalog"
	"github.com/tofixx/mymovieflip/internal/catalog/catalogtest"
	"github.com/tofixx/mymovieflip/internal/decision"
	"github.com/tofixx/mymovieflip/internal/domain"
	"github.com/tofixx/mymovieflip/internal/enrich"
	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/queue"
	"github.com/tofixx/mymovieflip/internal/sources/intents"
	"github.com/tofixx/mymovieflip/internal/store"
	"github.com/tofixx/mymovieflip/internal/store/memory"
)

func newFake() *catalogtest.Fake {
	fake := catalogtest.NewFake()
	fake.Genres = map[int]string{18: "Drama", 27: "Horror"}
	for p := 1; p <= 3; p++ {
		fake.Pages[p] = catalogtest.Movies(p*100, 10, 18)
	}
	return fake
}

func newSession(t *testing.T, fake *catalogtest.Fake, st store.Store) *Session {
	t.Helper()
	table := intents.Table{
		Keywords:  domain.KeywordTable{"scary": {"horror"}},
		Audiences: []string{"solo"},
	}
	s := New(fake, st, table, nil, Options{
		ImageBase:  "https://img.test/w780",
		RecPages:   2,
		RecMaxPage: 2,
		Queue:      queue.Options{Pages: 3, MaxPage: 3, Rand: rand.New(rand.NewPCG(5, 6))},
		Rand:       rand.New(rand.NewPCG(1, 2)),
	}, logger.Nop())
	t.Cleanup(s.Wait)
	return s
}

func bootstrapped(t *testing.T, fake *catalogtest.Fake, st store.Store) *Session {
	t.Helper()
	s := newSession(t, fake, st)
	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	return s
}

func recQueries(fake *catalogtest.Fake) int {
	n := 0
	for _, q := range fake.Queries() {
		if q.SortBy == catalog.SortVoteCount {
			n++
		}
	}
	return n
}

func currentID(t *testing.T, s *Session) int {
	t.Helper()
	card, err := s.Card(context.Background())
	if err != nil {
		t.Fatalf("Card() error = %v", err)
	}
	return card.Item.ID
}

func TestBootstrapWithoutToken(t *testing.T) {
	fake := newFake()
	fake.SetToken("")
	s := newSession(t, fake, memory.NewStore())

	if err := s.Bootstrap(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Bootstrap() error = %v, want ErrNotReady", err)
	}
	if _, err := s.Card(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("Card() error = %v, want ErrNotReady", err)
	}
	if err := s.Decide(context.Background(), domain.DecisionLike); !errors.Is(err, ErrNotReady) {
		t.Errorf("Decide() error = %v, want ErrNotReady", err)
	}
	if fake.DiscoverCalls.Load() != 0 {
		t.Error("catalog queried without a token")
	}

	if err := s.SetToken(context.Background(), "bearer"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	if !s.Ready() {
		t.Error("session not ready after SetToken")
	}
	if s.Genres().Count() != 2 {
		t.Errorf("genres loaded = %d", s.Genres().Count())
	}
}

func TestBootstrapUsesStoredToken(t *testing.T) {
	st := memory.NewStore()
	_ = st.Set(context.Background(), store.KeyToken, []byte("stored"))
	fake := newFake()
	fake.SetToken("")

	bootstrapped(t, fake, st)
	if !fake.HasToken() {
		t.Error("stored token not handed to the catalog")
	}
}

func TestRecommendationsGatedByFlips(t *testing.T) {
	fake := newFake()
	s := bootstrapped(t, fake, memory.NewStore())
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		if err := s.Decide(ctx, domain.DecisionLike); err != nil {
			t.Fatalf("Decide() #%d error = %v", i+1, err)
		}
	}
	s.Wait()

	if n := recQueries(fake); n != 0 {
		t.Fatalf("recommendation queries after 9 flips = %d, want 0", n)
	}
	view, err := s.Recommendations(ctx, false)
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if view.Unlocked || len(view.Items) != 0 || view.Flips != 9 {
		t.Errorf("Recommendations() at 9 flips = %+v", view)
	}

	if err := s.Decide(ctx, domain.DecisionDislike); err != nil {
		t.Fatalf("Decide() #10 error = %v", err)
	}
	s.Wait()

	if n := recQueries(fake); n != 2 {
		t.Fatalf("recommendation queries after 10 flips = %d, want 2", n)
	}
	view, err = s.Recommendations(ctx, false)
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if !view.Unlocked || len(view.Items) == 0 {
		t.Fatalf("Recommendations() at 10 flips = %+v", view)
	}
	if len(view.Items) > domain.DefaultRecommendationLimit {
		t.Errorf("got %d recommendations", len(view.Items))
	}
	snap := s.model.Snapshot()
	for _, r := range view.Items {
		if snap.IsExcluded(r.Item.ID) {
			t.Errorf("recommended excluded item %d", r.Item.ID)
		}
		if r.Genres[0] != "Drama" {
			t.Errorf("genres not resolved: %v", r.Genres)
		}
	}
	for _, q := range fake.Queries() {
		if q.SortBy == catalog.SortVoteCount && (len(q.WithGenres) != 1 || q.WithGenres[0] != 18) {
			t.Errorf("recommendation query genres = %v, want [18]", q.WithGenres)
		}
	}
}

func TestForcedRecommendationsIgnoreGate(t *testing.T) {
	fake := newFake()
	s := bootstrapped(t, fake, memory.NewStore())
	ctx := context.Background()

	if err := s.Decide(ctx, domain.DecisionLike); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	view, err := s.Recommendations(ctx, true)
	if err != nil {
		t.Fatalf("Recommendations(force) error = %v", err)
	}
	if !view.Unlocked || len(view.Items) == 0 {
		t.Errorf("forced Recommendations() = %+v", view)
	}

	fake.SetErr(errors.New("catalog down"))
	if _, err := s.Recommendations(ctx, true); err == nil {
		t.Error("forced refresh should surface the catalog error")
	}
}

func TestDecideRecommendation(t *testing.T) {
	fake := newFake()
	s := bootstrapped(t, fake, memory.NewStore())
	ctx := context.Background()

	view, err := s.Recommendations(ctx, true)
	if err != nil || len(view.Items) == 0 {
		t.Fatalf("Recommendations(force) = %+v, %v", view, err)
	}
	target := view.Items[0].Item.ID

	after, err := s.DecideRecommendation(ctx, target, domain.DecisionBookmark)
	if err != nil {
		t.Fatalf("DecideRecommendation() error = %v", err)
	}
	for _, r := range after.Items {
		if r.Item.ID == target {
			t.Error("decided item still recommended")
		}
	}
	if !s.model.Snapshot().Has(domain.ViewBookmarks, target) {
		t.Error("recommendation decision not stored")
	}
	if _, err := s.DecideRecommendation(ctx, 999999, domain.DecisionLike); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("unknown id error = %v", err)
	}
	if _, err := s.DecideRecommendation(ctx, target, "love"); !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("invalid type error = %v", err)
	}
}

// sharedPoolFake serves the same movies on every page so the current card
// is always part of the recommendation pool.
func sharedPoolFake() *catalogtest.Fake {
	fake := newFake()
	items := catalogtest.Movies(100, 10, 18)
	for p := 1; p <= 3; p++ {
		fake.Pages[p] = items
	}
	return fake
}

func recommends(view RecommendationsView, id int) bool {
	for _, r := range view.Items {
		if r.Item.ID == id {
			return true
		}
	}
	return false
}

func TestCardDecidedFromRecommendationsMovesOn(t *testing.T) {
	s := bootstrapped(t, sharedPoolFake(), memory.NewStore())
	ctx := context.Background()

	cur := currentID(t, s)
	view, err := s.Recommendations(ctx, true)
	if err != nil || !recommends(view, cur) {
		t.Fatalf("Recommendations(force) = %+v, %v; want current card %d listed", view, err, cur)
	}
	if _, err := s.DecideRecommendation(ctx, cur, domain.DecisionLike); err != nil {
		t.Fatalf("DecideRecommendation() error = %v", err)
	}

	next := currentID(t, s)
	if next == cur {
		t.Fatalf("card %d still current after being liked from recommendations", cur)
	}
	if err := s.Decide(ctx, domain.DecisionDislike); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	p := s.model.Snapshot()
	if p.Has(domain.ViewDislikes, cur) {
		t.Errorf("item %d is both liked and disliked", cur)
	}
	if !p.Has(domain.ViewDislikes, next) {
		t.Errorf("dislike not applied to the replacement card %d", next)
	}
	if p.Flips != 2 {
		t.Errorf("flips = %d, want 2", p.Flips)
	}
}

func TestSwipeOnCardDecidedElsewhereIsDropped(t *testing.T) {
	s := bootstrapped(t, sharedPoolFake(), memory.NewStore())
	ctx := context.Background()

	cur := currentID(t, s)
	if _, err := s.Recommendations(ctx, true); err != nil {
		t.Fatalf("Recommendations(force) error = %v", err)
	}
	if _, err := s.DecideRecommendation(ctx, cur, domain.DecisionWatched); err != nil {
		t.Fatalf("DecideRecommendation() error = %v", err)
	}

	// the client still shows the old card and swipes it
	if err := s.Decide(ctx, domain.DecisionLike); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	st := s.State()
	if st.Flips != 1 || st.Likes != 0 || st.Watched != 1 {
		t.Errorf("State() = %+v, want the stale swipe dropped", st)
	}
	if got := currentID(t, s); got == cur {
		t.Errorf("current = %d, want a new card", got)
	}

	if _, err := s.DecideRecommendation(ctx, currentID(t, s), domain.DecisionDislike); err != nil {
		t.Fatalf("DecideRecommendation() error = %v", err)
	}
	before := s.State().Flips
	if err := s.Skip(ctx); err != nil {
		t.Fatalf("Skip() error = %v", err)
	}
	if st := s.State(); st.Flips != before || st.Decision != decision.Idle.String() {
		t.Errorf("State() after stale Skip = %+v", st)
	}
}

func TestDecideRecommendationServesLastListWhenRefreshFails(t *testing.T) {
	fake := newFake()
	s := bootstrapped(t, fake, memory.NewStore())
	ctx := context.Background()

	view, err := s.Recommendations(ctx, true)
	if err != nil || len(view.Items) < 2 {
		t.Fatalf("Recommendations(force) = %+v, %v", view, err)
	}
	target := view.Items[0].Item.ID

	fake.SetErr(errors.New("catalog down"))
	after, err := s.DecideRecommendation(ctx, target, domain.DecisionLike)
	if err != nil {
		t.Fatalf("DecideRecommendation() error = %v", err)
	}
	if !after.Unlocked {
		t.Error("list locked again below the flip threshold")
	}
	if len(after.Items) != len(view.Items)-1 || recommends(after, target) {
		t.Errorf("items = %d (target listed %v), want last list minus %d",
			len(after.Items), recommends(after, target), target)
	}
	if after.Flips != 1 {
		t.Errorf("flips = %d, want 1", after.Flips)
	}
}

func TestBackAndRedoDoNotCountTwice(t *testing.T) {
	fake := newFake()
	s := bootstrapped(t, fake, memory.NewStore())
	ctx := context.Background()

	first := currentID(t, s)
	if err := s.Decide(ctx, domain.DecisionLike); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	second := currentID(t, s)

	if !s.Back(ctx) {
		t.Fatal("Back() = false after a decision")
	}
	if got := currentID(t, s); got != first {
		t.Fatalf("current after Back = %d, want %d", got, first)
	}
	if s.Back(ctx) {
		t.Error("second Back() should be a no-op")
	}
	if st := s.State(); st.Decision != decision.Overridden.String() || st.Likes != 0 || st.Flips != 1 {
		t.Errorf("State() after Back = %+v", st)
	}

	if err := s.Decide(ctx, domain.DecisionDislike); err != nil {
		t.Fatalf("redo Decide() error = %v", err)
	}
	st := s.State()
	if st.Flips != 1 || st.Dislikes != 1 || st.Likes != 0 {
		t.Errorf("State() after redo = %+v", st)
	}
	if got := currentID(t, s); got != second {
		t.Errorf("current after redo = %d, want pushed-back %d", got, second)
	}
}

func TestSkipAbandonsUndoneDecision(t *testing.T) {
	fake := newFake()
	s := bootstrapped(t, fake, memory.NewStore())
	ctx := context.Background()

	first := currentID(t, s)
	if err := s.Decide(ctx, domain.DecisionWatched); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	s.Back(ctx)
	if err := s.Skip(ctx); err != nil {
		t.Fatalf("Skip() error = %v", err)
	}

	st := s.State()
	if st.Flips != 0 || st.Watched != 0 || st.CanGoBack {
		t.Errorf("State() after abandon = %+v", st)
	}
	if s.model.IsSeen(first) {
		t.Error("abandoned item still seen")
	}
}

func TestDecisionsPersistAcrossSessions(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()

	s := bootstrapped(t, newFake(), st)
	liked := currentID(t, s)
	if err := s.Decide(ctx, domain.DecisionLike); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	s.Wait()

	again := bootstrapped(t, newFake(), st)
	snap := again.model.Snapshot()
	if snap.Flips != 1 || !snap.Has(domain.ViewLikes, liked) {
		t.Errorf("reloaded profile = %+v", snap)
	}
	if got := currentID(t, again); got == liked {
		t.Error("liked item offered again")
	}
}

func TestInvalidInput(t *testing.T) {
	s := bootstrapped(t, newFake(), memory.NewStore())
	ctx := context.Background()

	if err := s.Decide(ctx, "superlike"); !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("Decide() error = %v", err)
	}
	if _, err := s.Library("favorites"); !errors.Is(err, ErrInvalidView) {
		t.Errorf("Library() error = %v", err)
	}
	if _, err := s.RemoveItem(ctx, "favorites", 1); !errors.Is(err, ErrInvalidView) {
		t.Errorf("RemoveItem() error = %v", err)
	}
	if err := s.SetLanguage(ctx, "english"); err == nil {
		t.Error("SetLanguage() accepted an invalid locale")
	}
	if s.SetRating(ctx, 424242, 5) {
		t.Error("SetRating() on an unknown id reported success")
	}
}

func TestSetLanguageRebuildsQueue(t *testing.T) {
	fake := newFake()
	s := bootstrapped(t, fake, memory.NewStore())
	ctx := context.Background()

	genreCalls := fake.GenreCalls.Load()
	if err := s.SetLanguage(ctx, "de-DE"); err != nil {
		t.Fatalf("SetLanguage() error = %v", err)
	}
	s.Wait()

	if fake.GenreCalls.Load() != genreCalls+1 {
		t.Error("genres not reloaded")
	}
	if s.Genres().Locale() != "de-DE" {
		t.Errorf("genre locale = %q", s.Genres().Locale())
	}
	queries := fake.Queries()
	last := queries[len(queries)-1]
	if last.Language != "de-DE" || last.WatchRegion != "DE" {
		t.Errorf("last query = %+v", last)
	}

	if err := s.SetLanguage(ctx, "de-DE"); err != nil {
		t.Fatalf("SetLanguage() error = %v", err)
	}
	if fake.GenreCalls.Load() != genreCalls+1 {
		t.Error("unchanged language reloaded genres")
	}
}

func TestSetAudienceAndProvidersShapeQueries(t *testing.T) {
	fake := newFake()
	s := bootstrapped(t, fake, memory.NewStore())
	ctx := context.Background()

	if err := s.SetAudience(ctx, "family"); err != nil {
		t.Fatalf("SetAudience() error = %v", err)
	}
	if err := s.SetProviders(ctx, []int{8}); err != nil {
		t.Fatalf("SetProviders() error = %v", err)
	}
	s.Wait()

	queries := fake.Queries()
	last := queries[len(queries)-1]
	if last.CertificationCountry != "US" || last.CertificationLTE != "PG" {
		t.Errorf("certification = %q %q", last.CertificationCountry, last.CertificationLTE)
	}
	if len(last.WithProviders) != 1 || last.WithProviders[0] != 8 {
		t.Errorf("providers = %v", last.WithProviders)
	}
	if err := s.SetAudience(ctx, "toddlers"); err == nil {
		t.Error("SetAudience() accepted an unknown audience")
	}
}

func TestIntentPrompt(t *testing.T) {
	s := bootstrapped(t, newFake(), memory.NewStore())
	ctx := context.Background()

	if v := s.Intent(); !v.Prompt || len(v.Categories) != 1 {
		t.Fatalf("Intent() = %+v", v)
	}
	v := s.SetIntent(ctx, " solo ", []string{"scary"})
	if v.Prompt || v.Current == nil || v.Current.Who != "solo" || v.Current.Keywords[0] != "horror" {
		t.Errorf("SetIntent() = %+v", v)
	}

	other := bootstrapped(t, newFake(), memory.NewStore())
	if v := other.SkipIntent(ctx); v.Prompt || v.Current != nil {
		t.Errorf("SkipIntent() = %+v", v)
	}
}

func TestLibraryAndRatings(t *testing.T) {
	s := bootstrapped(t, newFake(), memory.NewStore())
	ctx := context.Background()

	watched := currentID(t, s)
	if err := s.Decide(ctx, domain.DecisionWatched); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	bookmarked := currentID(t, s)
	if err := s.Decide(ctx, domain.DecisionBookmark); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	if !s.SetRating(ctx, watched, 5) {
		t.Fatal("SetRating() = false")
	}
	s.Wait()
	entries, err := s.Library(domain.ViewWatched)
	if err != nil || len(entries) != 1 || entries[0].Rating != 5 {
		t.Fatalf("Library(watched) = %+v, %v", entries, err)
	}

	if !s.MoveToWatched(ctx, bookmarked) {
		t.Fatal("MoveToWatched() = false")
	}
	s.Wait()
	if entries, _ := s.Library(domain.ViewBookmarks); len(entries) != 0 {
		t.Errorf("bookmarks after move = %+v", entries)
	}
	entries, _ = s.Library(domain.ViewWatched)
	if len(entries) != 2 || entries[1].Rating != domain.DefaultRating {
		t.Errorf("watched after move = %+v", entries)
	}

	if ok, _ := s.ClearView(ctx, domain.ViewWatched); !ok {
		t.Error("ClearView() = false")
	}
	s.Wait()
	if !s.model.IsExcluded(watched) {
		t.Error("cleared item no longer excluded")
	}
}

func TestCardEnrichment(t *testing.T) {
	fake := newFake()
	st := memory.NewStore()
	e, err := enrich.New(fake, 100, logger.Nop())
	if err != nil {
		t.Fatalf("enrich.New() error = %v", err)
	}
	defer e.Close()

	s := New(fake, st, intents.Table{Keywords: domain.KeywordTable{}}, e, Options{
		ImageBase: "https://img.test/w780",
		Queue:     queue.Options{Pages: 3, MaxPage: 3},
	}, logger.Nop())
	t.Cleanup(s.Wait)
	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	card, err := s.Card(context.Background())
	if err != nil {
		t.Fatalf("Card() error = %v", err)
	}
	fake.Certs[card.Item.ID] = "R"
	e.Wait()
	e.ClearAll()

	card, _ = s.Card(context.Background())
	if card.Details.Certification != "R" {
		t.Errorf("certification = %q", card.Details.Certification)
	}
	if len(card.Genres) != 1 || card.Genres[0] != "Drama" {
		t.Errorf("genres = %v", card.Genres)
	}
}

func TestSearchTagsStoredItems(t *testing.T) {
	s := bootstrapped(t, newFake(), memory.NewStore())
	ctx := context.Background()

	liked := currentID(t, s)
	if err := s.Decide(ctx, domain.DecisionLike); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	results, err := s.Search(ctx, "movie")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	found := false
	for _, r := range results {
		if r.Item.ID == liked {
			found = true
			if r.In != string(domain.ViewLikes) {
				t.Errorf("liked item tagged %q", r.In)
			}
		}
	}
	if !found {
		t.Error("liked item missing from search results")
	}
}

func TestWarmQueueRecoversFailedBootstrap(t *testing.T) {
	fake := newFake()
	fake.SetErr(errors.New("catalog down"))
	s := newSession(t, fake, memory.NewStore())
	ctx := context.Background()

	if err := s.Bootstrap(ctx); err == nil {
		t.Fatal("Bootstrap() should fail while the catalog is down")
	}
	if s.Ready() {
		t.Fatal("session ready after failed bootstrap")
	}

	fake.SetErr(nil)
	if err := s.WarmQueue(ctx); err != nil {
		t.Fatalf("WarmQueue() error = %v", err)
	}
	if !s.Ready() {
		t.Error("WarmQueue() did not bootstrap the session")
	}
	if _, err := s.Card(ctx); err != nil {
		t.Errorf("Card() error = %v", err)
	}
}
