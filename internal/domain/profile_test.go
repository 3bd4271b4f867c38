package domain

import (
	"math/rand/v2"
	"reflect"
	"testing"
	"time"
)

func checkInvariants(t *testing.T, p *Profile) {
	t.Helper()

	seen := make(map[int]bool, len(p.SeenIDs))
	for _, id := range p.SeenIDs {
		if seen[id] {
			t.Fatalf("seenIds contains %d twice", id)
		}
		seen[id] = true
	}

	lists := map[string][]int{}
	for _, m := range p.Likes {
		lists["likes"] = append(lists["likes"], m.ID)
	}
	for _, m := range p.Dislikes {
		lists["dislikes"] = append(lists["dislikes"], m.ID)
	}
	for _, m := range p.Watched {
		lists["watched"] = append(lists["watched"], m.ID)
	}
	for _, b := range p.Bookmarks {
		lists["bookmarks"] = append(lists["bookmarks"], b.ID)
	}

	for name, ids := range lists {
		dup := map[int]bool{}
		for _, id := range ids {
			if dup[id] {
				t.Fatalf("%s contains %d twice", name, id)
			}
			dup[id] = true
			if !seen[id] {
				t.Fatalf("%s contains %d which is not in seenIds", name, id)
			}
		}
	}

	for id, r := range p.Ratings {
		if r < MinRating || r > MaxRating {
			t.Fatalf("rating for %d out of range: %d", id, r)
		}
		if !p.Has(ViewWatched, id) {
			t.Fatalf("rating kept for %d which is not watched", id)
		}
	}
	if p.Flips < 0 {
		t.Fatalf("flips is negative: %d", p.Flips)
	}
}

func TestProfileInvariantsUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 42))
	p := NewProfile()
	now := time.Unix(1700000000, 0)
	types := []DecisionType{DecisionLike, DecisionDislike, DecisionWatched, DecisionBookmark, "bogus"}

	for i := 0; i < 2000; i++ {
		id := rng.IntN(40) + 1
		switch rng.IntN(7) {
		case 0, 1, 2:
			p.Apply(Item{ID: id, GenreIDs: []int{rng.IntN(5)}}, types[rng.IntN(len(types))], rng.IntN(2) == 0, now)
		case 3:
			p.Revert(id, types[rng.IntN(len(types))])
		case 4:
			p.Remove(Views[rng.IntN(len(Views))], id)
		case 5:
			p.SetRating(id, rng.IntN(9)-2)
		case 6:
			if rng.IntN(20) == 0 {
				p.Clear(Views[rng.IntN(len(Views))])
			} else {
				p.Abandon(id, rng.IntN(2) == 0)
			}
		}
		checkInvariants(t, p)
	}
}

func TestNormalizeRepairsDocument(t *testing.T) {
	p := &Profile{
		Flips:    -4,
		Likes:    []MinimalItem{{ID: 1}, {ID: 1, Title: "dup"}, {ID: 2}},
		Watched:  []MinimalItem{{ID: 5}, {ID: 6}},
		Ratings:  map[int]int{5: 9, 6: -1, 77: 4},
		SeenIDs:  []int{3, 3},
		Intent:   &Intent{Keywords: []string{"Space", "space", " ", "Heist"}},
		Dislikes: nil,
	}
	p.Normalize()

	if p.Flips != 0 {
		t.Errorf("Flips = %d, want 0", p.Flips)
	}
	if len(p.Likes) != 2 || p.Likes[0].Title != "" {
		t.Errorf("Likes = %+v, want first occurrence of each id", p.Likes)
	}
	if p.Ratings[5] != MaxRating || p.Ratings[6] != MinRating {
		t.Errorf("ratings not clamped: %v", p.Ratings)
	}
	if _, ok := p.Ratings[77]; ok {
		t.Error("orphan rating kept")
	}
	wantSeen := []int{3, 1, 2, 5, 6}
	if !reflect.DeepEqual(p.SeenIDs, wantSeen) {
		t.Errorf("SeenIDs = %v, want %v", p.SeenIDs, wantSeen)
	}
	if !reflect.DeepEqual(p.Intent.Keywords, []string{"space", "heist"}) {
		t.Errorf("Keywords = %v", p.Intent.Keywords)
	}
	if p.Version != ProfileVersion {
		t.Errorf("Version = %d", p.Version)
	}
	checkInvariants(t, p)
}

func TestApplyWatchedDefaultsRating(t *testing.T) {
	p := NewProfile()
	p.Apply(Item{ID: 7}, DecisionWatched, true, time.Now())

	if got := p.Ratings[7]; got != DefaultRating {
		t.Errorf("rating = %d, want %d", got, DefaultRating)
	}
	if p.Flips != 1 {
		t.Errorf("Flips = %d, want 1", p.Flips)
	}
}

func TestApplyUnknownTypeIsNoop(t *testing.T) {
	p := NewProfile()
	before := p.Clone()

	if p.Apply(Item{ID: 1}, "superlike", true, time.Now()) {
		t.Error("Apply() with unknown type returned true")
	}
	if !reflect.DeepEqual(before, p) {
		t.Error("profile changed after unknown decision type")
	}
}

func TestRevertAndAbandonRestoreProfile(t *testing.T) {
	for _, dt := range []DecisionType{DecisionLike, DecisionDislike, DecisionWatched, DecisionBookmark} {
		t.Run(string(dt), func(t *testing.T) {
			p := NewProfile()
			now := time.Unix(1700000000, 0)
			p.Apply(Item{ID: 1, GenreIDs: []int{1}}, DecisionLike, true, now)
			before := p.Clone()

			seenBefore := p.IsSeen(42)
			p.Apply(Item{ID: 42, GenreIDs: []int{3}}, dt, true, now)
			p.Revert(42, dt)
			p.Abandon(42, seenBefore)

			if !reflect.DeepEqual(before, p) {
				t.Errorf("profile not restored:\nbefore %+v\nafter  %+v", before, p)
			}
		})
	}
}

func TestAbandonKeepsPreviouslySeenID(t *testing.T) {
	p := NewProfile()
	p.SeenIDs = []int{42}
	p.Normalize()

	p.Apply(Item{ID: 42}, DecisionLike, true, time.Now())
	p.Revert(42, DecisionLike)
	p.Abandon(42, true)

	if !p.IsSeen(42) {
		t.Error("id seen before the decision left the seen set")
	}
	if p.Flips != 0 {
		t.Errorf("Flips = %d, want 0", p.Flips)
	}
}

func TestRemoveAndClear(t *testing.T) {
	p := NewProfile()
	now := time.Now()
	p.Apply(Item{ID: 1}, DecisionWatched, true, now)
	p.Apply(Item{ID: 2}, DecisionWatched, true, now)
	p.SetRating(1, 5)

	if !p.Remove(ViewWatched, 1) {
		t.Fatal("Remove() returned false")
	}
	if _, ok := p.Ratings[1]; ok {
		t.Error("rating kept after removing watched item")
	}
	if !p.IsSeen(1) {
		t.Error("removed item left the seen set")
	}
	if p.Remove("favorites", 2) {
		t.Error("Remove() with unknown view returned true")
	}

	p.Clear(ViewWatched)
	if len(p.Watched) != 0 || len(p.Ratings) != 0 {
		t.Errorf("Clear() left watched=%v ratings=%v", p.Watched, p.Ratings)
	}
	if !p.IsExcluded(2) {
		t.Error("cleared item should still be excluded")
	}
}

func TestSetRating(t *testing.T) {
	p := NewProfile()
	p.Apply(Item{ID: 1}, DecisionWatched, true, time.Now())
	p.Apply(Item{ID: 2}, DecisionLike, true, time.Now())

	tests := []struct {
		id     int
		score  int
		wantOK bool
		want   int
	}{
		{id: 1, score: 4, wantOK: true, want: 4},
		{id: 1, score: 12, wantOK: true, want: 5},
		{id: 1, score: 0, wantOK: true, want: 1},
		{id: 2, score: 4, wantOK: false},
		{id: 99, score: 4, wantOK: false},
	}

	for _, tt := range tests {
		ok := p.SetRating(tt.id, tt.score)
		if ok != tt.wantOK {
			t.Errorf("SetRating(%d, %d) = %v, want %v", tt.id, tt.score, ok, tt.wantOK)
		}
		if ok && p.Rating(tt.id) != tt.want {
			t.Errorf("Rating(%d) = %d, want %d", tt.id, p.Rating(tt.id), tt.want)
		}
	}
	if _, ok := p.Ratings[2]; ok {
		t.Error("rating stored for a non-watched id")
	}
}

func TestMoveToWatched(t *testing.T) {
	p := NewProfile()
	p.Apply(Item{ID: 3, Title: "Alien"}, DecisionBookmark, true, time.Now())

	if !p.MoveToWatched(3) {
		t.Fatal("MoveToWatched() returned false")
	}
	if p.Has(ViewBookmarks, 3) || !p.Has(ViewWatched, 3) {
		t.Errorf("item not moved: bookmarks=%v watched=%v", p.Bookmarks, p.Watched)
	}
	if p.Rating(3) != DefaultRating {
		t.Errorf("rating = %d, want default", p.Rating(3))
	}
	if p.MoveToWatched(3) {
		t.Error("second MoveToWatched() should be a no-op")
	}
	checkInvariants(t, p)
}

func TestCloneIsDeep(t *testing.T) {
	p := NewProfile()
	p.Apply(Item{ID: 1, GenreIDs: []int{5}}, DecisionLike, true, time.Now())
	p.SetIntent("friends", []string{"funny"}, KeywordTable{"funny": {"comedy"}}, time.Now())

	c := p.Clone()
	c.Likes[0].GenreIDs[0] = 99
	c.Intent.Keywords[0] = "changed"
	c.SeenIDs[0] = 1000

	if p.Likes[0].GenreIDs[0] != 5 || p.Intent.Keywords[0] != "comedy" || p.SeenIDs[0] != 1 {
		t.Error("mutating the clone changed the original")
	}
}
