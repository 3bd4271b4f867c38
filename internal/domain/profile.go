package domain

import (
	"slices"
	"time"
)

const (
	// ProfileVersion is written into every persisted document.
	ProfileVersion = 1

	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 3
)

// Profile is the durable aggregate of user taste.
//
// Invariants, re-established by Normalize after every mutation:
//   - SeenIDs contains every id present in Likes, Dislikes, Watched and Bookmarks
//   - each list holds an id at most once (first occurrence wins)
//   - Ratings only has entries for watched ids, each within [MinRating, MaxRating]
//   - Flips is never negative
type Profile struct {
	Version int `json:"version"`

	// ─────────────────────────────
	// Decisions
	// ─────────────────────────────

	// Flips counts committed decisions that advanced the session.
	// A redo after undo does not count again.
	Flips int `json:"flips"`

	Likes     []MinimalItem `json:"likes"`
	Dislikes  []MinimalItem `json:"dislikes"`
	Watched   []MinimalItem `json:"watched"`
	Bookmarks []Bookmark    `json:"bookmarks"`

	// Ratings maps a watched id to its 1..5 score.
	Ratings map[int]int `json:"ratings"`

	// SeenIDs is the set of ids never offered again.
	SeenIDs []int `json:"seenIds"`

	// ─────────────────────────────
	// Steering
	// ─────────────────────────────

	Intent           *Intent `json:"intent,omitempty"`
	IntentPromptDone bool    `json:"intentPromptDone"`

	seen map[int]struct{}
}

// NewProfile returns an empty, valid profile.
func NewProfile() *Profile {
	p := &Profile{}
	p.Normalize()
	return p
}

// Normalize repairs a profile in place so that every invariant holds.
// It is safe to call on a zero value or on a freshly decoded document.
func (p *Profile) Normalize() {
	p.Version = ProfileVersion
	if p.Flips < 0 {
		p.Flips = 0
	}

	p.Likes = dedupeMinimal(p.Likes)
	p.Dislikes = dedupeMinimal(p.Dislikes)
	p.Watched = dedupeMinimal(p.Watched)
	p.Bookmarks = dedupeBookmarks(p.Bookmarks)

	watched := make(map[int]struct{}, len(p.Watched))
	for _, m := range p.Watched {
		watched[m.ID] = struct{}{}
	}
	ratings := make(map[int]int, len(p.Watched))
	for id := range watched {
		r, ok := p.Ratings[id]
		if !ok {
			r = DefaultRating
		}
		ratings[id] = clampRating(r)
	}
	p.Ratings = ratings

	p.seen = make(map[int]struct{}, len(p.SeenIDs))
	seenIDs := make([]int, 0, len(p.SeenIDs))
	addSeen := func(id int) {
		if _, ok := p.seen[id]; ok {
			return
		}
		p.seen[id] = struct{}{}
		seenIDs = append(seenIDs, id)
	}
	for _, id := range p.SeenIDs {
		addSeen(id)
	}
	for _, list := range [][]MinimalItem{p.Likes, p.Dislikes, p.Watched} {
		for _, m := range list {
			addSeen(m.ID)
		}
	}
	for _, b := range p.Bookmarks {
		addSeen(b.ID)
	}
	p.SeenIDs = seenIDs

	if p.Intent != nil {
		p.Intent.Categories = normalizeTags(p.Intent.Categories)
		p.Intent.Keywords = NormalizeKeywords(p.Intent.Keywords)
	}
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	c := &Profile{
		Version:          p.Version,
		Flips:            p.Flips,
		Likes:            cloneMinimal(p.Likes),
		Dislikes:         cloneMinimal(p.Dislikes),
		Watched:          cloneMinimal(p.Watched),
		Bookmarks:        make([]Bookmark, len(p.Bookmarks)),
		Ratings:          make(map[int]int, len(p.Ratings)),
		SeenIDs:          slices.Clone(p.SeenIDs),
		IntentPromptDone: p.IntentPromptDone,
	}
	for i, b := range p.Bookmarks {
		c.Bookmarks[i] = Bookmark{MinimalItem: cloneOne(b.MinimalItem), BookmarkedAt: b.BookmarkedAt}
	}
	for k, v := range p.Ratings {
		c.Ratings[k] = v
	}
	if p.Intent != nil {
		in := *p.Intent
		in.Categories = slices.Clone(p.Intent.Categories)
		in.Keywords = slices.Clone(p.Intent.Keywords)
		c.Intent = &in
	}
	c.seen = make(map[int]struct{}, len(c.SeenIDs))
	for _, id := range c.SeenIDs {
		c.seen[id] = struct{}{}
	}
	return c
}

// IsSeen reports whether id is in the seen set.
func (p *Profile) IsSeen(id int) bool {
	if p.seen == nil {
		return slices.Contains(p.SeenIDs, id)
	}
	_, ok := p.seen[id]
	return ok
}

// IsExcluded reports whether id must never be offered again.
func (p *Profile) IsExcluded(id int) bool {
	if p.IsSeen(id) {
		return true
	}
	for _, v := range Views {
		if p.Has(v, id) {
			return true
		}
	}
	return false
}

// Has reports whether id is present in the given view.
func (p *Profile) Has(v View, id int) bool {
	switch v {
	case ViewLikes:
		return indexMinimal(p.Likes, id) >= 0
	case ViewDislikes:
		return indexMinimal(p.Dislikes, id) >= 0
	case ViewWatched:
		return indexMinimal(p.Watched, id) >= 0
	case ViewBookmarks:
		return indexBookmark(p.Bookmarks, id) >= 0
	}
	return false
}

// Rating returns the rating of a watched id, DefaultRating when unset.
func (p *Profile) Rating(id int) int {
	if r, ok := p.Ratings[id]; ok {
		return r
	}
	return DefaultRating
}

// Apply records a decision. When countFlip is false the decision is a redo
// and Flips is left untouched. Unknown types are ignored.
func (p *Profile) Apply(item Item, t DecisionType, countFlip bool, now time.Time) bool {
	if !t.Valid() {
		return false
	}
	if countFlip {
		p.Flips++
	}
	p.SeenIDs = append(p.SeenIDs, item.ID)

	m := item.Minimal()
	switch t {
	case DecisionLike:
		p.Likes = append(p.Likes, m)
	case DecisionDislike:
		p.Dislikes = append(p.Dislikes, m)
	case DecisionWatched:
		p.Watched = append(p.Watched, m)
		if p.Ratings == nil {
			p.Ratings = make(map[int]int)
		}
		if _, ok := p.Ratings[item.ID]; !ok {
			p.Ratings[item.ID] = DefaultRating
		}
	case DecisionBookmark:
		p.Bookmarks = append(p.Bookmarks, Bookmark{MinimalItem: m, BookmarkedAt: now})
	}
	p.Normalize()
	return true
}

// Revert removes the effect of a decision on its list. Flips and the seen
// set are left alone: the decision is suspended, not abandoned.
func (p *Profile) Revert(id int, t DecisionType) bool {
	if !t.Valid() {
		return false
	}
	changed := p.Remove(t.View(), id)
	p.Normalize()
	return changed
}

// Abandon reverts the flip of a suspended decision. The id leaves the seen
// set unless it was seen before the decision or is still in a list.
func (p *Profile) Abandon(id int, seenBefore bool) {
	if p.Flips > 0 {
		p.Flips--
	}
	if !seenBefore && !p.inAnyList(id) {
		p.SeenIDs = slices.DeleteFunc(p.SeenIDs, func(s int) bool { return s == id })
	}
	p.Normalize()
}

// Remove drops id from a view. Watched removals also drop the rating.
// The id stays in the seen set.
func (p *Profile) Remove(v View, id int) bool {
	var changed bool
	switch v {
	case ViewLikes:
		p.Likes, changed = removeMinimal(p.Likes, id)
	case ViewDislikes:
		p.Dislikes, changed = removeMinimal(p.Dislikes, id)
	case ViewWatched:
		p.Watched, changed = removeMinimal(p.Watched, id)
		delete(p.Ratings, id)
	case ViewBookmarks:
		n := len(p.Bookmarks)
		p.Bookmarks = slices.DeleteFunc(p.Bookmarks, func(b Bookmark) bool { return b.ID == id })
		changed = len(p.Bookmarks) != n
	default:
		return false
	}
	p.Normalize()
	return changed
}

// Clear empties a view. Cleared ids stay in the seen set.
func (p *Profile) Clear(v View) bool {
	switch v {
	case ViewLikes:
		p.Likes = nil
	case ViewDislikes:
		p.Dislikes = nil
	case ViewWatched:
		p.Watched = nil
		p.Ratings = nil
	case ViewBookmarks:
		p.Bookmarks = nil
	default:
		return false
	}
	p.Normalize()
	return true
}

// SetRating sets the rating of a watched id, clamped to [MinRating, MaxRating].
// Ids that are not watched are ignored.
func (p *Profile) SetRating(id, score int) bool {
	if indexMinimal(p.Watched, id) < 0 {
		return false
	}
	if p.Ratings == nil {
		p.Ratings = make(map[int]int)
	}
	p.Ratings[id] = clampRating(score)
	return true
}

// MoveToWatched moves a bookmarked id into the watched list.
func (p *Profile) MoveToWatched(id int) bool {
	i := indexBookmark(p.Bookmarks, id)
	if i < 0 {
		return false
	}
	m := p.Bookmarks[i].MinimalItem
	p.Bookmarks = slices.Delete(p.Bookmarks, i, i+1)
	p.Watched = append(p.Watched, m)
	if p.Ratings == nil {
		p.Ratings = make(map[int]int)
	}
	if _, ok := p.Ratings[id]; !ok {
		p.Ratings[id] = DefaultRating
	}
	p.Normalize()
	return true
}

// SetIntent stores the intent and marks the prompt as resolved. Keywords are
// derived from the categories through table.
func (p *Profile) SetIntent(who string, categories []string, table KeywordTable, now time.Time) {
	cats := table.Known(categories)
	p.Intent = &Intent{
		Who:        who,
		Categories: cats,
		Keywords:   table.Keywords(cats),
		UpdatedAt:  now,
	}
	p.IntentPromptDone = true
	p.Normalize()
}

// SkipIntentPrompt resolves the intent prompt without storing an intent.
func (p *Profile) SkipIntentPrompt() {
	p.IntentPromptDone = true
}

// Keywords returns the intent keywords, nil without intent.
func (p *Profile) Keywords() []string {
	if p.Intent == nil {
		return nil
	}
	return p.Intent.Keywords
}

func (p *Profile) inAnyList(id int) bool {
	for _, v := range Views {
		if p.Has(v, id) {
			return true
		}
	}
	return false
}

func clampRating(r int) int {
	return min(max(r, MinRating), MaxRating)
}

func indexMinimal(list []MinimalItem, id int) int {
	return slices.IndexFunc(list, func(m MinimalItem) bool { return m.ID == id })
}

func indexBookmark(list []Bookmark, id int) int {
	return slices.IndexFunc(list, func(b Bookmark) bool { return b.ID == id })
}

func removeMinimal(list []MinimalItem, id int) ([]MinimalItem, bool) {
	n := len(list)
	list = slices.DeleteFunc(list, func(m MinimalItem) bool { return m.ID == id })
	return list, len(list) != n
}

func dedupeMinimal(list []MinimalItem) []MinimalItem {
	out := make([]MinimalItem, 0, len(list))
	seen := make(map[int]struct{}, len(list))
	for _, m := range list {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func dedupeBookmarks(list []Bookmark) []Bookmark {
	out := make([]Bookmark, 0, len(list))
	seen := make(map[int]struct{}, len(list))
	for _, b := range list {
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}
	return out
}

func cloneOne(m MinimalItem) MinimalItem {
	m.GenreIDs = slices.Clone(m.GenreIDs)
	return m
}

func cloneMinimal(list []MinimalItem) []MinimalItem {
	out := make([]MinimalItem, len(list))
	for i, m := range list {
		out[i] = cloneOne(m)
	}
	return out
}
