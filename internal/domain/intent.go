package domain

import (
	"math/rand/v2"
	"slices"
	"strings"
	"time"
)

// MaxIntentKeywords caps the keywords derived from an intent.
const MaxIntentKeywords = 10

// Intent is the optional mood signal that biases the swipe queue order.
type Intent struct {
	Who        string    `json:"who"`
	Categories []string  `json:"categories"`
	Keywords   []string  `json:"keywords"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// KeywordTable maps a category tag to the keywords it stands for.
type KeywordTable map[string][]string

// Known returns the normalized categories present in the table, in input order.
func (t KeywordTable) Known(categories []string) []string {
	out := make([]string, 0, len(categories))
	for _, c := range normalizeTags(categories) {
		if _, ok := t[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Keywords derives at most MaxIntentKeywords keywords from categories.
// Categories contribute in turns so a long first list cannot crowd out the rest.
func (t KeywordTable) Keywords(categories []string) []string {
	lists := make([][]string, 0, len(categories))
	longest := 0
	for _, c := range t.Known(categories) {
		kw := NormalizeKeywords(t[c])
		lists = append(lists, kw)
		longest = max(longest, len(kw))
	}

	var merged []string
	for i := 0; i < longest; i++ {
		for _, kw := range lists {
			if i < len(kw) {
				merged = append(merged, kw[i])
			}
		}
	}
	return NormalizeKeywords(merged)
}

// NormalizeKeywords lower-cases, trims and deduplicates keywords and keeps
// the first MaxIntentKeywords.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, min(len(keywords), MaxIntentKeywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || slices.Contains(out, k) {
			continue
		}
		out = append(out, k)
		if len(out) == MaxIntentKeywords {
			break
		}
	}
	return out
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// FilterByIntentCategories orders the swipe pool by intent.
//
// Without keywords it returns a shuffled copy. Otherwise each item scores the
// number of keywords found (case-insensitive substring) in its title, overview
// and genre names; zero scores are dropped and the rest is stably sorted by
// score, highest first.
func FilterByIntentCategories(items []Item, keywords []string, genreName func(int) string, rng *rand.Rand) []Item {
	if len(keywords) == 0 {
		out := slices.Clone(items)
		shuffle(out, rng)
		return out
	}

	type match struct {
		item  Item
		count int
	}
	matches := make([]match, 0, len(items))
	for _, it := range items {
		text := searchableText(it, genreName)
		count := 0
		for _, kw := range keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				count++
			}
		}
		if count > 0 {
			matches = append(matches, match{item: it, count: count})
		}
	}

	slices.SortStableFunc(matches, func(a, b match) int { return b.count - a.count })

	out := make([]Item, len(matches))
	for i, m := range matches {
		out[i] = m.item
	}
	return out
}

func searchableText(it Item, genreName func(int) string) string {
	var b strings.Builder
	b.WriteString(it.Title)
	b.WriteByte(' ')
	b.WriteString(it.Overview)
	if genreName != nil {
		for _, g := range it.GenreIDs {
			if name := genreName(g); name != "" {
				b.WriteByte(' ')
				b.WriteString(name)
			}
		}
	}
	return strings.ToLower(b.String())
}

func shuffle(items []Item, rng *rand.Rand) {
	swap := func(i, j int) { items[i], items[j] = items[j], items[i] }
	if rng == nil {
		rand.Shuffle(len(items), swap)
		return
	}
	rng.Shuffle(len(items), swap)
}
