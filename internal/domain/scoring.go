package domain

import (
	"cmp"
	"slices"
)

const (
	// Genre weight contributions
	WeightLike        = 2.0
	WeightDislike     = -2.0
	WeightWatchedBase = 1.0 // a neutral (3 star) watch
	WeightRatingStep  = 1.2 // per star above or below neutral

	// Item score contributions
	ScoreVoteWeight       = 0.18
	ScorePopularityWeight = 0.002

	// TopGenreFloor excludes genres the user is lukewarm or negative about
	TopGenreFloor = -0.5

	DefaultTopGenres           = 3
	DefaultRecommendationLimit = 12
)

// GenreWeights maps a genre id to an accumulated taste weight.
type GenreWeights map[int]float64

// Candidate is a scored recommendation.
type Candidate struct {
	Item  Item
	Score float64
}

// BuildGenreWeights turns the profile decisions into per-genre weights.
// Bookmarks are a to-watch signal and do not contribute.
func BuildGenreWeights(p *Profile) GenreWeights {
	w := GenreWeights{}
	if p == nil {
		return w
	}
	for _, m := range p.Likes {
		for _, g := range m.GenreIDs {
			w[g] += WeightLike
		}
	}
	for _, m := range p.Dislikes {
		for _, g := range m.GenreIDs {
			w[g] += WeightDislike
		}
	}
	for _, m := range p.Watched {
		contrib := watchedWeight(p.Rating(m.ID))
		for _, g := range m.GenreIDs {
			w[g] += contrib
		}
	}
	return w
}

func watchedWeight(rating int) float64 {
	return WeightWatchedBase + float64(rating-DefaultRating)*WeightRatingStep
}

// ScoreItem scores an item against the genre weights.
func ScoreItem(item Item, w GenreWeights) float64 {
	var score float64
	for _, g := range item.GenreIDs {
		score += w[g]
	}
	score += ScoreVoteWeight * item.VoteAverage
	score += ScorePopularityWeight * item.Popularity
	return score
}

// SelectTopGenres returns up to k genres with the highest weights above
// TopGenreFloor. Equal weights are ordered by genre id. An empty result means
// the recommendation query is not narrowed by genre.
func SelectTopGenres(w GenreWeights, k int) []int {
	if k <= 0 {
		return nil
	}
	ids := make([]int, 0, len(w))
	for g, weight := range w {
		if weight > TopGenreFloor {
			ids = append(ids, g)
		}
	}
	slices.SortFunc(ids, func(a, b int) int {
		if c := cmp.Compare(w[b], w[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(ids) > k {
		ids = ids[:k]
	}
	return ids
}

// RankRecommendations filters excluded items, scores the rest and returns the
// best limit candidates. Equal scores keep their pool order.
func RankRecommendations(pool []Item, w GenreWeights, isExcluded func(id int) bool, limit int) []Candidate {
	candidates := make([]Candidate, 0, len(pool))
	for _, it := range pool {
		if isExcluded != nil && isExcluded(it.ID) {
			continue
		}
		candidates = append(candidates, Candidate{Item: it, Score: ScoreItem(it, w)})
	}

	sortCandidates(candidates)

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// sortCandidates sorts candidates by score (descending), keeping input order on ties
func sortCandidates(candidates []Candidate) {
	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})
}
