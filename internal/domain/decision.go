package domain

// DecisionType is the terminal choice a user makes on a card.
type DecisionType string

const (
	DecisionLike     DecisionType = "like"
	DecisionDislike  DecisionType = "dislike"
	DecisionWatched  DecisionType = "watched"
	DecisionBookmark DecisionType = "bookmark"
)

// Valid reports whether t is one of the known decision types.
func (t DecisionType) Valid() bool {
	switch t {
	case DecisionLike, DecisionDislike, DecisionWatched, DecisionBookmark:
		return true
	}
	return false
}

// View returns the profile list a decision lands in.
func (t DecisionType) View() View {
	switch t {
	case DecisionLike:
		return ViewLikes
	case DecisionDislike:
		return ViewDislikes
	case DecisionWatched:
		return ViewWatched
	case DecisionBookmark:
		return ViewBookmarks
	}
	return ""
}

// View names one of the four id-keyed profile lists.
type View string

const (
	ViewLikes     View = "likes"
	ViewDislikes  View = "dislikes"
	ViewWatched   View = "watched"
	ViewBookmarks View = "bookmarks"
)

// Views lists every view in display order.
var Views = []View{ViewWatched, ViewBookmarks, ViewLikes, ViewDislikes}

func (v View) Valid() bool {
	switch v {
	case ViewLikes, ViewDislikes, ViewWatched, ViewBookmarks:
		return true
	}
	return false
}

// DecisionRecord is an in-memory snapshot of a committed decision.
// SeenBefore tells whether the id was already in the seen set before the
// decision was first applied.
type DecisionRecord struct {
	Item       Item
	Type       DecisionType
	SeenBefore bool
}
