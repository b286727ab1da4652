package index

import "github.com/segdex/segdex/internal/search"

// cursorState is the tagged variant spec.md §9's Design Notes recommend in
// place of the original's two magic sentinel values layered onto the
// segment-index integer space (SEGMENT_UNINITIALIZED == MAX_SEGMENTS,
// SEGMENT_DONE == MAX_SEGMENTS + 1). segmentIdx on cursor is meaningful
// only when state == cursorAt.
type cursorState int

const (
	cursorUninitialized cursorState = iota
	cursorAt
	cursorDone
)

// cursor is the query cursor: per-query state recording which segment is
// currently being evaluated. It lives on Query, not on Index, so a single
// Index can drive several independent queries (spec.md's "no internal
// synchronization" applies to the Index, not to how many Query objects a
// caller juggles).
type cursor struct {
	state       cursorState
	segmentIdx  int
	searchState *search.SearchState
}

// Query pairs the opaque evaluator query (here, a single term) with its
// cursor.
type Query struct {
	Term   string
	cursor cursor
}

// NewQuery constructs a Query for term, with its cursor uninitialized.
func NewQuery(term string) *Query {
	return &Query{Term: term}
}
