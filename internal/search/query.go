// Package search implements the query evaluator spec.md treats as an
// external, opaque collaborator. It performs no ranking (a non-goal of
// the coordinator that consumes it): a query is a single term, and
// results are the term's postings within a segment, most-recently-written
// document first.
package search

import "github.com/segdex/segdex/internal/segment"

// Query is the smallest possible query evaluator input: a single term to
// match. The coordinator only ever sees this as an opaque object it
// passes to InitSearchState / RunQueryOnSegment.
type Query struct {
	Term string
}

// SearchState is the per-segment evaluation state the coordinator's query
// cursor carries across resumable RunQuery calls. It is opaque to the
// coordinator beyond the four lifecycle operations below.
type SearchState struct {
	postings []segment.Posting
	pos      int // next unread posting, counting down from the end (LIFO)
}

// InitSearchState begins evaluating query against seg, positioning the
// state at the newest matching document.
func InitSearchState(query *Query, seg *segment.Segment) (*SearchState, error) {
	postings := seg.Postings(query.Term)
	return &SearchState{
		postings: postings,
		pos:      len(postings) - 1,
	}, nil
}

// RunQueryOnSegment yields up to want more results from state, newest
// first. It returns fewer than want once the segment's postings for this
// term are exhausted.
func RunQueryOnSegment(state *SearchState, want int) ([]uint32, error) {
	results := make([]uint32, 0, want)
	for len(results) < want && state.pos >= 0 {
		results = append(results, state.postings[state.pos].LocalDocID)
		state.pos--
	}
	return results, nil
}

// ReleaseSearchState releases per-segment evaluation state. The evaluator
// here holds no external resources, so this only drops the state's
// reference to the posting list; it is kept for symmetry with the
// init/run/release lifecycle the coordinator drives.
func ReleaseSearchState(state *SearchState) {
	state.postings = nil
}

// ResultFree releases the resources backing a single result. Results are
// plain uint32 local doc ids in this evaluator, so there is nothing to
// free; kept for parity with the operation spec.md names.
func ResultFree(uint32) {}
