package index

import "github.com/segdex/segdex/internal/search"

// countResultsBufferSize is the internal batch size CountResults drives
// RunQuery with, mirroring the original's RESULT_BUF_SIZE.
const countResultsBufferSize = 1024

// SetupQuery resets query's cursor to uninitialized without touching any
// segment state. It is idempotent.
func (idx *Index) SetupQuery(q *Query) {
	q.cursor = cursor{state: cursorUninitialized}
}

// RunQuery fills at most maxResults global doc ids, resuming from wherever
// the cursor on q left off. len(result) < maxResults means the query is
// now exhausted; len(result) == maxResults means the caller should call
// again for more.
//
// Segments are scanned newest first: all results from segment k appear
// before any from segment k-1, so the returned global ids are not
// globally monotonic even though within one segment they follow whatever
// order the evaluator chose.
func (idx *Index) RunQuery(q *Query, maxResults int) ([]uint64, error) {
	idx.metrics.queriesRun.Inc()

	results := make([]uint64, 0, maxResults)
	if len(idx.entries) == 0 {
		return results, nil
	}

	if q.cursor.state == cursorUninitialized {
		segIdx := len(idx.entries) - 1
		state, err := idx.initSearchStateFor(segIdx, q.Term)
		if err != nil {
			return nil, err
		}
		q.cursor = cursor{state: cursorAt, segmentIdx: segIdx, searchState: state}
	}

	for len(results) < maxResults && q.cursor.state != cursorDone {
		want := maxResults - len(results)

		segIdx := q.cursor.segmentIdx
		localIDs, err := search.RunQueryOnSegment(q.cursor.searchState, want)
		if err != nil {
			return nil, err
		}

		offset := idx.entries[segIdx].offset
		for _, local := range localIDs {
			results = append(results, offset+uint64(local))
		}

		if len(localIDs) < want {
			// this segment is drained; move to the next (older) one, or
			// finish if there is none.
			search.ReleaseSearchState(q.cursor.searchState)

			if segIdx > 0 {
				nextIdx := segIdx - 1
				state, err := idx.initSearchStateFor(nextIdx, q.Term)
				if err != nil {
					return nil, err
				}
				q.cursor = cursor{state: cursorAt, segmentIdx: nextIdx, searchState: state}
			} else {
				q.cursor = cursor{state: cursorDone}
			}
		}
	}

	return results, nil
}

// TeardownQuery releases any in-flight segment search state and resets
// the cursor to uninitialized. It is a no-op when already uninitialized or
// done, and idempotent.
func (idx *Index) TeardownQuery(q *Query) {
	if q.cursor.state == cursorAt {
		search.ReleaseSearchState(q.cursor.searchState)
	}
	q.cursor = cursor{state: cursorUninitialized}
}

// CountResults drives RunQuery to exhaustion with a fixed internal buffer,
// summing the counts, then tears down. It is O(total matches) with no
// short-circuit.
func (idx *Index) CountResults(q *Query) (int, error) {
	idx.SetupQuery(q)

	total := 0
	for {
		got, err := idx.RunQuery(q, countResultsBufferSize)
		if err != nil {
			idx.TeardownQuery(q)
			return total, err
		}
		total += len(got)
		if len(got) < countResultsBufferSize {
			break
		}
	}

	idx.TeardownQuery(q)
	return total, nil
}
