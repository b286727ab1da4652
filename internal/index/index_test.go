package index

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/segdex/segdex/internal/segment"
	"github.com/stretchr/testify/require"
)

func tempBase(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "index_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "t1_")
}

func entryFor(term string) segment.Entry {
	return segment.Entry{Tokens: []segment.Token{{Term: term, Positions: []uint32{0}}}}
}

// TestBasicIngestionAndQuery is scenario S1: three entries in one segment,
// queried back in reverse-insertion order.
func TestBasicIngestionAndQuery(t *testing.T) {
	base := tempBase(t)

	idx, err := Create(base)
	require.NoError(t, err)
	defer idx.Free()

	for i, want := range []uint64{1, 2, 3} {
		got, err := idx.AddEntry(entryFor("match"))
		require.NoError(t, err)
		require.Equal(t, want, got, "entry %d", i)
	}

	q := NewQuery("match")
	idx.SetupQuery(q)
	results, err := idx.RunQuery(q, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 2, 1}, results)
	idx.TeardownQuery(q)
}

// TestRollover is scenario S2: a segment capacity small enough that the
// third entry triggers rollover, with a reload producing identical state.
func TestRollover(t *testing.T) {
	base := tempBase(t)

	// sized to fit exactly two of these tiny entries per segment.
	idx, err := Create(base, WithSegmentCapacityBytes(2*segment.SizeofPostingsBytes(entryFor("match"))))
	require.NoError(t, err)

	id1, err := idx.AddEntry(entryFor("match"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), id1)

	id2, err := idx.AddEntry(entryFor("match"))
	require.NoError(t, err)
	require.Equal(t, uint64(2), id2)

	id3, err := idx.AddEntry(entryFor("match"))
	require.NoError(t, err)
	require.Equal(t, uint64(3), id3)

	require.Len(t, idx.entries, 2)
	require.Equal(t, uint64(0), idx.entries[0].offset)
	require.Equal(t, uint64(2), idx.entries[1].offset)
	require.Equal(t, uint64(3), idx.NumDocs())

	require.NoError(t, idx.Free())

	reloaded, err := Load(base)
	require.NoError(t, err)
	defer reloaded.Free()

	require.Len(t, reloaded.entries, 2)
	require.Equal(t, uint64(0), reloaded.entries[0].offset)
	require.Equal(t, uint64(2), reloaded.entries[1].offset)
	require.Equal(t, uint64(3), reloaded.NumDocs())
}

// TestBatchedQueryAcrossRollover is scenario S3. With this capacity, three
// entries land as segment 0 (offset 0, docs 1-2) and segment 1 (offset 2,
// doc 3). RunQuery keeps pulling within a single call until it either
// fills maxResults or drains the whole index, per spec.md §4.4's loop, so
// a batch of 2 crosses the segment boundary mid-call: the first call
// drains all of segment 1 (doc 3) and takes one more result from segment
// 0 (doc 2) to reach its batch size, leaving only doc 1 for the second
// call.
func TestBatchedQueryAcrossRollover(t *testing.T) {
	base := tempBase(t)

	idx, err := Create(base, WithSegmentCapacityBytes(2*segment.SizeofPostingsBytes(entryFor("match"))))
	require.NoError(t, err)
	defer idx.Free()

	for i := 0; i < 3; i++ {
		_, err := idx.AddEntry(entryFor("match"))
		require.NoError(t, err)
	}

	q := NewQuery("match")
	idx.SetupQuery(q)

	first, err := idx.RunQuery(q, 2)
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 2}, first)

	second, err := idx.RunQuery(q, 2)
	require.NoError(t, err)
	require.Equal(t, []uint64{1}, second)

	third, err := idx.RunQuery(q, 2)
	require.NoError(t, err)
	require.Empty(t, third)

	idx.TeardownQuery(q)

	seen := append(append([]uint64{}, first...), second...)
	require.ElementsMatch(t, []uint64{1, 2, 3}, seen)
}

// TestLabelRouting is scenario S4.
func TestLabelRouting(t *testing.T) {
	base := tempBase(t)

	idx, err := Create(base, WithSegmentCapacityBytes(2*segment.SizeofPostingsBytes(entryFor("match"))))
	require.NoError(t, err)
	defer idx.Free()

	for i := 0; i < 3; i++ {
		_, err := idx.AddEntry(entryFor("match"))
		require.NoError(t, err)
	}

	require.NoError(t, idx.AddLabel("starred", 2))
	require.NoError(t, idx.AddLabel("starred", 3))

	err = idx.AddLabel("starred", 99)
	require.ErrorIs(t, err, ErrDocNotFound)

	err = idx.AddLabel("starred", 0)
	require.ErrorIs(t, err, ErrDocNotFound)
}

// TestCreateCollisionAndLoadNotFound is scenario S5.
func TestCreateCollisionAndLoadNotFound(t *testing.T) {
	base := tempBase(t)

	idx, err := Create(base)
	require.NoError(t, err)
	defer idx.Free()

	_, err = Create(base)
	require.ErrorIs(t, err, ErrAlreadyExists)

	emptyBase := tempBase(t)
	_, err = Load(emptyBase)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestDelete is scenario S6.
func TestDelete(t *testing.T) {
	base := tempBase(t)

	idx, err := Create(base, WithSegmentCapacityBytes(2*segment.SizeofPostingsBytes(entryFor("match"))))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := idx.AddEntry(entryFor("match"))
		require.NoError(t, err)
	}
	require.NoError(t, idx.Free())

	require.NoError(t, Delete(base))

	_, err = Load(base)
	require.ErrorIs(t, err, ErrNotFound)

	recreated, err := Create(base)
	require.NoError(t, err)
	require.NoError(t, recreated.Free())
}

// TestEmptyIndexQuery covers the boundary behavior: querying a single,
// empty segment for a term with no matches still initializes the cursor
// against that segment, finds it immediately exhausted, and — since it is
// segment 0 — transitions straight to done, per spec.md §4.4's own
// "segment 0 drained -> DONE" transition.
func TestEmptyIndexQuery(t *testing.T) {
	base := tempBase(t)
	idx, err := Create(base)
	require.NoError(t, err)
	defer idx.Free()

	q := NewQuery("nothing-matches")
	idx.SetupQuery(q)
	results, err := idx.RunQuery(q, 10)
	require.NoError(t, err)
	require.Empty(t, results)
	require.Equal(t, cursorDone, q.cursor.state)
}

// TestCountResultsMatchesRunQuery is the round-trip law: count_results
// agrees with the union of batched run_query calls for any batch size.
func TestCountResultsMatchesRunQuery(t *testing.T) {
	base := tempBase(t)
	idx, err := Create(base, WithSegmentCapacityBytes(2*segment.SizeofPostingsBytes(entryFor("match"))))
	require.NoError(t, err)
	defer idx.Free()

	for i := 0; i < 7; i++ {
		_, err := idx.AddEntry(entryFor("match"))
		require.NoError(t, err)
	}

	for _, batch := range []int{1, 2, 3, 100} {
		q := NewQuery("match")
		idx.SetupQuery(q)
		var all []uint64
		for {
			got, err := idx.RunQuery(q, batch)
			require.NoError(t, err)
			all = append(all, got...)
			if len(got) < batch {
				break
			}
		}
		idx.TeardownQuery(q)
		require.Len(t, all, 7, "batch size %d", batch)

		countQ := NewQuery("match")
		count, err := idx.CountResults(countQ)
		require.NoError(t, err)
		require.Equal(t, 7, count, "batch size %d", batch)
	}
}

// TestAddEntryIDsAreSequential is invariant 2: the j-th add_entry on a
// fresh index returns id j.
func TestAddEntryIDsAreSequential(t *testing.T) {
	base := tempBase(t)
	idx, err := Create(base)
	require.NoError(t, err)
	defer idx.Free()

	for j := uint64(1); j <= 10; j++ {
		got, err := idx.AddEntry(entryFor("x"))
		require.NoError(t, err)
		require.Equal(t, j, got)
	}
}

// TestFreshSegmentTooSmall exercises the fatal rollover failure path.
func TestFreshSegmentTooSmall(t *testing.T) {
	base := tempBase(t)
	idx, err := Create(base, WithSegmentCapacityBytes(1))
	require.NoError(t, err)
	defer idx.Free()

	_, err = idx.AddEntry(entryFor("this-will-never-fit"))
	require.True(t, errors.Is(err, ErrFreshSegmentTooSmall))
}

// TestDumpInfo exercises the diagnostic sink.
func TestDumpInfo(t *testing.T) {
	base := tempBase(t)
	idx, err := Create(base)
	require.NoError(t, err)
	defer idx.Free()

	_, err = idx.AddEntry(entryFor("match"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, idx.DumpInfo(&buf))
	require.Contains(t, buf.String(), "index has 1 segments")
	require.Contains(t, buf.String(), "segment 0:")
}

// TestUnloadIdempotent exercises that Free/Unload can be called
// repeatedly without error.
func TestUnloadIdempotent(t *testing.T) {
	base := tempBase(t)
	idx, err := Create(base)
	require.NoError(t, err)

	require.NoError(t, idx.Unload())
	require.NoError(t, idx.Unload())
	require.NoError(t, idx.Free())
}
