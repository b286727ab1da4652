package segment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempSegmentPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "segment_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "seg")
}

func entryOf(terms ...string) Entry {
	e := Entry{}
	for i, term := range terms {
		e.Tokens = append(e.Tokens, Token{Term: term, Positions: []uint32{uint32(i)}})
	}
	return e
}

// TestSegmentWriteAndQuery exercises grabbing doc ids, writing entries,
// and reading the resulting postings back, mirroring the teacher's
// TestSegment (newSegment, Append, Read, IsMaxed).
func TestSegmentWriteAndQuery(t *testing.T) {
	path := tempSegmentPath(t)

	s, err := Create(path, 1<<20)
	require.NoError(t, err)
	require.False(t, Exists(path+"-missing"))
	require.True(t, Exists(path))

	require.Equal(t, uint32(0), s.NumDocs())

	for i := 0; i < 3; i++ {
		docID := s.GrabDocID()
		require.Equal(t, uint32(i+1), docID)
		require.NoError(t, s.WriteEntry(entryOf("apple", "banana"), docID))
	}

	require.Equal(t, uint32(3), s.NumDocs())

	postings := s.Postings("apple")
	require.Len(t, postings, 3)
	require.Equal(t, uint32(1), postings[0].LocalDocID)
	require.Equal(t, uint32(3), postings[2].LocalDocID)

	require.Nil(t, s.Postings("nonexistent"))

	require.NoError(t, s.Unload())
}

// TestSegmentEnsureFit exercises the free-space accounting AddEntry's
// rollover decision is built on.
func TestSegmentEnsureFit(t *testing.T) {
	path := tempSegmentPath(t)

	s, err := Create(path, 64)
	require.NoError(t, err)
	defer s.Unload()

	small := entryOf("a")
	require.True(t, s.EnsureFit(SizeofPostingsBytes(small)))

	huge := Entry{}
	for i := 0; i < 100; i++ {
		huge.Tokens = append(huge.Tokens, Token{Term: "verylongtermvalue", Positions: []uint32{1, 2, 3, 4, 5}})
	}
	require.False(t, s.EnsureFit(SizeofPostingsBytes(huge)))
}

// TestSegmentLabels exercises label add/remove and persistence across a
// Load.
func TestSegmentLabels(t *testing.T) {
	path := tempSegmentPath(t)

	s, err := Create(path, 1<<20)
	require.NoError(t, err)

	doc1 := s.GrabDocID()
	require.NoError(t, s.WriteEntry(entryOf("x"), doc1))
	doc2 := s.GrabDocID()
	require.NoError(t, s.WriteEntry(entryOf("y"), doc2))

	require.NoError(t, s.AddLabel("starred", doc1))
	require.NoError(t, s.AddLabel("starred", doc2))
	require.NoError(t, s.RemoveLabel("starred", doc2))

	require.NoError(t, s.Unload())

	reloaded, err := Load(path)
	require.NoError(t, err)
	defer reloaded.Unload()

	require.Equal(t, uint32(2), reloaded.NumDocs())
	require.ElementsMatch(t, []string{"starred"}, reloaded.labels.Names())
	require.True(t, reloaded.labels.bitmaps["starred"].Contains(doc1))
	require.False(t, reloaded.labels.bitmaps["starred"].Contains(doc2))

	// postings survive the round trip too.
	postings := reloaded.Postings("x")
	require.Len(t, postings, 1)
	require.Equal(t, doc1, postings[0].LocalDocID)
}

// TestSegmentDelete exercises the path-level Delete operation.
func TestSegmentDelete(t *testing.T) {
	path := tempSegmentPath(t)

	s, err := Create(path, 1<<20)
	require.NoError(t, err)
	require.NoError(t, s.AddLabel("x", s.GrabDocID()))
	require.NoError(t, s.Unload())

	require.True(t, Exists(path))
	require.NoError(t, Delete(path))
	require.False(t, Exists(path))
}
