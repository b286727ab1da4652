package segment

import "github.com/zeebo/xxh3"

// Posting is one (doc, positions) occurrence of a term within a segment.
type Posting struct {
	LocalDocID uint32
	Positions  []uint32
}

// postingList is the ordered list of postings for a single term within one
// segment, oldest write first. The query evaluator reads these back in
// reverse (newest first) order; see internal/search.
type postingList struct {
	postings []Posting
}

// postingsDict is the segment's in-memory term dictionary. spec.md keeps
// term dictionaries and postings regions opaque to the coordinator, so
// this stays deliberately simple: a bucketed hash map rather than a
// persisted trie or FST.
//
// Terms are bucketed by their xxh3 hash before the map lookup; with the
// small number of distinct terms a single segment typically holds this
// buys nothing algorithmically, but it mirrors how Epokhe-bitdb's
// key set keys its membership hashing and keeps a real use for xxh3 in
// the dependency graph rather than a decorative import.
type postingsDict struct {
	buckets map[uint64]map[string]*postingList
}

func newPostingsDict() *postingsDict {
	return &postingsDict{buckets: make(map[uint64]map[string]*postingList)}
}

func (d *postingsDict) bucket(term string) map[string]*postingList {
	h := xxh3.HashString(term)
	b, ok := d.buckets[h]
	if !ok {
		b = make(map[string]*postingList)
		d.buckets[h] = b
	}
	return b
}

// add records one term occurrence for localDocID.
func (d *postingsDict) add(term string, localDocID uint32, positions []uint32) {
	b := d.bucket(term)
	pl, ok := b[term]
	if !ok {
		pl = &postingList{}
		b[term] = pl
	}
	pl.postings = append(pl.postings, Posting{LocalDocID: localDocID, Positions: positions})
}

// lookup returns the posting list for term, or nil if the term never
// occurred in this segment.
func (d *postingsDict) lookup(term string) []Posting {
	h := xxh3.HashString(term)
	b, ok := d.buckets[h]
	if !ok {
		return nil
	}
	pl, ok := b[term]
	if !ok {
		return nil
	}
	return pl.postings
}
