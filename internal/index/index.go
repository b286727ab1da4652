// Package index implements the segmented full-text index coordinator:
// lifecycle, ingestion with rollover, label routing by global doc id, and
// a resumable reverse-segment-order query driver. It is the sole
// deliverable spec.md describes; internal/segment and internal/search are
// its black-box collaborators.
package index

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/segdex/segdex/internal/search"
	"github.com/segdex/segdex/internal/segment"
	"go.uber.org/zap"
)

// segmentEntry couples one segment with the global doc id offset at which
// its local doc ids begin. spec.md models this as two parallel arrays
// (segments, docid_offsets); folding them into one slice of records, as
// its own Design Notes §9 suggest, makes "grew one array but not the
// other" structurally impossible.
type segmentEntry struct {
	seg    *segment.Segment
	offset uint64
}

// Index owns the segment array, the derived offset table, the base path,
// and the open/closed flag. Per spec.md §5, it performs no internal
// synchronization: a single Index instance must be driven by at most one
// logical actor at a time, the same discipline the teacher's Log type
// enforces with a sync.RWMutex is left to the caller here, by design.
type Index struct {
	base    string
	entries []segmentEntry
	open    bool

	cfg     Config
	metrics *indexMetrics
	logger  *zap.Logger
}

func segmentPath(base string, n int) string {
	return fmt.Sprintf("%s%d", base, n)
}

// Create makes a brand new index at base. It fails with ErrAlreadyExists
// if a segment already exists there.
func Create(base string, opts ...Option) (*Index, error) {
	cfg := newConfig(opts...)
	logger := zap.L().Named("index")

	if segment.Exists(segmentPath(base, 0)) {
		return nil, fmt.Errorf("create %s: %w", base, ErrAlreadyExists)
	}

	seg, err := segment.Create(segmentPath(base, 0), cfg.SegmentCapacityBytes)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", base, err)
	}

	idx := &Index{
		base:    base,
		entries: []segmentEntry{{seg: seg, offset: 0}},
		open:    true,
		cfg:     cfg,
		metrics: newIndexMetrics(cfg.Registerer),
		logger:  logger,
	}
	idx.metrics.segmentsCurrent.Set(1)
	logger.Debug("created index", zap.String("base", base))

	return idx, nil
}

// Load opens an existing index at base, discovering segments base0,
// base1, ... consecutively until a gap or Config.MaxSegments is reached.
// It fails with ErrNotFound if segment 0 does not exist.
func Load(base string, opts ...Option) (*Index, error) {
	cfg := newConfig(opts...)
	logger := zap.L().Named("index")

	if !segment.Exists(segmentPath(base, 0)) {
		return nil, fmt.Errorf("load %s: %w", base, ErrNotFound)
	}

	idx := &Index{
		base:    base,
		open:    true,
		cfg:     cfg,
		metrics: newIndexMetrics(cfg.Registerer),
		logger:  logger,
	}

	var offset uint64
	for n := 0; n < cfg.MaxSegments; n++ {
		path := segmentPath(base, n)
		if !segment.Exists(path) {
			break
		}

		seg, err := segment.Load(path)
		if err != nil {
			// Partial failures during load are fatal: release everything
			// opened so far before returning.
			idx.releaseSegments()
			return nil, fmt.Errorf("load %s: segment %d: %w", base, n, err)
		}

		logger.Debug("loaded segment", zap.String("path", path))
		idx.entries = append(idx.entries, segmentEntry{seg: seg, offset: offset})
		offset += uint64(seg.NumDocs())
	}

	idx.metrics.segmentsCurrent.Set(float64(len(idx.entries)))
	return idx, nil
}

// Delete removes every on-disk segment belonging to base. It operates on
// paths, not on a loaded index.
func Delete(base string) error {
	var result error
	for n := 0; ; n++ {
		path := segmentPath(base, n)
		if !segment.Exists(path) {
			break
		}
		if err := segment.Delete(path); err != nil {
			result = multierror.Append(result, fmt.Errorf("delete segment %d: %w", n, err))
		}
	}
	return result
}

func (idx *Index) releaseSegments() {
	for _, e := range idx.entries {
		_ = e.seg.Unload()
	}
}

// Unload releases each segment's resources in order and clears the open
// flag. It is idempotent: calling Unload again (including via Free) is a
// no-op. Failures to unload individual segments are aggregated rather
// than abandoning the rest, so a bad segment never strands its siblings'
// file handles open.
func (idx *Index) Unload() error {
	if !idx.open {
		return nil
	}

	var result error
	for _, e := range idx.entries {
		if err := e.seg.Unload(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	idx.open = false

	if result != nil {
		return fmt.Errorf("unload %s: %w", idx.base, result)
	}
	return nil
}

// Free unloads the index if still open and releases its in-memory state.
func (idx *Index) Free() error {
	err := idx.Unload()
	idx.entries = nil
	return err
}

func (idx *Index) tail() *segmentEntry {
	return &idx.entries[len(idx.entries)-1]
}

// AddEntry ingests entry into the tail segment, rolling over to a fresh
// segment first if it doesn't fit. It returns the newly assigned global
// doc id.
func (idx *Index) AddEntry(entry segment.Entry) (uint64, error) {
	tail := idx.tail()

	postingsBytes := segment.SizeofPostingsBytes(entry)
	if !tail.seg.EnsureFit(postingsBytes) {
		if err := idx.rollover(); err != nil {
			return 0, err
		}
		tail = idx.tail()
		if !tail.seg.EnsureFit(postingsBytes) {
			return 0, fmt.Errorf("add entry: %w", ErrFreshSegmentTooSmall)
		}
	}

	localDocID := tail.seg.GrabDocID()
	if err := tail.seg.WriteEntry(entry, localDocID); err != nil {
		return 0, fmt.Errorf("add entry: %w", err)
	}

	idx.metrics.entriesAdded.Inc()
	return tail.offset + uint64(localDocID), nil
}

// rollover grows the segment array and appends a fresh tail segment. The
// offset table entry for the new segment is computed from the previous
// tail's final doc count, after that count is stable (the previous tail
// is never written to again once rollover starts).
func (idx *Index) rollover() error {
	if len(idx.entries) >= idx.cfg.MaxSegments {
		return fmt.Errorf("rollover %s: %w", idx.base, ErrOutOfMemory)
	}

	prev := idx.tail()
	newOffset := prev.offset + uint64(prev.seg.NumDocs())
	newIdx := len(idx.entries)

	seg, err := segment.Create(segmentPath(idx.base, newIdx), idx.cfg.SegmentCapacityBytes)
	if err != nil {
		return fmt.Errorf("rollover %s: %w", idx.base, err)
	}

	idx.entries = append(idx.entries, segmentEntry{seg: seg, offset: newOffset})
	idx.metrics.rollovers.Inc()
	idx.metrics.segmentsCurrent.Set(float64(len(idx.entries)))
	idx.logger.Debug("rolled over", zap.Int("new_segment", newIdx), zap.Uint64("offset", newOffset))

	return nil
}

// ownerOf finds the segment owning globalDocID by reverse scan, as
// spec.md §4.3 specifies: recently ingested documents are the ones most
// likely to be labeled soon after insertion, so scanning from the tail
// finds them in O(1) expected time.
//
// A doc id past the highest id ever issued satisfies offsets[k] < doc_id
// for the tail segment k without actually being one of its documents;
// that case is rejected by checking the local id against the candidate
// segment's own doc count rather than delegating it to the segment engine,
// which is the ambiguity spec.md §9's Open Questions flags about this
// algorithm.
func (idx *Index) ownerOf(globalDocID uint64) (*segmentEntry, uint32, error) {
	for i := len(idx.entries) - 1; i >= 0; i-- {
		e := &idx.entries[i]
		if globalDocID > e.offset {
			local := globalDocID - e.offset
			if local > uint64(e.seg.NumDocs()) {
				return nil, 0, ErrDocNotFound
			}
			return e, uint32(local), nil
		}
	}
	return nil, 0, ErrDocNotFound
}

// AddLabel attaches label to the document identified by globalDocID,
// routing to the owning segment via a reverse offset scan.
func (idx *Index) AddLabel(label string, globalDocID uint64) error {
	e, localDocID, err := idx.ownerOf(globalDocID)
	if err != nil {
		return fmt.Errorf("add label %q to doc %d: %w", label, globalDocID, err)
	}
	if err := e.seg.AddLabel(label, localDocID); err != nil {
		return fmt.Errorf("add label %q to doc %d: %w", label, globalDocID, err)
	}
	idx.metrics.labelsAdded.Inc()
	return nil
}

// RemoveLabel detaches label from the document identified by globalDocID.
func (idx *Index) RemoveLabel(label string, globalDocID uint64) error {
	e, localDocID, err := idx.ownerOf(globalDocID)
	if err != nil {
		return fmt.Errorf("remove label %q from doc %d: %w", label, globalDocID, err)
	}
	if err := e.seg.RemoveLabel(label, localDocID); err != nil {
		return fmt.Errorf("remove label %q from doc %d: %w", label, globalDocID, err)
	}
	idx.metrics.labelsRemoved.Inc()
	return nil
}

// NumDocs returns the sum of every segment's doc count. Overflow of the
// accumulator is left to the caller, per spec.md §9.
func (idx *Index) NumDocs() uint64 {
	var total uint64
	for _, e := range idx.entries {
		total += uint64(e.seg.NumDocs())
	}
	return total
}

// DumpInfo writes a human-readable summary of the index to sink: segment
// count followed by each segment's own dump, in ascending segment order.
func (idx *Index) DumpInfo(sink io.Writer) error {
	if _, err := fmt.Fprintf(sink, "index has %d segments\n", len(idx.entries)); err != nil {
		return err
	}
	for i, e := range idx.entries {
		if _, err := fmt.Fprintf(sink, "\nsegment %d:\n", i); err != nil {
			return err
		}
		if err := e.seg.DumpInfo(sink); err != nil {
			return err
		}
	}
	return nil
}

// initSearchStateFor is a package-private seam used by query.go so it can
// drive internal/search without exposing segment internals outside this
// package.
func (idx *Index) initSearchStateFor(segIdx int, term string) (*search.SearchState, error) {
	return search.InitSearchState(&search.Query{Term: term}, idx.entries[segIdx].seg)
}
