package segment

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/RoaringBitmap/roaring"
	mapset "github.com/deckarep/golang-set/v2"
)

// labelIndex holds this segment's label-to-docids postings. Each label
// name maps to a roaring bitmap of the local doc ids carrying it; names is
// the set of labels that have ever been added to the segment, kept
// separately so dumpinfo can report it without scanning every bitmap.
type labelIndex struct {
	names   mapset.Set[string]
	bitmaps map[string]*roaring.Bitmap
}

func newLabelIndex() *labelIndex {
	return &labelIndex{
		names:   mapset.NewSet[string](),
		bitmaps: make(map[string]*roaring.Bitmap),
	}
}

// Add labels localDocID with label, creating the label's bitmap on first
// use.
func (l *labelIndex) Add(label string, localDocID uint32) {
	bm, ok := l.bitmaps[label]
	if !ok {
		bm = roaring.New()
		l.bitmaps[label] = bm
		l.names.Add(label)
	}
	bm.Add(localDocID)
}

// Remove unlabels localDocID with label. Removing a label that was never
// applied to the doc, or a label that doesn't exist in this segment, is a
// no-op, matching the segment engine's contract (the coordinator has
// already established the doc belongs to this segment; whether it carries
// the label is the segment's business).
func (l *labelIndex) Remove(label string, localDocID uint32) {
	bm, ok := l.bitmaps[label]
	if !ok {
		return
	}
	bm.Remove(localDocID)
}

// Names returns the distinct label names ever added to this segment, for
// diagnostics.
func (l *labelIndex) Names() []string {
	return l.names.ToSlice()
}

// loadLabelIndex reads a label index previously written by saveLabelIndex.
// A missing file means no labels have ever been added; that's not an
// error.
func loadLabelIndex(path string) (*labelIndex, error) {
	l := newLabelIndex()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var count uint32
	if err := binary.Read(f, binary.BigEndian, &count); err != nil {
		return nil, err
	}

	for i := uint32(0); i < count; i++ {
		var nameLen uint16
		if err := binary.Read(f, binary.BigEndian, &nameLen); err != nil {
			return nil, err
		}
		nameBytes := make([]byte, nameLen)
		if _, err := f.Read(nameBytes); err != nil {
			return nil, err
		}

		bm := roaring.New()
		if _, err := bm.ReadFrom(f); err != nil {
			return nil, err
		}

		name := string(nameBytes)
		l.bitmaps[name] = bm
		l.names.Add(name)
	}

	return l, nil
}

// saveLabelIndex overwrites path with the full contents of l. Labels are
// mutable late-bound annotations, not append-only postings, so a
// rewrite-on-mutation strategy keeps the on-disk format simple.
func saveLabelIndex(path string, l *labelIndex) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	names := l.names.ToSlice()
	if err := binary.Write(f, binary.BigEndian, uint32(len(names))); err != nil {
		return err
	}

	for _, name := range names {
		if err := binary.Write(f, binary.BigEndian, uint16(len(name))); err != nil {
			return err
		}
		if _, err := f.WriteString(name); err != nil {
			return err
		}
		if _, err := l.bitmaps[name].WriteTo(f); err != nil {
			return err
		}
	}

	return nil
}

func (l *labelIndex) dumpInfo() string {
	if l.names.Cardinality() == 0 {
		return "  labels: (none)\n"
	}
	out := fmt.Sprintf("  labels: %d distinct\n", l.names.Cardinality())
	for _, name := range l.names.ToSlice() {
		out += fmt.Sprintf("    %s: %d docs\n", name, l.bitmaps[name].GetCardinality())
	}
	return out
}
