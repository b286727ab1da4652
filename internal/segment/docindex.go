package segment

import (
	"io"
	"os"

	"github.com/tysonmote/gommap"
)

// A docIndex entry records where one local doc id's postings bytes begin
// in the segment's store: docWidth bytes of local doc id, posWidth bytes
// of store position.
var (
	docWidth uint64 = 4
	posWidth uint64 = 8
	entWidth        = docWidth + posWidth
)

// docIndex is a fixed-capacity, memory-mapped directory from local doc id
// to store position. Its capacity is fixed the moment it is memory-mapped,
// which is what makes a segment's capacity genuinely fixed at creation:
// once docIndex is full, nothing more can be written to this segment no
// matter how much room is left in the store.
type docIndex struct {
	file *os.File
	mmap gommap.MMap
	size uint64
}

func newDocIndex(f *os.File, capacityBytes uint64) (*docIndex, error) {
	idx := &docIndex{file: f}

	fi, err := os.Stat(f.Name())
	if err != nil {
		return nil, err
	}
	idx.size = uint64(fi.Size())

	if err := os.Truncate(f.Name(), int64(capacityBytes)); err != nil {
		return nil, err
	}

	if idx.mmap, err = gommap.Map(
		idx.file.Fd(),
		gommap.PROT_READ|gommap.PROT_WRITE,
		gommap.MAP_SHARED,
	); err != nil {
		return nil, err
	}

	return idx, nil
}

// Write appends a (localDocID, pos) entry. It returns io.EOF once the
// mapped region is full — this is what EnsureFit consults.
func (i *docIndex) Write(localDocID uint32, pos uint64) error {
	if uint64(len(i.mmap)) < i.size+entWidth {
		return io.EOF
	}

	enc.PutUint32(i.mmap[i.size:i.size+docWidth], localDocID)
	enc.PutUint64(i.mmap[i.size+docWidth:i.size+entWidth], pos)
	i.size += entWidth
	return nil
}

// Read returns the store position for the given local doc id, or io.EOF
// if no entry has been written for it.
func (i *docIndex) Read(localDocID uint32) (pos uint64, err error) {
	slot := uint64(localDocID-1) * entWidth
	if i.size < slot+entWidth {
		return 0, io.EOF
	}
	return enc.Uint64(i.mmap[slot+docWidth : slot+entWidth]), nil
}

// NumDocs returns the number of entries written so far.
func (i *docIndex) NumDocs() uint32 {
	return uint32(i.size / entWidth)
}

// HasRoom reports whether at least one more entry fits in the mapped
// region.
func (i *docIndex) HasRoom() bool {
	return uint64(len(i.mmap)) >= i.size+entWidth
}

func (i *docIndex) Close() error {
	if err := i.mmap.Sync(gommap.MS_SYNC); err != nil {
		return err
	}
	if err := i.file.Sync(); err != nil {
		return err
	}
	if err := i.file.Truncate(int64(i.size)); err != nil {
		return err
	}
	return i.file.Close()
}
