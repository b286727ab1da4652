package segment

import (
	"encoding/binary"
	"io"
)

// Token is one term occurrence stream within an Entry: a term and the
// positions (in token order) at which it occurs in the document. Building
// a Token stream from raw text is the entry builder's job, which this
// package does not perform.
type Token struct {
	Term      string
	Positions []uint32
}

// Entry is the external entry builder's output: the tokenized form of one
// document, ready to be written into a segment's postings region.
type Entry struct {
	Tokens []Token
}

// marshaledLen returns the length of e's encoded form, as produced by
// marshal: the 4-byte token-count header plus, per token, its term length
// prefix, term bytes, position count, and one 4-byte slot per position.
func marshaledLen(e Entry) uint64 {
	n := uint64(4)
	for _, t := range e.Tokens {
		n += 2 + uint64(len(t.Term)) + 4 + 4*uint64(len(t.Positions))
	}
	return n
}

// SizeofPostingsBytes reports the number of bytes AddEntry will actually
// add to a segment's store for this entry: store.Append's lenWidth-byte
// length prefix plus the full marshaled entry, including the token-count
// header marshal always writes. EnsureFit's budget is only meaningful if
// it matches this exactly, since it is compared directly against
// store.Size(), which counts length prefixes too.
func SizeofPostingsBytes(e Entry) uint64 {
	return lenWidth + marshaledLen(e)
}

// marshal encodes the entry into the byte form written to a segment's
// store. The format is private to this package; nothing outside it reads
// store bytes directly.
func (e Entry) marshal() []byte {
	buf := make([]byte, 0, marshaledLen(e))

	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(len(e.Tokens)))
	buf = append(buf, tmp[:]...)

	for _, t := range e.Tokens {
		var tlen [2]byte
		binary.BigEndian.PutUint16(tlen[:], uint16(len(t.Term)))
		buf = append(buf, tlen[:]...)
		buf = append(buf, t.Term...)

		binary.BigEndian.PutUint32(tmp[:], uint32(len(t.Positions)))
		buf = append(buf, tmp[:]...)
		for _, p := range t.Positions {
			binary.BigEndian.PutUint32(tmp[:], p)
			buf = append(buf, tmp[:]...)
		}
	}

	return buf
}

// unmarshalEntry decodes bytes previously produced by Entry.marshal.
func unmarshalEntry(b []byte) (Entry, error) {
	var e Entry
	if len(b) < 4 {
		return e, io.ErrUnexpectedEOF
	}
	numTokens := binary.BigEndian.Uint32(b[0:4])
	b = b[4:]

	e.Tokens = make([]Token, 0, numTokens)
	for i := uint32(0); i < numTokens; i++ {
		if len(b) < 2 {
			return e, io.ErrUnexpectedEOF
		}
		termLen := binary.BigEndian.Uint16(b[0:2])
		b = b[2:]
		if uint64(len(b)) < uint64(termLen)+4 {
			return e, io.ErrUnexpectedEOF
		}
		term := string(b[:termLen])
		b = b[termLen:]

		numPositions := binary.BigEndian.Uint32(b[0:4])
		b = b[4:]
		if uint64(len(b)) < 4*uint64(numPositions) {
			return e, io.ErrUnexpectedEOF
		}
		positions := make([]uint32, numPositions)
		for j := uint32(0); j < numPositions; j++ {
			positions[j] = binary.BigEndian.Uint32(b[0:4])
			b = b[4:]
		}

		e.Tokens = append(e.Tokens, Token{Term: term, Positions: positions})
	}

	return e, nil
}
