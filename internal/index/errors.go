package index

import "errors"

// Error kinds from spec.md §7. Callers distinguish them with errors.Is;
// each operation wraps the sentinel with fmt.Errorf("...: %w", ...) for
// context.
var (
	// ErrAlreadyExists is returned by Create when segment 0 already
	// exists at the base path.
	ErrAlreadyExists = errors.New("index already exists")

	// ErrNotFound is returned by Load when segment 0 does not exist at
	// the base path.
	ErrNotFound = errors.New("index not found")

	// ErrDocNotFound is returned by AddLabel/RemoveLabel when the global
	// doc id is 0 or owned by no loaded segment.
	ErrDocNotFound = errors.New("document not found")

	// ErrFreshSegmentTooSmall is returned by AddEntry when an entry does
	// not fit even in a brand new, empty segment. This is a fatal logic
	// error: it means the segment capacity is misconfigured relative to
	// the entries being written, not a transient condition.
	ErrFreshSegmentTooSmall = errors.New("entry too large to fit in a fresh segment")

	// ErrOutOfMemory is returned when the segment array cannot grow,
	// including when growing it would exceed Config.MaxSegments.
	ErrOutOfMemory = errors.New("out of memory")
)
