package savefile

import "errors"

var (
	// ErrMalformedHeader is returned when the header cannot be decoded.
	// It wraps the underlying binread error (unexpected EOF or malformed
	// string length). It is fatal for a parse run.
	ErrMalformedHeader = errors.New("malformed save header")

	// ErrMissingMagic is returned when the compressed stream marker does not
	// occur anywhere in the file. It is fatal for a parse run.
	ErrMissingMagic = errors.New("compressed stream marker not found")

	// ErrChunkInflate marks a chunk whose payload failed to inflate.
	// It only appears in diagnostics.
	ErrChunkInflate = errors.New("chunk inflate failed")

	// ErrTruncatedChunk marks a trailing chunk cut short by the end of file.
	// It only appears in diagnostics.
	ErrTruncatedChunk = errors.New("truncated trailing chunk")
)
