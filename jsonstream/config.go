package jsonstream

import "github.com/lattice-substrate/jsonstream/jsontoken"

const (
	defaultBufferCapacity = 1 << 20  // 1 MiB
	defaultMaxValueLength = 10 << 20 // 10 MiB
)

// Config holds the immutable-after-construction knobs for a Parser. The
// zero value is valid and resolves every field to its documented default.
type Config struct {
	// BufferCapacity is the fixed size of the pull buffer. Zero or
	// negative selects the default (1 MiB).
	BufferCapacity int
	// MaxValueLength caps the in-progress byte length of a single string
	// or number lexeme. Zero or negative selects the default (10 MiB).
	MaxValueLength int
	// NumberParsing selects how scanned numbers are materialized. The
	// zero value is IntDouble.
	NumberParsing jsontoken.NumberMode
	// CloseOnDrop, when true, makes a Parser built by NewParserFromFile
	// close its file automatically once Read first reports end-of-input
	// or an error. Parser.Close closes such a file whatever this flag
	// says; a caller-supplied source, io.Reader or byte slice is never
	// closed. Writers take no Config and do not consult this flag.
	CloseOnDrop bool
}

func (c Config) bufferCapacity() int {
	if c.BufferCapacity <= 0 {
		return defaultBufferCapacity
	}
	return c.BufferCapacity
}

func (c Config) maxValueLength() int {
	if c.MaxValueLength <= 0 {
		return defaultMaxValueLength
	}
	return c.MaxValueLength
}
