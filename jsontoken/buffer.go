// Package jsontoken implements the byte-level machinery beneath the
// jsonstream structural state machine: a fixed-capacity buffered byte
// reader and the lexeme scanners for JSON strings, numbers, and literals.
//
// Nothing in this package interprets JSON structure (objects, arrays,
// commas, colons) — that is the job of jsonstream. jsontoken only knows
// how to pull bytes and validate/decode the scalar lexemes built from
// them.
package jsontoken

import (
	"errors"
	"io"

	"github.com/lattice-substrate/jsonstream/jsonerr"
)

// Source pulls up to len(p) bytes into p, returning the count read. A
// Source behaves like io.Reader.Read: n > 0 with err == io.EOF is valid
// (the last chunk), as is n == 0 with err == io.EOF.
type Source func(p []byte) (n int, err error)

// FromReader adapts an io.Reader to a Source.
func FromReader(r io.Reader) Source {
	return r.Read
}

// Reader is a fixed-capacity, incrementally refilled byte buffer sitting
// in front of a Source. It exposes only byte-level operations: the
// structural interpretation of those bytes is the caller's job.
//
// Reader is single-use and advances monotonically; it is not safe for
// concurrent use.
type Reader struct {
	source Source
	buf    []byte
	pos    int
	end    int
	line   int
	done   bool // the source has signaled EOF; no more refills will be attempted
}

// NewReader constructs a Reader pulling from source with the given fixed
// buffer capacity. A capacity less than 1 is treated as 1.
func NewReader(source Source, capacity int) *Reader {
	if capacity < 1 {
		capacity = 1
	}
	return &Reader{
		source: source,
		buf:    make([]byte, capacity),
		line:   1,
	}
}

// Line returns the current 1-based line number: the count of 0x0A bytes
// consumed so far by NextByte or ReadRaw (less any returned by PushBack),
// plus one.
func (r *Reader) Line() int {
	return r.line
}

// NextByte returns the next byte and true, or ok=false at clean EOF. A
// non-nil error indicates the Source failed for a reason other than EOF;
// the Reader is left usable for a retry in that case: a failed refill
// resets pos to 0 and end to the count the Source reported, so the next
// call reads any bytes it did deliver or refills again.
func (r *Reader) NextByte() (b byte, ok bool, err error) {
	if r.pos == r.end {
		if r.done {
			return 0, false, nil
		}
		if err := r.refill(); err != nil {
			return 0, false, err
		}
		if r.end == 0 {
			return 0, false, nil
		}
	}
	b = r.buf[r.pos]
	r.pos++
	if b == '\n' {
		r.line++
	}
	return b, true, nil
}

// PushBack returns the most recently read byte to the stream. It is only
// valid immediately after a successful NextByte call; the design requires
// no more than one byte of push-back depth, which is always satisfied
// because PushBack only ever rewinds pos within the chunk NextByte just
// advanced through.
func (r *Reader) PushBack() {
	r.pos--
	if r.buf[r.pos] == '\n' {
		r.line--
	}
}

// ReadRaw returns up to n bytes as a string for use in error context
// snippets. It never fails the parse: a Source error or EOF while filling
// the snippet simply truncates it. It may trigger a refill and therefore
// may consume input, which is acceptable because it is only ever called
// after the parser has already decided to fail.
func (r *Reader) ReadRaw(n int) string {
	out := make([]byte, 0, n)
	for len(out) < n {
		if r.pos == r.end {
			if r.done {
				break
			}
			if err := r.refill(); err != nil {
				break
			}
			if r.end == 0 {
				break
			}
		}
		take := n - len(out)
		if avail := r.end - r.pos; take > avail {
			take = avail
		}
		out = append(out, r.buf[r.pos:r.pos+take]...)
		r.pos += take
	}
	for _, b := range out {
		if b == '\n' {
			r.line++
		}
	}
	return string(out)
}

// refill calls the source exactly once with the whole buffer.
func (r *Reader) refill() error {
	n, err := r.source(r.buf)
	r.pos = 0
	r.end = n
	if err != nil {
		if errors.Is(err, io.EOF) {
			r.done = true
			return nil
		}
		return jsonerr.Wrap(jsonerr.IOError, r.line, "byte source error", err)
	}
	if n == 0 {
		r.done = true
	}
	return nil
}
