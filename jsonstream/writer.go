package jsonstream

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/lattice-substrate/jsonstream/jsonerr"
	"github.com/lattice-substrate/jsonstream/jsontoken"
	"github.com/lattice-substrate/jsonstream/numformat"
)

type writerContext int

const (
	ctxRoot writerContext = iota
	ctxObject
	ctxArray
)

// writerFrame tracks one nesting level's child counter. count is -1
// before the first item is written at this level.
type writerFrame struct {
	kind  writerContext
	count int
}

// Writer is a context-guarded emitter of compact RFC 8259 JSON: every
// call is checked against the current nesting context before anything
// is written, so a misused Writer fails fast with a structured error
// rather than producing malformed output.
//
// A Writer is single-use in the same sense as Parser: it advances
// through a stack of nesting contexts that only grows and shrinks
// through Object/Array and their matching close, and is not safe for
// concurrent use.
type Writer struct {
	sink   io.Writer
	closer io.Closer
	stack  []writerFrame
}

// NewWriter constructs a Writer emitting to sink.
func NewWriter(sink io.Writer) *Writer {
	return &Writer{sink: sink, stack: []writerFrame{{kind: ctxRoot, count: -1}}}
}

// NewWriterFromFile creates (or truncates) path and constructs a Writer
// over it. The Writer owns the file; Close closes it.
func NewWriterFromFile(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, jsonerr.Wrap(jsonerr.IOError, 0, "failed to create file", err)
	}
	w := NewWriter(f)
	w.closer = f
	return w, nil
}

// Close releases the file opened by NewWriterFromFile. It is a no-op for
// a Writer constructed from a caller-supplied io.Writer.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

func (w *Writer) top() *writerFrame { return &w.stack[len(w.stack)-1] }

// beforeItem writes the separating comma for every context except root
// (top-level values in a JSON-lines stream are separated by NewLine, not
// commas) and advances the child counter.
func (w *Writer) beforeItem() error {
	t := w.top()
	if t.kind != ctxRoot && t.count >= 0 {
		if err := w.raw(","); err != nil {
			return err
		}
	}
	t.count++
	return nil
}

func (w *Writer) requireValueContext() error {
	switch w.top().kind {
	case ctxRoot, ctxArray:
		return nil
	default:
		return jsonerr.New(jsonerr.UnexpectedInput, 0, "unnamed write requires root or array context")
	}
}

func (w *Writer) requireObjectContext() error {
	if w.top().kind != ctxObject {
		return jsonerr.New(jsonerr.UnexpectedInput, 0, "named write requires object context")
	}
	return nil
}

// Object writes an unnamed JSON object; valid in root or array context.
func (w *Writer) Object(body func(*Writer) error) error {
	if err := w.requireValueContext(); err != nil {
		return err
	}
	return w.container('{', '}', ctxObject, body)
}

// ObjectField writes a named JSON object as an object property; valid
// only in object context.
func (w *Writer) ObjectField(name string, body func(*Writer) error) error {
	if err := w.requireObjectContext(); err != nil {
		return err
	}
	if err := w.beforeItem(); err != nil {
		return err
	}
	if err := w.writeKey(name); err != nil {
		return err
	}
	return w.openClose('{', '}', ctxObject, body)
}

// Array writes an unnamed JSON array; valid in root or array context.
func (w *Writer) Array(body func(*Writer) error) error {
	if err := w.requireValueContext(); err != nil {
		return err
	}
	return w.container('[', ']', ctxArray, body)
}

// ArrayField writes a named JSON array as an object property; valid
// only in object context.
func (w *Writer) ArrayField(name string, body func(*Writer) error) error {
	if err := w.requireObjectContext(); err != nil {
		return err
	}
	if err := w.beforeItem(); err != nil {
		return err
	}
	if err := w.writeKey(name); err != nil {
		return err
	}
	return w.openClose('[', ']', ctxArray, body)
}

func (w *Writer) container(open, close byte, kind writerContext, body func(*Writer) error) error {
	if err := w.beforeItem(); err != nil {
		return err
	}
	return w.openClose(open, close, kind, body)
}

func (w *Writer) openClose(open, close byte, kind writerContext, body func(*Writer) error) error {
	if err := w.raw(string(open)); err != nil {
		return err
	}
	w.stack = append(w.stack, writerFrame{kind: kind, count: -1})
	if body != nil {
		if err := body(w); err != nil {
			return err
		}
	}
	w.stack = w.stack[:len(w.stack)-1]
	return w.raw(string(close))
}

// Write emits an unnamed scalar value; valid in root or array context.
func (w *Writer) Write(v Value) error {
	if err := w.requireValueContext(); err != nil {
		return err
	}
	if err := w.beforeItem(); err != nil {
		return err
	}
	return w.emitValue(v)
}

// WriteField emits a named scalar value as an object property; valid
// only in object context.
func (w *Writer) WriteField(name string, v Value) error {
	if err := w.requireObjectContext(); err != nil {
		return err
	}
	if err := w.beforeItem(); err != nil {
		return err
	}
	if err := w.writeKey(name); err != nil {
		return err
	}
	return w.emitValue(v)
}

// WriteNull emits an unnamed null; valid in root or array context.
func (w *Writer) WriteNull() error {
	if err := w.requireValueContext(); err != nil {
		return err
	}
	if err := w.beforeItem(); err != nil {
		return err
	}
	return w.raw("null")
}

// WriteNullField emits a named null as an object property; valid only in
// object context.
func (w *Writer) WriteNullField(name string) error {
	if err := w.requireObjectContext(); err != nil {
		return err
	}
	if err := w.beforeItem(); err != nil {
		return err
	}
	if err := w.writeKey(name); err != nil {
		return err
	}
	return w.raw("null")
}

// NewLine emits a raw U+000A, with no other structural effect. Used to
// separate top-level values in a JSON-lines stream.
func (w *Writer) NewLine() error {
	return w.raw("\n")
}

func (w *Writer) emitValue(v Value) error {
	switch v.kind {
	case valueString:
		return w.writeEscapedString(v.str)
	case valueBool:
		if v.b {
			return w.raw("true")
		}
		return w.raw("false")
	case valueNumber:
		return w.writeNumber(v.num)
	default:
		return jsonerr.New(jsonerr.UnexpectedError, 0, "unknown value kind")
	}
}

func (w *Writer) writeNumber(n jsontoken.Number) error {
	switch n.Kind {
	case jsontoken.IntNumber:
		return w.raw(strconv.FormatInt(n.Int, 10))
	case jsontoken.DoubleNumber:
		s, err := numformat.FormatDouble(n.Double)
		if err != nil {
			return jsonerr.Wrap(jsonerr.UnexpectedInput, 0, "cannot write a non-finite double as JSON", err)
		}
		return w.raw(s)
	case jsontoken.DecimalNumber:
		return w.raw(n.Decimal.String())
	default:
		return jsonerr.New(jsonerr.UnexpectedError, 0, "unknown number kind")
	}
}

func (w *Writer) writeKey(name string) error {
	if err := w.writeEscapedString(name); err != nil {
		return err
	}
	return w.raw(":")
}

func (w *Writer) writeEscapedString(s string) error {
	if err := w.raw(`"`); err != nil {
		return err
	}
	for _, r := range s {
		if err := w.writeEscapedRune(r); err != nil {
			return err
		}
	}
	return w.raw(`"`)
}

func (w *Writer) writeEscapedRune(r rune) error {
	switch r {
	case '"':
		return w.raw(`\"`)
	case '\\':
		return w.raw(`\\`)
	case '\n':
		return w.raw(`\n`)
	case '\r':
		return w.raw(`\r`)
	case '\t':
		return w.raw(`\t`)
	case '\b':
		return w.raw(`\b`)
	case '\f':
		return w.raw(`\f`)
	}
	if r < 0x20 {
		return w.raw(fmt.Sprintf(`\u%04x`, r))
	}
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	return w.rawBytes(buf[:n])
}

func (w *Writer) raw(s string) error {
	if _, err := io.WriteString(w.sink, s); err != nil {
		return jsonerr.Wrap(jsonerr.IOError, 0, "write to sink failed", err)
	}
	return nil
}

func (w *Writer) rawBytes(b []byte) error {
	if _, err := w.sink.Write(b); err != nil {
		return jsonerr.Wrap(jsonerr.IOError, 0, "write to sink failed", err)
	}
	return nil
}
