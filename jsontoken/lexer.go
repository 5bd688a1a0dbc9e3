package jsontoken

import (
	"fmt"

	"github.com/lattice-substrate/jsonstream/jsonerr"
)

// Lexer scans the scalar lexemes of JSON (strings, numbers, literals) from
// a Reader, validating grammar and escapes as it goes and accumulating
// into a parser-owned scratch buffer bounded by maxValueLength.
//
// A Lexer is single-use in the same sense as the Reader underneath it; it
// holds no structural state of its own (that belongs to jsonstream).
type Lexer struct {
	r              *Reader
	scratch        []byte
	maxValueLength int
}

// NewLexer constructs a Lexer over r. maxValueLength bounds the
// in-progress byte length of any single lexeme; values below 1 are
// clamped to 1, so a single byte always fits.
func NewLexer(r *Reader, maxValueLength int) *Lexer {
	if maxValueLength < 1 {
		maxValueLength = 1
	}
	return &Lexer{r: r, maxValueLength: maxValueLength}
}

// Reader exposes the underlying byte reader for the structural state
// machine to drive directly (whitespace skipping, structural byte
// dispatch).
func (l *Lexer) Reader() *Reader { return l.r }

// Line returns the current line number of the underlying reader.
func (l *Lexer) Line() int { return l.r.Line() }

func (l *Lexer) resetScratch() {
	l.scratch = l.scratch[:0]
}

func (l *Lexer) appendByte(b byte) error {
	if len(l.scratch)+1 > l.maxValueLength {
		return l.errTooLong()
	}
	l.scratch = append(l.scratch, b)
	return nil
}

func (l *Lexer) appendBytes(b []byte) error {
	if len(l.scratch)+len(b) > l.maxValueLength {
		return l.errTooLong()
	}
	l.scratch = append(l.scratch, b...)
	return nil
}

func (l *Lexer) errTooLong() error {
	return jsonerr.New(jsonerr.ValueTooLong, l.Line(),
		fmt.Sprintf("lexeme exceeds maxValueLength of %d bytes", l.maxValueLength))
}

func (l *Lexer) errUnexpectedEOF(msg string) error {
	return jsonerr.New(jsonerr.UnexpectedEOF, l.Line(), msg)
}

func (l *Lexer) errUnexpectedInput(msg string) error {
	return jsonerr.New(jsonerr.UnexpectedInput, l.Line(),
		fmt.Sprintf("%s (next: %q)", msg, l.r.ReadRaw(20)))
}

func (l *Lexer) errInvalidEscape(msg string) error {
	return jsonerr.New(jsonerr.InvalidEscapeSequence, l.Line(), msg)
}

func (l *Lexer) errUnescapedControl(b byte) error {
	return jsonerr.New(jsonerr.UnescapedControlCharacter, l.Line(),
		fmt.Sprintf("unescaped control character 0x%02X in string", b))
}

func (l *Lexer) errInvalidUTF8() error {
	return jsonerr.New(jsonerr.InvalidUTF8, l.Line(), "string is not valid UTF-8")
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func hexVal(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	default:
		return 0, false
	}
}
