package jsonstream

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/lattice-substrate/jsonstream/jsonerr"
	"github.com/lattice-substrate/jsonstream/jsonpath"
	"github.com/lattice-substrate/jsonstream/jsontoken"
)

type frameKind int

const (
	frameObject frameKind = iota
	frameArray
)

// frame is a pushed object/array context. nextIndex is -1 before the
// first child has been entered, and becomes the 0-based index of the
// most recently entered child thereafter.
type frame struct {
	kind      frameKind
	nextIndex int
}

// Parser drives the structural state machine over a byte source,
// producing one Token per Read call in strict document order.
//
// A Parser is single-use and advances monotonically: once Read returns
// end-of-input or an error, it is poisoned and all subsequent Read calls
// return end-of-input without touching the source again.
type Parser struct {
	lex    *jsontoken.Lexer
	mode   jsontoken.NumberMode
	frames []frame
	path   jsonpath.Path

	rootSeen bool
	poisoned bool

	closer      io.Closer
	closeOnDrop bool
}

// NewParser constructs a Parser pulling bytes from source.
func NewParser(source jsontoken.Source, cfg Config) *Parser {
	r := jsontoken.NewReader(source, cfg.bufferCapacity())
	lex := jsontoken.NewLexer(r, cfg.maxValueLength())
	return &Parser{lex: lex, mode: cfg.NumberParsing}
}

// NewParserFromReader constructs a Parser pulling from an io.Reader.
func NewParserFromReader(r io.Reader, cfg Config) *Parser {
	return NewParser(jsontoken.FromReader(r), cfg)
}

// NewParserFromBytes constructs a Parser over an in-memory document.
func NewParserFromBytes(b []byte, cfg Config) *Parser {
	return NewParserFromReader(bytes.NewReader(b), cfg)
}

// NewParserFromFile opens path and constructs a Parser over its contents.
// The Parser owns the file: Close closes it, and if cfg.CloseOnDrop is
// true the file is also closed automatically once Read first reports
// end-of-input or an error.
func NewParserFromFile(path string, cfg Config) (*Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, jsonerr.Wrap(jsonerr.IOError, 1, "failed to open file", err)
	}
	p := NewParserFromReader(f, cfg)
	p.closer = f
	p.closeOnDrop = cfg.CloseOnDrop
	return p, nil
}

// Close releases the file opened by NewParserFromFile. It is a no-op for
// a Parser constructed from a caller-supplied source/reader/byte slice.
func (p *Parser) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// Line returns the current 1-based line number.
func (p *Parser) Line() int { return p.lex.Line() }

// Path returns a snapshot of the current path, root to leaf.
func (p *Parser) Path() []jsonpath.Key { return p.path.Keys() }

// PathString renders the current path in dotted form.
func (p *Parser) PathString() string { return p.path.String() }

// PathMatch reports whether keys occurs as a subsequence of the current
// path.
func (p *Parser) PathMatch(keys ...jsonpath.Key) bool { return p.path.Match(keys...) }

// Read executes one step of the state machine. ok is false with a nil
// error at clean end-of-input; ok is false with a non-nil error on
// failure, after which the Parser is poisoned.
func (p *Parser) Read() (tok Token, ok bool, err error) {
	if p.poisoned {
		return Token{}, false, nil
	}
	tok, end, err := p.step()
	if err != nil {
		p.poisoned = true
		p.maybeAutoClose()
		return Token{}, false, err
	}
	if end {
		p.poisoned = true
		p.maybeAutoClose()
		return Token{}, false, nil
	}
	return tok, true, nil
}

func (p *Parser) maybeAutoClose() {
	if p.closeOnDrop {
		_ = p.Close()
	}
}

func (p *Parser) step() (Token, bool, error) {
	if len(p.frames) == 0 {
		return p.stepRoot()
	}
	top := p.frames[len(p.frames)-1]
	switch top.kind {
	case frameObject:
		return p.stepObject()
	case frameArray:
		return p.stepArray()
	default:
		return Token{}, false, jsonerr.New(jsonerr.UnexpectedError, p.lex.Line(), "unknown frame kind")
	}
}

func (p *Parser) stepRoot() (Token, bool, error) {
	if p.rootSeen {
		_, ok, err := p.peekNonWhitespace()
		if err != nil {
			return Token{}, false, err
		}
		if ok {
			p.lex.Reader().PushBack()
			return Token{}, false, p.errUnexpected("unexpected input after root value")
		}
		return Token{}, true, nil
	}

	_, ok, err := p.peekNonWhitespace()
	if err != nil {
		return Token{}, false, err
	}
	if !ok {
		return Token{}, false, p.errEOF("unexpected EOF: no value")
	}
	p.lex.Reader().PushBack()

	tok, err := p.readValue(jsonpath.Key{}, false)
	if err != nil {
		return Token{}, false, err
	}
	if tok.Kind != StartObject && tok.Kind != StartArray {
		p.rootSeen = true
	}
	return tok, false, nil
}

func (p *Parser) stepObject() (Token, bool, error) {
	idx := len(p.frames) - 1
	top := &p.frames[idx]

	b, ok, err := p.peekNonWhitespace()
	if err != nil {
		return Token{}, false, err
	}
	if !ok {
		return Token{}, false, p.errEOF("unexpected EOF in object")
	}

	if b == '}' {
		return p.closeContainer(top.nextIndex, EndObject), false, nil
	}

	top.nextIndex++
	if b == ',' {
		if top.nextIndex <= 0 {
			return Token{}, false, p.errUnexpected("unexpected ',' before any property")
		}
		p.path.Pop()
		b, ok, err = p.peekNonWhitespace()
		if err != nil {
			return Token{}, false, err
		}
		if !ok {
			return Token{}, false, p.errEOF("unexpected EOF in object")
		}
	} else if top.nextIndex != 0 {
		return Token{}, false, p.errUnexpected("expected ',' between properties")
	}

	if b != '"' {
		return Token{}, false, p.errUnexpected("expected '\"' to start a property name")
	}
	name, err := p.lex.ScanString()
	if err != nil {
		return Token{}, false, err
	}

	cb, ok, err := p.peekNonWhitespace()
	if err != nil {
		return Token{}, false, err
	}
	if !ok || cb != ':' {
		return Token{}, false, p.errUnexpected("expected ':' after property name")
	}

	key := jsonpath.Name(name)
	p.path.Push(key)
	tok, err := p.readValue(key, true)
	if err != nil {
		return Token{}, false, err
	}
	return tok, false, nil
}

func (p *Parser) stepArray() (Token, bool, error) {
	idx := len(p.frames) - 1
	top := &p.frames[idx]

	b, ok, err := p.peekNonWhitespace()
	if err != nil {
		return Token{}, false, err
	}
	if !ok {
		return Token{}, false, p.errEOF("unexpected EOF in array")
	}

	if b == ']' {
		return p.closeContainer(top.nextIndex, EndArray), false, nil
	}

	top.nextIndex++
	if b == ',' {
		if top.nextIndex <= 0 {
			return Token{}, false, p.errUnexpected("unexpected ',' before any element")
		}
		p.path.Pop()
	} else if top.nextIndex != 0 {
		return Token{}, false, p.errUnexpected("expected ',' between elements")
	} else {
		p.lex.Reader().PushBack()
	}

	key := jsonpath.Index(top.nextIndex)
	p.path.Push(key)
	tok, err := p.readValue(key, true)
	if err != nil {
		return Token{}, false, err
	}
	return tok, false, nil
}

// closeContainer pops the current frame and, if a child was ever
// entered, the path key belonging to that child, then reports the
// container's own key (what remains at the tail of path, belonging to
// the container itself within its parent) as the End event's key.
func (p *Parser) closeContainer(childNextIndex int, kind TokenKind) Token {
	if childNextIndex >= 0 {
		p.path.Pop()
	}
	p.frames = p.frames[:len(p.frames)-1]
	if len(p.frames) == 0 {
		p.rootSeen = true
	}
	key, hasKey := p.path.Last()
	return Token{Kind: kind, Key: key, HasKey: hasKey}
}

// readValue dispatches on the next non-whitespace byte to scan one
// value (scalar or container start), tagging the result with key.
func (p *Parser) readValue(key jsonpath.Key, hasKey bool) (Token, error) {
	b, ok, err := p.peekNonWhitespace()
	if err != nil {
		return Token{}, err
	}
	if !ok {
		return Token{}, p.errEOF("unexpected EOF: expected a value")
	}

	switch {
	case b == '"':
		s, err := p.lex.ScanString()
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: StringToken, Key: key, HasKey: hasKey, String: s}, nil
	case b == '{':
		p.frames = append(p.frames, frame{kind: frameObject, nextIndex: -1})
		return Token{Kind: StartObject, Key: key, HasKey: hasKey}, nil
	case b == '[':
		p.frames = append(p.frames, frame{kind: frameArray, nextIndex: -1})
		return Token{Kind: StartArray, Key: key, HasKey: hasKey}, nil
	case b == 't':
		if err := p.lex.ScanTrue(); err != nil {
			return Token{}, err
		}
		return Token{Kind: BoolToken, Key: key, HasKey: hasKey, Bool: true}, nil
	case b == 'f':
		if err := p.lex.ScanFalse(); err != nil {
			return Token{}, err
		}
		return Token{Kind: BoolToken, Key: key, HasKey: hasKey, Bool: false}, nil
	case b == 'n':
		if err := p.lex.ScanNull(); err != nil {
			return Token{}, err
		}
		return Token{Kind: NullToken, Key: key, HasKey: hasKey}, nil
	case b == '-' || isDigit(b):
		p.lex.Reader().PushBack()
		n, err := p.lex.ScanNumber(p.mode)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: NumberToken, Key: key, HasKey: hasKey, Number: n}, nil
	default:
		p.lex.Reader().PushBack()
		return Token{}, p.errUnexpected("unexpected byte: expected a value")
	}
}

// peekNonWhitespace consumes whitespace bytes and returns the first
// non-whitespace byte found, already consumed from the reader (callers
// that don't want it consumed must push it back themselves).
func (p *Parser) peekNonWhitespace() (byte, bool, error) {
	r := p.lex.Reader()
	for {
		b, ok, err := r.NextByte()
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, nil
		}
		if isWhitespace(b) {
			continue
		}
		return b, true, nil
	}
}

func isWhitespace(b byte) bool {
	return b == 0x09 || b == 0x0A || b == 0x0D || b == 0x20
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func (p *Parser) errEOF(msg string) error {
	return jsonerr.New(jsonerr.UnexpectedEOF, p.lex.Line(), msg)
}

func (p *Parser) errUnexpected(msg string) error {
	return jsonerr.New(jsonerr.UnexpectedInput, p.lex.Line(),
		fmt.Sprintf("%s (next: %q)", msg, p.lex.Reader().ReadRaw(20)))
}
