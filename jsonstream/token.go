// Package jsonstream is a streaming pull parser and symmetric generator
// for JSON documents that do not need to fit in memory: a byte-level
// tokenizer layered beneath a structural state machine that emits one
// event per call in depth-first order, paired with a context-guarded
// writer that emits the same event shape back out as compact JSON.
package jsonstream

import (
	"github.com/lattice-substrate/jsonstream/jsonpath"
	"github.com/lattice-substrate/jsonstream/jsontoken"
)

// TokenKind identifies which JSON construct a Token describes.
type TokenKind int

const (
	StartObject TokenKind = iota
	EndObject
	StartArray
	EndArray
	StringToken
	NumberToken
	BoolToken
	NullToken
)

// String renders a TokenKind by name, for use in test failure messages
// and %v formatting.
func (k TokenKind) String() string {
	switch k {
	case StartObject:
		return "startObject"
	case EndObject:
		return "endObject"
	case StartArray:
		return "startArray"
	case EndArray:
		return "endArray"
	case StringToken:
		return "string"
	case NumberToken:
		return "number"
	case BoolToken:
		return "bool"
	case NullToken:
		return "null"
	default:
		return "unknown"
	}
}

// Token is a single event produced by Parser.Read: a structural marker or
// a scalar value, carrying an optional Key (absent for the root value and
// for events inside a root scalar).
type Token struct {
	Kind   TokenKind
	Key    jsonpath.Key
	HasKey bool

	String string
	Number jsontoken.Number
	Bool   bool
}
