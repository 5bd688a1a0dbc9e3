// Package jsonpath implements the Key and Path types that describe a
// parser's current structural position: the ordered sequence of property
// names and array indices from the document root to the current token.
package jsonpath

import "strconv"

// Kind identifies which field of a Key is meaningful.
type Kind int

const (
	// NameKind identifies an object property name.
	NameKind Kind = iota
	// IndexKind identifies a zero-based array index.
	IndexKind
)

// Key is a single path element: either an object property name or an
// array index.
type Key struct {
	Kind  Kind
	Name  string
	Index int
}

// Name constructs a property-name Key.
func Name(s string) Key { return Key{Kind: NameKind, Name: s} }

// Index constructs an array-index Key.
func Index(i int) Key { return Key{Kind: IndexKind, Index: i} }

// Equal reports whether two keys have the same tag and payload.
func (k Key) Equal(other Key) bool {
	if k.Kind != other.Kind {
		return false
	}
	if k.Kind == NameKind {
		return k.Name == other.Name
	}
	return k.Index == other.Index
}

// String renders a Key as it appears in a dotted path: a bare name, or
// "[i]" for an index.
func (k Key) String() string {
	if k.Kind == IndexKind {
		return "[" + strconv.Itoa(k.Index) + "]"
	}
	return k.Name
}

// Path is the live, growable sequence of keys from the document root to
// the current token's parent slot. The zero value is an empty path.
type Path struct {
	keys []Key
}

// Len returns the number of keys currently on the path.
func (p *Path) Len() int { return len(p.keys) }

// Push appends a key, descending into a new container slot.
func (p *Path) Push(k Key) { p.keys = append(p.keys, k) }

// Pop removes and returns the last key. ok is false on an empty path.
func (p *Path) Pop() (k Key, ok bool) {
	if len(p.keys) == 0 {
		return Key{}, false
	}
	k = p.keys[len(p.keys)-1]
	p.keys = p.keys[:len(p.keys)-1]
	return k, true
}

// Last returns the last key without removing it. ok is false on an empty
// path.
func (p *Path) Last() (k Key, ok bool) {
	if len(p.keys) == 0 {
		return Key{}, false
	}
	return p.keys[len(p.keys)-1], true
}

// ReplaceLast overwrites the last key in place, or pushes one if the path
// is empty. This moves to a sibling slot without changing nesting depth.
func (p *Path) ReplaceLast(k Key) {
	if len(p.keys) == 0 {
		p.keys = append(p.keys, k)
		return
	}
	p.keys[len(p.keys)-1] = k
}

// Keys returns a defensive copy of the current path elements, root to
// leaf. The returned slice is independently allocated; mutating it does
// not affect the Path.
func (p *Path) Keys() []Key {
	out := make([]Key, len(p.keys))
	copy(out, p.keys)
	return out
}

// String renders the path in dotted form, e.g. "a.b[0].c". An empty path
// renders as the empty string.
func (p *Path) String() string {
	var buf []byte
	for i, k := range p.keys {
		if k.Kind == IndexKind {
			buf = append(buf, k.String()...)
			continue
		}
		if i > 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, k.Name...)
	}
	return string(buf)
}

// Match reports whether there exists a strictly increasing subsequence of
// positions in the path whose keys equal keys in order. Unmatched
// leading, trailing, and intervening keys are permitted.
//
// Complexity is O(len(path) * len(keys)) worst case via two cursors.
func (p *Path) Match(keys ...Key) bool {
	if len(keys) == 0 {
		return true
	}
	j := 0
	for i := 0; i < len(p.keys) && j < len(keys); i++ {
		if p.keys[i].Equal(keys[j]) {
			j++
		}
	}
	return j == len(keys)
}
