package jsonstream

import (
	"github.com/shopspring/decimal"

	"github.com/lattice-substrate/jsonstream/jsontoken"
)

type valueKind int

const (
	valueString valueKind = iota
	valueBool
	valueNumber
)

// Value is a tagged scalar accepted by Writer.Write/WriteField: a
// string, a boolean, or any of the three Number variants.
type Value struct {
	kind valueKind
	str  string
	b    bool
	num  jsontoken.Number
}

// StringValue wraps a string for Writer.Write/WriteField.
func StringValue(s string) Value { return Value{kind: valueString, str: s} }

// BoolValue wraps a boolean for Writer.Write/WriteField.
func BoolValue(b bool) Value { return Value{kind: valueBool, b: b} }

// IntValue wraps an int64 for Writer.Write/WriteField.
func IntValue(i int64) Value {
	return Value{kind: valueNumber, num: jsontoken.Number{Kind: jsontoken.IntNumber, Int: i}}
}

// DoubleValue wraps a float64 for Writer.Write/WriteField. Writing a NaN
// or an infinity fails with unexpectedInput: JSON has no literal for
// either.
func DoubleValue(f float64) Value {
	return Value{kind: valueNumber, num: jsontoken.Number{Kind: jsontoken.DoubleNumber, Double: f}}
}

// DecimalValue wraps an arbitrary-precision decimal.Decimal for
// Writer.Write/WriteField, writing its exact value with no rounding.
func DecimalValue(d decimal.Decimal) Value {
	return Value{kind: valueNumber, num: jsontoken.Number{Kind: jsontoken.DecimalNumber, Decimal: d}}
}

// NumberValue wraps an already-materialized Number, e.g. one obtained
// from a Token produced by Parser.Read, for round-tripping without
// re-tagging it.
func NumberValue(n jsontoken.Number) Value {
	return Value{kind: valueNumber, num: n}
}
