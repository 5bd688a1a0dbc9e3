package jsontoken

import (
	"errors"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/lattice-substrate/jsonstream/jsonerr"
)

// NumberMode selects how a scanned number lexeme is materialized.
type NumberMode int

const (
	// IntDouble produces Number values tagged Int or Double: an integer
	// lexeme with at most 18 significant digits and no fraction/exponent
	// becomes Int; everything else becomes Double.
	IntDouble NumberMode = iota
	// AllDecimal produces Number values tagged Decimal, backed by
	// decimal.Decimal, preserving the exact lexeme value.
	AllDecimal
)

// NumberKind identifies which field of Number is populated.
type NumberKind int

const (
	// IntNumber indicates Number.Int is populated.
	IntNumber NumberKind = iota
	// DoubleNumber indicates Number.Double is populated.
	DoubleNumber
	// DecimalNumber indicates Number.Decimal is populated.
	DecimalNumber
)

// Number is a materialized JSON number, tagged by Kind.
type Number struct {
	Kind    NumberKind
	Int     int64
	Double  float64
	Decimal decimal.Decimal
}

// ScanNumber scans a number lexeme with no bytes yet consumed (the
// structural state machine pushes back its dispatch byte before calling
// this, so the leading digit or minus sign is still unread).
func (l *Lexer) ScanNumber(mode NumberMode) (Number, error) {
	l.resetScratch()

	if err := l.consumeOptionalMinus(); err != nil {
		return Number{}, err
	}
	intDigits, err := l.scanIntegerPart()
	if err != nil {
		return Number{}, err
	}
	hasFrac, err := l.scanFractionPart()
	if err != nil {
		return Number{}, err
	}
	hasExp, err := l.scanExponentPart()
	if err != nil {
		return Number{}, err
	}

	return l.materializeNumber(string(l.scratch), intDigits, hasFrac, hasExp, mode)
}

func (l *Lexer) consumeOptionalMinus() error {
	b, ok, err := l.r.NextByte()
	if err != nil {
		return err
	}
	if !ok {
		return l.errUnexpectedEOF("unexpected EOF in number")
	}
	if b != '-' {
		l.r.PushBack()
		return nil
	}
	return l.appendByte(b)
}

// scanIntegerPart consumes `0` or `[1-9][0-9]*` and returns the digit
// count. A leading zero followed immediately by another digit is
// rejected.
func (l *Lexer) scanIntegerPart() (int, error) {
	b, ok, err := l.r.NextByte()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, l.errUnexpectedEOF("unexpected EOF in number")
	}
	if !isDigit(b) {
		l.r.PushBack()
		return 0, l.errUnexpectedInput("invalid number: expected a digit or '-'")
	}
	if err := l.appendByte(b); err != nil {
		return 0, err
	}
	if b == '0' {
		return l.rejectLeadingZero()
	}

	count := 1
	for {
		nb, ok2, err2 := l.r.NextByte()
		if err2 != nil {
			return 0, err2
		}
		if !ok2 {
			break
		}
		if !isDigit(nb) {
			l.r.PushBack()
			break
		}
		if err := l.appendByte(nb); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

func (l *Lexer) rejectLeadingZero() (int, error) {
	nb, ok, err := l.r.NextByte()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 1, nil
	}
	if isDigit(nb) {
		l.r.PushBack()
		return 0, l.errUnexpectedInput("leading zero in number")
	}
	l.r.PushBack()
	return 1, nil
}

// scanFractionPart consumes an optional `.` followed by one or more
// digits.
func (l *Lexer) scanFractionPart() (bool, error) {
	b, ok, err := l.r.NextByte()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if b != '.' {
		l.r.PushBack()
		return false, nil
	}
	if err := l.appendByte(b); err != nil {
		return false, err
	}

	db, ok2, err2 := l.r.NextByte()
	if err2 != nil {
		return false, err2
	}
	if !ok2 || !isDigit(db) {
		return false, l.errUnexpectedInput("expected a digit after '.'")
	}
	if err := l.appendByte(db); err != nil {
		return false, err
	}

	if err := l.consumeDigitRun(); err != nil {
		return false, err
	}
	return true, nil
}

// scanExponentPart consumes an optional (e|E)(+|-)?[0-9]+.
func (l *Lexer) scanExponentPart() (bool, error) {
	b, ok, err := l.r.NextByte()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if b != 'e' && b != 'E' {
		l.r.PushBack()
		return false, nil
	}
	if err := l.appendByte(b); err != nil {
		return false, err
	}

	sb, ok2, err2 := l.r.NextByte()
	if err2 != nil {
		return false, err2
	}
	if ok2 && (sb == '+' || sb == '-') {
		if err := l.appendByte(sb); err != nil {
			return false, err
		}
		sb, ok2, err2 = l.r.NextByte()
		if err2 != nil {
			return false, err2
		}
	}
	if !ok2 || !isDigit(sb) {
		return false, l.errUnexpectedInput("expected a digit in exponent")
	}
	if err := l.appendByte(sb); err != nil {
		return false, err
	}

	if err := l.consumeDigitRun(); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Lexer) consumeDigitRun() error {
	for {
		b, ok, err := l.r.NextByte()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if !isDigit(b) {
			l.r.PushBack()
			return nil
		}
		if err := l.appendByte(b); err != nil {
			return err
		}
	}
}

func (l *Lexer) materializeNumber(raw string, intDigits int, hasFrac, hasExp bool, mode NumberMode) (Number, error) {
	if mode == AllDecimal {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return Number{}, l.errUnexpectedInput("invalid decimal literal " + raw)
		}
		return Number{Kind: DecimalNumber, Decimal: d}, nil
	}

	if !hasFrac && !hasExp && intDigits <= 18 {
		if iv, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return Number{Kind: IntNumber, Int: iv}, nil
		}
	}

	fv, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		var numErr *strconv.NumError
		if !(errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange)) {
			return Number{}, jsonerr.New(jsonerr.UnexpectedError, l.Line(),
				"number failed to parse as double after grammar validation: "+raw)
		}
		// ErrRange: magnitude overflowed to +/-Inf, which is an accepted result.
	}
	return Number{Kind: DoubleNumber, Double: fv}, nil
}
