// Package numformat formats float64 values as the shortest decimal string
// that reparses to the same IEEE 754 double, for use by jsonstream's
// Writer when emitting a Number carrying a Double.
//
// The algorithm is the Burger-Dybvig "free-format" digit generator, using
// math/big for exact multiprecision arithmetic and even-digit tie
// breaking (the same rounding rule ECMAScript's Number::toString uses).
// It differs from a JCS/RFC-8785-style formatter in one respect: negative
// zero is preserved as "-0" rather than collapsed to "0", since this
// package's only contract is "shortest string that reparses losslessly,"
// and JSON's number grammar permits a signed zero.
package numformat

import (
	"errors"
	"math"
	"math/big"
)

// ErrNotFinite indicates FormatDouble was asked to format NaN or an
// infinity, neither of which has a JSON number representation.
var ErrNotFinite = errors.New("numformat: value is not finite (NaN or Infinity)")

var bigTen = big.NewInt(10)

// FormatDouble renders f as the shortest decimal string that, when parsed
// back as a float64, reproduces the same bit pattern.
func FormatDouble(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", ErrNotFinite
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0", nil
		}
		return "0", nil
	}

	negative := f < 0
	if negative {
		f = -f
	}

	digits, n := generateDigits(f)
	return formatFixedOrExponential(negative, digits, n), nil
}

// formatFixedOrExponential applies the same format-selection rules as
// ECMA-262 Number::toString steps 6-9: fixed-point for exponents in
// [-6, 21), exponential otherwise.
func formatFixedOrExponential(negative bool, digits string, n int) string {
	k := len(digits)

	var buf []byte
	if negative {
		buf = append(buf, '-')
	}

	switch {
	case k <= n && n <= 21:
		buf = appendIntegerFixed(buf, digits, k, n)
	case 0 < n && n <= 21:
		buf = appendFractionFixed(buf, digits, n)
	case -6 < n && n <= 0:
		buf = appendSmallFraction(buf, digits, n)
	default:
		buf = appendExponential(buf, digits, k, n)
	}

	return string(buf)
}

func appendIntegerFixed(buf []byte, digits string, k, n int) []byte {
	buf = append(buf, digits...)
	for i := 0; i < n-k; i++ {
		buf = append(buf, '0')
	}
	return buf
}

func appendFractionFixed(buf []byte, digits string, n int) []byte {
	buf = append(buf, digits[:n]...)
	buf = append(buf, '.')
	buf = append(buf, digits[n:]...)
	return buf
}

func appendSmallFraction(buf []byte, digits string, n int) []byte {
	buf = append(buf, '0', '.')
	for i := 0; i < -n; i++ {
		buf = append(buf, '0')
	}
	buf = append(buf, digits...)
	return buf
}

func appendExponential(buf []byte, digits string, k, n int) []byte {
	buf = append(buf, digits[0])
	if k > 1 {
		buf = append(buf, '.')
		buf = append(buf, digits[1:]...)
	}
	buf = append(buf, 'e')
	exp := n - 1
	if exp >= 0 {
		buf = append(buf, '+')
	}
	return appendInt(buf, exp)
}

func appendInt(buf []byte, v int) []byte {
	if v < 0 {
		buf = append(buf, '-')
		v = -v
	}
	if v == 0 {
		return append(buf, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(buf, tmp[i:]...)
}

// generateDigits runs the Burger-Dybvig shortest-digits algorithm for a
// positive finite nonzero double, returning (digits, n) where
// value = 0.<digits> * 10^n.
//
// k = ceil(log10(f)) is only an estimate (it is computed in floating
// point and can be off by one in either direction); the loop below
// re-scales from the unscaled r/s/m+/m- and nudges k until it is exact,
// which takes at most one or two iterations in practice.
func generateDigits(f float64) (string, int) {
	parts := decodeFloatParts(f)
	unscaled := initScaledState(parts)
	k := estimateK(f)

	for {
		state := cloneState(unscaled)
		scaleByPower10(state, k)

		if estimateTooLow(state, parts.isEven) {
			k--
			continue
		}
		if estimateTooHigh(state, parts.isEven) {
			k++
			continue
		}
		return extractDigits(state, parts.isEven, k)
	}
}

func cloneState(s *digitState) *digitState {
	return &digitState{
		r:      new(big.Int).Set(s.r),
		s:      new(big.Int).Set(s.s),
		mPlus:  new(big.Int).Set(s.mPlus),
		mMinus: new(big.Int).Set(s.mMinus),
	}
}

// estimateTooLow reports whether k overshot: even scaled by 10 (that is,
// at k-1) the upper boundary r+m+ would not reach s, meaning k should be
// one smaller. It is the exact negation of estimateTooHigh at k-1, so the
// two checks never send k back and forth.
func estimateTooLow(state *digitState, isEven bool) bool {
	tenHigh := new(big.Int).Add(state.r, state.mPlus)
	tenHigh.Mul(tenHigh, bigTen)
	return !cmpHigh(tenHigh, state.s, isEven)
}

// estimateTooHigh reports whether k undershot: even the upper boundary
// r+m+ has not reached s, meaning an extra integer digit remains and k
// should be one larger.
func estimateTooHigh(state *digitState, isEven bool) bool {
	high := new(big.Int).Add(state.r, state.mPlus)
	return cmpHigh(high, state.s, isEven)
}

type floatParts struct {
	fMant         uint64
	fExp          int
	lowerBoundary bool
	isEven        bool
}

type digitState struct {
	r      *big.Int
	s      *big.Int
	mPlus  *big.Int
	mMinus *big.Int
}

func decodeFloatParts(f float64) floatParts {
	bits := math.Float64bits(f)
	mantissa := bits & ((uint64(1) << 52) - 1)
	biasedExp := int(exponentBits(bits))

	fMant := mantissa
	fExp := 1 - 1023 - 52
	if biasedExp != 0 {
		fMant = (uint64(1) << 52) | mantissa
		fExp = biasedExp - 1023 - 52
	}

	return floatParts{
		fMant:         fMant,
		fExp:          fExp,
		lowerBoundary: biasedExp > 1 && mantissa == 0,
		isEven:        fMant%2 == 0,
	}
}

func initScaledState(parts floatParts) *digitState {
	state := &digitState{r: new(big.Int), s: new(big.Int), mPlus: new(big.Int), mMinus: new(big.Int)}
	if parts.fExp >= 0 {
		initScaledPositiveExp(state, parts)
		return state
	}
	initScaledNegativeExp(state, parts)
	return state
}

func initScaledPositiveExp(state *digitState, parts floatParts) {
	if !parts.lowerBoundary {
		state.r.SetUint64(parts.fMant)
		lshByInt(state.r, parts.fExp+1)
		state.s.SetInt64(2)
		state.mPlus.SetInt64(1)
		lshByInt(state.mPlus, parts.fExp)
		state.mMinus.Set(state.mPlus)
		return
	}
	state.r.SetUint64(parts.fMant)
	lshByInt(state.r, parts.fExp+2)
	state.s.SetInt64(4)
	state.mPlus.SetInt64(1)
	lshByInt(state.mPlus, parts.fExp+1)
	state.mMinus.SetInt64(1)
	lshByInt(state.mMinus, parts.fExp)
}

func initScaledNegativeExp(state *digitState, parts floatParts) {
	if !parts.lowerBoundary {
		state.r.SetUint64(parts.fMant)
		lshByInt(state.r, 1)
		state.s.SetInt64(1)
		lshByInt(state.s, -parts.fExp+1)
		state.mPlus.SetInt64(1)
		state.mMinus.SetInt64(1)
		return
	}
	state.r.SetUint64(parts.fMant)
	lshByInt(state.r, 2)
	state.s.SetInt64(1)
	lshByInt(state.s, -parts.fExp+2)
	state.mPlus.SetInt64(2)
	state.mMinus.SetInt64(1)
}

func scaleByPower10(state *digitState, k int) {
	switch {
	case k > 0:
		state.s.Mul(state.s, pow10Big(k))
	case k < 0:
		p := pow10Big(-k)
		state.r.Mul(state.r, p)
		state.mPlus.Mul(state.mPlus, p)
		state.mMinus.Mul(state.mMinus, p)
	}
}

func cmpHigh(lhs, rhs *big.Int, isEven bool) bool {
	if isEven {
		return lhs.Cmp(rhs) >= 0
	}
	return lhs.Cmp(rhs) > 0
}

func extractDigits(state *digitState, isEven bool, n int) (string, int) {
	var digitBuf [30]byte
	dIdx := 0
	quot := new(big.Int)
	rem := new(big.Int)

	for {
		scaleDigitState(state)
		d := divideAndRemainder(state, quot, rem)

		tc1, tc2 := terminationConditions(state, isEven)
		if !tc1 && !tc2 {
			digitBuf[dIdx] = byte('0' + d)
			dIdx++
			continue
		}

		digitBuf[dIdx] = finalDigit(d, tc1, tc2, state.r, state.s)
		dIdx++
		break
	}

	n = normalizeDigitBuffer(digitBuf[:], dIdx, &dIdx, n)
	return string(digitBuf[:dIdx]), n
}

func scaleDigitState(state *digitState) {
	state.r.Mul(state.r, bigTen)
	state.mPlus.Mul(state.mPlus, bigTen)
	state.mMinus.Mul(state.mMinus, bigTen)
}

func divideAndRemainder(state *digitState, quot, rem *big.Int) int {
	quot.DivMod(state.r, state.s, rem)
	d := int(quot.Int64())
	state.r.Set(rem)
	return d
}

func terminationConditions(state *digitState, isEven bool) (bool, bool) {
	tc1 := cmpRoundDown(state.r, state.mMinus, isEven)
	high := new(big.Int).Add(state.r, state.mPlus)
	tc2 := cmpHigh(high, state.s, isEven)
	return tc1, tc2
}

func cmpRoundDown(lhs, rhs *big.Int, isEven bool) bool {
	if isEven {
		return lhs.Cmp(rhs) <= 0
	}
	return lhs.Cmp(rhs) < 0
}

func finalDigit(d int, tc1, tc2 bool, r, s *big.Int) byte {
	switch {
	case tc1 && !tc2:
		return byte('0' + d)
	case !tc1 && tc2:
		return byte('0' + d + 1)
	default:
		return midpointDigit(d, r, s)
	}
}

func midpointDigit(d int, r, s *big.Int) byte {
	twoR := new(big.Int).Lsh(r, 1)
	cmp := twoR.Cmp(s)
	if cmp < 0 {
		return byte('0' + d)
	}
	if cmp > 0 {
		return byte('0' + d + 1)
	}
	if d%2 == 0 {
		return byte('0' + d)
	}
	return byte('0' + d + 1)
}

func normalizeDigitBuffer(digitBuf []byte, dIdx int, dIdxPtr *int, n int) int {
	for i := dIdx - 1; i > 0; i-- {
		if digitBuf[i] > '9' {
			digitBuf[i] = '0'
			digitBuf[i-1]++
		}
	}
	if dIdx > 0 && digitBuf[0] > '9' {
		copy(digitBuf[1:dIdx+1], digitBuf[0:dIdx])
		digitBuf[0] = '1'
		digitBuf[1] = '0'
		dIdx++
		n++
	}
	for dIdx > 1 && digitBuf[dIdx-1] == '0' {
		dIdx--
	}
	*dIdxPtr = dIdx
	return n
}

func exponentBits(bits uint64) uint16 {
	hi := byte((bits >> 56) & 0xFF)
	lo := byte((bits >> 48) & 0xFF)
	return (uint16(hi&0x7F) << 4) | uint16(lo>>4)
}

func lshByInt(z *big.Int, n int) {
	for i := 0; i < n; i++ {
		z.Lsh(z, 1)
	}
}

// estimateK returns an estimate of ceil(log10(f)) for f > 0.
func estimateK(f float64) int {
	bits := math.Float64bits(f)
	biasedExp := int(exponentBits(bits))

	var log2f float64
	if biasedExp == 0 {
		log2f = math.Log2(f)
	} else {
		log2f = float64(biasedExp-1023) + math.Log2(1.0+float64(bits&((1<<52)-1))/float64(uint64(1)<<52))
	}
	return int(math.Ceil(log2f / math.Log2(10)))
}

var pow10Cache [700]*big.Int

func init() {
	pow10Cache[0] = big.NewInt(1)
	for i := 1; i < len(pow10Cache); i++ {
		pow10Cache[i] = new(big.Int).Mul(pow10Cache[i-1], bigTen)
	}
}

func pow10Big(n int) *big.Int {
	if n >= 0 && n < len(pow10Cache) {
		return pow10Cache[n]
	}
	return new(big.Int).Exp(bigTen, big.NewInt(int64(n)), nil)
}
