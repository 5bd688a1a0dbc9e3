package jsonstream

import (
	"math"
	"testing"

	"github.com/lattice-substrate/jsonstream/jsonerr"
	"github.com/lattice-substrate/jsonstream/jsonpath"
	"github.com/lattice-substrate/jsonstream/jsontoken"
)

func readAll(t *testing.T, input string, cfg Config) ([]Token, error) {
	t.Helper()
	p := NewParserFromBytes([]byte(input), cfg)
	var toks []Token
	for {
		tok, ok, err := p.Read()
		if err != nil {
			return toks, err
		}
		if !ok {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

func assertErrKind(t *testing.T, err error, want jsonerr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %s, got nil", want)
	}
	je, ok := err.(*jsonerr.Error)
	if !ok {
		t.Fatalf("error %v is not *jsonerr.Error", err)
	}
	if je.Kind != want {
		t.Fatalf("error kind = %s, want %s", je.Kind, want)
	}
}

// Scenario 1: [[]] -> startArray(nil), startArray(0), endArray(0), endArray(nil).
func TestScenarioNestedEmptyArrays(t *testing.T) {
	toks, err := readAll(t, "[[]]", Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Token{
		{Kind: StartArray},
		{Kind: StartArray, Key: jsonpath.Index(0), HasKey: true},
		{Kind: EndArray, Key: jsonpath.Index(0), HasKey: true},
		{Kind: EndArray},
	}
	assertTokensEqual(t, toks, want)
}

// Scenario 2: {"a":{"b":{"c":111}}} -> seven tokens.
func TestScenarioNestedObjects(t *testing.T) {
	toks, err := readAll(t, `{"a":{"b":{"c":111}}}`, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 7 {
		t.Fatalf("got %d tokens, want 7: %+v", len(toks), toks)
	}
	want := []Token{
		{Kind: StartObject},
		{Kind: StartObject, Key: jsonpath.Name("a"), HasKey: true},
		{Kind: StartObject, Key: jsonpath.Name("b"), HasKey: true},
		{Kind: NumberToken, Key: jsonpath.Name("c"), HasKey: true, Number: jsontoken.Number{Kind: jsontoken.IntNumber, Int: 111}},
		{Kind: EndObject, Key: jsonpath.Name("b"), HasKey: true},
		{Kind: EndObject, Key: jsonpath.Name("a"), HasKey: true},
		{Kind: EndObject},
	}
	assertTokensEqual(t, toks, want)
}

// Scenario 3: escaped carriage return is dropped, other escapes decoded.
func TestScenarioStringEscapes(t *testing.T) {
	toks, err := readAll(t, `"€123 \"blah\/\" (\\) \r\n"`, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 1 || toks[0].Kind != StringToken {
		t.Fatalf("got %+v, want a single string token", toks)
	}
	want := "€123 \"blah/\" (\\) \n"
	if toks[0].String != want {
		t.Fatalf("String = %q, want %q", toks[0].String, want)
	}
}

// Scenario 4: a number far outside double range/precision, in both modes.
func TestScenarioOutOfRangeNumber(t *testing.T) {
	input := `-12345678901234567890123456789.123`

	toks, err := readAll(t, input, Config{NumberParsing: jsontoken.IntDouble})
	if err != nil {
		t.Fatalf("intDouble: unexpected error: %v", err)
	}
	if len(toks) != 1 || toks[0].Number.Kind != jsontoken.DoubleNumber {
		t.Fatalf("intDouble: got %+v, want a single double token", toks)
	}
	want := -1.2345678901234568e28
	if math.Abs(toks[0].Number.Double-want)/math.Abs(want) > 1e-12 {
		t.Fatalf("intDouble: Double = %v, want approximately %v", toks[0].Number.Double, want)
	}

	toks, err = readAll(t, input, Config{NumberParsing: jsontoken.AllDecimal})
	if err != nil {
		t.Fatalf("allDecimal: unexpected error: %v", err)
	}
	if len(toks) != 1 || toks[0].Number.Kind != jsontoken.DecimalNumber {
		t.Fatalf("allDecimal: got %+v, want a single decimal token", toks)
	}
	if got := toks[0].Number.Decimal.String(); got != input {
		t.Fatalf("allDecimal: Decimal.String() = %q, want %q", got, input)
	}
}

// Scenario 5: the int/double boundary at 18 vs 19 significant digits.
func TestScenarioIntDoubleBoundary(t *testing.T) {
	toks, err := readAll(t, "999999999999999999", Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 1 || toks[0].Number.Kind != jsontoken.IntNumber || toks[0].Number.Int != 999999999999999999 {
		t.Fatalf("got %+v, want Int(999999999999999999)", toks)
	}

	toks, err = readAll(t, "1234567890123456789", Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 1 || toks[0].Number.Kind != jsontoken.DoubleNumber || toks[0].Number.Double != 1.2345678901234568e18 {
		t.Fatalf("got %+v, want Double(1.2345678901234568e18)", toks)
	}
}

// Scenario 6: maxValueLength boundary fails before the closing quote.
func TestScenarioValueTooLongBoundary(t *testing.T) {
	_, err := readAll(t, `"abcdefghij€"`, Config{MaxValueLength: 10})
	assertErrKind(t, err, jsonerr.ValueTooLong)
}

func TestBareRootScalars(t *testing.T) {
	cases := []struct {
		input string
		kind  TokenKind
	}{
		{`"x"`, StringToken},
		{`42`, NumberToken},
		{`true`, BoolToken},
		{`false`, BoolToken},
		{`null`, NullToken},
	}
	for _, tc := range cases {
		toks, err := readAll(t, tc.input, Config{})
		if err != nil {
			t.Fatalf("input %q: unexpected error: %v", tc.input, err)
		}
		if len(toks) != 1 || toks[0].Kind != tc.kind {
			t.Fatalf("input %q: got %+v, want a single token of kind %s", tc.input, toks, tc.kind)
		}
	}
}

func TestEmptyObjectAndArray(t *testing.T) {
	toks, err := readAll(t, "{}", Config{})
	if err != nil || len(toks) != 2 || toks[0].Kind != StartObject || toks[1].Kind != EndObject {
		t.Fatalf("{} -> %+v, %v", toks, err)
	}
	toks, err = readAll(t, "[]", Config{})
	if err != nil || len(toks) != 2 || toks[0].Kind != StartArray || toks[1].Kind != EndArray {
		t.Fatalf("[] -> %+v, %v", toks, err)
	}
}

func TestTrailingCommaRejected(t *testing.T) {
	_, err := readAll(t, `[1,2,]`, Config{})
	assertErrKind(t, err, jsonerr.UnexpectedInput)

	_, err = readAll(t, `{"a":1,}`, Config{})
	assertErrKind(t, err, jsonerr.UnexpectedInput)
}

func TestLeadingCommaRejected(t *testing.T) {
	_, err := readAll(t, `[,1]`, Config{})
	assertErrKind(t, err, jsonerr.UnexpectedInput)
}

func TestMissingCommaRejected(t *testing.T) {
	_, err := readAll(t, `[1 2]`, Config{})
	assertErrKind(t, err, jsonerr.UnexpectedInput)
}

func TestUnterminatedContainersFailEOF(t *testing.T) {
	_, err := readAll(t, `{"a":1`, Config{})
	assertErrKind(t, err, jsonerr.UnexpectedEOF)

	_, err = readAll(t, `[1,2`, Config{})
	assertErrKind(t, err, jsonerr.UnexpectedEOF)

	_, err = readAll(t, `"unterminated`, Config{})
	assertErrKind(t, err, jsonerr.UnexpectedEOF)
}

func TestTrailingGarbageAfterRootRejected(t *testing.T) {
	_, err := readAll(t, `42 43`, Config{})
	assertErrKind(t, err, jsonerr.UnexpectedInput)

	_, err = readAll(t, `{} x`, Config{})
	assertErrKind(t, err, jsonerr.UnexpectedInput)
}

func TestTrailingWhitespaceAfterRootIsFine(t *testing.T) {
	toks, err := readAll(t, "42   \n\t", Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 1 {
		t.Fatalf("got %+v, want a single token", toks)
	}
}

func TestBufferCapacityDoesNotChangeTokenStream(t *testing.T) {
	input := `{"a":[1,2.5,"x",true,false,null,{"b":[]}]}`
	var baseline []Token
	for _, cap := range []int{1, 2, 3, 7, 64, 4096} {
		toks, err := readAll(t, input, Config{BufferCapacity: cap})
		if err != nil {
			t.Fatalf("capacity %d: unexpected error: %v", cap, err)
		}
		if baseline == nil {
			baseline = toks
			continue
		}
		assertTokensEqual(t, toks, baseline)
	}
}

func TestArrayElementIndicesMatchPosition(t *testing.T) {
	p := NewParserFromBytes([]byte(`["a","b","c"]`), Config{})
	var indices []int
	for {
		tok, ok, err := p.Read()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		if tok.Kind == StringToken {
			indices = append(indices, tok.Key.Index)
		}
	}
	want := []int{0, 1, 2}
	if len(indices) != len(want) {
		t.Fatalf("indices = %v, want %v", indices, want)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("indices = %v, want %v", indices, want)
		}
	}
}

func TestLineNumberNonDecreasing(t *testing.T) {
	p := NewParserFromBytes([]byte("{\n\"a\":1,\n\"b\":2\n}"), Config{})
	last := 0
	for {
		_, ok, err := p.Read()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		if p.Line() < last {
			t.Fatalf("Line() decreased: %d after %d", p.Line(), last)
		}
		last = p.Line()
	}
}

func TestPathDuringTraversal(t *testing.T) {
	p := NewParserFromBytes([]byte(`{"a":[{"b":1}]}`), Config{})
	var sawPath string
	for {
		tok, ok, err := p.Read()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		if tok.Kind == NumberToken {
			sawPath = p.PathString()
		}
	}
	if want := "a[0].b"; sawPath != want {
		t.Fatalf("PathString() at number token = %q, want %q", sawPath, want)
	}
}

func TestPathMatchDuringTraversal(t *testing.T) {
	p := NewParserFromBytes([]byte(`{"a":{"b":{"c":1}}}`), Config{})
	matched := false
	for {
		tok, ok, err := p.Read()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		if tok.Kind == NumberToken && p.PathMatch(jsonpath.Name("a"), jsonpath.Name("c")) {
			matched = true
		}
	}
	if !matched {
		t.Fatal("expected PathMatch(a, c) to hold at the number token")
	}
}

func TestParserIsPoisonedAfterError(t *testing.T) {
	p := NewParserFromBytes([]byte(`[1, }`), Config{})
	sawError := false
	for i := 0; i < 10; i++ {
		_, ok, err := p.Read()
		if err != nil {
			sawError = true
			continue
		}
		if !ok {
			if !sawError {
				t.Fatal("expected an error before end-of-input")
			}
			return
		}
	}
	t.Fatal("parser did not settle into end-of-input after error")
}

func assertTokensEqual(t *testing.T, got, want []Token) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d\ngot:  %+v\nwant: %+v", len(got), len(want), got, want)
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.Kind != w.Kind || g.HasKey != w.HasKey {
			t.Fatalf("token %d: got %+v, want %+v", i, g, w)
		}
		if w.HasKey && !g.Key.Equal(w.Key) {
			t.Fatalf("token %d: key = %v, want %v", i, g.Key, w.Key)
		}
		if w.Kind == NumberToken {
			if g.Number.Kind != w.Number.Kind || g.Number.Int != w.Number.Int {
				t.Fatalf("token %d: number = %+v, want %+v", i, g.Number, w.Number)
			}
		}
	}
}
