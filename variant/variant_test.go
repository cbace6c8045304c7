package variant

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/davecgh/go-spew/spew"
)

func TestWriteLiterals(t *testing.T) {
	tests := []struct {
		v   Value
		exp string
	}{
		{Value{}, "null"},
		{NewBool(true), "true"},
		{NewBool(false), "false"},
		{NewInt(0), "0"},
		{NewInt(-1024), "-1024"},
		{NewInt(math.MaxInt64), "9223372036854775807"},
		{NewFloat(0.8), "0.8"},
		{NewFloat(1), "1.0"},
		{NewFloat(-2.5), "-2.5"},
		{NewFloat(1e21), "1e+21"},
		{NewFloat(math.Inf(1)), "inf"},
		{NewFloat(math.Inf(-1)), "-inf"},
		{NewFloat(math.NaN()), "nan"},
		{NewString(""), `""`},
		{NewString(`say "hi"`), `"say \"hi\""`},
		{NewString("a\nb\tc\\"), `"a\nb\tc\\"`},
		{NewString("\x01"), `"\u0001"`},
		{NewString("zażółć"), `"zażółć"`},
		{NewArray(), "[]"},
		{NewArray(NewInt(1), NewString("x"), NewArray()), `[1, "x", []]`},
		{NewDict(), "{}"},
		{NewDict(DictEntry{NewString("a"), NewInt(1)}, DictEntry{NewInt(2), NewBool(false)}), `{ "a": 1, 2: false }`},
	}
	for _, test := range tests {
		got := Write(test.v)
		assert.Equal(t, test.exp, got)
	}
}

func TestRoundtrip(t *testing.T) {
	values := []Value{
		{},
		NewBool(true),
		NewInt(-9223372036854775808),
		NewFloat(3.14159),
		NewFloat(1e-300),
		NewFloat(-0.0),
		NewFloat(math.NaN()),
		NewFloat(math.Inf(-1)),
		NewString("line1\nline2\r\n\ttabbed \"quoted\" \\ back"),
		NewString("emoji 😀 and  "),
		NewArray(NewInt(1), NewArray(NewFloat(2), NewArray()), NewDict()),
		NewDict(
			DictEntry{NewString("name"), NewString("x")},
			DictEntry{NewInt(5), NewArray(NewBool(true))},
			DictEntry{NewArray(NewInt(1)), NewDict(DictEntry{NewString("nested"), Value{}})},
		),
	}
	for _, v := range values {
		lit := Write(v)
		got, err := ParseValue(lit)
		assert.NoError(t, err, "literal: %s", lit)
		assert.True(t, Equal(v, got), "literal %s parsed as %s", lit, spew.Sdump(got))
	}
}

func TestParseValueExtras(t *testing.T) {
	tests := []struct {
		s   string
		exp Value
	}{
		{" 42 ", NewInt(42)},
		{"+7", NewInt(7)},
		{"1e3", NewFloat(1000)},
		{".5", NewFloat(0.5)},
		{"+inf", NewFloat(math.Inf(1))},
		{`"é\/"`, NewString("é/")},
		{`"😀"`, NewString("😀")},
		{"[1, 2,]", NewArray(NewInt(1), NewInt(2))},
		{"[\n  1,\n  2\n]", NewArray(NewInt(1), NewInt(2))},
		{`{"a": 1, "a": 2}`, NewDict(DictEntry{NewString("a"), NewInt(2)})},
		{`{"a": 1,}`, NewDict(DictEntry{NewString("a"), NewInt(1)})},
	}
	for _, test := range tests {
		got, err := ParseValue(test.s)
		assert.NoError(t, err, "input: %q", test.s)
		assert.True(t, Equal(test.exp, got), "input %q parsed as %s", test.s, got)
	}
}

func TestParseValueErrors(t *testing.T) {
	tests := []string{
		"",
		"nope",
		"1.2.3",
		"0x10",
		"99999999999999999999",
		`"unterminated`,
		"\"new\nline\"",
		`"\q"`,
		`"\u12"`,
		`"\ud83d"`,
		"[1 2]",
		"[1,",
		"[,]",
		`{"a" 1}`,
		`{"a": 1 "b": 2}`,
		"1 2",
		"}",
	}
	for _, s := range tests {
		_, err := ParseValue(s)
		assert.Error(t, err, "input: %q", s)
		var pe *ParseError
		assert.True(t, errors.As(err, &pe), "input %q: expected *ParseError, got %T", s, err)
	}
}

func collectStatements(t *testing.T, s string) ([]Statement, error) {
	t.Helper()
	p := NewParser(strings.NewReader(s))
	var res []Statement
	for {
		st, err := p.Next()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, err
		}
		res = append(res, st)
	}
}

func TestParserStatements(t *testing.T) {
	input := `orphan=1
[display]

width=1024
 height = 768
"quoted key"="v"
""=true
[]
list=[
  1,
  2
]
[audio]
volume=0.8`
	got, err := collectStatements(t, input)
	assert.NoError(t, err)
	exp := []Statement{
		{Kind: StatementAssign, Name: "orphan", Value: NewInt(1)},
		{Kind: StatementTag, Name: "display"},
		{Kind: StatementAssign, Name: "width", Value: NewInt(1024)},
		{Kind: StatementAssign, Name: "height", Value: NewInt(768)},
		{Kind: StatementAssign, Name: "quoted key", Value: NewString("v")},
		{Kind: StatementAssign, Name: "", Value: NewBool(true)},
		{Kind: StatementTag, Name: ""},
		{Kind: StatementAssign, Name: "list", Value: NewArray(NewInt(1), NewInt(2))},
		{Kind: StatementTag, Name: "audio"},
		{Kind: StatementAssign, Name: "volume", Value: NewFloat(0.8)},
	}
	assert.Equal(t, len(exp), len(got))
	for i := range exp {
		assert.Equal(t, exp[i].Kind, got[i].Kind)
		assert.Equal(t, exp[i].Name, got[i].Name)
		assert.True(t, Equal(exp[i].Value, got[i].Value), "statement %d: %s", i, got[i].Value)
	}
}

func TestParserErrorLines(t *testing.T) {
	tests := []struct {
		input string
		line  int
	}{
		{"a=1\nb=\"unterminated\n", 2},
		{"a=1\n[section\nb=2", 2},
		{"a=1\nno_equals\n", 2},
		{"first=1\nkey_without_section=\n{\"a\": 1]\n", 3},
		{"a=1 b=2", 1},
		{"[s] x", 1},
		{"\n\n\n=5", 4},
		{"a=[1,\n2,\n", 3},
		{"a=", 1},
	}
	for _, test := range tests {
		p := NewParser(strings.NewReader(test.input))
		var err error
		for err == nil {
			_, err = p.Next()
		}
		var pe *ParseError
		assert.True(t, errors.As(err, &pe), "input %q: expected *ParseError, got %v", test.input, err)
		assert.Equal(t, test.line, pe.Line, "input %q: %s", test.input, pe)
	}
}

func TestParserEmptyInput(t *testing.T) {
	for _, s := range []string{"", "\n\n", "  \t\n", "\ufeff"} {
		p := NewParser(strings.NewReader(s))
		_, err := p.Next()
		assert.Equal(t, io.EOF, err)
		// stays at EOF
		_, err = p.Next()
		assert.Equal(t, io.EOF, err)
	}
}

func TestFormatKey(t *testing.T) {
	assert.Equal(t, "width", FormatKey("width"))
	assert.Equal(t, "a.b-c_d", FormatKey("a.b-c_d"))
	assert.Equal(t, `""`, FormatKey(""))
	assert.Equal(t, `"has space"`, FormatKey("has space"))
	assert.Equal(t, `"a=b"`, FormatKey("a=b"))
	assert.Equal(t, `"[x"`, FormatKey("[x"))

	assert.Equal(t, "\"\ufeffk\"", FormatKey("\ufeffk"))
	assert.Equal(t, "\"k\u00a0\"", FormatKey("k\u00a0"))
	assert.Equal(t, "a\u00a0b", FormatKey("a\u00a0b"))

	keys := []string{"", "has space", "a=b", "[x", `q"uote`, "new\nline",
		"\u00a0k", "k\u00a0", "\ufeffk", "k\u3000", "k\r", "\u2028k"}
	for _, k := range keys {
		got, err := collectStatements(t, FormatKey(k)+"=1")
		assert.NoError(t, err)
		assert.Equal(t, 1, len(got))
		assert.Equal(t, k, got[0].Name, "%q", k)
	}

	// only ascii spaces around bare keys are insignificant
	got, err := collectStatements(t, " \tk\u00a0 =1")
	assert.NoError(t, err)
	assert.Equal(t, "k\u00a0", got[0].Name)
}

func TestFormatSection(t *testing.T) {
	assert.Equal(t, "display", FormatSection("display"))
	assert.Equal(t, "", FormatSection(""))
	assert.Equal(t, "with space", FormatSection("with space"))
	assert.Equal(t, `"a]b"`, FormatSection("a]b"))
	assert.Equal(t, `"\"q"`, FormatSection(`"q`))
	assert.Equal(t, `"a\nb"`, FormatSection("a\nb"))

	names := []string{"", "display", "a]b", "x]\nk=1\n[y", `"q`, "tab\there", " edge ", "\ufeffbom"}
	for _, name := range names {
		got, err := collectStatements(t, "["+FormatSection(name)+"]\nk=1\n")
		assert.NoError(t, err)
		assert.Equal(t, 2, len(got), "%q", name)
		assert.Equal(t, StatementTag, got[0].Kind)
		assert.Equal(t, name, got[0].Name, "%q", name)
	}

	for _, s := range []string{`["a"x]`, `["a"`, "[\"a\"\n]", `["a`} {
		_, err := collectStatements(t, s)
		assert.Error(t, err, "%q", s)
	}
}

func TestFromGo(t *testing.T) {
	v, err := FromGo(map[string]any{
		"b": []int{1, 2},
		"a": uint8(3),
		"c": nil,
		"d": float32(0.5),
	})
	assert.NoError(t, err)
	assert.Equal(t, `{ "a": 3, "b": [1, 2], "c": null, "d": 0.5 }`, Write(v))

	_, err = FromGo(uint64(math.MaxUint64))
	assert.Error(t, err)
	_, err = FromGo(map[int]string{1: "x"})
	assert.Error(t, err)
	_, err = FromGo(make(chan int))
	assert.Error(t, err)

	var ptr *int
	v, err = FromGo(ptr)
	assert.NoError(t, err)
	assert.True(t, v.IsNil())
}

func TestInterface(t *testing.T) {
	v := NewDict(
		DictEntry{NewString("a"), NewArray(NewInt(1), NewFloat(2.5))},
		DictEntry{NewInt(7), NewBool(true)},
	)
	got := v.Interface().(map[string]any)
	assert.Equal(t, []any{int64(1), 2.5}, got["a"])
	assert.Equal(t, true, got["7"])
	assert.Equal(t, nil, Value{}.Interface())
}

func TestAccessors(t *testing.T) {
	i, ok := NewInt(5).Int()
	assert.True(t, ok)
	assert.Equal(t, int64(5), i)
	f, ok := NewInt(5).Float()
	assert.True(t, ok)
	assert.Equal(t, 5.0, f)
	_, ok = NewString("5").Int()
	assert.False(t, ok)

	d := NewDict(DictEntry{NewString("k"), NewString("v")})
	got, ok := d.Lookup(NewString("k"))
	assert.True(t, ok)
	assert.True(t, Equal(NewString("v"), got))
	_, ok = d.Lookup(NewString("missing"))
	assert.False(t, ok)
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, "dict", d.Kind().String())
	assert.False(t, Equal(NewInt(1), NewFloat(1)))
}
