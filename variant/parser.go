package variant

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
	nan    = math.NaN()
)

// StatementKind tells if a Statement is a tag or an assignment
type StatementKind uint8

const (
	// StatementAssign is "key=value" line
	StatementAssign StatementKind = iota + 1
	// StatementTag is "[name]" line
	StatementTag
)

func (k StatementKind) String() string {
	switch k {
	case StatementAssign:
		return "assign"
	case StatementTag:
		return "tag"
	}
	return fmt.Sprintf("StatementKind(%d)", int(k))
}

// Statement is a result of Parser.Next()
type Statement struct {
	Kind StatementKind
	// Name is tag name for StatementTag and key for StatementAssign
	Name string
	// Value is only set for StatementAssign
	Value Value
}

// ParseError describes malformed input
type ParseError struct {
	// Path is optional, filled by callers that know where the data came from
	Path string
	// Line is 1-based line number where the error was detected
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// Parser reads tags and assignments from a stream
type Parser struct {
	r        *bufio.Reader
	line     int
	lastRune rune
}

// NewParser creates a parser reading from r
func NewParser(r io.Reader) *Parser {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Parser{
		r:    br,
		line: 1,
	}
}

// Line returns current 1-based line number
func (p *Parser) Line() int {
	return p.line
}

func (p *Parser) fail(format string, args ...any) *ParseError {
	return &ParseError{
		Line: p.line,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// converts io.EOF in the middle of a statement to a ParseError,
// other errors are i/o errors and are returned as-is
func (p *Parser) eofError(err error) error {
	if err == io.EOF {
		return p.fail("unexpected end of file")
	}
	return err
}

func (p *Parser) read() (rune, error) {
	r, _, err := p.r.ReadRune()
	if err != nil {
		return 0, err
	}
	if r == '\n' {
		p.line++
	}
	p.lastRune = r
	return r, nil
}

func (p *Parser) unread() {
	if p.r.UnreadRune() == nil && p.lastRune == '\n' {
		p.line--
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\ufeff'
}

// reads first rune that is not a space or newline
func (p *Parser) readNonSpace() (rune, error) {
	for {
		r, err := p.read()
		if err != nil {
			return 0, err
		}
		if !isSpace(r) && r != '\n' {
			return r, nil
		}
	}
}

func (p *Parser) peekNonSpace() (rune, error) {
	r, err := p.readNonSpace()
	if err == nil {
		p.unread()
	}
	return r, err
}

// Next returns next tag or assignment.
// Returns io.EOF when there are no more statements, *ParseError
// when the input is malformed and other errors if reading failed.
func (p *Parser) Next() (Statement, error) {
	r, err := p.readNonSpace()
	if err != nil {
		return Statement{}, err
	}

	var st Statement
	switch r {
	case '[':
		st.Kind = StatementTag
		st.Name, err = p.readTagName()
	case '"':
		st.Kind = StatementAssign
		st.Name, err = p.readString()
		if err == nil {
			err = p.expectEquals()
		}
	default:
		p.unread()
		st.Kind = StatementAssign
		st.Name, err = p.readBareKey()
	}
	if err != nil {
		return Statement{}, err
	}

	if st.Kind == StatementAssign {
		st.Value, err = p.parseValue()
		if err != nil {
			return Statement{}, err
		}
	}

	if err = p.expectEndOfLine(); err != nil {
		return Statement{}, err
	}
	return st, nil
}

func (p *Parser) readTagName() (string, error) {
	r, err := p.read()
	if err == nil && r == '"' {
		return p.readQuotedTagName()
	}
	if err == nil {
		p.unread()
	}
	var sb strings.Builder
	for {
		r, err := p.read()
		if err != nil {
			if err == io.EOF {
				return "", p.fail("unterminated section tag")
			}
			return "", err
		}
		if r == '\n' {
			p.unread()
			return "", p.fail("unterminated section tag")
		}
		if r == ']' {
			return sb.String(), nil
		}
		sb.WriteRune(r)
	}
}

// reads tag name written by FormatSection as a string literal
func (p *Parser) readQuotedTagName() (string, error) {
	name, err := p.readString()
	if err != nil {
		return "", err
	}
	r, err := p.read()
	if err != nil {
		return "", p.eofError(err)
	}
	if r != ']' {
		if r == '\n' {
			p.unread()
		}
		return "", p.fail("expected ']' after section name")
	}
	return name, nil
}

func (p *Parser) readBareKey() (string, error) {
	var sb strings.Builder
	for {
		r, err := p.read()
		if err != nil {
			if err == io.EOF {
				return "", p.fail("expected '=' after key %q", sb.String())
			}
			return "", err
		}
		if r == '\n' {
			p.unread()
			return "", p.fail("expected '=' after key %q", sb.String())
		}
		if r == '=' {
			break
		}
		sb.WriteRune(r)
	}
	key := strings.TrimFunc(sb.String(), isSpace)
	if key == "" {
		return "", p.fail("missing key before '='")
	}
	return key, nil
}

func (p *Parser) expectEquals() error {
	for {
		r, err := p.read()
		if err != nil {
			return p.eofError(err)
		}
		if isSpace(r) {
			continue
		}
		if r == '=' {
			return nil
		}
		if r == '\n' {
			p.unread()
		}
		return p.fail("expected '=' after key")
	}
}

// only spaces are allowed between end of statement and end of line
func (p *Parser) expectEndOfLine() error {
	for {
		r, err := p.read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if r == '\n' {
			return nil
		}
		if !isSpace(r) {
			return p.fail("unexpected %q at end of line", r)
		}
	}
}

func (p *Parser) parseValue() (Value, error) {
	r, err := p.readNonSpace()
	if err != nil {
		if err == io.EOF {
			return Value{}, p.fail("expected value")
		}
		return Value{}, err
	}
	switch {
	case r == '"':
		s, err := p.readString()
		if err != nil {
			return Value{}, err
		}
		return NewString(s), nil
	case r == '[':
		return p.parseArray()
	case r == '{':
		return p.parseDict()
	case r == '-' || r == '+' || r == '.' || isDigit(r):
		p.unread()
		return p.parseNumber()
	case isLetter(r):
		p.unread()
		return p.parseIdent()
	}
	return Value{}, p.fail("unexpected %q, expected value", r)
}

func (p *Parser) parseArray() (Value, error) {
	arr := []Value{}
	for {
		r, err := p.peekNonSpace()
		if err != nil {
			return Value{}, p.eofError(err)
		}
		if r == ']' {
			p.read()
			return NewArray(arr...), nil
		}
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		arr = append(arr, v)

		r, err = p.readNonSpace()
		if err != nil {
			return Value{}, p.eofError(err)
		}
		switch r {
		case ',':
			continue
		case ']':
			return NewArray(arr...), nil
		}
		return Value{}, p.fail("expected ',' or ']' in array, got %q", r)
	}
}

func (p *Parser) parseDict() (Value, error) {
	d := NewDict()
	for {
		r, err := p.peekNonSpace()
		if err != nil {
			return Value{}, p.eofError(err)
		}
		if r == '}' {
			p.read()
			return d, nil
		}
		k, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		r, err = p.readNonSpace()
		if err != nil {
			return Value{}, p.eofError(err)
		}
		if r != ':' {
			return Value{}, p.fail("expected ':' after dictionary key, got %q", r)
		}
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		d.dict = dictSet(d.dict, k, v)

		r, err = p.readNonSpace()
		if err != nil {
			return Value{}, p.eofError(err)
		}
		switch r {
		case ',':
			continue
		case '}':
			return d, nil
		}
		return Value{}, p.fail("expected ',' or '}' in dictionary, got %q", r)
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

// reads a run of runes matching fn
func (p *Parser) readWord(fn func(rune) bool) (string, error) {
	var sb strings.Builder
	for {
		r, err := p.read()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		if !fn(r) {
			p.unread()
			return sb.String(), nil
		}
		sb.WriteRune(r)
	}
}

func (p *Parser) parseNumber() (Value, error) {
	s, err := p.readWord(func(r rune) bool {
		return isDigit(r) || isLetter(r) || r == '.' || r == '-' || r == '+'
	})
	if err != nil {
		return Value{}, err
	}
	switch s {
	case "inf", "+inf":
		return NewFloat(posInf), nil
	case "-inf":
		return NewFloat(negInf), nil
	}
	if !strings.ContainsAny(s, ".eEnN") {
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return NewInt(i), nil
		}
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return Value{}, p.fail("integer %s out of range", s)
		}
		return Value{}, p.fail("invalid number %q", s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || strings.ContainsAny(s, "nNiI") {
		return Value{}, p.fail("invalid number %q", s)
	}
	return NewFloat(f), nil
}

func (p *Parser) parseIdent() (Value, error) {
	s, err := p.readWord(func(r rune) bool {
		return isLetter(r) || isDigit(r)
	})
	if err != nil {
		return Value{}, err
	}
	switch s {
	case "null":
		return Value{}, nil
	case "true":
		return NewBool(true), nil
	case "false":
		return NewBool(false), nil
	case "inf":
		return NewFloat(posInf), nil
	case "nan":
		return NewFloat(nan), nil
	}
	return Value{}, p.fail("unexpected identifier %q", s)
}

// reads string after opening '"'
func (p *Parser) readString() (string, error) {
	var sb strings.Builder
	for {
		r, err := p.read()
		if err != nil {
			if err == io.EOF {
				return "", p.fail("unterminated string")
			}
			return "", err
		}
		switch r {
		case '"':
			return sb.String(), nil
		case '\n':
			p.unread()
			return "", p.fail("unterminated string")
		case '\\':
			r, err = p.readEscape()
			if err != nil {
				return "", err
			}
		}
		sb.WriteRune(r)
	}
}

func (p *Parser) readEscape() (rune, error) {
	r, err := p.read()
	if err != nil {
		return 0, p.eofError(err)
	}
	switch r {
	case '"', '\\', '/':
		return r, nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'u':
		r1, err := p.readHex4()
		if err != nil {
			return 0, err
		}
		if !utf16.IsSurrogate(r1) {
			return r1, nil
		}
		// surrogate pair must be followed by \uXXXX with the low half
		if r, err = p.read(); err != nil || r != '\\' {
			return 0, p.fail("invalid surrogate pair in string")
		}
		if r, err = p.read(); err != nil || r != 'u' {
			return 0, p.fail("invalid surrogate pair in string")
		}
		r2, err := p.readHex4()
		if err != nil {
			return 0, err
		}
		dec := utf16.DecodeRune(r1, r2)
		if dec == unicode.ReplacementChar {
			return 0, p.fail("invalid surrogate pair in string")
		}
		return dec, nil
	}
	if r == '\n' {
		p.unread()
	}
	return 0, p.fail("invalid escape sequence '\\%c'", r)
}

func (p *Parser) readHex4() (rune, error) {
	var v rune
	for i := 0; i < 4; i++ {
		r, err := p.read()
		if err != nil {
			return 0, p.eofError(err)
		}
		var d rune
		switch {
		case r >= '0' && r <= '9':
			d = r - '0'
		case r >= 'a' && r <= 'f':
			d = r - 'a' + 10
		case r >= 'A' && r <= 'F':
			d = r - 'A' + 10
		default:
			return 0, p.fail("invalid hex digit %q in \\u escape", r)
		}
		v = v*16 + d
	}
	return v, nil
}

// ParseValue parses a single literal
func ParseValue(s string) (Value, error) {
	p := NewParser(strings.NewReader(s))
	v, err := p.parseValue()
	if err != nil {
		return Value{}, err
	}
	r, err := p.readNonSpace()
	if err == nil {
		return Value{}, p.fail("unexpected %q after value", r)
	}
	if err != io.EOF {
		return Value{}, err
	}
	return v, nil
}
