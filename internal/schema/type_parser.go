package schema

import (
	"strings"

	"github.com/pkg/errors"
)

// ParseMode selects how user type references are materialized by the parser.
type ParseMode int

const (
	// Eager resolves every user type reference against the known user types
	// of the owning keyspace and fails if one is missing.
	Eager ParseMode = iota
	// Shallow turns every user type reference into a ShallowUserType, to be
	// resolved later once all user types of the keyspace are known.
	Shallow
)

func (m ParseMode) String() string {
	if m == Shallow {
		return "shallow"
	}
	return "eager"
}

// ParseCQLType parses a type string from the schema catalog.
//
// keyspace is the keyspace owning the object being parsed; it qualifies user
// type references that carry no keyspace of their own. userTypes maps type
// names to resolved definitions in that keyspace and is only consulted in
// Eager mode; it may be nil.
func ParseCQLType(typeStr, keyspace string, userTypes map[string]UserDefinedType, mode ParseMode) (Type, error) {
	p := &typeParser{
		input:     typeStr,
		keyspace:  keyspace,
		userTypes: userTypes,
		mode:      mode,
	}
	if strings.TrimSpace(typeStr) == "" {
		return nil, p.errorf("empty type string")
	}
	if err := p.checkBalanced(); err != nil {
		return nil, err
	}

	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.pos < len(p.input) {
		return nil, p.errorf("unexpected trailing input")
	}
	return t, nil
}

type typeParser struct {
	input     string
	pos       int
	keyspace  string
	userTypes map[string]UserDefinedType
	mode      ParseMode
}

func (p *typeParser) errorf(msg string) error {
	return &TypeSyntaxError{Input: p.input, Pos: p.pos, Msg: msg}
}

// checkBalanced rejects unbalanced angle brackets and unterminated quotes
// before any recursion happens.
func (p *typeParser) checkBalanced() error {
	depth := 0
	for i := 0; i < len(p.input); i++ {
		switch ch := p.input[i]; ch {
		case '"', '\'':
			end := closingQuote(p.input, i)
			if end < 0 {
				return &TypeSyntaxError{Input: p.input, Pos: i, Msg: "unterminated quoted name"}
			}
			i = end
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return &TypeSyntaxError{Input: p.input, Pos: i, Msg: "unbalanced '>'"}
			}
		}
	}
	if depth != 0 {
		return &TypeSyntaxError{Input: p.input, Pos: len(p.input), Msg: "unbalanced '<'"}
	}
	return nil
}

// closingQuote returns the index of the quote closing the one at start,
// treating a doubled quote as an escaped character.
func closingQuote(s string, start int) int {
	q := s[start]
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i
	}
	return -1
}

func (p *typeParser) parseType() (Type, error) {
	p.skipWhitespace()
	if p.pos >= len(p.input) {
		return nil, p.errorf("expected type")
	}

	if p.input[p.pos] == '\'' {
		return p.parseCustom()
	}

	start := p.pos
	name, quoted, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, p.errorf("expected type name")
	}

	if !quoted {
		switch name {
		case "frozen":
			return p.parseFrozen()
		case "list", "set":
			return p.parseListOrSet(name)
		case "map":
			return p.parseMap()
		case "tuple":
			return p.parseTuple()
		}
		if native, ok := LookupNativeType(name); ok && !p.peek('.') {
			return native, nil
		}
	}

	keyspace := p.keyspace
	if p.consume('.') {
		keyspace = name
		name, _, err = p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, p.errorf("expected user type name after keyspace")
		}
	}
	return p.userType(start, keyspace, name)
}

func (p *typeParser) userType(start int, keyspace, name string) (Type, error) {
	if p.mode == Shallow {
		return ShallowUserType{Keyspace: keyspace, Name: name}, nil
	}
	if keyspace == p.keyspace {
		if udt, ok := p.userTypes[name]; ok {
			return udt.WithFrozen(false), nil
		}
	}
	return nil, errors.Wrapf(&UnknownUserTypeError{Keyspace: keyspace, Name: name},
		"resolving %q", p.input[start:p.pos])
}

func (p *typeParser) parseFrozen() (Type, error) {
	if !p.consume('<') {
		return nil, p.errorf("expected '<' after 'frozen'")
	}
	inner, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if !p.consume('>') {
		return nil, p.errorf("expected '>' to close 'frozen'")
	}
	return WithFrozen(inner, true), nil
}

func (p *typeParser) parseListOrSet(kind string) (Type, error) {
	if !p.consume('<') {
		return nil, p.errorf("expected '<' after '" + kind + "'")
	}
	elem, err := p.parseType()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s element type", kind)
	}
	if !p.consume('>') {
		return nil, p.errorf("expected '>' to close '" + kind + "'")
	}
	if kind == "list" {
		return ListOf(elem), nil
	}
	return SetOf(elem), nil
}

func (p *typeParser) parseMap() (Type, error) {
	if !p.consume('<') {
		return nil, p.errorf("expected '<' after 'map'")
	}
	key, err := p.parseType()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse map key type")
	}
	if !p.consume(',') {
		return nil, p.errorf("expected ',' between map key and value types")
	}
	value, err := p.parseType()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse map value type")
	}
	if !p.consume('>') {
		return nil, p.errorf("expected '>' to close 'map'")
	}
	return MapOf(key, value), nil
}

func (p *typeParser) parseTuple() (Type, error) {
	if !p.consume('<') {
		return nil, p.errorf("expected '<' after 'tuple'")
	}
	var components []Type
	for {
		component, err := p.parseType()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse tuple component %d", len(components))
		}
		components = append(components, component)

		if p.consume('>') {
			break
		}
		if !p.consume(',') {
			return nil, p.errorf("expected ',' or '>' in tuple")
		}
	}
	return TupleOf(components...), nil
}

func (p *typeParser) parseCustom() (Type, error) {
	end := closingQuote(p.input, p.pos)
	if end < 0 {
		return nil, p.errorf("unterminated custom type class name")
	}
	className := strings.ReplaceAll(p.input[p.pos+1:end], "''", "'")
	p.pos = end + 1
	if className == "" {
		return nil, p.errorf("empty custom type class name")
	}
	return CustomType{ClassName: className}, nil
}

// parseIdentifier reads a bare or double-quoted identifier and returns it in
// internal form: bare identifiers are lower-cased, quoted ones are unescaped
// and keep their case.
func (p *typeParser) parseIdentifier() (string, bool, error) {
	p.skipWhitespace()
	if p.pos < len(p.input) && p.input[p.pos] == '"' {
		end := closingQuote(p.input, p.pos)
		if end < 0 {
			return "", true, p.errorf("unterminated quoted name")
		}
		name := strings.ReplaceAll(p.input[p.pos+1:end], `""`, `"`)
		p.pos = end + 1
		if name == "" {
			return "", true, p.errorf("empty quoted name")
		}
		return name, true, nil
	}

	start := p.pos
	for p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
		p.pos++
	}
	return strings.ToLower(p.input[start:p.pos]), false, nil
}

func isIdentChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') || ch == '_'
}

func (p *typeParser) peek(ch byte) bool {
	p.skipWhitespace()
	return p.pos < len(p.input) && p.input[p.pos] == ch
}

func (p *typeParser) consume(ch byte) bool {
	if p.peek(ch) {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) skipWhitespace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t' ||
		p.input[p.pos] == '\n' || p.input[p.pos] == '\r') {
		p.pos++
	}
}
