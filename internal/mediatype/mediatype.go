// Package mediatype models RFC 7231 media types and media ranges as they
// appear in Accept and Content-Type headers.
//
// A MediaType is an immutable value: type, subtype and an ordered parameter
// list. Parsing is strict (Parse) for single values and tolerant
// (ParseAccept) for comma-separated Accept lists, where malformed members
// are dropped instead of failing the whole header.
package mediatype

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Param is a single media type parameter. Name is always lower-cased; Value
// is kept as sent, with quoted-string escapes already removed.
type Param struct {
	Name  string
	Value string
}

// MediaType is a parsed type/subtype with parameters. The zero value is not
// a valid media type; obtain one from Parse, MustParse or the package
// constants.
type MediaType struct {
	typ     string
	subtype string
	params  []Param
}

// Parse parses a single media type such as `text/html; charset="utf-8"`.
// The error wraps ErrMalformedMediaType.
func Parse(raw string) (MediaType, error) {
	mt, err := parse(raw)
	if err != nil {
		return MediaType{}, &ParseError{Input: raw, Err: err}
	}
	return mt, nil
}

// MustParse is like Parse but panics on malformed input. Use it only for
// values fixed at compile time.
func MustParse(raw string) MediaType {
	mt, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return mt
}

func parse(raw string) (MediaType, error) {
	t := NewTokenizer(raw)

	typ, err := t.ConsumeToken(Token)
	if err != nil {
		return MediaType{}, err
	}
	if _, err := t.ConsumeChar('/'); err != nil {
		return MediaType{}, err
	}
	subtype, err := t.ConsumeToken(Token)
	if err != nil {
		return MediaType{}, err
	}

	var params []Param
	for t.HasMore() {
		if _, err := t.ConsumeTokenIfPresent(LinearWhitespace); err != nil {
			return MediaType{}, err
		}
		if _, err := t.ConsumeChar(';'); err != nil {
			return MediaType{}, err
		}
		if _, err := t.ConsumeTokenIfPresent(LinearWhitespace); err != nil {
			return MediaType{}, err
		}
		name, err := t.ConsumeToken(Token)
		if err != nil {
			return MediaType{}, err
		}
		if _, err := t.ConsumeChar('='); err != nil {
			return MediaType{}, err
		}
		value, err := consumeValue(t)
		if err != nil {
			return MediaType{}, err
		}
		params = putParam(params, ToLower(name), value)
	}

	return create(typ, subtype, params)
}

// consumeValue reads either a token or a quoted-string, un-escaping
// backslash pairs in the latter.
func consumeValue(t *Tokenizer) (string, error) {
	c, err := t.PreviewChar()
	if err != nil {
		return "", err
	}
	if c != '"' {
		return t.ConsumeToken(Token)
	}

	t.position++
	var sb strings.Builder
	for {
		c, err := t.PreviewChar()
		if err != nil {
			return "", err
		}
		if c == '"' {
			break
		}
		if c == '\\' {
			t.position++
			escaped, err := t.ConsumeCharacter(ASCII)
			if err != nil {
				return "", err
			}
			sb.WriteByte(escaped)
			continue
		}
		text, err := t.ConsumeToken(QuotedText)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	t.position++
	return sb.String(), nil
}

// putParam sets name to value, keeping the first position of a repeated name.
func putParam(params []Param, name, value string) []Param {
	for i := range params {
		if params[i].Name == name {
			params[i].Value = value
			return params
		}
	}
	return append(params, Param{Name: name, Value: value})
}

func create(typ, subtype string, params []Param) (MediaType, error) {
	typ, err := Normalize(Token, typ)
	if err != nil {
		return MediaType{}, err
	}
	subtype, err = Normalize(Token, subtype)
	if err != nil {
		return MediaType{}, err
	}
	if typ == WildcardValue && subtype != WildcardValue {
		return MediaType{}, &TokenError{
			Kind:   InvalidToken,
			Detail: "wildcard type requires wildcard subtype",
		}
	}
	return MediaType{typ: typ, subtype: subtype, params: params}, nil
}

// Type returns the lower-cased primary type, possibly "*".
func (m MediaType) Type() string { return m.typ }

// Subtype returns the lower-cased subtype, possibly "*".
func (m MediaType) Subtype() string { return m.subtype }

// IsZero reports whether m is the zero value rather than a parsed type.
func (m MediaType) IsZero() bool { return m.typ == "" }

// IsWildcardType reports whether the type is "*" (and so the subtype too).
func (m MediaType) IsWildcardType() bool { return m.typ == WildcardValue }

// IsWildcardSubtype reports whether the subtype is "*".
func (m MediaType) IsWildcardSubtype() bool { return m.subtype == WildcardValue }

// Params returns a copy of the parameters in header order.
func (m MediaType) Params() []Param {
	if len(m.params) == 0 {
		return nil
	}
	out := make([]Param, len(m.params))
	copy(out, m.params)
	return out
}

// Param returns the value of the named parameter. The lookup is
// case-insensitive on the name.
func (m MediaType) Param(name string) (string, bool) {
	name = ToLower(name)
	for _, p := range m.params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// WithParam returns a copy of m with name set to value. It panics if name
// is not a token or value holds a byte a quoted-string cannot carry
// (anything but HTAB, SP and visible ASCII).
func (m MediaType) WithParam(name, value string) MediaType {
	if name == "" || !Token.MatchesAll(name) {
		panic(fmt.Sprintf("mediatype: invalid parameter name %q", name))
	}
	if !ParamValue.MatchesAll(value) {
		panic(fmt.Sprintf("mediatype: invalid value %q for parameter %s", value, name))
	}
	params := m.Params()
	m.params = putParam(params, ToLower(name), value)
	return m
}

// WithoutParams returns m with every parameter removed.
func (m MediaType) WithoutParams() MediaType {
	m.params = nil
	return m
}

// QualityFactor returns the q parameter. A missing, unparsable or
// out-of-range value yields 1.0 so lenient clients are still served.
func (m MediaType) QualityFactor() float64 {
	raw, ok := m.Param(QualityFactorParameter)
	if !ok {
		return 1.0
	}
	q, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !(q >= 0 && q <= 1) {
		return 1.0
	}
	return q
}

// Matches reports whether m, read as a media range, covers other.
//
//	m \ other      concrete        type/*
//	*/*            true            true
//	type/*         same type       same type
//	type/subtype   equal           false
//
// Parameters, including q, are not consulted.
func (m MediaType) Matches(other MediaType) bool {
	switch {
	case m.IsWildcardType():
		return true
	case m.typ != other.typ:
		return false
	case m.IsWildcardSubtype():
		return true
	default:
		return m.subtype == other.subtype
	}
}

// Test implements AcceptPredicate; it is Matches.
func (m MediaType) Test(other MediaType) bool {
	return m.Matches(other)
}

// Equal reports whether m and other have the same type, subtype and non-q
// parameters. Parameter order does not matter.
func (m MediaType) Equal(other MediaType) bool {
	if m.typ != other.typ || m.subtype != other.subtype {
		return false
	}
	a, b := m.identityParams(), other.identityParams()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Key returns a canonical string that is identical for Equal media types.
// It is suitable as a map key.
func (m MediaType) Key() string {
	var sb strings.Builder
	sb.WriteString(m.typ)
	sb.WriteByte('/')
	sb.WriteString(m.subtype)
	for _, p := range m.identityParams() {
		sb.WriteByte(';')
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		writeValue(&sb, p.Value)
	}
	return sb.String()
}

// identityParams returns the non-q parameters sorted by name.
func (m MediaType) identityParams() []Param {
	out := make([]Param, 0, len(m.params))
	for _, p := range m.params {
		if p.Name != QualityFactorParameter {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// String formats m as it would appear in a header, parameters in their
// original order. Values that are not tokens are quoted and escaped, so the
// result parses back to an Equal media type.
func (m MediaType) String() string {
	var sb strings.Builder
	sb.WriteString(m.typ)
	sb.WriteByte('/')
	sb.WriteString(m.subtype)
	for _, p := range m.params {
		sb.WriteByte(';')
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		writeValue(&sb, p.Value)
	}
	return sb.String()
}

// Essence returns "type/subtype" without parameters.
func (m MediaType) Essence() string {
	return m.typ + "/" + m.subtype
}

func writeValue(sb *strings.Builder, v string) {
	if v != "" && Token.MatchesAll(v) {
		sb.WriteString(v)
		return
	}
	sb.WriteByte('"')
	for i := 0; i < len(v); i++ {
		if !QuotedText(v[i]) {
			sb.WriteByte('\\')
		}
		sb.WriteByte(v[i])
	}
	sb.WriteByte('"')
}
