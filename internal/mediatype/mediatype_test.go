package mediatype

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		typ     string
		subtype string
		params  []Param
	}{
		{name: "simple", raw: "text/html", typ: "text", subtype: "html"},
		{name: "upper case folded", raw: "Text/HTML", typ: "text", subtype: "html"},
		{name: "wildcard", raw: "*/*", typ: "*", subtype: "*"},
		{name: "subtype wildcard", raw: "image/*", typ: "image", subtype: "*"},
		{name: "structured suffix", raw: "application/vnd.api+json", typ: "application", subtype: "vnd.api+json"},
		{
			name: "parameter name lower-cased, value kept",
			raw:  "text/html; Charset=UTF-8",
			typ:  "text", subtype: "html",
			params: []Param{{Name: "charset", Value: "UTF-8"}},
		},
		{
			name: "quality and extension parameters",
			raw:  "application/json;q=0.5;version=2",
			typ:  "application", subtype: "json",
			params: []Param{{Name: "q", Value: "0.5"}, {Name: "version", Value: "2"}},
		},
		{
			name: "whitespace around separators",
			raw:  "text/plain ;\tformat=flowed",
			typ:  "text", subtype: "plain",
			params: []Param{{Name: "format", Value: "flowed"}},
		},
		{
			name: "quoted string",
			raw:  `text/plain; title="hello, world"`,
			typ:  "text", subtype: "plain",
			params: []Param{{Name: "title", Value: "hello, world"}},
		},
		{
			name: "escaped quote",
			raw:  `text/plain; title="say \"hi\""`,
			typ:  "text", subtype: "plain",
			params: []Param{{Name: "title", Value: `say "hi"`}},
		},
		{
			name: "escaped backslash",
			raw:  `text/plain; path="a\\b"`,
			typ:  "text", subtype: "plain",
			params: []Param{{Name: "path", Value: `a\b`}},
		},
		{
			name: "escaped ordinary character",
			raw:  `text/plain; x="\a"`,
			typ:  "text", subtype: "plain",
			params: []Param{{Name: "x", Value: "a"}},
		},
		{
			name: "empty quoted string",
			raw:  `text/plain; x=""`,
			typ:  "text", subtype: "plain",
			params: []Param{{Name: "x", Value: ""}},
		},
		{
			name: "repeated parameter keeps first position",
			raw:  "text/plain;a=1;b=2;A=3",
			typ:  "text", subtype: "plain",
			params: []Param{{Name: "a", Value: "3"}, {Name: "b", Value: "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mt, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, mt.Type())
			assert.Equal(t, tt.subtype, mt.Subtype())
			assert.Equal(t, tt.params, mt.Params())
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"text",
		"text/",
		"/html",
		"text/html/",
		"*/html",
		"te xt/html",
		"text/html;",
		"text/html ",
		"text/html; q",
		"text/html; q=",
		"text/html; a=b c",
		`text/html; a="unterminated`,
		`text/html; a="trailing\`,
		"text/html; a=\"bad\rvalue\"",
		"text/héml",
		"text/html, application/json",
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedMediaType)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, raw, perr.Input)

			var terr *TokenError
			assert.ErrorAs(t, err, &terr, "cause should be a tokenizer failure")
		})
	}
}

func TestParse_WildcardTypeRequiresWildcardSubtype(t *testing.T) {
	t.Parallel()

	_, err := Parse("*/json")
	var terr *TokenError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, InvalidToken, terr.Kind)
}

func TestMustParse_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { MustParse("not a media type") })
	assert.NotPanics(t, func() { MustParse("text/html") })
}

func TestString_RoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"text/html",
		"TEXT/HTML",
		"*/*",
		"application/json; charset=utf-8; q=0.3",
		`text/plain; title="hello, world"`,
		`text/plain; title="say \"hi\""`,
		`text/plain; path="a\\b"`,
		`text/plain; x=""`,
		"text/plain; x=\"a\\\rb\"",
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()

			first := MustParse(raw)
			out := first.String()

			second, err := Parse(out)
			require.NoError(t, err, "String() output %q must parse", out)
			assert.True(t, first.Equal(second))
			assert.Equal(t, first.Params(), second.Params())
			assert.Equal(t, out, second.String(), "formatting must be idempotent")
		})
	}
}

func TestString_Format(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text/html;charset=UTF-8", MustParse("Text/Html ; Charset=UTF-8").String())
	assert.Equal(t, `text/plain;title="a b"`, MustParse(`text/plain;title="a b"`).String())
	assert.Equal(t, "text/html", MustParse("text/html;q=0.4").Essence())
}

func TestMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rng   string
		offer string
		want  bool
	}{
		{"*/*", "text/html", true},
		{"*/*", "application/json", true},
		{"*/*", "image/*", true},
		{"*/*", "*/*", true},
		{"text/*", "text/html", true},
		{"text/*", "text/plain;charset=utf-8", true},
		{"text/*", "application/json", false},
		{"text/*", "text/*", true},
		{"text/html", "text/html", true},
		{"TEXT/HTML", "text/html", true},
		{"text/html;level=1", "text/html", true},
		{"text/html", "text/plain", false},
		{"text/html", "text/*", false},
		{"text/html", "*/*", false},
		{"application/json", "application/problem+json", false},
	}

	for _, tt := range tests {
		t.Run(tt.rng+" covers "+tt.offer, func(t *testing.T) {
			t.Parallel()

			got := MustParse(tt.rng).Matches(MustParse(tt.offer))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWildcardMatchesEverything(t *testing.T) {
	t.Parallel()

	for _, mt := range []MediaType{
		TextPlain, TextHTML, ApplicationJSON, ApplicationXHTMLXML,
		MultipartFormData, MustParse("image/*"), MustParse("x-custom/thing;a=b"),
	} {
		assert.True(t, Wildcard.Matches(mt), "*/* should cover %s", mt)
		assert.True(t, Wildcard.Test(mt))
	}
}

func TestQualityFactor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want float64
	}{
		{"application/json;q=0.5", 0.5},
		{"application/json", 1.0},
		{"application/json;q=abc", 1.0},
		{"application/json;q=0", 0},
		{"application/json;q=1", 1.0},
		{"application/json;q=0.001", 0.001},
		{"application/json;q=1.5", 1.0},
		{"application/json;q=-0.2", 1.0},
		{"application/json;Q=0.25", 0.25},
		{"application/json;q=NaN", 1.0},
		{"application/json;q=nan", 1.0},
		{"application/json;q=Inf", 1.0},
		{"application/json;q=-Inf", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tt.want, MustParse(tt.raw).QualityFactor(), 1e-9)
		})
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"text/html;q=0.1", "text/html;q=0.9", true},
		{"text/html", "text/html;q=0.9", true},
		{"Text/HTML", "text/html", true},
		{"text/html;a=1;b=2", "text/html;b=2;a=1", true},
		{"text/html;charset=utf-8", "text/html", false},
		{"text/html;charset=utf-8", "text/html;charset=UTF-8", false},
		{"text/html;charset=utf-8", "text/html;charset=\"utf-8\"", true},
		{"text/html", "text/plain", false},
		{"text/*", "text/html", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			t.Parallel()

			a, b := MustParse(tt.a), MustParse(tt.b)
			assert.Equal(t, tt.want, a.Equal(b))
			assert.Equal(t, tt.want, b.Equal(a))
			assert.Equal(t, tt.want, a.Key() == b.Key())
		})
	}
}

func TestParamAccessors(t *testing.T) {
	t.Parallel()

	mt := MustParse("text/html;charset=utf-8")

	v, ok := mt.Param("CHARSET")
	require.True(t, ok)
	assert.Equal(t, "utf-8", v)

	_, ok = mt.Param("level")
	assert.False(t, ok)

	with := mt.WithParam("Level", "1")
	assert.Equal(t, "text/html;charset=utf-8;level=1", with.String())
	assert.Equal(t, "text/html;charset=utf-8", mt.String(), "original must be unchanged")

	params := mt.Params()
	params[0].Value = "mutated"
	assert.Equal(t, "text/html;charset=utf-8", mt.String(), "Params must return a copy")

	assert.Equal(t, "text/html", mt.WithoutParams().String())

	quoted := mt.WithParam("title", "a \"b\"\tc\\d")
	back, err := Parse(quoted.String())
	require.NoError(t, err)
	assert.True(t, back.Equal(quoted), "%s must parse back", quoted)

	assert.True(t, MediaType{}.IsZero())
	assert.False(t, mt.IsZero())
}

func TestWithParamRejectsUnencodableValues(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { TextPlain.WithParam("title", "caf\u00e9") })
	assert.Panics(t, func() { TextPlain.WithParam("title", "a\r\nb") })
	assert.Panics(t, func() { TextPlain.WithParam("bad name", "x") })
	assert.Panics(t, func() { TextPlain.WithParam("", "x") })
	assert.NotPanics(t, func() { TextPlain.WithParam("charset", "") })
}

func TestConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text/html", TextHTML.String())
	assert.Equal(t, "application/json", ApplicationJSON.String())
	assert.Equal(t, "application/xhtml+xml", ApplicationXHTMLXML.String())
	assert.True(t, Wildcard.IsWildcardType())
	assert.True(t, Wildcard.IsWildcardSubtype())
}

func TestParseError_Unwrap(t *testing.T) {
	t.Parallel()

	_, err := Parse("text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedMediaType))
	assert.Contains(t, err.Error(), `"text"`)
}
