package mediatype

import "fmt"

// Tokenizer is a cursor over a single header value. It is not safe for
// concurrent use; create one per value being parsed.
type Tokenizer struct {
	input    string
	position int
}

// NewTokenizer returns a tokenizer positioned at the start of input.
func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{input: input}
}

// HasMore reports whether unread bytes remain.
func (t *Tokenizer) HasMore() bool {
	return t.position >= 0 && t.position < len(t.input)
}

// Position returns the index of the next unread byte.
func (t *Tokenizer) Position() int {
	return t.position
}

// ConsumeTokenIfPresent advances over the longest run of bytes in class and
// returns it. An empty string means nothing matched; the cursor does not
// move in that case.
func (t *Tokenizer) ConsumeTokenIfPresent(class CharClass) (string, error) {
	if !t.HasMore() {
		return "", t.fail(EndOfInput, "")
	}
	start := t.position
	t.position = class.indexOutside(t.input, start)
	return t.input[start:t.position], nil
}

// ConsumeToken is ConsumeTokenIfPresent but fails with NoMatch when the run
// is empty.
func (t *Tokenizer) ConsumeToken(class CharClass) (string, error) {
	start := t.position
	token, err := t.ConsumeTokenIfPresent(class)
	if err != nil {
		return "", err
	}
	if t.position == start {
		return "", t.fail(NoMatch, fmt.Sprintf("expected token, found %q", t.input[start]))
	}
	return token, nil
}

// ConsumeCharacter consumes one byte if it belongs to class.
func (t *Tokenizer) ConsumeCharacter(class CharClass) (byte, error) {
	c, err := t.PreviewChar()
	if err != nil {
		return 0, err
	}
	if !class(c) {
		return 0, t.fail(UnexpectedCharacter, fmt.Sprintf("%q", c))
	}
	t.position++
	return c, nil
}

// ConsumeChar consumes one byte if it equals want.
func (t *Tokenizer) ConsumeChar(want byte) (byte, error) {
	c, err := t.PreviewChar()
	if err != nil {
		return 0, err
	}
	if c != want {
		return 0, t.fail(UnexpectedCharacter, fmt.Sprintf("want %q, found %q", want, c))
	}
	t.position++
	return c, nil
}

// PreviewChar returns the byte under the cursor without advancing.
func (t *Tokenizer) PreviewChar() (byte, error) {
	if !t.HasMore() {
		return 0, t.fail(EndOfInput, "")
	}
	return t.input[t.position], nil
}

func (t *Tokenizer) fail(kind TokenErrorKind, detail string) error {
	return &TokenError{Kind: kind, Position: t.position, Detail: detail}
}

// Normalize checks every byte of token against class and returns the
// lower-cased token.
func Normalize(class CharClass, token string) (string, error) {
	for i := 0; i < len(token); i++ {
		if !class(token[i]) {
			return "", &TokenError{
				Kind:     InvalidToken,
				Position: i,
				Detail:   fmt.Sprintf("%q contains %q", token, token[i]),
			}
		}
	}
	return ToLower(token), nil
}
