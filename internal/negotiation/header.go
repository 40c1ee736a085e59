package negotiation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
)

// Errors returned by DictionaryMember.
var (
	ErrMemberNotFound = errors.New("dictionary member not found")
	ErrNotItem        = errors.New("dictionary member is an inner list")
)

// DictionaryMember extracts a member from an RFC 8941 Dictionary header,
// for example the urgency in `Priority: u=1, i`. values holds every field
// line of the header, as returned by http.Header.Values.
//
// Examples:
//   - u=1, i           key "u" → Item{Value: int64(1)}
//   - u=1, i           key "i" → Item{Value: true}
//   - v="2.1";beta     key "v" → Item{Value: "2.1", Params: beta}
func DictionaryMember(values []string, key string) (httpsfv.Item, error) {
	lines := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			lines = append(lines, v)
		}
	}
	if len(lines) == 0 {
		return httpsfv.Item{}, fmt.Errorf("%w: empty header", ErrMemberNotFound)
	}

	dict, err := httpsfv.UnmarshalDictionary(lines)
	if err != nil {
		return httpsfv.Item{}, fmt.Errorf("invalid structured header: %w", err)
	}

	member, ok := dict.Get(key)
	if !ok {
		return httpsfv.Item{}, fmt.Errorf("%w: %q", ErrMemberNotFound, key)
	}

	item, ok := member.(httpsfv.Item)
	if !ok {
		return httpsfv.Item{}, fmt.Errorf("%w: %q", ErrNotItem, key)
	}
	return item, nil
}

// ItemString renders a bare item value as text: strings and tokens as-is,
// integers and decimals in decimal form, booleans as "?1"/"?0".
func ItemString(item httpsfv.Item) string {
	switch v := item.Value.(type) {
	case string:
		return v
	case httpsfv.Token:
		return string(v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	case bool:
		if v {
			return "?1"
		}
		return "?0"
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
