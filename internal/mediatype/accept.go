package mediatype

import "strings"

const (
	// QualityFactorParameter is the parameter carrying the negotiation
	// weight of a media range.
	QualityFactorParameter = "q"

	// WildcardValue is the wildcard used in media ranges.
	WildcardValue = "*"
)

// AcceptPredicate is a value from an Accept-* header that can decide
// whether an offered representation is acceptable and report its weight.
type AcceptPredicate[T any] interface {
	Test(offer T) bool
	QualityFactor() float64
}

var _ AcceptPredicate[MediaType] = MediaType{}

// ParseAccept splits an Accept header on commas and parses each member.
// Members that fail to parse are dropped, as are duplicates that differ
// only in q. The result keeps header order.
func ParseAccept(header string) []MediaType {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	parts := strings.Split(header, ",")
	accepted := make([]MediaType, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mt, err := Parse(part)
		if err != nil {
			continue
		}
		key := mt.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		accepted = append(accepted, mt)
	}
	return accepted
}

// FirstMatch returns the first offer, in offer order, covered by any of the
// accepted media ranges. Quality factors only matter for presence: a range
// listed in the header accepts, whatever its q.
func FirstMatch(accepted []MediaType, offers ...MediaType) (MediaType, bool) {
	for _, offer := range offers {
		if Covered(accepted, offer) {
			return offer, true
		}
	}
	return MediaType{}, false
}

// Covered reports whether any accepted range matches offer.
func Covered(accepted []MediaType, offer MediaType) bool {
	for _, a := range accepted {
		if a.Matches(offer) {
			return true
		}
	}
	return false
}
