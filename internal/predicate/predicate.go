// Package predicate builds boolean conditions over an HTTP request and
// turns them into guard steps for an exchange pipeline.
//
// A chain starts at Create and grows one node at a time through And, Or,
// Negate or one of the clause helpers, each returning the new tail:
//
//	predicate.Create().
//		IsOfMethod(http.MethodGet).
//		ContainsQueryParameter("id").
//		ThenNext(show).
//		OtherwiseCode(http.StatusForbidden)
//
// Evaluation starts at the root with true and folds every node into the
// running value from left to right. Clauses are never short-circuited:
// each one is evaluated on every request before it is combined, so
// create().And(p1).Or(p2) always calls both p1 and p2.
//
// Each node may be extended at most once. Calling a composition method
// twice on the same node panics with a *ChainStateError; this is a route
// declaration bug and surfaces at startup.
package predicate

import (
	"errors"
	"strings"
	"sync/atomic"

	"reqmatch/internal/exchange"
	"reqmatch/internal/mediatype"
	"reqmatch/internal/negotiation"
	"reqmatch/internal/security"
)

// ErrIllegalChainState is wrapped by the panic value raised when a sealed
// chain node is extended again.
var ErrIllegalChainState = errors.New("predicate: chain node already extended")

// ChainStateError is the panic value for a second extension of one node.
type ChainStateError struct {
	Op string
}

func (e *ChainStateError) Error() string {
	return ErrIllegalChainState.Error() + " (" + e.Op + ")"
}

func (e *ChainStateError) Unwrap() error { return ErrIllegalChainState }

// Predicate tests a request.
type Predicate func(c *exchange.Context) bool

// condition folds one node into the running value.
type condition func(current bool, c *exchange.Context) bool

func identity(current bool, _ *exchange.Context) bool { return current }

// ContextPredicate is one node of a condition chain. The zero value is not
// usable; start chains with Create.
type ContextPredicate struct {
	first  *ContextPredicate
	next   atomic.Pointer[ContextPredicate]
	sealed atomic.Bool
	cond   condition
}

// Create returns the root of a new chain. On its own it is always true.
func Create() *ContextPredicate {
	p := &ContextPredicate{cond: identity}
	p.first = p
	return p
}

func (p *ContextPredicate) extend(op string, cond condition) *ContextPredicate {
	if !p.sealed.CompareAndSwap(false, true) {
		panic(&ChainStateError{Op: op})
	}
	n := &ContextPredicate{first: p.first, cond: cond}
	p.next.Store(n)
	return n
}

// Test evaluates the whole chain this node belongs to, from its root.
func (p *ContextPredicate) Test(c *exchange.Context) bool {
	value := true
	for n := p.first; n != nil; n = n.next.Load() {
		value = n.cond(value, c)
	}
	return value
}

// And appends "value AND pred". pred runs even when value is already false.
func (p *ContextPredicate) And(pred Predicate) *ContextPredicate {
	return p.extend("and", func(current bool, c *exchange.Context) bool {
		ok := pred(c)
		return current && ok
	})
}

// Or appends "value OR pred". pred runs even when value is already true.
func (p *ContextPredicate) Or(pred Predicate) *ContextPredicate {
	return p.extend("or", func(current bool, c *exchange.Context) bool {
		ok := pred(c)
		return current || ok
	})
}

// Negate appends a node that inverts the running value.
func (p *ContextPredicate) Negate() *ContextPredicate {
	return p.extend("negate", func(current bool, _ *exchange.Context) bool {
		return !current
	})
}

// === Principal ===

// IsAuthenticated requires an authenticated principal.
func (p *ContextPredicate) IsAuthenticated() *ContextPredicate {
	return p.And(func(c *exchange.Context) bool {
		return c.User().IsAuthenticated()
	})
}

// HasRoles requires the principal to hold every listed role.
func (p *ContextPredicate) HasRoles(roles ...security.Role) *ContextPredicate {
	return p.And(func(c *exchange.Context) bool {
		u := c.User()
		return u.IsAuthenticated() && u.HasRoles(roles...)
	})
}

// HasAnyRole requires the principal to hold at least one listed role.
func (p *ContextPredicate) HasAnyRole(roles ...security.Role) *ContextPredicate {
	return p.And(func(c *exchange.Context) bool {
		return c.User().HasAnyRole(roles...)
	})
}

// === Method ===

// IsOfMethod requires one of the given methods, compared case-insensitively.
func (p *ContextPredicate) IsOfMethod(methods ...string) *ContextPredicate {
	want := make([]string, len(methods))
	for i, m := range methods {
		want[i] = strings.ToUpper(m)
	}
	return p.And(func(c *exchange.Context) bool {
		method := strings.ToUpper(c.Method())
		for _, m := range want {
			if m == method {
				return true
			}
		}
		return false
	})
}

// === Headers, query parameters, cookies ===

// ContainsHeader requires the header to be present.
func (p *ContextPredicate) ContainsHeader(name string) *ContextPredicate {
	return p.And(func(c *exchange.Context) bool { return c.HasHeader(name) })
}

// ContainsHeaderValue requires some value of the header to equal value.
func (p *ContextPredicate) ContainsHeaderValue(name, value string) *ContextPredicate {
	return p.ContainsHeaderMatching(name, equals(value))
}

// ContainsHeaderMatching requires some value of the header to satisfy match.
func (p *ContextPredicate) ContainsHeaderMatching(name string, match func(string) bool) *ContextPredicate {
	return p.And(func(c *exchange.Context) bool { return anyOf(c.HeaderValues(name), match) })
}

// ContainsQueryParameter requires the query parameter to be present, with
// or without a value.
func (p *ContextPredicate) ContainsQueryParameter(name string) *ContextPredicate {
	return p.And(func(c *exchange.Context) bool { return c.HasQuery(name) })
}

// ContainsQueryParameterValue requires some value of the parameter to equal value.
func (p *ContextPredicate) ContainsQueryParameterValue(name, value string) *ContextPredicate {
	return p.ContainsQueryParameterMatching(name, equals(value))
}

// ContainsQueryParameterMatching requires some value of the parameter to satisfy match.
func (p *ContextPredicate) ContainsQueryParameterMatching(name string, match func(string) bool) *ContextPredicate {
	return p.And(func(c *exchange.Context) bool { return anyOf(c.QueryValues(name), match) })
}

// ContainsCookie requires a cookie with the given name.
func (p *ContextPredicate) ContainsCookie(name string) *ContextPredicate {
	return p.And(func(c *exchange.Context) bool { return len(c.CookieValues(name)) > 0 })
}

// ContainsCookieValue requires some cookie of that name to equal value.
func (p *ContextPredicate) ContainsCookieValue(name, value string) *ContextPredicate {
	return p.ContainsCookieMatching(name, equals(value))
}

// ContainsCookieMatching requires some cookie of that name to satisfy match.
func (p *ContextPredicate) ContainsCookieMatching(name string, match func(string) bool) *ContextPredicate {
	return p.And(func(c *exchange.Context) bool { return anyOf(c.CookieValues(name), match) })
}

// ContainsDictionaryMember requires the header to be an RFC 8941 dictionary
// holding key, e.g. ContainsDictionaryMember("Priority", "i").
func (p *ContextPredicate) ContainsDictionaryMember(header, key string) *ContextPredicate {
	return p.DictionaryMemberMatching(header, key, func(string) bool { return true })
}

// DictionaryMemberMatching requires the dictionary member's value, rendered
// with negotiation.ItemString, to satisfy match. Unparsable headers fail.
func (p *ContextPredicate) DictionaryMemberMatching(header, key string, match func(string) bool) *ContextPredicate {
	return p.And(func(c *exchange.Context) bool {
		item, err := negotiation.DictionaryMember(c.HeaderValues(header), key)
		if err != nil {
			return false
		}
		return match(negotiation.ItemString(item))
	})
}

// === Content negotiation ===

// Accepts requires the Accept header to cover at least one of types.
func (p *ContextPredicate) Accepts(types ...mediatype.MediaType) *ContextPredicate {
	return p.And(func(c *exchange.Context) bool { return negotiation.Matches(c, types...) })
}

// AcceptsAny is Accepts with media types given as strings. They are parsed
// now; a malformed string panics.
func (p *ContextPredicate) AcceptsAny(raw ...string) *ContextPredicate {
	return p.Accepts(mustParseAll(raw)...)
}

// HasContentType requires the request Content-Type to equal one of types.
// Equality includes parameters other than q, so "application/json" does
// not match "application/json; charset=utf-8". A missing or malformed
// Content-Type never matches.
func (p *ContextPredicate) HasContentType(types ...mediatype.MediaType) *ContextPredicate {
	return p.And(func(c *exchange.Context) bool {
		actual, ok := c.ContentMediaType()
		if !ok {
			return false
		}
		for _, mt := range types {
			if actual.Equal(mt) {
				return true
			}
		}
		return false
	})
}

// HasContentTypeAny is HasContentType with media types given as strings.
// They are parsed now; a malformed string panics.
func (p *ContextPredicate) HasContentTypeAny(raw ...string) *ContextPredicate {
	return p.HasContentType(mustParseAll(raw)...)
}

func mustParseAll(raw []string) []mediatype.MediaType {
	out := make([]mediatype.MediaType, len(raw))
	for i, s := range raw {
		out[i] = mediatype.MustParse(strings.TrimSpace(s))
	}
	return out
}

func equals(want string) func(string) bool {
	return func(v string) bool { return v == want }
}

func anyOf(values []string, match func(string) bool) bool {
	for _, v := range values {
		if match(v) {
			return true
		}
	}
	return false
}
