package security

import (
	"context"
	"sort"
	"strings"
)

// Well-known attribute keys.
const (
	AttrUsername  = "username"
	AttrFirstName = "first_name"
	AttrLastName  = "last_name"
	AttrEmail     = "email"
)

// Role is an application role name. Comparison is exact.
type Role string

// Roles is a set of roles.
type Roles map[Role]struct{}

// NewRoles builds a set from role names. Blank names are ignored.
func NewRoles(names ...string) Roles {
	rs := make(Roles, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			rs[Role(n)] = struct{}{}
		}
	}
	return rs
}

// Contains reports whether r is in the set.
func (rs Roles) Contains(r Role) bool {
	_, ok := rs[r]
	return ok
}

// ContainsAll reports whether every role is in the set. An empty argument
// list is trivially contained.
func (rs Roles) ContainsAll(roles ...Role) bool {
	for _, r := range roles {
		if !rs.Contains(r) {
			return false
		}
	}
	return true
}

// ContainsAny reports whether at least one role is in the set.
func (rs Roles) ContainsAny(roles ...Role) bool {
	for _, r := range roles {
		if rs.Contains(r) {
			return true
		}
	}
	return false
}

// Names returns the role names sorted.
func (rs Roles) Names() []string {
	out := make([]string, 0, len(rs))
	for r := range rs {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

// User is the principal of a request. A User with an empty Subject is
// not authenticated.
type User struct {
	Subject    string
	Roles      Roles
	Attributes map[string]string
}

// Anonymous returns a fresh principal for a request that carried no valid
// credentials. Each call allocates, so callers may modify the result.
func Anonymous() *User {
	return &User{}
}

// IsAuthenticated reports whether u identifies someone.
func (u *User) IsAuthenticated() bool {
	return u != nil && u.Subject != ""
}

// HasRole reports whether u holds r.
func (u *User) HasRole(r Role) bool {
	return u != nil && u.Roles.Contains(r)
}

// HasRoles reports whether u holds every listed role.
func (u *User) HasRoles(roles ...Role) bool {
	if u == nil {
		return len(roles) == 0
	}
	return u.Roles.ContainsAll(roles...)
}

// HasAnyRole reports whether u holds at least one listed role.
func (u *User) HasAnyRole(roles ...Role) bool {
	return u != nil && u.Roles.ContainsAny(roles...)
}

// Attribute returns a named attribute, or "" if absent.
func (u *User) Attribute(key string) string {
	if u == nil || u.Attributes == nil {
		return ""
	}
	return u.Attributes[key]
}

func (u *User) Username() string  { return u.Attribute(AttrUsername) }
func (u *User) FirstName() string { return u.Attribute(AttrFirstName) }
func (u *User) LastName() string  { return u.Attribute(AttrLastName) }
func (u *User) Email() string     { return u.Attribute(AttrEmail) }

// userKey is a private type for the user context key.
type userKey struct{}

// WithUser stores the principal in the context.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext retrieves the principal stored by WithUser.
// Returns nil if none was set.
func UserFromContext(ctx context.Context) *User {
	if v, ok := ctx.Value(userKey{}).(*User); ok {
		return v
	}
	return nil
}
