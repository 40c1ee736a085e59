package mediatype

import "context"

type acceptKey struct{}

// NewContext returns a copy of ctx carrying a parsed Accept set, so later
// consumers of the same request need not parse the header again.
func NewContext(ctx context.Context, accepted []MediaType) context.Context {
	return context.WithValue(ctx, acceptKey{}, accepted)
}

// FromContext returns the Accept set stored by NewContext.
func FromContext(ctx context.Context) ([]MediaType, bool) {
	set, ok := ctx.Value(acceptKey{}).([]MediaType)
	return set, ok
}
