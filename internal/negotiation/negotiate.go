// Package negotiation dispatches a request to one of several
// representation handlers based on its Accept header.
//
// A Negotiate registry maps media types to handlers in registration order.
// The first registered type that the client accepts wins; quality factors
// decide presence only and never reorder the registry. When nothing
// matches, the fallback runs, or the request fails with 415.
package negotiation

import (
	"html/template"
	"log/slog"

	"reqmatch/internal/exchange"
	"reqmatch/internal/mediatype"
	"reqmatch/internal/model"
	"reqmatch/internal/observability"
)

type entry struct {
	mediaType mediatype.MediaType
	handler   exchange.Handler
}

// Negotiate is an ordered registry of media type handlers. Build it while
// registering routes; it must not be modified once serving.
type Negotiate struct {
	entries  []entry
	fallback exchange.Handler
}

// New returns an empty registry.
func New() *Negotiate {
	return &Negotiate{}
}

// On registers h for mt. Registering a media type that is Equal to an
// existing one replaces its handler and keeps its position.
func (n *Negotiate) On(mt mediatype.MediaType, h exchange.Handler) *Negotiate {
	for i := range n.entries {
		if n.entries[i].mediaType.Equal(mt) {
			n.entries[i].handler = h
			return n
		}
	}
	n.entries = append(n.entries, entry{mediaType: mt, handler: h})
	return n
}

// HTML registers h for text/html and application/xhtml+xml.
func (n *Negotiate) HTML(h exchange.Handler) *Negotiate {
	return n.On(mediatype.TextHTML, h).On(mediatype.ApplicationXHTMLXML, h)
}

// JSON registers h for application/json.
func (n *Negotiate) JSON(h exchange.Handler) *Negotiate {
	return n.On(mediatype.ApplicationJSON, h)
}

// Otherwise sets the handler used when no registered type is acceptable
// and returns the dispatching handler.
func (n *Negotiate) Otherwise(fallback exchange.Handler) exchange.Handler {
	n.fallback = fallback
	return n.Handle()
}

// HTMLFallbackJSON renders the named template with data when HTML is
// acceptable and writes data as JSON otherwise.
func (n *Negotiate) HTMLFallbackJSON(tmpl *template.Template, name string, data any) exchange.Handler {
	return n.HTML(exchange.HandlerFunc(func(c *exchange.Context) {
		if err := c.Render(tmpl, name, data); err != nil {
			c.Logger().Error("template render failed",
				slog.String("template", name),
				slog.String("error", err.Error()))
			c.Fail(model.NewInternalError(err))
		}
	})).Otherwise(exchange.HandlerFunc(func(c *exchange.Context) {
		c.JSON(data)
	}))
}

// Handle returns the dispatching handler. Exactly one downstream handler
// runs per request.
func (n *Negotiate) Handle() exchange.Handler {
	return exchange.HandlerFunc(n.dispatch)
}

// Offered returns the registered media types in priority order.
func (n *Negotiate) Offered() []mediatype.MediaType {
	out := make([]mediatype.MediaType, len(n.entries))
	for i, e := range n.entries {
		out[i] = e.mediaType
	}
	return out
}

func (n *Negotiate) dispatch(c *exchange.Context) {
	accepted := c.AcceptSet()
	for _, e := range n.entries {
		if mediatype.Covered(accepted, e.mediaType) {
			c.Logger().Debug("negotiated representation",
				slog.String("accept", c.Accept()),
				slog.String("media_type", e.mediaType.String()))
			observability.ObserveNegotiation(observability.OutcomeMatched, e.mediaType.Essence())
			e.handler.Handle(c)
			return
		}
	}

	if n.fallback != nil {
		observability.ObserveNegotiation(observability.OutcomeFallback, "")
		n.fallback.Handle(c)
		return
	}

	observability.ObserveNegotiation(observability.OutcomeUnsupported, "")
	c.Fail(model.NewUnsupportedMediaTypeError(n.offeredStrings()...))
}

func (n *Negotiate) offeredStrings() []string {
	out := make([]string, len(n.entries))
	for i, e := range n.entries {
		out[i] = e.mediaType.String()
	}
	return out
}

// Matches reports whether the request's Accept header covers any of types.
// An absent or empty header matches nothing.
func Matches(c *exchange.Context, types ...mediatype.MediaType) bool {
	accepted := c.AcceptSet()
	for _, mt := range types {
		if mediatype.Covered(accepted, mt) {
			return true
		}
	}
	return false
}

// MatchesAny is Matches for media types given as strings. Strings that do
// not parse never match.
func MatchesAny(c *exchange.Context, raw ...string) bool {
	types := make([]mediatype.MediaType, 0, len(raw))
	for _, s := range raw {
		mt, err := mediatype.Parse(s)
		if err != nil {
			c.Logger().Debug("ignoring malformed media type", slog.String("media_type", s))
			continue
		}
		types = append(types, mt)
	}
	return Matches(c, types...)
}
