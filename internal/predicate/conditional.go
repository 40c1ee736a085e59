package predicate

import (
	"log/slog"

	"reqmatch/internal/exchange"
	"reqmatch/internal/model"
	"reqmatch/internal/observability"
)

// ConditionalHandler runs an accept step when its chain holds and a
// decline step otherwise. After a decline the remaining pipeline steps
// are discarded, whichever decline step ran.
type ConditionalHandler struct {
	pred    *ContextPredicate
	accept  exchange.Handler
	decline exchange.Handler
}

// ThenNext terminates the chain. accept runs when the chain holds; the
// default decline fails the request with 400 Bad Request.
func (p *ContextPredicate) ThenNext(accept exchange.Handler) *ConditionalHandler {
	return &ConditionalHandler{
		pred:    p,
		accept:  accept,
		decline: defaultDecline(),
	}
}

// Guard terminates the chain with no accept step: when the chain holds the
// pipeline simply continues with its next step.
func (p *ContextPredicate) Guard() *ConditionalHandler {
	return p.ThenNext(nil)
}

// Otherwise replaces the decline step. A nil decline restores the default
// 400 Bad Request.
func (h *ConditionalHandler) Otherwise(decline exchange.Handler) *ConditionalHandler {
	if decline == nil {
		decline = defaultDecline()
	}
	h.decline = decline
	return h
}

// OtherwiseError declines by failing with apiErr. A nil apiErr restores the
// default decline.
func (h *ConditionalHandler) OtherwiseError(apiErr *model.APIError) *ConditionalHandler {
	if apiErr == nil {
		return h.Otherwise(nil)
	}
	return h.Otherwise(failWith(apiErr))
}

// OtherwiseStatus declines with the given status and message.
func (h *ConditionalHandler) OtherwiseStatus(status int, message string) *ConditionalHandler {
	return h.OtherwiseError(model.NewStatusError(status, message))
}

// OtherwiseCode declines with the given status and its standard message,
// e.g. OtherwiseCode(http.StatusForbidden).
func (h *ConditionalHandler) OtherwiseCode(status int) *ConditionalHandler {
	return h.OtherwiseStatus(status, "")
}

// Handle evaluates the chain from its root and runs exactly one of the
// accept or decline steps.
func (h *ConditionalHandler) Handle(c *exchange.Context) {
	ok := h.pred.Test(c)
	observability.ObserveDecision(ok)

	if ok {
		if h.accept != nil {
			h.accept.Handle(c)
		}
		return
	}

	c.Logger().Debug("request declined",
		slog.String("method", c.Method()),
		slog.String("path", c.Request.URL.Path))
	h.decline.Handle(c)
	c.Halt()
}

func defaultDecline() exchange.Handler {
	return failWith(model.NewBadRequestError("request rejected"))
}

func failWith(apiErr *model.APIError) exchange.Handler {
	return exchange.HandlerFunc(func(c *exchange.Context) { c.Fail(apiErr) })
}
