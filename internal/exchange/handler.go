package exchange

// Handler is one step of a request pipeline.
type Handler interface {
	Handle(c *Context)
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(c *Context)

func (f HandlerFunc) Handle(c *Context) { f(c) }

// Steps runs hs in order as a single handler, stopping early if one halts.
func Steps(hs ...Handler) Handler {
	return HandlerFunc(func(c *Context) {
		for _, h := range hs {
			if c.Halted() {
				return
			}
			h.Handle(c)
		}
	})
}
