package exchange

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"reqmatch/internal/security"
)

// RouterConfig holds the dependencies shared by every route.
type RouterConfig struct {
	Logger        *slog.Logger
	Authenticator security.Authenticator
}

// Router registers handler pipelines on a ServeMux. A Router value is
// passed explicitly to group callbacks; there is no package-level
// registration state.
type Router struct {
	mux    *http.ServeMux
	prefix string
	before []Handler
	after  []Handler
	cfg    RouterConfig
}

// NewRouter returns a root router that registers on mux.
func NewRouter(mux *http.ServeMux, cfg RouterConfig) *Router {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Router{mux: mux, cfg: cfg}
}

// Group calls fn with a child router whose routes are prefixed with
// prefix. The child inherits the before and after steps registered so far;
// steps added inside fn do not leak back to the parent.
func (rt *Router) Group(prefix string, fn func(*Router)) {
	child := &Router{
		mux:    rt.mux,
		prefix: joinPath(rt.prefix, prefix),
		before: slices.Clone(rt.before),
		after:  slices.Clone(rt.after),
		cfg:    rt.cfg,
	}
	fn(child)
}

// Before adds steps run ahead of the endpoint of every route registered
// afterwards on this router.
func (rt *Router) Before(hs ...Handler) {
	rt.before = append(rt.before, hs...)
}

// After adds steps run after the endpoint of every route registered
// afterwards on this router.
func (rt *Router) After(hs ...Handler) {
	rt.after = append(rt.after, hs...)
}

func (rt *Router) Get(path string, steps ...Handler)    { rt.Handle(http.MethodGet, path, steps...) }
func (rt *Router) Post(path string, steps ...Handler)   { rt.Handle(http.MethodPost, path, steps...) }
func (rt *Router) Put(path string, steps ...Handler)    { rt.Handle(http.MethodPut, path, steps...) }
func (rt *Router) Patch(path string, steps ...Handler)  { rt.Handle(http.MethodPatch, path, steps...) }
func (rt *Router) Delete(path string, steps ...Handler) { rt.Handle(http.MethodDelete, path, steps...) }

// Handle registers a pipeline for method and path using Go 1.22+ ServeMux
// patterns, e.g. Handle("GET", "/articles/{id}", h). An empty method
// matches every method.
func (rt *Router) Handle(method, path string, steps ...Handler) {
	pattern := joinPath(rt.prefix, path)
	if method != "" {
		pattern = method + " " + pattern
	}

	all := make([]Handler, 0, len(rt.before)+len(steps)+len(rt.after))
	all = append(all, rt.before...)
	all = append(all, steps...)
	all = append(all, rt.after...)

	rt.mux.Handle(pattern, &pipeline{steps: all, cfg: rt.cfg})
}

// pipeline runs its steps in order until one halts.
type pipeline struct {
	steps []Handler
	cfg   RouterConfig
}

func (p *pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := NewContext(w, r)
	c.logger = p.cfg.Logger
	c.authn = p.cfg.Authenticator

	for _, step := range p.steps {
		if c.halted {
			return
		}
		step.Handle(c)
	}
}

func joinPath(prefix, path string) string {
	if prefix == "" {
		if path == "" {
			return "/"
		}
		return path
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if path == "" || path == "/" {
		return prefix
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return prefix + path
}
