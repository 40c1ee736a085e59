// Package exchange carries a single HTTP request through a pipeline of
// handler steps. A Context gives steps uniform access to the request
// (method, headers, query, cookies, principal) and to the response, and
// lets any step halt the remaining steps or fail the request with a JSON
// error envelope.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"reqmatch/internal/mediatype"
	"reqmatch/internal/model"
	"reqmatch/internal/security"
)

// Context is the per-request state shared by pipeline steps. It is not
// safe for concurrent use; a request is served by one goroutine.
type Context struct {
	Writer  http.ResponseWriter
	Request *http.Request

	logger *slog.Logger
	authn  security.Authenticator

	attrs   map[string]any
	query   url.Values
	accept  []mediatype.MediaType
	user    *security.User
	status  int
	halted  bool
	written bool

	acceptParsed bool
}

// NewContext wraps a request. The context logs to slog.Default and has no
// authenticator; routers configure both.
func NewContext(w http.ResponseWriter, r *http.Request) *Context {
	return &Context{
		Writer:  w,
		Request: r,
		logger:  slog.Default(),
	}
}

// Context returns the request's context.Context.
func (c *Context) Context() context.Context {
	return c.Request.Context()
}

// Logger returns the logger for this request.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// === Request accessors ===

// Method returns the request method, e.g. "GET".
func (c *Context) Method() string {
	return c.Request.Method
}

// Header returns the first value of the named header.
func (c *Context) Header(name string) string {
	return c.Request.Header.Get(name)
}

// HeaderValues returns every value of the named header. Header names are
// case-insensitive. A header sent with an empty value yields [""], which
// still counts as present.
func (c *Context) HeaderValues(name string) []string {
	return c.Request.Header.Values(name)
}

// HasHeader reports whether the named header was sent at all.
func (c *Context) HasHeader(name string) bool {
	return len(c.HeaderValues(name)) > 0
}

// QueryValues returns every value of the named query parameter.
func (c *Context) QueryValues(name string) []string {
	return c.queryValues()[name]
}

// HasQuery reports whether the named query parameter is present, with or
// without a value.
func (c *Context) HasQuery(name string) bool {
	_, ok := c.queryValues()[name]
	return ok
}

// Query returns the first value of the named query parameter.
func (c *Context) Query(name string) string {
	return c.queryValues().Get(name)
}

func (c *Context) queryValues() url.Values {
	if c.query == nil {
		c.query = c.Request.URL.Query()
	}
	return c.query
}

// CookieValues returns the values of every cookie with the given name.
func (c *Context) CookieValues(name string) []string {
	cookies := c.Request.CookiesNamed(name)
	if len(cookies) == 0 {
		return nil
	}
	values := make([]string, len(cookies))
	for i, ck := range cookies {
		values[i] = ck.Value
	}
	return values
}

// PathValue returns a wildcard segment matched by the route pattern.
func (c *Context) PathValue(name string) string {
	return c.Request.PathValue(name)
}

// ContentType returns the raw Content-Type header.
func (c *Context) ContentType() string {
	return c.Request.Header.Get("Content-Type")
}

// ContentMediaType parses the Content-Type header. ok is false when the
// header is absent or malformed.
func (c *Context) ContentMediaType() (mediatype.MediaType, bool) {
	raw := c.ContentType()
	if raw == "" {
		return mediatype.MediaType{}, false
	}
	mt, err := mediatype.Parse(raw)
	if err != nil {
		c.logger.Debug("malformed content type", slog.String("content_type", raw), slog.String("error", err.Error()))
		return mediatype.MediaType{}, false
	}
	return mt, true
}

// Accept returns the raw Accept header.
func (c *Context) Accept() string {
	return c.Request.Header.Get("Accept")
}

// AcceptSet returns the parsed, de-duplicated Accept media ranges. The
// result is computed once per request; a set stored by
// mediatype.NewContext (see negotiation.Middleware) is used as-is.
func (c *Context) AcceptSet() []mediatype.MediaType {
	if c.acceptParsed {
		return c.accept
	}
	if set, ok := mediatype.FromContext(c.Request.Context()); ok {
		c.accept = set
	} else {
		c.accept = mediatype.ParseAccept(c.Accept())
	}
	c.acceptParsed = true
	return c.accept
}

// User returns the request principal, never nil. The lookup order is the
// principal cached on this Context, one stored in the request context,
// then the router's authenticator. Only authenticated principals are
// cached; an anonymous result is recomputed on the next call.
func (c *Context) User() *security.User {
	if c.user != nil {
		return c.user
	}
	if u := security.UserFromContext(c.Request.Context()); u.IsAuthenticated() {
		c.user = u
		return u
	}

	u, res := security.Resolve(c.Request.Context(), c.authn, c.Request)
	if res.Decision == security.No {
		c.logger.Debug("credentials rejected", slog.String("error", errString(res.Err)))
	}
	if u.IsAuthenticated() {
		c.user = u
	}
	return u
}

// SetUser caches u as the request principal. Passing nil clears it.
func (c *Context) SetUser(u *security.User) {
	c.user = u
}

// Attribute returns a value stored with SetAttribute.
func (c *Context) Attribute(key string) (any, bool) {
	v, ok := c.attrs[key]
	return v, ok
}

// SetAttribute stores a request-scoped value for later steps.
func (c *Context) SetAttribute(key string, v any) {
	if c.attrs == nil {
		c.attrs = make(map[string]any)
	}
	c.attrs[key] = v
}

// === Response ===

// Status sets the status code used by the next write. It returns c for
// chaining: c.Status(201).JSON(v).
func (c *Context) Status(code int) *Context {
	c.status = code
	return c
}

// StatusCode returns the status set with Status, or 200.
func (c *Context) StatusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

// Written reports whether a response has been started.
func (c *Context) Written() bool {
	return c.written
}

// JSON writes v as an application/json response.
func (c *Context) JSON(v any) {
	c.begin("application/json")
	if err := json.NewEncoder(c.Writer).Encode(v); err != nil {
		c.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// HTML writes a pre-rendered HTML document.
func (c *Context) HTML(body string) {
	c.begin("text/html; charset=utf-8")
	if _, err := c.Writer.Write([]byte(body)); err != nil {
		c.logger.Error("failed to write response", slog.String("error", err.Error()))
	}
}

// Render executes the named template into the response as text/html.
// Template errors are returned before anything is written.
func (c *Context) Render(tmpl *template.Template, name string, data any) error {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	c.HTML(buf.String())
	return nil
}

// Text writes a text/plain response.
func (c *Context) Text(body string) {
	c.begin("text/plain; charset=utf-8")
	if _, err := c.Writer.Write([]byte(body)); err != nil {
		c.logger.Error("failed to write response", slog.String("error", err.Error()))
	}
}

// NoContent writes the status with no body.
func (c *Context) NoContent() {
	if c.status == 0 {
		c.status = http.StatusNoContent
	}
	c.written = true
	c.Writer.WriteHeader(c.status)
}

func (c *Context) begin(contentType string) {
	c.Writer.Header().Set("Content-Type", contentType)
	c.written = true
	c.Writer.WriteHeader(c.StatusCode())
}

// === Pipeline control ===

// Halt discards every remaining step of the pipeline for this request.
// The response written so far is kept.
func (c *Context) Halt() {
	c.halted = true
}

// Halted reports whether Halt has been called.
func (c *Context) Halted() bool {
	return c.halted
}

// Fail writes err as the JSON error envelope and halts the pipeline. If a
// response was already started only the halt takes effect.
func (c *Context) Fail(err *model.APIError) {
	c.Halt()
	if c.written {
		c.logger.Warn("failure after response started",
			slog.Int("status", err.StatusCode),
			slog.String("code", err.Code))
		return
	}
	c.status = err.StatusCode
	c.JSON(err.Response())
}

// FailStatus fails the request with a status and message.
func (c *Context) FailStatus(status int, message string) {
	c.Fail(model.NewStatusError(status, message))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
