package handler

import (
	"log/slog"
	"net/http"

	"reqmatch/internal/catalog"
	"reqmatch/internal/exchange"
	"reqmatch/internal/mediatype"
	"reqmatch/internal/model"
	"reqmatch/internal/negotiation"
	"reqmatch/internal/predicate"
)

// articleRoutes declares the /articles group.
//
//	GET    /articles       HTML when acceptable, JSON otherwise
//	GET    /articles/{id}  JSON, HTML or plain text; 415 for anything else
//	POST   /articles       authenticated editor or admin, JSON body
//	DELETE /articles/{id}  authenticated admin
func (h *Handler) articleRoutes(r *exchange.Router) {
	r.Get("", exchange.HandlerFunc(h.handleListArticles))
	r.Get("/{id}", exchange.HandlerFunc(h.handleGetArticle))

	r.Post("",
		requireAuthenticated(),
		predicate.Create().
			HasAnyRole(RoleEditor, RoleAdmin).
			Guard().
			OtherwiseError(model.NewForbiddenError("editor or admin role required")),
		predicate.Create().
			HasContentType(jsonBodyTypes...).
			ThenNext(exchange.HandlerFunc(h.handleCreateArticle)).
			OtherwiseError(model.NewUnsupportedMediaTypeError(mediatype.ApplicationJSON.String())),
	)

	r.Delete("/{id}",
		requireAuthenticated(),
		predicate.Create().
			HasRoles(RoleAdmin).
			Guard().
			OtherwiseError(model.NewForbiddenError("admin role required")),
		exchange.HandlerFunc(h.handleDeleteArticle),
	)
}

// searchRoute answers GET /search?q=. The q parameter may be empty but
// must be present.
func (h *Handler) searchRoute() exchange.Handler {
	return predicate.Create().
		ContainsQueryParameter("q").
		ThenNext(exchange.HandlerFunc(h.handleSearch)).
		OtherwiseError(model.NewBadRequestError("query parameter q is required"))
}

func requireAuthenticated() exchange.Handler {
	return predicate.Create().
		IsAuthenticated().
		Guard().
		OtherwiseError(model.NewUnauthorizedError("authentication required"))
}

// jsonBodyTypes are the accepted request body types. Content-Type matching
// is by equality, so each charset spelling is listed.
var jsonBodyTypes = []mediatype.MediaType{
	mediatype.ApplicationJSON,
	mediatype.ApplicationJSON.WithParam("charset", "utf-8"),
	mediatype.ApplicationJSON.WithParam("charset", "UTF-8"),
}

type articleList struct {
	Articles []catalog.Article `json:"articles"`
	Query    string            `json:"query,omitempty"`
}

// handleListArticles returns every article.
// GET /articles
func (h *Handler) handleListArticles(c *exchange.Context) {
	articles, err := h.store.List(c.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	page := articleList{Articles: articles}
	negotiation.New().HTMLFallbackJSON(h.templates, "articles", page).Handle(c)
}

// handleGetArticle returns one article.
// GET /articles/{id}
func (h *Handler) handleGetArticle(c *exchange.Context) {
	article, err := h.store.Get(c.Context(), c.PathValue("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	negotiation.New().
		JSON(exchange.HandlerFunc(func(c *exchange.Context) {
			c.JSON(article)
		})).
		HTML(exchange.HandlerFunc(func(c *exchange.Context) {
			if err := c.Render(h.templates, "article", article); err != nil {
				h.fail(c, err)
			}
		})).
		On(mediatype.TextPlain, exchange.HandlerFunc(func(c *exchange.Context) {
			c.Text(article.Title + "\n\n" + article.Body + "\n")
		})).
		Handle().
		Handle(c)
}

// handleCreateArticle stores a new article written by the caller.
// POST /articles
func (h *Handler) handleCreateArticle(c *exchange.Context) {
	var req catalog.CreateArticleRequest
	if err := decodeJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	user := c.User()
	author := user.Username()
	if author == "" {
		author = user.Subject
	}

	article, err := h.store.Create(c.Context(), author, &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("article created",
		slog.String("id", article.ID),
		slog.String("author", author))

	c.Writer.Header().Set("Location", "/articles/"+article.ID)
	c.Status(http.StatusCreated).JSON(article)
}

// handleDeleteArticle removes an article.
// DELETE /articles/{id}
func (h *Handler) handleDeleteArticle(c *exchange.Context) {
	id := c.PathValue("id")
	if err := h.store.Delete(c.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("article deleted",
		slog.String("id", id),
		slog.String("by", c.User().Subject))
	c.NoContent()
}

// handleSearch returns articles matching q.
// GET /search?q=
func (h *Handler) handleSearch(c *exchange.Context) {
	q := c.Query("q")
	articles, err := h.store.Search(c.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}

	page := articleList{Articles: articles, Query: q}
	negotiation.New().HTMLFallbackJSON(h.templates, "articles", page).Handle(c)
}
