// Package catalog defines the article store behind the demo service.
// Handlers depend on the Store interface; Memory is the in-process
// implementation and Mock is for tests.
package catalog

import (
	"context"
	"time"
)

// Article is one catalogue entry.
type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateArticleRequest contains data for creating a new article.
type CreateArticleRequest struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags,omitempty"`
}

// Store abstracts article persistence.
//
// Errors are *model.APIError values ready for the wire: Get and Delete
// return a not-found error for unknown ids, Create a bad-request error for
// invalid input.
type Store interface {
	// List returns every article, oldest first.
	List(ctx context.Context) ([]Article, error)

	// Get returns the article with the given id.
	Get(ctx context.Context, id string) (*Article, error)

	// Create stores a new article written by author.
	Create(ctx context.Context, author string, req *CreateArticleRequest) (*Article, error)

	// Delete removes the article with the given id.
	Delete(ctx context.Context, id string) error

	// Search returns articles whose title, body or tags contain query,
	// case-insensitively.
	Search(ctx context.Context, query string) ([]Article, error)
}
