package catalog

import (
	"context"

	"reqmatch/internal/model"
)

// Mock implements Store for testing.
// Each method can be configured via function fields.
type Mock struct {
	ListFunc   func(ctx context.Context) ([]Article, error)
	GetFunc    func(ctx context.Context, id string) (*Article, error)
	CreateFunc func(ctx context.Context, author string, req *CreateArticleRequest) (*Article, error)
	DeleteFunc func(ctx context.Context, id string) error
	SearchFunc func(ctx context.Context, query string) ([]Article, error)
}

// List calls the configured ListFunc or returns an empty list.
func (m *Mock) List(ctx context.Context) ([]Article, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []Article{}, nil
}

// Get calls the configured GetFunc or returns a not-found error.
func (m *Mock) Get(ctx context.Context, id string) (*Article, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, model.NewNotFoundError("article")
}

// Create calls the configured CreateFunc or returns an error.
func (m *Mock) Create(ctx context.Context, author string, req *CreateArticleRequest) (*Article, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, author, req)
	}
	return nil, model.NewInternalError(nil)
}

// Delete calls the configured DeleteFunc or returns a not-found error.
func (m *Mock) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return model.NewNotFoundError("article")
}

// Search calls the configured SearchFunc or returns an empty list.
func (m *Mock) Search(ctx context.Context, query string) ([]Article, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return []Article{}, nil
}
