package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"reqmatch/internal/model"
)

// Limits applied by Create.
const (
	MaxTitleLength = 200
	MaxBodyLength  = 64 << 10
	MaxTags        = 16
)

// Memory is a Store held in process memory. Safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	articles map[string]*Article
	order    []string
	seq      int

	now func() time.Time
}

// NewMemory returns a store pre-loaded with seed. Seed articles without an
// id are given one.
func NewMemory(seed ...Article) *Memory {
	m := &Memory{
		articles: make(map[string]*Article),
		now:      time.Now,
	}
	for _, a := range seed {
		a := a
		if a.ID == "" {
			a.ID = m.nextID()
		}
		m.put(&a)
	}
	return m
}

func (m *Memory) nextID() string {
	m.seq++
	return fmt.Sprintf("a%d", m.seq)
}

func (m *Memory) put(a *Article) {
	if _, exists := m.articles[a.ID]; !exists {
		m.order = append(m.order, a.ID)
	}
	m.articles[a.ID] = a
}

// List returns a copy of every article in insertion order.
func (m *Memory) List(ctx context.Context) ([]Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Article, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, clone(m.articles[id]))
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id string) (*Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.articles[id]
	if !ok {
		return nil, model.NewNotFoundError("article")
	}
	c := clone(a)
	return &c, nil
}

func (m *Memory) Create(ctx context.Context, author string, req *CreateArticleRequest) (*Article, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a := &Article{
		ID:        m.nextID(),
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		Author:    author,
		Tags:      normalizeTags(req.Tags),
		CreatedAt: m.now().UTC(),
	}
	m.put(a)

	c := clone(a)
	return &c, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.articles[id]; !ok {
		return model.NewNotFoundError("article")
	}
	delete(m.articles, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Search(ctx context.Context, query string) ([]Article, error) {
	query = strings.ToLower(strings.TrimSpace(query))

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Article{}
	for _, id := range m.order {
		a := m.articles[id]
		if query == "" || matches(a, query) {
			out = append(out, clone(a))
		}
	}
	return out, nil
}

func matches(a *Article, query string) bool {
	if strings.Contains(strings.ToLower(a.Title), query) ||
		strings.Contains(strings.ToLower(a.Body), query) {
		return true
	}
	for _, t := range a.Tags {
		if strings.Contains(t, query) {
			return true
		}
	}
	return false
}

func validate(req *CreateArticleRequest) error {
	if req == nil {
		return model.NewBadRequestError("article is required")
	}
	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		return model.NewBadRequestError("title is required")
	case len(title) > MaxTitleLength:
		return model.NewBadRequestError(fmt.Sprintf("title exceeds %d bytes", MaxTitleLength))
	case len(req.Body) > MaxBodyLength:
		return model.NewBadRequestError(fmt.Sprintf("body exceeds %d bytes", MaxBodyLength))
	case len(req.Tags) > MaxTags:
		return model.NewBadRequestError(fmt.Sprintf("at most %d tags allowed", MaxTags))
	}
	return nil
}

// normalizeTags lower-cases, trims and de-duplicates tags, keeping order.
// Always returns a non-nil slice so JSON renders [] rather than null.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func clone(a *Article) Article {
	c := *a
	c.Tags = append([]string{}, a.Tags...)
	return c
}
