package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reqmatch/internal/catalog"
	"reqmatch/internal/security"
)

// Bearer keys known to the test authenticator.
const (
	editorKey = "editor-key"
	adminKey  = "admin-key"
	readerKey = "reader-key"
)

func testAuthenticator() security.Authenticator {
	return security.NewAPIKeyAuthenticator([]security.APIKey{
		{Key: editorKey, Subject: "ada", Roles: []string{"editor"}},
		{Key: adminKey, Subject: "root", Roles: []string{"admin"}},
		{Key: readerKey, Subject: "bob", Roles: []string{"reader"}},
	})
}

func testHandler(store catalog.Store) (*Handler, *http.ServeMux) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(store, logger, Options{
		Authenticator:  testAuthenticator(),
		MetricsEnabled: true,
		MCPEnabled:     true,
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, mux
}

func seededStore() *catalog.Memory {
	return catalog.NewMemory(
		catalog.Article{Title: "Media types", Body: "type/subtype;params", Author: "ada", Tags: []string{"http"}},
		catalog.Article{Title: "Predicates", Body: "and, or, negate", Author: "bob"},
	)
}

// getErrorCode extracts the error code from the JSON error envelope.
func getErrorCode(body []byte) string {
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	return resp.Error.Code
}

func TestHandleHealth(t *testing.T) {
	_, mux := testHandler(&catalog.Mock{})

	for _, path := range []string{"/health", "/healthz"} {
		req := httptest.NewRequest("GET", path, nil)
		req.Header.Set("Accept", "text/html")
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: Status = %d, want %d", path, w.Code, http.StatusOK)
		}

		var resp healthResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.Status != "ok" {
			t.Errorf("%s: Status = %s, want ok", path, resp.Status)
		}
		if w.Header().Get("Vary") != "" {
			t.Errorf("%s: health should not vary on Accept", path)
		}
	}
}

func TestListArticlesNegotiation(t *testing.T) {
	_, mux := testHandler(seededStore())

	tests := []struct {
		name        string
		accept      string
		contentType string
		contains    string
	}{
		{"html", "text/html,application/xhtml+xml;q=0.9", "text/html; charset=utf-8", "<a href=\"/articles/a1\">Media types</a>"},
		{"xhtml only", "application/xhtml+xml", "text/html; charset=utf-8", "<h1>Articles</h1>"},
		{"json", "application/json", "application/json", `"title":"Media types"`},
		{"wildcard prefers html", "*/*", "text/html; charset=utf-8", "Predicates"},
		{"no accept falls back to json", "", "application/json", `"articles":[`},
		{"unrelated falls back to json", "image/png", "application/json", `"title":"Predicates"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/articles", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, http.StatusOK, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("Body missing %q:\n%s", tt.contains, w.Body.String())
			}
			if w.Header().Get("Vary") != "Accept" {
				t.Errorf("Vary = %q, want Accept", w.Header().Get("Vary"))
			}
		})
	}
}

func TestListArticlesStoreError(t *testing.T) {
	_, mux := testHandler(&catalog.Mock{
		ListFunc: func(ctx context.Context) ([]catalog.Article, error) {
			return nil, errors.New("disk on fire")
		},
	})

	req := httptest.NewRequest("GET", "/articles", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if code := getErrorCode(w.Body.Bytes()); code != "INTERNAL_ERROR" {
		t.Errorf("error code = %q, want INTERNAL_ERROR", code)
	}
	if strings.Contains(w.Body.String(), "disk on fire") {
		t.Error("internal error details must not leak")
	}
}

func TestHandleGetArticle(t *testing.T) {
	_, mux := testHandler(seededStore())

	tests := []struct {
		name        string
		path        string
		accept      string
		wantStatus  int
		contentType string
		contains    string
		errorCode   string
	}{
		{"json", "/articles/a1", "application/json", 200, "application/json", `"id":"a1"`, ""},
		{"html", "/articles/a1", "text/html", 200, "text/html; charset=utf-8", "<h1>Media types</h1>", ""},
		{"plain text", "/articles/a2", "text/plain", 200, "text/plain; charset=utf-8", "Predicates\n\nand, or, negate", ""},
		{"registration order beats q", "/articles/a1", "text/html;q=1, application/json;q=0.1", 200, "application/json", `"id":"a1"`, ""},
		{"text wildcard picks html", "/articles/a1", "text/*", 200, "text/html; charset=utf-8", "<h1>", ""},
		{"unsupported", "/articles/a1", "image/png", 415, "application/json", "application/json, text/html", "UNSUPPORTED_MEDIA_TYPE"},
		{"absent accept", "/articles/a1", "", 415, "application/json", "", "UNSUPPORTED_MEDIA_TYPE"},
		{"not found", "/articles/zzz", "application/json", 404, "application/json", "article not found", "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("Body missing %q:\n%s", tt.contains, w.Body.String())
			}
			if tt.errorCode != "" {
				if code := getErrorCode(w.Body.Bytes()); code != tt.errorCode {
					t.Errorf("error code = %q, want %q", code, tt.errorCode)
				}
			}
		})
	}
}

func TestHandleCreateArticle(t *testing.T) {
	validBody := `{"title":"Guards","body":"401 then 403 then 415","tags":["Auth"]}`

	tests := []struct {
		name        string
		key         string
		contentType string
		body        string
		wantStatus  int
		errorCode   string
	}{
		{"anonymous", "", "application/json", validBody, 401, "UNAUTHORIZED"},
		{"unknown key", "nope", "application/json", validBody, 401, "UNAUTHORIZED"},
		{"reader lacks role", readerKey, "application/json", validBody, 403, "FORBIDDEN"},
		{"reader with wrong type still forbidden", readerKey, "text/plain", validBody, 403, "FORBIDDEN"},
		{"editor wrong type", editorKey, "text/plain", validBody, 415, "UNSUPPORTED_MEDIA_TYPE"},
		{"editor no type", editorKey, "", validBody, 415, "UNSUPPORTED_MEDIA_TYPE"},
		{"editor json with other param", editorKey, "application/json; version=2", validBody, 415, "UNSUPPORTED_MEDIA_TYPE"},
		{"editor invalid json", editorKey, "application/json", "{", 400, "BAD_REQUEST"},
		{"editor blank title", editorKey, "application/json", `{"title":" "}`, 400, "BAD_REQUEST"},
		{"editor", editorKey, "application/json", validBody, 201, ""},
		{"editor with charset", editorKey, "application/json; charset=UTF-8", validBody, 201, ""},
		{"admin", adminKey, "Application/JSON", validBody, 201, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := catalog.NewMemory()
			_, mux := testHandler(store)

			req := httptest.NewRequest("POST", "/articles", bytes.NewBufferString(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.key != "" {
				req.Header.Set("Authorization", "Bearer "+tt.key)
			}
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.errorCode != "" {
				if code := getErrorCode(w.Body.Bytes()); code != tt.errorCode {
					t.Errorf("error code = %q, want %q", code, tt.errorCode)
				}
				list, _ := store.List(context.Background())
				if len(list) != 0 {
					t.Errorf("store has %d articles after rejected request", len(list))
				}
				return
			}

			var article catalog.Article
			if err := json.NewDecoder(w.Body).Decode(&article); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if w.Header().Get("Location") != "/articles/"+article.ID {
				t.Errorf("Location = %q, want /articles/%s", w.Header().Get("Location"), article.ID)
			}
			if article.Title != "Guards" {
				t.Errorf("Title = %q, want Guards", article.Title)
			}
			if len(article.Tags) != 1 || article.Tags[0] != "auth" {
				t.Errorf("Tags = %v, want [auth]", article.Tags)
			}
		})
	}
}

func TestHandleCreateArticleAuthor(t *testing.T) {
	var gotAuthor string
	_, mux := testHandler(&catalog.Mock{
		CreateFunc: func(ctx context.Context, author string, req *catalog.CreateArticleRequest) (*catalog.Article, error) {
			gotAuthor = author
			return &catalog.Article{ID: "x1", Title: req.Title, Author: author}, nil
		},
	})

	req := httptest.NewRequest("POST", "/articles", strings.NewReader(`{"title":"t"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+editorKey)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusCreated)
	}
	if gotAuthor != "ada" {
		t.Errorf("author = %q, want subject ada", gotAuthor)
	}
}

func TestHandleDeleteArticle(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		path       string
		wantStatus int
		remaining  int
	}{
		{"anonymous", "", "/articles/a1", 401, 2},
		{"editor", editorKey, "/articles/a1", 403, 2},
		{"admin", adminKey, "/articles/a1", 204, 1},
		{"admin missing", adminKey, "/articles/zzz", 404, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore()
			_, mux := testHandler(store)

			req := httptest.NewRequest("DELETE", tt.path, nil)
			if tt.key != "" {
				req.Header.Set("Authorization", "Bearer "+tt.key)
			}
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d\nBody: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			list, _ := store.List(context.Background())
			if len(list) != tt.remaining {
				t.Errorf("remaining = %d, want %d", len(list), tt.remaining)
			}
		})
	}
}

func TestHandleSearch(t *testing.T) {
	_, mux := testHandler(seededStore())

	t.Run("missing q", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/search", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if !strings.Contains(w.Body.String(), "query parameter q is required") {
			t.Errorf("Body = %s", w.Body.String())
		}
	})

	t.Run("json results", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/search?q=negate", nil)
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		var resp articleList
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Query != "negate" || len(resp.Articles) != 1 || resp.Articles[0].Title != "Predicates" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("empty q lists all as html", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/search?q=", nil)
		req.Header.Set("Accept", "text/html")
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		body := w.Body.String()
		if !strings.Contains(body, "Media types") || !strings.Contains(body, "Predicates") {
			t.Errorf("Body missing articles:\n%s", body)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	_, mux := testHandler(seededStore())

	// Generate a negotiation to make sure counters have samples
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/articles", nil))

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "reqmatch_negotiations_total") {
		t.Error("metrics output missing reqmatch_negotiations_total")
	}
}

func TestOptionalSurfacesDisabled(t *testing.T) {
	h := New(seededStore(), slog.New(slog.NewTextHandler(io.Discard, nil)), Options{})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	for _, path := range []string{"/metrics", "/mcp"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("%s: Status = %d, want %d", path, w.Code, http.StatusNotFound)
		}
	}
}
