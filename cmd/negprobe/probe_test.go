package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reqmatch/internal/catalog"
	"reqmatch/internal/handler"
	"reqmatch/internal/negotiation"
	"reqmatch/internal/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth, err := security.NewJWTAuthenticator(security.JWTConfig{Secret: []byte(testSecret)})
	require.NoError(t, err)

	store := catalog.NewMemory(catalog.Article{ID: "a1", Title: "Media types", Body: "type/subtype"})
	h := handler.New(store, logger, handler.Options{Authenticator: auth})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(negotiation.Middleware(logger)(mux))
	t.Cleanup(srv.Close)
	return srv
}

func TestProbe(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(5*time.Second, false, false)

	tests := []struct {
		name       string
		path       string
		accept     string
		status     int
		essence    string
		acceptable bool
		code       string
	}{
		{"list as html", "/articles", "text/html", http.StatusOK, "text/html", true, ""},
		{"list as json", "/articles", "application/json", http.StatusOK, "application/json", true, ""},
		{"list falls back to json", "/articles", "image/png", http.StatusOK, "application/json", false, ""},
		{"article as text", "/articles/a1", "text/plain", http.StatusOK, "text/plain", true, ""},
		{"article unsupported", "/articles/a1", "image/png", http.StatusUnsupportedMediaType, "application/json", false, "UNSUPPORTED_MEDIA_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := probe(context.Background(), client, joinURL(srv.URL, tt.path), tt.accept, "")
			require.NoError(t, err)

			assert.Equal(t, tt.accept, res.Accept)
			assert.Equal(t, tt.status, res.Status)
			require.NoError(t, res.ParseErr)
			assert.Equal(t, tt.essence, res.MediaType.Essence())
			assert.Equal(t, tt.acceptable, res.Acceptable)
			assert.Equal(t, tt.code, res.ErrorCode)
			assert.Equal(t, "Accept", res.Vary)
		})
	}
}

func TestProbeWithoutAcceptIsAlwaysAcceptable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	res, err := probe(context.Background(), srv.Client(), srv.URL, "", "")
	require.NoError(t, err)
	assert.True(t, res.Acceptable)
	assert.Equal(t, "image/png", res.MediaType.String())
}

func TestProbeMalformedContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "*/json")
	}))
	defer srv.Close()

	res, err := probe(context.Background(), srv.Client(), srv.URL, "application/json", "")
	require.NoError(t, err)
	assert.Error(t, res.ParseErr)
	assert.True(t, res.MediaType.IsZero())
	assert.False(t, res.Acceptable)
}

func TestProbeSendsToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	_, err := probe(context.Background(), srv.Client(), srv.URL, "", "tok")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", got)
}

func TestMintTokenRoundTrip(t *testing.T) {
	cfg := security.JWTConfig{Secret: []byte(testSecret), Issuer: "reqmatch"}
	token, err := mintToken(cfg, "ada", []string{"editor"}, "ada@example.com", "Ada", time.Minute)
	require.NoError(t, err)

	auth, err := security.NewJWTAuthenticator(cfg)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	res := auth.Authenticate(context.Background(), r)

	require.Equal(t, security.Yes, res.Decision)
	assert.Equal(t, "ada", res.User.Subject)
	assert.True(t, res.User.HasRole("editor"))
	assert.Equal(t, "ada@example.com", res.User.Email())
	assert.Equal(t, "Ada", res.User.Username())
}

func TestMintTokenRequiresSecret(t *testing.T) {
	_, err := mintToken(security.JWTConfig{}, "ada", nil, "", "", time.Minute)
	assert.Error(t, err)
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "http://h/articles", joinURL("http://h/", "/articles"))
	assert.Equal(t, "http://h/articles", joinURL("http://h", "articles"))
	assert.Equal(t, "http://h", joinURL("http://h", ""))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"editor", "admin"}, splitList(" editor, ,admin,"))
	assert.Nil(t, splitList(""))
}

func TestAcceptList(t *testing.T) {
	var a acceptList
	require.NoError(t, a.Set("text/html"))
	require.NoError(t, a.Set("application/json;q=0.5"))
	assert.Equal(t, acceptList{"text/html", "application/json;q=0.5"}, a)
	assert.Equal(t, "text/html | application/json;q=0.5", a.String())
}
