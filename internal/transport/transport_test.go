package transport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func protoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, r.Proto+" "+r.Header.Get("Accept"))
	})
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Accept", "text/html")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestChromeTransportHTTP2(t *testing.T) {
	srv := httptest.NewUnstartedServer(protoHandler())
	srv.EnableHTTP2 = true
	srv.StartTLS()
	defer srv.Close()

	client := NewClient(Options{Timeout: 5 * time.Second, InsecureSkipVerify: true})
	resp, body := get(t, client, srv.URL)

	if resp.ProtoMajor != 2 {
		t.Errorf("ProtoMajor = %d, want 2", resp.ProtoMajor)
	}
	if body != "HTTP/2.0 text/html" {
		t.Errorf("body = %q", body)
	}
}

func TestChromeTransportFallsBackToHTTP1(t *testing.T) {
	srv := httptest.NewTLSServer(protoHandler())
	defer srv.Close()

	client := NewClient(Options{Timeout: 5 * time.Second, InsecureSkipVerify: true})
	resp, body := get(t, client, srv.URL)

	if resp.ProtoMajor != 1 {
		t.Errorf("ProtoMajor = %d, want 1", resp.ProtoMajor)
	}
	if body != "HTTP/1.1 text/html" {
		t.Errorf("body = %q", body)
	}
}

func TestChromeTransportPlainHTTP(t *testing.T) {
	srv := httptest.NewServer(protoHandler())
	defer srv.Close()

	client := NewClient(Options{Timeout: 5 * time.Second})
	resp, body := get(t, client, srv.URL)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.HasPrefix(body, "HTTP/1.1") {
		t.Errorf("body = %q, want HTTP/1.1 prefix", body)
	}
}

func TestChromeTransportVerifiesCertificates(t *testing.T) {
	srv := httptest.NewTLSServer(protoHandler())
	defer srv.Close()

	client := NewClient(Options{Timeout: 5 * time.Second})
	resp, err := client.Get(srv.URL)
	if err == nil {
		resp.Body.Close()
		t.Fatal("expected certificate error for self-signed server")
	}
}
