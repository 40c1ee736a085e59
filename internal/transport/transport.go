// Package transport provides HTTP round trippers for probing reqmatch
// servers the way a browser would reach them.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// =============================================================================
// BROWSER TLS FINGERPRINT
// =============================================================================
//
// Content negotiation behind a CDN or WAF often depends on who the edge thinks
// the client is. Go's TLS ClientHello is easy to tell apart from a browser, so
// a probe using the stock client can see different representations (or a
// challenge page) than a browser sending the same Accept header.
//
// The Chrome transport dials with uTLS HelloChrome_Auto, lets ALPN pick
// h2 or http/1.1, and frames HTTP/2 with x/net/http2 when h2 is negotiated.
//
// =============================================================================

// Options configures a Chrome transport.
type Options struct {
	// Timeout bounds the TCP dial and the TLS handshake.
	Timeout time.Duration

	// InsecureSkipVerify disables certificate verification. Only meant for
	// local servers with self-signed certificates.
	InsecureSkipVerify bool
}

// NewChromeTransport creates an http.RoundTripper that presents Chrome's TLS
// fingerprint. https requests try HTTP/2 first and fall back to HTTP/1.1;
// plain http requests go straight to HTTP/1.1.
func NewChromeTransport(opts Options) http.RoundTripper {
	d := &chromeDialer{
		dialer:   &net.Dialer{Timeout: opts.Timeout},
		timeout:  opts.Timeout,
		insecure: opts.InsecureSkipVerify,
	}

	return &chromeTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return d.dial(ctx, network, addr, "h2")
			},
		},
		h1: &http.Transport{
			Proxy:       http.ProxyFromEnvironment,
			DialContext: d.dialer.DialContext,
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return d.dial(ctx, network, addr, "http/1.1")
			},
			ForceAttemptHTTP2: false,
		},
	}
}

// NewClient returns an http.Client using the Chrome transport.
func NewClient(opts Options) *http.Client {
	return &http.Client{Transport: NewChromeTransport(opts)}
}

// chromeTransport wraps HTTP/2 and HTTP/1.1 transports sharing one dialer.
type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip implements http.RoundTripper.
func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	// A consumed body cannot be replayed over HTTP/1.1.
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, err
		}
		body, berr := req.GetBody()
		if berr != nil {
			return nil, err
		}
		req = req.Clone(req.Context())
		req.Body = body
	}
	return t.h1.RoundTrip(req)
}

type chromeDialer struct {
	dialer   *net.Dialer
	timeout  time.Duration
	insecure bool
}

// dial establishes a TLS connection with Chrome's fingerprint and checks
// that ALPN settled on the protocol the caller is going to speak.
func (d *chromeDialer) dial(ctx context.Context, network, addr, proto string) (net.Conn, error) {
	// Extract hostname for SNI
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := d.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName:         host,
		InsecureSkipVerify: d.insecure,
	}, utls.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	// Servers without ALPN speak HTTP/1.1.
	negotiated := tlsConn.ConnectionState().NegotiatedProtocol
	if negotiated == "" {
		negotiated = "http/1.1"
	}
	if negotiated != proto {
		tlsConn.Close()
		return nil, fmt.Errorf("alpn: server selected %q, want %q", negotiated, proto)
	}

	return tlsConn, nil
}
