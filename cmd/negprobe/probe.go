package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reqmatch/internal/mediatype"
)

// defaultAccepts is the Accept matrix probed when no -accept flag is given.
// The empty entry sends no Accept header at all.
var defaultAccepts = []string{
	"",
	"*/*",
	"text/html",
	"application/json",
	"text/plain",
	"text/*",
	"application/json;q=0",
	"text/html, application/json;q=0.9",
	"image/png",
	"*/json",
}

// acceptList is a repeatable -accept flag.
type acceptList []string

func (a *acceptList) String() string { return strings.Join(*a, " | ") }

func (a *acceptList) Set(v string) error {
	*a = append(*a, v)
	return nil
}

// probeResult is one request of the matrix.
type probeResult struct {
	Accept      string
	Status      int
	ContentType string
	Vary        string
	ErrorCode   string
	Duration    time.Duration
	Body        []byte

	// MediaType is the parsed Content-Type; zero when absent or malformed.
	MediaType mediatype.MediaType
	ParseErr  error

	// Acceptable reports whether the served type is covered by the Accept
	// header. A missing or entirely unparseable header accepts anything.
	Acceptable bool
}

// probe sends one GET with the given Accept header and classifies the
// response.
func probe(ctx context.Context, client *http.Client, target, accept, token string) (*probeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	res := &probeResult{
		Accept:      accept,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Vary:        resp.Header.Get("Vary"),
		Duration:    duration,
		Body:        body,
	}
	if res.ContentType != "" {
		res.MediaType, res.ParseErr = mediatype.Parse(res.ContentType)
	}

	accepted := mediatype.ParseAccept(accept)
	switch {
	case len(accepted) == 0:
		res.Acceptable = true
	case res.ParseErr == nil && !res.MediaType.IsZero():
		res.Acceptable = mediatype.Covered(accepted, res.MediaType)
	}

	if resp.StatusCode >= 400 {
		res.ErrorCode = errorCode(body)
	}
	return res, nil
}

// errorCode extracts error.code from the JSON error envelope, if any.
func errorCode(body []byte) string {
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Code
}

// joinURL appends path to base without doubling the slash.
func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
