// MCP transport handler using the official MCP Go SDK.
// Exposes the media type engine as MCP tools so agents can check how a
// server will negotiate before sending real requests.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"reqmatch/internal/mediatype"
)

// === MCP Tool Input/Output Types ===

// ParseMediaTypeInput is the input schema for the parse_media_type tool.
type ParseMediaTypeInput struct {
	MediaType string `json:"media_type" jsonschema:"media type or range to parse, e.g. text/html;charset=utf-8"`
}

// MediaTypeOutput describes a parsed media type.
type MediaTypeOutput struct {
	Canonical string        `json:"canonical"`
	Type      string        `json:"type"`
	Subtype   string        `json:"subtype"`
	Essence   string        `json:"essence"`
	Quality   float64       `json:"quality"`
	Wildcard  bool          `json:"wildcard"`
	Params    []ParamOutput `json:"params"`
}

// ParamOutput is one media type parameter.
type ParamOutput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NegotiateInput is the input schema for the negotiate tool.
type NegotiateInput struct {
	Accept  string   `json:"accept" jsonschema:"Accept header value as a client would send it"`
	Offered []string `json:"offered" jsonschema:"media types the server can produce, in priority order"`
}

// NegotiateOutput reports the negotiation result.
type NegotiateOutput struct {
	Matched   bool     `json:"matched"`
	MediaType string   `json:"media_type,omitempty"`
	Accepted  []string `json:"accepted"`
}

// MatchMediaTypeInput is the input schema for the match_media_type tool.
type MatchMediaTypeInput struct {
	Range string `json:"range" jsonschema:"media range, e.g. text/*"`
	Offer string `json:"offer" jsonschema:"concrete media type, e.g. text/html"`
}

// MatchMediaTypeOutput reports whether the range covers the offer.
type MatchMediaTypeOutput struct {
	Matches bool `json:"matches"`
	Equal   bool `json:"equal"`
}

// NewMCPServer creates an MCP server with the media type tools registered.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "reqmatch",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "HTTP content negotiation tools. " +
				"Parse media types, test media ranges and predict which representation an Accept header selects.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_media_type",
		Description: "Parse a single media type or media range and return its normalized parts.",
	}, h.mcpParseMediaType)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "negotiate",
		Description: "Pick the first offered media type covered by an Accept header. Offer order is priority; q only decides presence.",
	}, h.mcpNegotiate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "match_media_type",
		Description: "Report whether a media range covers a media type, and whether the two are equal.",
	}, h.mcpMatchMediaType)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpParseMediaType(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ParseMediaTypeInput,
) (*mcp.CallToolResult, *MediaTypeOutput, error) {
	mt, err := mediatype.Parse(input.MediaType)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, describe(mt), nil
}

func (h *Handler) mcpNegotiate(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input NegotiateInput,
) (*mcp.CallToolResult, *NegotiateOutput, error) {
	if len(input.Offered) == 0 {
		return nil, nil, errors.New("offered: at least one media type is required")
	}

	offers := make([]mediatype.MediaType, len(input.Offered))
	for i, raw := range input.Offered {
		mt, err := mediatype.Parse(raw)
		if err != nil {
			return nil, nil, h.mcpError(fmt.Errorf("offered[%d]: %w", i, err))
		}
		offers[i] = mt
	}

	accepted := mediatype.ParseAccept(input.Accept)
	out := &NegotiateOutput{Accepted: make([]string, len(accepted))}
	for i, a := range accepted {
		out.Accepted[i] = a.String()
	}

	if mt, ok := mediatype.FirstMatch(accepted, offers...); ok {
		out.Matched = true
		out.MediaType = mt.String()
	}
	return nil, out, nil
}

func (h *Handler) mcpMatchMediaType(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input MatchMediaTypeInput,
) (*mcp.CallToolResult, *MatchMediaTypeOutput, error) {
	rng, err := mediatype.Parse(input.Range)
	if err != nil {
		return nil, nil, h.mcpError(fmt.Errorf("range: %w", err))
	}
	offer, err := mediatype.Parse(input.Offer)
	if err != nil {
		return nil, nil, h.mcpError(fmt.Errorf("offer: %w", err))
	}
	return nil, &MatchMediaTypeOutput{
		Matches: rng.Matches(offer),
		Equal:   rng.Equal(offer),
	}, nil
}

// mcpError converts engine errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	if errors.Is(err, mediatype.ErrMalformedMediaType) {
		return err
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}

func describe(mt mediatype.MediaType) *MediaTypeOutput {
	params := mt.Params()
	out := &MediaTypeOutput{
		Canonical: mt.String(),
		Type:      mt.Type(),
		Subtype:   mt.Subtype(),
		Essence:   mt.Essence(),
		Quality:   mt.QualityFactor(),
		Wildcard:  mt.IsWildcardType() || mt.IsWildcardSubtype(),
		Params:    make([]ParamOutput, len(params)),
	}
	for i, p := range params {
		out.Params[i] = ParamOutput{Name: p.Name, Value: p.Value}
	}
	return out
}
