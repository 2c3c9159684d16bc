// Package mcp adapts a Model Context Protocol client session to the small
// tool surface the forum agent needs.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nikhilbhutani/newscast/internal/apperr"
)

var clientInfo = &sdk.Implementation{Name: "newscast", Version: "1.0.0"}

type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type CallResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Text joins the text parts of the result.
func (r *CallResult) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		if c.Type == "text" && c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Session is an initialized client session.
type Session struct {
	cs *sdk.ClientSession

	closeOnce sync.Once
	closeErr  error
}

// Connect performs the protocol handshake over transport.
func Connect(ctx context.Context, transport sdk.Transport) (*Session, error) {
	client := sdk.NewClient(clientInfo, nil)
	cs, err := client.Connect(ctx, transport, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classify("initialize", err)
	}
	return &Session{cs: cs}, nil
}

// ListTools returns every tool the server exposes, following pagination.
func (s *Session) ListTools(ctx context.Context) ([]Tool, error) {
	var (
		tools  []Tool
		cursor string
	)
	for {
		page, err := s.cs.ListTools(ctx, &sdk.ListToolsParams{Cursor: cursor})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, classify("tools/list", err)
		}
		for _, t := range page.Tools {
			tools = append(tools, toTool(t))
		}
		if page.NextCursor == "" {
			return tools, nil
		}
		cursor = page.NextCursor
	}
}

func toTool(t *sdk.Tool) Tool {
	out := Tool{Name: t.Name, Description: t.Description}
	if t.InputSchema != nil {
		if raw, err := json.Marshal(t.InputSchema); err == nil {
			out.InputSchema = raw
		}
	}
	return out
}

// CallTool invokes a tool. A result flagged isError is returned as an error
// carrying the tool's text.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*CallResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	op := "tools/call " + name
	res, err := s.cs.CallTool(ctx, &sdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classify(op, err)
	}

	out := &CallResult{IsError: res.IsError}
	for _, c := range res.Content {
		switch c := c.(type) {
		case *sdk.TextContent:
			out.Content = append(out.Content, Content{Type: "text", Text: c.Text})
		case *sdk.ImageContent:
			out.Content = append(out.Content, Content{Type: "image"})
		case *sdk.AudioContent:
			out.Content = append(out.Content, Content{Type: "audio"})
		default:
			out.Content = append(out.Content, Content{Type: "resource"})
		}
	}
	if out.IsError {
		return nil, classify(op, errors.New(out.Text()))
	}
	return out, nil
}

func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.cs.Close()
	})
	return s.closeErr
}

// classify keeps overload reports retryable; anything else the tool server
// says is an agent failure.
func classify(op string, err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "overloaded") {
		return apperr.Op(apperr.Overloaded, op, err)
	}
	return apperr.Op(apperr.Agent, op, err)
}
