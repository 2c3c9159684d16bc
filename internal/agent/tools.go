package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nikhilbhutani/newscast/internal/mcp"
)

// Tool is something an agent can invoke during its reasoning loop.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input string) (string, error)
}

// ToolCaller invokes tools on a tool server.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallResult, error)
}

// maxObservation bounds how much tool output is fed back to the model.
const maxObservation = 12000

// ServerTool exposes one tool-server tool to the agent.
type ServerTool struct {
	caller ToolCaller
	tool   mcp.Tool
	schema toolSchema
}

type toolSchema struct {
	Properties map[string]struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	} `json:"properties"`
	Required []string `json:"required"`
}

func NewServerTool(caller ToolCaller, tool mcp.Tool) *ServerTool {
	t := &ServerTool{caller: caller, tool: tool}
	if len(tool.InputSchema) > 0 {
		_ = json.Unmarshal(tool.InputSchema, &t.schema)
	}
	return t
}

// ServerTools adapts every listed tool.
func ServerTools(caller ToolCaller, tools []mcp.Tool) []Tool {
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, NewServerTool(caller, t))
	}
	return out
}

func (t *ServerTool) Name() string { return t.tool.Name }

func (t *ServerTool) Description() string {
	desc := strings.TrimSpace(t.tool.Description)
	if len(t.tool.InputSchema) == 0 {
		return desc
	}
	return fmt.Sprintf("%s Input: a JSON object matching %s", desc, string(t.tool.InputSchema))
}

// Execute accepts either a JSON object of arguments or, for tools with a
// single string parameter, the bare value.
func (t *ServerTool) Execute(ctx context.Context, input string) (string, error) {
	args, err := t.arguments(input)
	if err != nil {
		return "", err
	}
	res, err := t.caller.CallTool(ctx, t.tool.Name, args)
	if err != nil {
		return "", err
	}
	text := res.Text()
	if len(text) > maxObservation {
		cut := maxObservation
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "\n[truncated]"
	}
	if text == "" {
		text = "(no output)"
	}
	return text, nil
}

func (t *ServerTool) arguments(input string) (map[string]any, error) {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(strings.TrimSuffix(input, "```"), "```json")
	input = strings.TrimSpace(input)

	if strings.HasPrefix(input, "{") {
		var args map[string]any
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return nil, fmt.Errorf("invalid JSON input for %s: %w", t.tool.Name, err)
		}
		return args, nil
	}

	if param, ok := t.singleStringParam(); ok {
		return map[string]any{param: input}, nil
	}
	if input == "" && len(t.schema.Required) == 0 {
		return map[string]any{}, nil
	}
	return nil, fmt.Errorf("tool %s expects a JSON object input", t.tool.Name)
}

func (t *ServerTool) singleStringParam() (string, bool) {
	candidates := t.schema.Required
	if len(candidates) == 0 {
		for name := range t.schema.Properties {
			candidates = append(candidates, name)
		}
		sort.Strings(candidates)
	}
	if len(candidates) != 1 {
		return "", false
	}
	p, ok := t.schema.Properties[candidates[0]]
	if !ok || (p.Type != "" && p.Type != "string") {
		return "", false
	}
	return candidates[0], true
}
