// Package agent runs a ReAct-style tool-using loop over the LLM gateway.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nikhilbhutani/newscast/internal/apperr"
	"github.com/nikhilbhutani/newscast/internal/llm"
)

// Agent is an LLM-powered entity that can use tools.
type Agent struct {
	persona     string
	gateway     llm.Gateway
	provider    string
	model       string
	temperature float64
	maxTokens   int
	tools       map[string]Tool
	maxSteps    int
}

// Config holds configuration for creating an agent.
type Config struct {
	Persona     string
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxSteps    int // max ReAct iterations
}

func New(gw llm.Gateway, cfg Config) *Agent {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 10
	}
	return &Agent{
		persona:     cfg.Persona,
		gateway:     gw,
		provider:    cfg.Provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		tools:       make(map[string]Tool),
		maxSteps:    cfg.MaxSteps,
	}
}

// RegisterTool adds a tool the agent can use.
func (a *Agent) RegisterTool(tool Tool) {
	a.tools[tool.Name()] = tool
}

// Response is the final output from an agent run.
type Response struct {
	Answer     string `json:"answer"`
	Steps      []Step `json:"steps"`
	TokensUsed int    `json:"tokens_used"`
}

// Step records one iteration of the agent's reasoning loop.
type Step struct {
	Number      int    `json:"step"`
	Thought     string `json:"thought"`
	Action      string `json:"action,omitempty"`
	ActionInput string `json:"action_input,omitempty"`
	Observation string `json:"observation,omitempty"`
}

const reactFormat = `You have access to the following tools:
%s
To use a tool, respond with this EXACT format:
Thought: [your reasoning about what to do]
Action: [tool name]
Action Input: [input to the tool]

When you have enough information to answer, respond with:
Thought: [your final reasoning]
Final Answer: [your response to the user]

Always start with a Thought. You MUST end with a Final Answer.`

// Run answers user under the given instruction. Tool failures are fed back
// as observations, except overload, which ends the run with that error.
func (a *Agent) Run(ctx context.Context, instruction, user string) (*Response, error) {
	system := strings.TrimSpace(a.persona + "\n\n" + instruction)
	messages := []llm.Message{
		{Role: "system", Content: system + "\n\n" + fmt.Sprintf(reactFormat, a.toolDescriptions())},
		{Role: "user", Content: user},
	}

	var steps []Step
	totalTokens := 0

	for step := 0; step < a.maxSteps; step++ {
		resp, err := a.gateway.Chat(ctx, llm.ChatRequest{
			Provider:    a.provider,
			Model:       a.model,
			Messages:    messages,
			Temperature: a.temperature,
			MaxTokens:   a.maxTokens,
			Stop:        []string{"\nObservation:"},
		})
		if err != nil {
			return nil, fmt.Errorf("agent step %d: %w", step+1, err)
		}
		totalTokens += resp.TotalTokens

		parsed := parseReActResponse(resp.Content)
		current := Step{
			Number:      step + 1,
			Thought:     parsed.Thought,
			Action:      parsed.Action,
			ActionInput: parsed.ActionInput,
		}

		if parsed.FinalAnswer != "" {
			steps = append(steps, current)
			return &Response{Answer: parsed.FinalAnswer, Steps: steps, TokensUsed: totalTokens}, nil
		}

		switch tool, ok := a.tools[parsed.Action]; {
		case parsed.Action == "":
			current.Observation = "Error: no Action given. Use a tool or give a Final Answer."
		case !ok:
			current.Observation = fmt.Sprintf("Error: tool %q not found. Available tools: %s", parsed.Action, strings.Join(a.toolNames(), ", "))
		default:
			slog.Debug("agent executing tool", "tool", parsed.Action, "step", step+1)
			result, err := tool.Execute(ctx, parsed.ActionInput)
			if apperr.IsRetryable(err) {
				return nil, fmt.Errorf("agent tool %s: %w", parsed.Action, err)
			}
			if err != nil {
				current.Observation = "Error: " + err.Error()
			} else {
				current.Observation = result
			}
		}
		steps = append(steps, current)

		messages = append(messages,
			llm.Message{Role: "assistant", Content: resp.Content},
			llm.Message{Role: "user", Content: "Observation: " + current.Observation},
		)
	}

	return nil, apperr.New(apperr.Agent, fmt.Sprintf("agent gave no final answer within %d steps", a.maxSteps))
}

func (a *Agent) toolNames() []string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *Agent) toolDescriptions() string {
	var sb strings.Builder
	for _, name := range a.toolNames() {
		fmt.Fprintf(&sb, "- %s: %s\n", name, a.tools[name].Description())
	}
	return sb.String()
}
