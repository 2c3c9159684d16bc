// Package forum drives the tool-using agent that researches Reddit
// discussion for the forum pipeline.
package forum

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikhilbhutani/newscast/internal/agent"
	"github.com/nikhilbhutani/newscast/internal/config"
	"github.com/nikhilbhutani/newscast/internal/llm"
	"github.com/nikhilbhutani/newscast/internal/mcp"
	"github.com/nikhilbhutani/newscast/internal/prompt"
	"github.com/nikhilbhutani/newscast/internal/research"
)

// ToolSession is a live connection to the tool server.
type ToolSession interface {
	agent.ToolCaller
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	Close() error
}

// Connector opens tool server sessions.
type Connector func(ctx context.Context) (ToolSession, error)

// StdioConnector launches the configured tool server subprocess.
func StdioConnector(cfg config.ToolServerConfig) Connector {
	return func(ctx context.Context) (ToolSession, error) {
		s, err := mcp.Start(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Factory builds one analyst per pipeline run.
type Factory struct {
	connect Connector
	gateway llm.Gateway
	cfg     config.AgentConfig
}

func NewFactory(connect Connector, gw llm.Gateway, cfg config.AgentConfig) *Factory {
	return &Factory{connect: connect, gateway: gw, cfg: cfg}
}

// Open starts the tool server, loads its tools and binds them to a fresh
// agent.
func (f *Factory) Open(ctx context.Context) (research.AnalystSession, error) {
	session, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}

	tools, err := session.ListTools(ctx)
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("load tools: %w", err)
	}
	slog.Info("tool server ready", "tools", len(tools))

	a := agent.New(f.gateway, agent.Config{
		Persona:     prompt.ForumAgentPersona,
		Provider:    f.cfg.Provider,
		Model:       f.cfg.Model,
		Temperature: f.cfg.Temperature,
		MaxTokens:   f.cfg.MaxTokens,
		MaxSteps:    f.cfg.MaxSteps,
	})
	for _, t := range agent.ServerTools(session, tools) {
		a.RegisterTool(t)
	}
	return &Analyst{agent: a, session: session}, nil
}

// Analyst answers per-topic forum questions over one tool session.
type Analyst struct {
	agent   *agent.Agent
	session ToolSession
}

func (a *Analyst) Analyze(ctx context.Context, topic string, since time.Time) (string, error) {
	instruction := prompt.MustRender(prompt.ForumSystem, map[string]string{
		"topic": topic,
		"since": since.Format("2006-01-02"),
	})
	resp, err := a.agent.Run(ctx, instruction, prompt.ForumUser)
	if err != nil {
		return "", err
	}
	slog.Debug("forum agent finished", "topic", topic, "steps", len(resp.Steps), "tokens", resp.TokensUsed)
	return resp.Answer, nil
}

func (a *Analyst) Close() error {
	return a.session.Close()
}
