package mcp

import (
	"context"
	"os"
	"os/exec"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nikhilbhutani/newscast/internal/apperr"
	"github.com/nikhilbhutani/newscast/internal/config"
)

const stopTimeout = 5 * time.Second

// Start launches the tool server as a subprocess and completes the
// handshake. The process is killed if ctx ends before Close.
func Start(ctx context.Context, cfg config.ToolServerConfig) (*Session, error) {
	if _, err := exec.LookPath(cfg.Command); err != nil {
		return nil, apperr.Op(apperr.Agent, "start tool server", err)
	}
	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Env = append(os.Environ(),
		"API_TOKEN="+cfg.APIToken,
		"WEB_UNLOCKER_ZONE="+cfg.Zone,
	)
	cmd.Stderr = os.Stderr

	return Connect(ctx, &sdk.CommandTransport{Command: cmd, TerminateDuration: stopTimeout})
}
