package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/newscast/internal/app"
	"github.com/nikhilbhutani/newscast/internal/briefing"
	"github.com/nikhilbhutani/newscast/internal/config"
	"github.com/nikhilbhutani/newscast/internal/logging"
	"github.com/nikhilbhutani/newscast/internal/news"
	"github.com/nikhilbhutani/newscast/internal/unlocker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "newscast",
		Short:        "Generate spoken news briefings from news search and Reddit",
		SilenceUsage: true,
	}
	root.AddCommand(newGenerateCmd(), newHeadlinesCmd())
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// Logs go to stderr so stdout carries only the command's output.
	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level))
	return cfg, nil
}

func newGenerateCmd() *cobra.Command {
	var (
		topics []string
		source string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Research topics, compose a script and synthesize it to an MP3 file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Service.Generate(cmd.Context(), briefing.Request{Topics: topics, SourceType: source})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Audio.Path)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&topics, "topics", nil, "comma-separated topics to cover")
	cmd.Flags().StringVar(&source, "source", "both", "news, reddit or both")
	_ = cmd.MarkFlagRequired("topics")
	return cmd
}

func newHeadlinesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headlines <topic>",
		Short: "Fetch the news search page for a topic and print its headlines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			topic := strings.Join(args, " ")
			markup, err := unlocker.NewClient(cfg.Proxy).Fetch(cmd.Context(), news.SearchURL(topic))
			if err != nil {
				return err
			}
			headlines, err := news.Headlines(markup)
			if err != nil {
				return err
			}
			for _, h := range headlines {
				fmt.Fprintln(cmd.OutOrStdout(), h)
			}
			return nil
		},
	}
}
