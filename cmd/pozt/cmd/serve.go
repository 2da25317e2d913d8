package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lilseedabe/pozt/internal/server"
)

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server on stdin/stdout",
		Long: `Serve the moiré tools over the Model Context Protocol (JSON-RPC 2.0,
one request per line on stdin, responses on stdout). Logs go to stderr.

Configure it in your MCP client as:
  {"command": "pozt", "args": ["serve"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.log.Info("mcp server starting", "version", a.build.Version, "commit", a.build.GitCommit, "canvas", engine.Canvas().String())
			srv := server.New(engine, server.Options{Config: a.cfg, Logger: a.log, Version: a.build.Version})
			err = srv.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				a.log.Info("mcp server stopped")
				return nil
			}
			return err
		},
	}
}
