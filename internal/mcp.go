package internal

import (
	"context"
	"log/slog"
	"os"

	"github.com/starford/habitu/internal/mcpserver"
)

// RunMCP serves the habit tools over MCP stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := app.newLogger()

	store, _, closeStore, err := openStore(app.config.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := loadService(ctx, app.config, store, logger)
	if err != nil {
		return err
	}

	logger.Info("MCP server starting on stdio", slog.String("storage", app.config.Storage.Path))
	return mcpserver.New(svc).ServeStdio()
}
