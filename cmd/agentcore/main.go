// Command agentcore runs the HTTP front-end over the agent execution core.
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/provenlabs/agentcore"
	"github.com/provenlabs/agentcore/config"
	"github.com/provenlabs/agentcore/logging"
	"github.com/provenlabs/agentcore/server"
)

func main() {
	_ = godotenv.Load()

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("startup.config", "error", err.Error())
		os.Exit(1)
	}

	core, err := agentcore.New(cfg, func(o *agentcore.Options) {
		o.Logger = logger
	})
	if err != nil {
		logger.Error("startup.core", "error", err.Error())
		os.Exit(1)
	}

	srv := server.New(core.Chat(), core.Search(), core.Image(), core.Capabilities())

	addr := ":" + envOr("PORT", "8000")
	logger.Info("startup.listen", "addr", addr, "model", cfg.ModelName, "tools", cfg.ToolsConfigured())
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Error("server.stopped", "error", err.Error())
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
