package main

import (
	"net/http"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"catalog-api/internal/app"
	"catalog-api/internal/observability"
)

func main() {
	runtime, err := app.Build(app.Options{LoadDotEnv: true})
	if err != nil {
		observability.NewLogger().Error("bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer runtime.Close()

	runtime.Logger.Info("server_start", map[string]any{"addr": runtime.Addr})
	if err := http.ListenAndServe(runtime.Addr, runtime.Handler); err != nil {
		runtime.Logger.Error("server_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
