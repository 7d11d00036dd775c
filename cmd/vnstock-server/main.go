package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bobmcallan/vnstock-chat/internal/app"
	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/server"
)

func main() {
	// Config path resolution: VNSTOCK_CONFIG, binary dir, then config/
	a, err := app.NewApp("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	if missing := a.Config.ValidateRequired(); len(missing) > 0 {
		a.Logger.Warn().Strs("missing", missing).Msg("Required configuration missing; chat answers will fail")
	}

	common.PrintBanner(a.Config, a.Logger)

	srv := server.NewServer(a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)).
		Msg("Server ready")

	if err := srv.Run(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}

	common.PrintShutdownBanner(a.Logger)
	a.Logger.Info().Msg("Server stopped")
}
