package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/locvowork/employee_directory/internal/bootstrap"
	"github.com/locvowork/employee_directory/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		logger.ErrLog(ctx, err, "Failed to initialize application")
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.ErrLog(ctx, err, "Server stopped with error")
		os.Exit(1)
	}
	logger.InfoLog(ctx, "Server stopped")
	_ = logger.Close()
}
