package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiffoh/messaging-app-mongoDB/internal/bootstrap"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	app, cleanup, err := bootstrap.Init(configPath)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	sugar := app.Sugar

	go func() {
		listenAddr := fmt.Sprintf(":%d", app.Config.App.Port)
		sugar.Infof("Server listening on %s", listenAddr)
		if err := app.App.Listen(listenAddr); err != nil {
			sugar.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	sugar.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), bootstrap.ShutdownTimeout)
	defer cancel()

	if err := app.Shutdown(ctx); err != nil {
		sugar.Errorf("Fiber app shutdown error: %v", err)
	}
	sugar.Info("Graceful shutdown complete")
	cleanup(ctx)
}
