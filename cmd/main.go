package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pursue-app/pursue-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		a.Log.Info("Shutdown signal received")
		a.Close()
		os.Exit(0)
	}()

	a.Log.Info("Starting HTTP server", "port", a.Cfg.Port)
	if err := a.Run(); err != nil {
		a.Log.Fatal("HTTP server exited", "error", err)
	}
}
