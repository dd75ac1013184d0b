package main

import (
	"TakaDetect/internal/config"
	"TakaDetect/pkg/log"
	"TakaDetect/pkg/yolo"
	"context"
	"github.com/joho/godotenv"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded: %v", err)
	}

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()
	engine := yolo.New()

	// Model absence is non-fatal, /predict degrades to 503 until the
	// weights artifact shows up and the process is restarted.
	if err := engine.Load(context.Background()); err != nil {
		logger.Warnf("Model not loaded, /predict will be unavailable: %v", err)
	}

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithEngine(engine),
		config.WithDatabase(),
		config.WithRedisServer(),
		config.WithMiddleware(),
		config.WithUtils(),
	)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "Failed to build server")
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			log.Fatal(log.Fields{"error": err.Error()}, "Error starting server")
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	engine.Close()
	if err := server.Shutdown(); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
