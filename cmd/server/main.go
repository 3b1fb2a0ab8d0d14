package main

import (
	"flag"
	"log"

	approuters "Voxline/internal/app_routers"
	"Voxline/internal/configuration"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON configuration file")
	flag.Parse()

	container, err := configuration.BuildContainer(*configPath)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	if err := approuters.StartServer(container); err != nil {
		container.Logger.Error("server stopped", zap.Error(err))
	}

	// Ensure cleanup on shutdown
	if err := container.Close(); err != nil {
		log.Printf("cleanup: %v", err)
	}
}
