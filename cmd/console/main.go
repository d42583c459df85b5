package main

import (
	"log"

	"analysis-console/internal/server"
	"analysis-console/internal/shared/config"
)

func main() {
	cfg := config.Load()
	r := server.NewRouter(cfg)

	addr := server.Addr(cfg.Port)
	log.Printf("Starting analysis console on %s (backend %s)", addr, cfg.BackendBaseURL)

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
