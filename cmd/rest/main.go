package main

import (
	"context"
	"log"

	"legal-assist-be/internal/bootstrap"
	"legal-assist-be/internal/config"
	"legal-assist-be/internal/server"
	"legal-assist-be/internal/tracer"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)

	// 3. Start Background Services
	log.Println("Background: Starting Stream Consumer Service...")
	if err := container.StreamConsumerService.Consume(context.Background()); err != nil {
		log.Panicf("Unable to start stream consumer: %v", err)
	}

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}
