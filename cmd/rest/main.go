package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"ml-segregation-be/internal/bootstrap"
	"ml-segregation-be/internal/config"
	"ml-segregation-be/internal/server"
	"ml-segregation-be/internal/tracer"
	"ml-segregation-be/pkg/database"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Load Pipeline Configuration Document
	// A missing or malformed document is fatal: the pipeline must never
	// guess its threshold or endpoint.
	document, err := config.LoadDocument(cfg.Pipeline.ConfigPath, cfg.Pipeline.Threshold, cfg.Dispatch.Endpoint)
	if err != nil {
		log.Fatalf("Unable to load pipeline configuration: %v", err)
	}

	// 3. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg, document)

	// 5. Run everything under one supervision group
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Println("Background: Starting Pipeline Orchestrator...")
		if err := container.Orchestrator.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	srv := server.New(cfg, container)
	g.Go(func() error {
		return srv.Run()
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Service exited with error: %v", err)
	}
	log.Println("Shutdown complete")
}
