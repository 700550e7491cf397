package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"ml-segregation-be/internal/config"
	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/pkg/logger"
	"ml-segregation-be/internal/repository/memory"
	"ml-segregation-be/internal/repository/specification"
	"ml-segregation-be/internal/repository/unitofwork"
	"ml-segregation-be/pkg/database"
	"ml-segregation-be/pkg/pipeline"
	"ml-segregation-be/pkg/pipeline/decision"
	"ml-segregation-be/pkg/pipeline/dispatch"
	"ml-segregation-be/pkg/pipeline/sets"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Simulation client: runs one full segregation cycle end to end against a
// real database, with automated gate decisions and a local stand-in for
// the development system.
func main() {
	color.Cyan("=== Segregation Pipeline Simulation ===")

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	sysLogger := logger.NewIsolatedLogger("logs/simulation.log")

	// 1. Local stand-in for the development system
	ackServer, endpoint := startAckServer()
	defer ackServer.Close()
	color.Cyan("Development system stand-in listening on %s", endpoint)

	// 2. Fresh configuration document pointing at the stand-in
	tmpDir, err := os.MkdirTemp("", "segregation-sim")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	threshold := cfg.Pipeline.Threshold
	document, err := config.LoadDocument(filepath.Join(tmpDir, "segregation_config.json"), threshold, endpoint)
	if err != nil {
		log.Fatalf("Unable to load pipeline configuration: %v", err)
	}

	// 3. Start from a clean collecting phase regardless of leftover state
	if err := uowFactory.NewUnitOfWork(context.Background()).PipelineStateRepository().Save(context.Background(), entity.PhaseCollecting); err != nil {
		log.Fatalf("Failed to reset pipeline phase: %v", err)
	}

	// 4. Seed enough sessions to trip the intake threshold
	seeded, err := seedSessions(uowFactory, threshold+threshold/4)
	if err != nil {
		log.Fatalf("Failed to seed sessions: %v", err)
	}
	color.Green("Seeded %d synthetic sessions (threshold %d)", seeded, threshold)

	// 5. Pipeline components with automated decisions
	plotsDir := filepath.Join(tmpDir, "plots")
	source := decision.NewAutoSource(
		cfg.Pipeline.AutoSeed,
		cfg.Pipeline.AutoApproveBalancing,
		cfg.Pipeline.AutoApproveCoverage,
		sysLogger,
	)

	builder, err := sets.NewBuilder(sets.Ratios{
		Train:      cfg.Pipeline.TrainRatio,
		Validation: cfg.Pipeline.ValidationRatio,
		Test:       cfg.Pipeline.TestRatio,
	})
	if err != nil {
		log.Fatalf("Invalid partition ratios: %v", err)
	}

	orchestrator := pipeline.NewOrchestrator(
		uowFactory,
		pipeline.NewIntakeGate(uowFactory, sysLogger),
		pipeline.NewBalancingGate(uowFactory, plotsDir, cfg.Pipeline.BalanceTolerance, sysLogger),
		pipeline.NewCoverageGate(uowFactory, plotsDir, sysLogger),
		source,
		builder,
		dispatch.NewHTTPClient(cfg.Dispatch.Timeout, sysLogger),
		document,
		memory.NewReportRegistry(),
		nil,
		sysLogger,
		pipeline.Options{
			PollInterval: 500 * time.Millisecond,
			RetryBackoff: 500 * time.Millisecond,
			SingleShot:   true,
		},
	)

	// 6. Run one full cycle; automated rejections loop back to collecting,
	// so eventually both gates approve and one dispatch lands.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	if err := orchestrator.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
	color.Green("Full cycle completed in %v", time.Since(start))

	// 7. Remove the dispatched rows so repeated runs start from a clean table
	sessionRepo := uowFactory.NewUnitOfWork(context.Background()).SessionRepository()
	removed, err := sessionRepo.DeleteProcessed(context.Background())
	if err != nil {
		log.Fatalf("Failed to clean up dispatched sessions: %v", err)
	}
	backlog, err := sessionRepo.Count(context.Background(), specification.Unprocessed{})
	if err != nil {
		log.Fatalf("Failed to count remaining sessions: %v", err)
	}
	color.Cyan("Cleaned up %d dispatched sessions, %d carry over to the next cycle", removed, backlog)
}

func startAckServer() (*http.Server, string) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("Failed to open ack listener: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/learning-sets", func(w http.ResponseWriter, r *http.Request) {
		var bundle sets.Bundle
		if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		color.Magenta(
			"Received learning sets: train=%d validation=%d test=%d",
			len(bundle.Train), len(bundle.Validation), len(bundle.Test),
		)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(listener)

	return srv, fmt.Sprintf("http://%s/api/learning-sets", listener.Addr().String())
}

func seedSessions(uowFactory unitofwork.RepositoryFactory, count int) (int, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	labels := []string{entity.RiskLabelNormal, entity.RiskLabelModerate, entity.RiskLabelHigh}

	sessions := make([]*entity.PreparedSession, 0, count)
	for i := 0; i < count; i++ {
		sessions = append(sessions, &entity.PreparedSession{
			Uuid:            uuid.NewString(),
			Label:           labels[i%len(labels)],
			MedianLongitude: -180 + rng.Float64()*360,
			MedianLatitude:  -90 + rng.Float64()*180,
			MeanDiffTime:    rng.Float64() * 3600,
			MeanDiffAmount:  rng.Float64() * 500,
			MedianTargetIP:  fmt.Sprintf("10.0.%d.%d", rng.Intn(256), 1+rng.Intn(254)),
			MedianDestIP:    fmt.Sprintf("192.168.%d.%d", rng.Intn(256), 1+rng.Intn(254)),
		})
	}

	ctx := context.Background()
	uow := uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	if err := uow.SessionRepository().CreateBatch(ctx, sessions); err != nil {
		return 0, err
	}
	if err := uow.Commit(); err != nil {
		return 0, err
	}
	return len(sessions), nil
}
