package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/model"
	"ml-segregation-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models (The Core Task)
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.PreparedSession{},
		&model.PipelineState{},
		&model.GateDecision{},
		&model.DispatchRecord{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Constraints & Views
	log.Println("Step 3: Creating Constraints & Views...")

	phases := make([]string, 0, len(entity.AllPhases()))
	for _, p := range entity.AllPhases() {
		phases = append(phases, "'"+string(p)+"'")
	}

	postMigrationSQL := []string{
		// Guard the single state row against phase strings the loop would
		// refuse to resume from.
		`ALTER TABLE pipeline_state DROP CONSTRAINT IF EXISTS pipeline_state_phase_check;`,
		fmt.Sprintf(`ALTER TABLE pipeline_state ADD CONSTRAINT pipeline_state_phase_check CHECK (phase IN (%s));`,
			strings.Join(phases, ", ")),
		// View: pending_label_counts, the balancing gate's statistic as a
		// queryable object for ad-hoc inspection.
		`CREATE OR REPLACE VIEW pending_label_counts AS
		 SELECT label, COUNT(*) AS total
		 FROM prepared_sessions
		 WHERE processed = false AND deferred = false
		 GROUP BY label;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
