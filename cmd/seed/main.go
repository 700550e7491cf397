package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"ml-segregation-be/internal/dto"
	"ml-segregation-be/internal/entity"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Synthetic session generator. Posts labeled feature rows against a
// running instance the way the preparation system would.
func main() {
	baseURL := flag.String("url", "http://localhost:3000", "base URL of the segregation service")
	total := flag.Int("n", 60, "number of sessions to generate")
	batchSize := flag.Int("batch", 10, "sessions per ingestion request")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	labels := []string{entity.RiskLabelNormal, entity.RiskLabelModerate, entity.RiskLabelHigh}

	color.Cyan("=== Prepared Session Seeder ===")
	color.Cyan("Target: %s, sessions: %d, batch size: %d", *baseURL, *total, *batchSize)

	sent := 0
	for sent < *total {
		size := *batchSize
		if remaining := *total - sent; remaining < size {
			size = remaining
		}

		req := dto.StoreSessionsRequest{Sessions: make([]dto.PreparedSessionPayload, 0, size)}
		for i := 0; i < size; i++ {
			req.Sessions = append(req.Sessions, syntheticSession(rng, labels[rng.Intn(len(labels))]))
		}

		start := time.Now()
		res, err := postBatch(*baseURL, &req)
		elapsed := time.Since(start)
		if err != nil {
			log.Fatalf("Failed to store batch: %v", err)
		}

		if res.Deferred {
			color.Yellow("Stored %d sessions in %v (deferred: review in flight)", res.Stored, elapsed)
		} else {
			color.Green("Stored %d sessions in %v", res.Stored, elapsed)
		}
		sent += size
	}

	color.Cyan("Done: %d sessions seeded", sent)
}

func syntheticSession(rng *rand.Rand, label string) dto.PreparedSessionPayload {
	lon := -180 + rng.Float64()*360
	lat := -90 + rng.Float64()*180
	diffTime := rng.Float64() * 3600
	diffAmount := rng.Float64() * 500

	return dto.PreparedSessionPayload{
		Uuid:            uuid.NewString(),
		Label:           label,
		MedianLongitude: &lon,
		MedianLatitude:  &lat,
		MeanDiffTime:    &diffTime,
		MeanDiffAmount:  &diffAmount,
		MedianTargetIP:  randomIP(rng),
		MedianDestIP:    randomIP(rng),
	}
}

func randomIP(rng *rand.Rand) string {
	return fmt.Sprintf("%d.%d.%d.%d", 1+rng.Intn(223), rng.Intn(256), rng.Intn(256), 1+rng.Intn(254))
}

func postBatch(baseURL string, req *dto.StoreSessionsRequest) (*dto.StoreSessionsResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(baseURL+"/api/session/v1", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	var envelope struct {
		Data dto.StoreSessionsResponse `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}
