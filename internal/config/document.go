package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ml-segregation-be/internal/entity"
)

// DocumentError marks a missing or malformed pipeline configuration
// document. It is fatal at startup only.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("pipeline configuration document %s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

type documentBody struct {
	SessionNumber             int    `json:"sessionNumber"`
	OperationMode             string `json:"operationMode"`
	DevelopmentSystemEndpoint string `json:"developmentSystemEndpoint"`
}

// PipelineDocument is the operator-owned pipeline configuration JSON. The
// sessionNumber and developmentSystemEndpoint fields are read-only during
// a run; operationMode is rewritten on every phase transition so a
// restarted process resumes where review was paused.
type PipelineDocument struct {
	mu   sync.Mutex
	path string
	body documentBody
	mode entity.PipelinePhase
}

// LoadDocument reads and validates the document at path. When the file
// does not exist it is created with the given defaults, so a fresh
// deployment starts in collecting without manual setup.
func LoadDocument(path string, defaultThreshold int, defaultEndpoint string) (*PipelineDocument, error) {
	d := &PipelineDocument{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		d.body = documentBody{
			SessionNumber:             defaultThreshold,
			OperationMode:             string(entity.PhaseCollecting),
			DevelopmentSystemEndpoint: defaultEndpoint,
		}
		d.mode = entity.PhaseCollecting
		if err := d.write(); err != nil {
			return nil, &DocumentError{Path: path, Err: err}
		}
		return d, nil
	}
	if err != nil {
		return nil, &DocumentError{Path: path, Err: err}
	}

	if err := json.Unmarshal(data, &d.body); err != nil {
		return nil, &DocumentError{Path: path, Err: err}
	}
	if d.body.SessionNumber <= 0 {
		return nil, &DocumentError{Path: path, Err: fmt.Errorf("sessionNumber must be positive, got %d", d.body.SessionNumber)}
	}
	if d.body.DevelopmentSystemEndpoint == "" {
		return nil, &DocumentError{Path: path, Err: fmt.Errorf("developmentSystemEndpoint is required")}
	}

	mode, err := entity.ParsePipelinePhase(d.body.OperationMode)
	if err != nil {
		return nil, &DocumentError{Path: path, Err: err}
	}
	d.mode = mode

	return d, nil
}

func (d *PipelineDocument) Threshold() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.body.SessionNumber
}

func (d *PipelineDocument) Endpoint() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.body.DevelopmentSystemEndpoint
}

func (d *PipelineDocument) Mode() entity.PipelinePhase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// RecordMode persists a new operationMode to disk.
func (d *PipelineDocument) RecordMode(phase entity.PipelinePhase) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.mode = phase
	d.body.OperationMode = string(phase)
	return d.write()
}

func (d *PipelineDocument) write() error {
	if dir := filepath.Dir(d.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(d.body, "", "  ")
	if err != nil {
		return err
	}

	// Write-then-rename keeps a concurrent reader from seeing a torn file.
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, d.path)
}
