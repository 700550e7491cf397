package decision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"ml-segregation-be/internal/entity"
	"ml-segregation-be/internal/pkg/logger"

	"github.com/fsnotify/fsnotify"
)

// settleDelay gives the writer a moment to finish after the first
// filesystem event, so partial writes are not parsed.
const settleDelay = 50 * time.Millisecond

// FileSource waits for a reviewer to drop an outcome JSON document into the
// outcomes directory. A malformed artifact is logged, removed, and the wait
// continues. A valid artifact is deleted once its decision is returned, so
// it is consumed exactly once.
type FileSource struct {
	dir          string
	pollInterval time.Duration
	logger       logger.ILogger
}

func NewFileSource(dir string, pollInterval time.Duration, log logger.ILogger) (*FileSource, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &FileSource{dir: dir, pollInterval: pollInterval, logger: log}, nil
}

func (s *FileSource) Await(ctx context.Context, kind entity.GateKind) (*Decision, error) {
	path := filepath.Join(s.dir, ArtifactName(kind))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return nil, err
	}

	for {
		// An artifact may already exist: either written moments ago or
		// left by a reviewer while the process was down. Consume it
		// before blocking on new events.
		if d, ok := s.tryConsume(kind, path); ok {
			return d, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev := <-watcher.Events:
			if filepath.Base(ev.Name) != ArtifactName(kind) {
				continue
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			time.Sleep(settleDelay)
		case werr := <-watcher.Errors:
			s.logger.Warn("DecisionSource", "Watcher error on outcomes dir", map[string]interface{}{"error": werr.Error()})
		case <-time.After(s.pollInterval):
			// Fallback poll in case an event was dropped.
		}
	}
}

func (s *FileSource) tryConsume(kind entity.GateKind, path string) (*Decision, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("DecisionSource", "Failed to read decision artifact", map[string]interface{}{"path": path, "error": err.Error()})
		}
		return nil, false
	}

	d, err := Parse(kind, data)
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			s.logger.Warn("DecisionSource", "Malformed decision artifact, waiting for a corrected one", map[string]interface{}{
				"gate":  string(kind),
				"path":  path,
				"error": err.Error(),
			})
			if rmErr := os.Remove(path); rmErr != nil {
				s.logger.Warn("DecisionSource", "Failed to remove malformed artifact", map[string]interface{}{"path": path, "error": rmErr.Error()})
			}
			return nil, false
		}
		s.logger.Error("DecisionSource", "Failed to parse decision artifact", map[string]interface{}{"path": path, "error": err.Error()})
		return nil, false
	}

	if err := os.Remove(path); err != nil {
		s.logger.Warn("DecisionSource", "Failed to remove consumed artifact", map[string]interface{}{"path": path, "error": err.Error()})
	}

	s.logger.Info("DecisionSource", "Decision artifact consumed", map[string]interface{}{
		"gate":     string(kind),
		"approved": d.Approved,
	})
	return d, true
}

func (s *FileSource) Clear(kind entity.GateKind) error {
	path := filepath.Join(s.dir, ArtifactName(kind))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
