package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/claude/trainplan/internal/models"
	"github.com/claude/trainplan/internal/storage"
)

// Sink is the storage the importer writes to. *storage.DB satisfies it.
type Sink interface {
	UpsertExercises(ctx context.Context, exercises []models.Exercise) (int64, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log storage.ImportLog) error
}

var _ Sink = (*storage.DB)(nil)

// Stats reports the outcome of one import.
type Stats struct {
	Path      string
	Hash      string
	Read      int
	Stored    int64
	Unchanged bool
}

// Importer loads catalog files and upserts their exercises.
type Importer struct {
	sink   Sink
	state  *StateDB
	log    *slog.Logger
	dryRun bool
}

// NewImporter creates an Importer. state may be nil to import every file
// regardless of earlier runs.
func NewImporter(sink Sink, state *StateDB, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{sink: sink, state: state, log: log, dryRun: dryRun}
}

// Import reads path and upserts its exercises. A file whose content was
// already imported is skipped. Every non-dry run is recorded in the
// catalog_imports table.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	hash, err := HashFile(abs)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	stats := &Stats{Path: abs, Hash: hash}

	if imp.state != nil {
		done, err := imp.state.IsImported(abs, hash)
		if err != nil {
			return stats, err
		}
		if done {
			stats.Unchanged = true
			imp.log.Info("catalog unchanged, skipping", "path", abs)
			return stats, nil
		}
	}

	exercises, err := LoadFile(abs)
	if err != nil {
		return stats, err
	}
	stats.Read = len(exercises)

	if imp.dryRun {
		imp.log.Info("dry run: catalog valid", "path", abs, "exercises", stats.Read)
		return stats, nil
	}

	start := time.Now()
	entry := storage.ImportLog{
		Source:        abs,
		FileHash:      hash,
		Status:        "running",
		ExercisesRead: stats.Read,
	}
	logID, err := imp.sink.InsertImportLog(ctx, entry)
	if err != nil {
		imp.log.Warn("failed to record import start", "error", err)
	}

	stored, importErr := imp.sink.UpsertExercises(ctx, exercises)
	stats.Stored = stored

	durationMs := int(time.Since(start).Milliseconds())
	entry.DurationMs = &durationMs
	entry.ExercisesStored = stored
	entry.Status = "success"
	if importErr != nil {
		entry.Status = "error"
		msg := importErr.Error()
		entry.ErrorMessage = &msg
	}
	if logID != 0 {
		if err := imp.sink.UpdateImportLog(ctx, logID, entry); err != nil {
			imp.log.Warn("failed to record import result", "error", err)
		}
	}
	if importErr != nil {
		return stats, fmt.Errorf("storing exercises: %w", importErr)
	}

	if imp.state != nil {
		if err := imp.state.MarkImported(abs, hash, stats.Read); err != nil {
			imp.log.Warn("failed to record import state", "error", err)
		}
	}
	imp.log.Info("catalog imported", "path", abs, "exercises", stats.Read, "stored", stored)
	return stats, nil
}
