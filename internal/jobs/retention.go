// Package jobs runs background retention for import batches
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/motorefacciones/import-service/internal/storage"
	"github.com/motorefacciones/import-service/internal/types"
)

// RetentionConfig controls how long abandoned batches are kept
type RetentionConfig struct {
	Enabled  bool                `mapstructure:"enabled"`
	Interval time.Duration       `mapstructure:"interval"`
	MaxAge   time.Duration       `mapstructure:"max_age"`
	Statuses []types.BatchStatus `mapstructure:"statuses"`
}

// DefaultRetentionConfig keeps failed and never-committed batches for 30 days
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Enabled:  false,
		Interval: 24 * time.Hour,
		MaxAge:   30 * 24 * time.Hour,
		Statuses: []types.BatchStatus{types.BatchStatusFailed, types.BatchStatusUploaded},
	}
}

// BatchPruner deletes old batches and returns their ids
type BatchPruner interface {
	DeleteBatchesBefore(ctx context.Context, statuses []types.BatchStatus, cutoff time.Time) ([]string, error)
}

// RetentionResult reports one retention pass
type RetentionResult struct {
	Batches int `json:"batches"`
	Files   int `json:"files"`
}

// RetentionManager prunes old batches and their archived source files
type RetentionManager struct {
	config  RetentionConfig
	pruner  BatchPruner
	archive storage.Storage
	logger  *zerolog.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRetentionManager creates a retention manager. archive may be nil.
func NewRetentionManager(config RetentionConfig, pruner BatchPruner, archive storage.Storage, logger *zerolog.Logger) *RetentionManager {
	ctx, cancel := context.WithCancel(context.Background())

	return &RetentionManager{
		config:  config,
		pruner:  pruner,
		archive: archive,
		logger:  logger,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start begins the periodic retention job
func (m *RetentionManager) Start() {
	if !m.config.Enabled || m.config.Interval <= 0 {
		m.logger.Info().Msg("Batch retention is disabled, not starting")
		close(m.done)
		return
	}

	m.logger.Info().
		Dur("interval", m.config.Interval).
		Dur("max_age", m.config.MaxAge).
		Msg("Starting batch retention")

	go m.run()
}

// Stop gracefully stops the retention job
func (m *RetentionManager) Stop() {
	m.cancel()

	select {
	case <-m.done:
		m.logger.Debug().Msg("Batch retention stopped")
	case <-time.After(5 * time.Second):
		m.logger.Warn().Msg("Batch retention did not stop gracefully")
	}
}

func (m *RetentionManager) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.RunOnce(m.ctx); err != nil {
				m.logger.Error().Err(err).Msg("Batch retention failed")
			}
		}
	}
}

// RunOnce deletes batches older than MaxAge in the configured statuses,
// then removes their archived files. Archive failures are logged and skipped.
func (m *RetentionManager) RunOnce(ctx context.Context) (RetentionResult, error) {
	start := m.now()
	cutoff := start.Add(-m.config.MaxAge)

	ids, err := m.pruner.DeleteBatchesBefore(ctx, m.config.Statuses, cutoff)
	if err != nil {
		return RetentionResult{}, fmt.Errorf("failed to prune batches: %w", err)
	}

	result := RetentionResult{Batches: len(ids)}
	if m.archive != nil {
		for _, id := range ids {
			result.Files += m.deleteArchive(ctx, id)
		}
	}

	event := m.logger.Debug()
	if result.Batches > 0 {
		event = m.logger.Info()
	}
	event.
		Int("batches", result.Batches).
		Int("files", result.Files).
		Time("cutoff", cutoff).
		Dur("duration", m.now().Sub(start)).
		Msg("Batch retention pass finished")

	return result, nil
}

func (m *RetentionManager) deleteArchive(ctx context.Context, batchID string) int {
	keys, err := m.archive.List(ctx, storage.BuildBatchPrefix(batchID))
	if err != nil {
		m.logger.Warn().Err(err).Str("batch_id", batchID).Msg("Failed to list archived files")
		return 0
	}

	deleted := 0
	for _, key := range keys {
		if err := m.archive.Delete(ctx, key); err != nil {
			m.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete archived file")
			continue
		}
		deleted++
	}
	return deleted
}
