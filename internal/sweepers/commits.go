// Package sweepers holds periodic maintenance loops for the import pipeline
package sweepers

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// StaleCommitReleaser clears commit claims taken before a cutoff
type StaleCommitReleaser interface {
	ReleaseStaleCommits(ctx context.Context, startedBefore time.Time) ([]string, error)
}

// CommitClaimSweeper periodically releases commit claims older than a TTL,
// so a batch whose committing process died can be committed again.
type CommitClaimSweeper struct {
	store    StaleCommitReleaser
	logger   *zerolog.Logger
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
	stopChan chan struct{}
	done     chan struct{}
}

// NewCommitClaimSweeper creates a sweeper that runs every interval
func NewCommitClaimSweeper(store StaleCommitReleaser, logger *zerolog.Logger, interval, ttl time.Duration) *CommitClaimSweeper {
	return &CommitClaimSweeper{
		store:    store,
		logger:   logger,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called
func (s *CommitClaimSweeper) Start(ctx context.Context) {
	defer close(s.done)

	s.logger.Info().
		Dur("interval", s.interval).
		Dur("ttl", s.ttl).
		Msg("Starting commit claim sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Commit claim sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Commit claim sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Failed to release stale commit claims")
			}
		}
	}
}

// Stop signals the sweeper to stop and waits for the loop to exit
func (s *CommitClaimSweeper) Stop() {
	close(s.stopChan)
	<-s.done
}

// Sweep releases every claim older than the TTL once
func (s *CommitClaimSweeper) Sweep(ctx context.Context) ([]string, error) {
	s.logger.Debug().Msg("Running stale commit claim sweep")

	ids, err := s.store.ReleaseStaleCommits(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		s.logger.Warn().
			Strs("batches", ids).
			Msg("Released stale commit claims")
	}
	return ids, nil
}
