// Package jobs runs periodic maintenance in the background of the server.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Expirer deletes rows whose expiry has passed and reports how many went.
type Expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type CleanupJob struct {
	authSessions  Expirer
	adminSessions Expirer
	interval      time.Duration
	timeout       time.Duration
	done          chan struct{}
}

func NewCleanupJob(authSessions, adminSessions Expirer, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		authSessions:  authSessions,
		adminSessions: adminSessions,
		interval:      interval,
		timeout:       30 * time.Second,
		done:          make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.runCleanup(ctx, "auth sessions", j.authSessions)
	j.runCleanup(ctx, "admin sessions", j.adminSessions)
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, repo Expirer) {
	if repo == nil {
		return
	}
	count, err := repo.DeleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
