package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/saludvia/portal-server-go/internal/repository"
)

// CleanupJob periodically deletes share tokens that expired past the
// retention window. Recently expired tokens are kept so guest validation can
// still tell a guest the link expired rather than that it never existed.
type CleanupJob struct {
	tokenRepo repository.SharedTokenRepository
	interval  time.Duration
	retention time.Duration
	done      chan struct{}
}

func NewCleanupJob(
	tokenRepo repository.SharedTokenRepository,
	interval time.Duration,
	retention time.Duration,
) *CleanupJob {
	return &CleanupJob{
		tokenRepo: tokenRepo,
		interval:  interval,
		retention: retention,
		done:      make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Dur("retention", j.retention).Msg("cleanup job started")
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
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-j.retention)
	count, err := j.tokenRepo.DeleteExpired(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup expired share tokens")
	} else if count > 0 {
		log.Info().Int64("count", count).Time("cutoff", cutoff).Msg("cleaned up expired share tokens")
	}
}
