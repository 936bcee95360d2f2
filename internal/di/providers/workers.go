package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/recipes-server/internal/logger"
)

const sessionGCInterval = time.Hour

// SessionCleanupJob periodically reclaims space held by expired sessions.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	registry := do.MustInvoke[*SessionRegistryHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(sessionGCInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n, err := registry.CollectGarbage(); err != nil {
					log.Warn("Session cleanup failed", "error", err)
				} else if n > 0 {
					log.Info("Session cleanup completed", "rewritten_files", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started")

	return &SessionCleanupJob{cancel: cancel}, nil
}
