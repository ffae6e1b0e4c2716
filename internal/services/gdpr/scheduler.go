package gdpr

import (
	"context"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// CleanupScheduler periodically purges expired data exports.
type CleanupScheduler struct {
	service  *Service
	interval time.Duration
	stopChan chan struct{}
}

func NewCleanupScheduler(service *Service, interval time.Duration) *CleanupScheduler {
	if interval == 0 {
		interval = 1 * time.Hour
	}
	return &CleanupScheduler{
		service:  service,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (s *CleanupScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	fiberlog.Infof("Export cleanup scheduler started, running every %s", s.interval)

	for {
		select {
		case <-ticker.C:
			removed, err := s.service.CleanupExpiredExports(ctx)
			if err != nil {
				fiberlog.Errorf("Error cleaning up expired exports: %v", err)
			} else if removed > 0 {
				fiberlog.Infof("Removed %d expired data exports", removed)
			}
		case <-s.stopChan:
			fiberlog.Info("Export cleanup scheduler stopped")
			return
		case <-ctx.Done():
			fiberlog.Info("Export cleanup scheduler stopped due to context cancellation")
			return
		}
	}
}

func (s *CleanupScheduler) Stop() {
	close(s.stopChan)
}
