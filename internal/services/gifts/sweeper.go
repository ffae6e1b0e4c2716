package gifts

import (
	"context"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// PendingSweeper periodically requeues gifts left pending by a dropped task,
// a full worker buffer, or a restart. Fulfillment is idempotent, so
// resubmitting a gift already in flight is harmless.
type PendingSweeper struct {
	service  *Service
	worker   *Worker
	interval time.Duration
	minAge   time.Duration
	stopChan chan struct{}
}

func NewPendingSweeper(service *Service, worker *Worker, interval, minAge time.Duration) *PendingSweeper {
	if interval == 0 {
		interval = 1 * time.Minute
	}
	return &PendingSweeper{
		service:  service,
		worker:   worker,
		interval: interval,
		minAge:   minAge,
		stopChan: make(chan struct{}),
	}
}

func (s *PendingSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	fiberlog.Infof("Gift sweeper started, running every %s", s.interval)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			fiberlog.Info("Gift sweeper stopped")
			return
		case <-ctx.Done():
			fiberlog.Info("Gift sweeper stopped due to context cancellation")
			return
		}
	}
}

// sweep resubmits stale pending gifts to the worker. The age floor keeps the
// sweeper off gifts the request handler queued moments ago.
func (s *PendingSweeper) sweep(ctx context.Context) {
	ids, err := s.service.ListStalePendingIDs(ctx, time.Now().UTC().Add(-s.minAge))
	if err != nil {
		fiberlog.Errorf("Error listing stale pending gifts: %v", err)
		return
	}

	if len(ids) == 0 {
		return
	}

	fiberlog.Infof("Requeueing %d stale pending gifts", len(ids))
	for _, id := range ids {
		s.worker.Submit(id)
	}
}

func (s *PendingSweeper) Stop() {
	close(s.stopChan)
}
