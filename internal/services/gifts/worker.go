package gifts

import (
	"context"
	"sync"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Worker fulfills pending gifts on a bounded pool. Fulfillment is
// transactional and idempotent, so a dropped or re-submitted task is safe.
type Worker struct {
	service  *Service
	tasks    chan fulfillTask
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

type fulfillTask struct {
	GiftID uint
}

// NewWorker creates a gift fulfillment worker with the specified pool size.
func NewWorker(service *Service, poolSize, bufferSize int) *Worker {
	w := &Worker{
		service: service,
		tasks:   make(chan fulfillTask, bufferSize),
		stopped: make(chan struct{}),
	}

	for i := 0; i < poolSize; i++ {
		w.wg.Add(1)
		go w.run()
	}

	return w
}

// Submit queues a gift for fulfillment. When the buffer is full the task is
// dropped with a warning; the gift stays pending and can be re-submitted.
func (w *Worker) Submit(giftID uint) {
	select {
	case <-w.stopped:
		fiberlog.Warnf("Gift worker stopped, cannot fulfill gift %d", giftID)
		return
	case w.tasks <- fulfillTask{GiftID: giftID}:
	default:
		fiberlog.Warnf("Gift fulfillment buffer full, dropping gift %d", giftID)
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopped:
			return
		case task := <-w.tasks:
			if err := w.service.Fulfill(context.Background(), task.GiftID); err != nil {
				fiberlog.Errorf("Failed to fulfill gift %d: %v", task.GiftID, err)
			}
		}
	}
}

// Stop gracefully stops the worker pool.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopped)
		w.wg.Wait()
	})
}
