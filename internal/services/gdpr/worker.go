package gdpr

import (
	"context"
	"sync"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

type jobKind int

const (
	jobExport jobKind = iota
	jobErase
)

type job struct {
	kind     jobKind
	exportID uint
	userID   string
}

// Worker runs GDPR jobs (export builds, user erasure) on a bounded pool.
// Failures are logged; both job kinds are idempotent and safe to re-submit.
type Worker struct {
	service  *Service
	tasks    chan job
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

func NewWorker(service *Service, poolSize, bufferSize int) *Worker {
	w := &Worker{
		service: service,
		tasks:   make(chan job, bufferSize),
		stopped: make(chan struct{}),
	}

	for i := 0; i < poolSize; i++ {
		w.wg.Add(1)
		go w.run()
	}

	return w
}

// SubmitExport queues an export build.
func (w *Worker) SubmitExport(exportID uint) {
	w.submit(job{kind: jobExport, exportID: exportID})
}

// SubmitErasure queues a full user erasure.
func (w *Worker) SubmitErasure(userID string) {
	w.submit(job{kind: jobErase, userID: userID})
}

func (w *Worker) submit(j job) {
	select {
	case <-w.stopped:
		fiberlog.Warnf("GDPR worker stopped, dropping job")
		return
	case w.tasks <- j:
	default:
		fiberlog.Warnf("GDPR job buffer full, dropping job")
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopped:
			return
		case j := <-w.tasks:
			switch j.kind {
			case jobExport:
				if err := w.service.BuildExport(context.Background(), j.exportID); err != nil {
					fiberlog.Errorf("Failed to build data export %d: %v", j.exportID, err)
				}
			case jobErase:
				if err := w.service.EraseUser(context.Background(), j.userID); err != nil {
					fiberlog.Errorf("Failed to erase user %s: %v", j.userID, err)
				}
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
