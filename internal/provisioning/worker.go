// File: internal/provisioning/worker.go
package provisioning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"devops_platform_backend/internal/audit"
	"devops_platform_backend/internal/platform/metrics"
	"devops_platform_backend/internal/tenant"

	"go.uber.org/zap"
)

const (
	queueSize  = 64
	runTimeout = 2 * time.Minute
	// a running run older than this is treated as abandoned
	staleAfter = 2 * runTimeout
)

// Worker provisions tenant namespaces off the request path.
type Worker struct {
	runs        RunRepository
	tenants     tenant.Repository
	audit       audit.Recorder
	provisioner Provisioner
	metrics     *metrics.Metrics
	logger      *zap.Logger

	queue chan uint
	wg    sync.WaitGroup
	once  sync.Once
	stop  chan struct{}
}

// NewWorker creates a Worker. Call Start before Enqueue.
func NewWorker(
	runs RunRepository,
	tenants tenant.Repository,
	auditRecorder audit.Recorder,
	provisioner Provisioner,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		runs:        runs,
		tenants:     tenants,
		audit:       auditRecorder,
		provisioner: provisioner,
		metrics:     m,
		logger:      logger.Named("ProvisioningWorker"),
		queue:       make(chan uint, queueSize),
		stop:        make(chan struct{}),
	}
}

// Start launches the background loop.
func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.stop:
				return
			case tenantID := <-w.queue:
				ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
				if err := w.Run(ctx, tenantID); err != nil {
					w.logger.Error("Provisioning run errored", zap.Uint("tenantID", tenantID), zap.Error(err))
				}
				cancel()
			}
		}
	}()
	w.logger.Info("Provisioning worker started")
}

// Enqueue schedules provisioning for a tenant. It never blocks; when the
// queue is full the run stays queued and the retry job picks it up.
func (w *Worker) Enqueue(tenantID uint) bool {
	select {
	case w.queue <- tenantID:
		return true
	default:
		w.logger.Warn("Provisioning queue full, deferring to retry job", zap.Uint("tenantID", tenantID))
		return false
	}
}

// Stop ends the background loop and waits for the current run.
func (w *Worker) Stop() {
	w.once.Do(func() {
		close(w.stop)
		w.wg.Wait()
		w.logger.Info("Provisioning worker stopped")
	})
}

// Run provisions the tenant's namespace synchronously and records the
// outcome on its run, in the audit log and in metrics. A provisioning
// failure is recorded, not returned; the error result covers storage only.
// A run already claimed by another attempt is left alone.
func (w *Worker) Run(ctx context.Context, tenantID uint) error {
	_, err := w.run(ctx, tenantID)
	return err
}

func (w *Worker) run(ctx context.Context, tenantID uint) (bool, error) {
	t, err := w.tenants.FindByID(ctx, tenantID)
	if err != nil {
		w.logger.Warn("Skipping provisioning for missing tenant", zap.Uint("tenantID", tenantID), zap.Error(err))
		return false, nil
	}

	if _, err := w.runs.FindByTenant(ctx, tenantID); err != nil {
		if _, err := w.runs.Queue(ctx, tenantID); err != nil {
			return false, fmt.Errorf("load provisioning run: %w", err)
		}
	}
	claimed, err := w.runs.Claim(ctx, tenantID, time.Now().Add(-staleAfter))
	if err != nil {
		return false, fmt.Errorf("claim provisioning run: %w", err)
	}
	if !claimed {
		w.logger.Debug("Provisioning run held by another attempt", zap.Uint("tenantID", tenantID))
		return false, nil
	}
	run, err := w.runs.FindByTenant(ctx, tenantID)
	if err != nil {
		return false, fmt.Errorf("load provisioning run: %w", err)
	}

	start := time.Now()
	_, provErr := w.provisioner.CreateTenantNamespace(ctx, t.Namespace())
	w.metrics.RecordProvisioning(provErr == nil, time.Since(start))

	result := RunDone
	if provErr != nil {
		msg := provErr.Error()
		run.Status = RunFailed
		run.LastError = &msg
		run.Retries++
		result = RunFailed
		w.logger.Error("Tenant provisioning failed",
			zap.Uint("tenantID", tenantID),
			zap.String("namespace", t.Namespace()),
			zap.Int("retries", run.Retries),
			zap.Error(provErr),
		)
	} else {
		run.Status = RunDone
		run.LastError = nil
	}

	if err := w.runs.Save(ctx, run); err != nil {
		return true, fmt.Errorf("save provisioning run: %w", err)
	}
	if err := w.audit.Record(ctx, tenantID, audit.ActionProvision, audit.SystemActor, result); err != nil {
		return true, fmt.Errorf("audit provisioning run: %w", err)
	}
	return true, nil
}

// RetryPending re-runs provisioning for queued runs, failed runs below
// maxRetries and running runs abandoned by a crashed attempt. It returns how
// many runs were attempted.
func (w *Worker) RetryPending(ctx context.Context, maxRetries int) (int, error) {
	runs, err := w.runs.ListRetryable(ctx, maxRetries, time.Now().Add(-staleAfter))
	if err != nil {
		return 0, err
	}
	attempted := 0
	for _, r := range runs {
		ran, err := w.run(ctx, r.TenantID)
		if err != nil {
			return attempted, err
		}
		if ran {
			attempted++
		}
	}
	return attempted, nil
}
