// File: internal/jobs/provisioning_retry.go
package jobs

import (
	"context"
	"time"

	"devops_platform_backend/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Retrier re-attempts provisioning runs that have not finished.
type Retrier interface {
	RetryPending(ctx context.Context, maxRetries int) (int, error)
}

// ProvisioningRetryJob periodically retries failed or stuck tenant provisioning.
type ProvisioningRetryJob struct {
	retrier       Retrier
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewProvisioningRetryJob creates a new ProvisioningRetryJob.
func NewProvisioningRetryJob(retrier Retrier, logger *zap.Logger, cfg *config.Config) *ProvisioningRetryJob {
	scheduler := cron.New(
		cron.WithLogger(NewCronLogger(logger.Named("cron"))),
		cron.WithChain(cron.SkipIfStillRunning(NewCronLogger(logger.Named("cron")))),
	)

	return &ProvisioningRetryJob{
		retrier:       retrier,
		logger:        logger.Named("ProvisioningRetryJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *ProvisioningRetryJob) SetupAndStart() error {
	jobSpec := j.cfg.ProvisioningRetrySchedule
	if jobSpec == "" {
		j.logger.Warn("Provisioning retry schedule not defined (PROVISIONING_RETRY_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.RunOnce)
	if err != nil {
		j.logger.Error("Failed to schedule provisioning retry job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Provisioning retry job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// RunOnce performs a single retry pass.
func (j *ProvisioningRetryJob) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	retried, err := j.retrier.RetryPending(ctx, j.cfg.ProvisioningMaxRetries)
	if err != nil {
		j.logger.Error("Provisioning retry run failed", zap.Error(err))
		return
	}
	if retried > 0 {
		j.logger.Info("Provisioning retry run completed", zap.Int("runs_retried", retried))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *ProvisioningRetryJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping provisioning retry scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Provisioning retry scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Provisioning retry scheduler stop timed out.")
	}
}
