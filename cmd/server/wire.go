//go:build wireinject
// +build wireinject

package main

import (
	"devops_platform_backend/internal/activity"
	"devops_platform_backend/internal/admin"
	"devops_platform_backend/internal/alerts"
	"devops_platform_backend/internal/app"
	"devops_platform_backend/internal/audit"
	"devops_platform_backend/internal/auth"
	"devops_platform_backend/internal/config"
	"devops_platform_backend/internal/jobs"
	"devops_platform_backend/internal/monitor"
	"devops_platform_backend/internal/onboarding"
	"devops_platform_backend/internal/platform/kube"
	"devops_platform_backend/internal/platform/mailer"
	"devops_platform_backend/internal/platform/metrics"
	"devops_platform_backend/internal/provisioning"
	"devops_platform_backend/internal/tenant"
	"devops_platform_backend/internal/user"
	"devops_platform_backend/internal/workload"

	"github.com/google/wire"
)

var platformSet = wire.NewSet(
	provideLogger,
	provideDB,
	auth.NewPasswordHasher,
)

// initializeApplication is the main Wire injector.
func initializeApplication(cfg *config.Config) (*application, func(), error) {
	wire.Build(
		platformSet,
		kube.NewClientset,
		metrics.New,
		mailer.NewSender,

		// Repositories
		tenant.NewGORMRepository,
		user.NewGORMRepository,
		activity.NewGORMRepository,
		provisioning.NewGORMRunRepository,
		audit.NewGORMRecorder,

		// Auth
		auth.NewJWTService,
		provideBlocklist,
		auth.NewService,
		auth.NewHandler,

		// Provisioning
		provisioning.NewProvisioner,
		provisioning.NewWorker,
		wire.Bind(new(admin.ProvisioningQueue), new(*provisioning.Worker)),
		wire.Bind(new(jobs.Retrier), new(*provisioning.Worker)),
		jobs.NewProvisioningRetryJob,

		// Modules
		activity.NewService,
		activity.NewHandler,
		onboarding.NewWebhookNotifier,
		onboarding.NewService,
		onboarding.NewHandler,
		admin.NewService,
		admin.NewHandler,
		workload.NewService,
		workload.NewHandler,
		monitor.NewQuerier,
		monitor.NewLokiClient,
		monitor.NewService,
		monitor.NewHandler,
		alerts.NewService,
		alerts.NewHandler,

		// Application Layer
		wire.Struct(new(app.Handlers), "*"),
		app.NewServer,
		wire.Struct(new(application), "*"),
	)
	return nil, nil, nil
}

// initializeStore wires only the database, for migrate and seed.
func initializeStore(cfg *config.Config) (*store, func(), error) {
	wire.Build(
		platformSet,
		wire.Struct(new(store), "*"),
	)
	return nil, nil, nil
}
