package app

import (
	"context"
	"fmt"

	"devops_platform_backend/internal/activity"
	"devops_platform_backend/internal/audit"
	"devops_platform_backend/internal/auth"
	"devops_platform_backend/internal/common"
	"devops_platform_backend/internal/config"
	"devops_platform_backend/internal/platform/database"
	"devops_platform_backend/internal/provisioning"
	"devops_platform_backend/internal/tenant"
	"devops_platform_backend/internal/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table the platform owns.
func Models() []interface{} {
	return []interface{}{
		&tenant.Tenant{},
		&user.User{},
		&audit.Log{},
		&provisioning.Run{},
		&activity.Log{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return database.Migrate(db, Models()...)
}

// Seed creates the demo tenant and, when SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD are set, its platform admin. Existing rows are kept.
func Seed(ctx context.Context, db *gorm.DB, cfg *config.Config, hasher auth.PasswordHasher, logger *zap.Logger) error {
	log := logger.Named("Seed")
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenants := tenant.NewGORMRepository(tx)
		users := user.NewGORMRepository(tx)

		t, err := tenants.FindByName(ctx, cfg.SeedTenantName)
		if err != nil {
			if apiErr, ok := common.IsAPIError(err); !ok || apiErr.StatusCode != 404 {
				return fmt.Errorf("look up seed tenant: %w", err)
			}
			t = &tenant.Tenant{Name: cfg.SeedTenantName, Status: tenant.StatusActive}
			t.SetNamespace(cfg.SeedTenantNamespace)
			if err := tenants.Create(ctx, t); err != nil {
				return fmt.Errorf("create seed tenant: %w", err)
			}
			log.Info("Seed tenant created", zap.String("name", t.Name), zap.String("namespace", t.Namespace()))
		}

		if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
			log.Debug("SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD unset, skipping admin seed")
			return nil
		}
		if _, err := users.FindByEmail(ctx, cfg.SeedAdminEmail); err == nil {
			return nil
		} else if apiErr, ok := common.IsAPIError(err); !ok || apiErr.StatusCode != 404 {
			return fmt.Errorf("look up seed admin: %w", err)
		}

		hash, err := hasher.Hash(cfg.SeedAdminPassword)
		if err != nil {
			return err
		}
		admin := &user.User{
			Email:        cfg.SeedAdminEmail,
			PasswordHash: hash,
			Role:         common.RolePlatformAdmin,
			TenantID:     t.ID,
		}
		if err := users.Create(ctx, admin); err != nil {
			return fmt.Errorf("create seed admin: %w", err)
		}
		log.Info("Seed platform admin created", zap.String("email", admin.Email))
		return nil
	})
}
