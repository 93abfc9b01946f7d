// Package bootstrap wires up runtime dependencies before the server starts.
package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedSampleContent bool
}

// InitRuntime connects to DB and Redis, ensures the site admin account, and
// optionally seeds sample content.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// May result in a nil client if unreachable; callers handle nil.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureSiteAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap site admin: %w", err)
	}

	if opts.SeedSampleContent {
		if err := seed.SampleContent(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed sample content: %w", err)
		}
	}

	return db, r, nil
}

// ensureSiteAdmin guarantees user ID 1 exists and is the site admin. The site
// is single-owner, so everything moderation-related hangs off this account.
func ensureSiteAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}

	username := strings.TrimSpace(cfg.AdminUsername)
	if username == "" {
		return fmt.Errorf("ADMIN_USERNAME must be set")
	}
	password := cfg.AdminPassword
	if password == "" {
		return fmt.Errorf("ADMIN_PASSWORD must be set")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		var admin models.User
		findErr := tx.First(&admin, 1).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			admin = models.User{
				ID:       1,
				Username: username,
				Password: string(hashedPassword),
				IsAdmin:  true,
			}
			if err := tx.Create(&admin).Error; err != nil {
				return err
			}
		case findErr != nil:
			return findErr
		default:
			if err := tx.Model(&models.User{}).Where("id = ?", 1).
				Update("is_admin", true).Error; err != nil {
				return err
			}
		}

		// Ensure users ID sequence is not behind explicit ID insertion.
		// This is PostgreSQL-specific.
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec(`
				SELECT setval(
					pg_get_serial_sequence('users', 'id'),
					GREATEST((SELECT COALESCE(MAX(id), 1) FROM users), 1),
					true
				)
			`).Error; err != nil {
				return fmt.Errorf("failed to reset users sequence: %w", err)
			}
		}

		return nil
	}); err != nil {
		return err
	}

	log.Printf("site admin ensured for user ID 1 (%s)", username)
	return nil
}
