package seeders

import (
	"context"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

func init() {
	Register("users", SeedUsers)
}

// SeedUsers creates the admin account from ADMIN_USERNAME / ADMIN_PASSWORD.
// An existing account keeps its password.
func SeedUsers(ctx context.Context, store repositories.Store) error {
	u, err := services.NewAuthService(store.Users()).
		EnsureUser(ctx, config.AdminUsername(), config.AdminPassword(), models.RoleAdmin)
	if err != nil {
		return err
	}
	logger.Debug("seed: admin ready", "username", u.Username, "id", u.ID)
	return nil
}
