package store

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"reportflow/internal/models"
)

type seedUser struct {
	Email    string
	Password string
	Name     string
	Role     models.Role
}

var defaultUsers = []seedUser{
	{Email: "admin@tegpr.com", Password: "admin123", Name: "System Admin", Role: models.RoleAdmin},
	{Email: "ae@tegpr.com", Password: "ae123", Name: "Account Executive", Role: models.RoleAE},
	{Email: "supervisor@tegpr.com", Password: "super123", Name: "Supervisor", Role: models.RoleSupervisor},
	{Email: "accounting@tegpr.com", Password: "acc123", Name: "Accounting Manager", Role: models.RoleAccounting},
}

// SeedUsers creates the default accounts that do not exist yet.
func SeedUsers(ctx context.Context, st Store, lg *zap.SugaredLogger) error {
	for _, su := range defaultUsers {
		_, err := st.GetUserByEmail(ctx, su.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u := models.User{
			Email:        su.Email,
			PasswordHash: string(hash),
			Name:         su.Name,
			Role:         su.Role,
			IsActive:     true,
		}
		if err := st.CreateUser(ctx, &u); err != nil && !errors.Is(err, ErrDuplicateEmail) {
			return err
		}
		lg.Infow("seeded user", "email", su.Email, "role", su.Role)
	}
	return nil
}
