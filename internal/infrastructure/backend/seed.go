package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/aiemr/emr-console/internal/core/domain"
	"github.com/aiemr/emr-console/internal/core/ports"
)

// demoAccounts are the development logins, one per role. Pharmacist and
// patient carry explicit grants beyond their catalog group, which exercises
// the permission-union path.
var demoAccounts = []struct {
	user   ports.DirectoryUser
	secret string
}{
	{ports.DirectoryUser{ID: "1", Name: "Admin User", Email: "admin@example.com", Role: domain.RoleAdmin, Verified: true}, "admin123"},
	{ports.DirectoryUser{ID: "2", Name: "Doctor User", Email: "doctor@example.com", Role: domain.RoleDoctor, Verified: true}, "doctor123"},
	{ports.DirectoryUser{ID: "3", Name: "Nurse User", Email: "nurse@example.com", Role: domain.RoleNurse, Verified: true}, "nurse123"},
	{ports.DirectoryUser{ID: "4", Name: "Pharmacist User", Email: "pharmacist@example.com", Role: domain.RolePharmacist, Verified: true,
		Permissions: []domain.Permission{"communicate_with_patients"}}, "pharm123"},
	{ports.DirectoryUser{ID: "5", Name: "Receptionist User", Email: "receptionist@example.com", Role: domain.RoleReceptionist, Verified: true}, "reception123"},
	{ports.DirectoryUser{ID: "6", Name: "Patient User", Email: "patient@example.com", Role: domain.RolePatient, Verified: true,
		Permissions: []domain.Permission{"communicate_with_pharmacy"}}, "patient123"},
}

// SeedDemoUsers creates the demo accounts in the directory, skipping any
// that already exist. Intended for development environments only.
func SeedDemoUsers(ctx context.Context, dir ports.UserDirectory, log zerolog.Logger) error {
	for _, account := range demoAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(account.secret), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash demo secret: %w", err)
		}

		user := account.user
		user.SecretHash = string(hash)

		if _, err := dir.Create(ctx, &user); err != nil {
			if errors.Is(err, domain.ErrUserExists) {
				continue
			}
			return fmt.Errorf("seed %s: %w", user.Email, err)
		}
		log.Debug().Str("email", user.Email).Str("role", string(user.Role)).Msg("demo account seeded")
	}
	return nil
}
