package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/flowgate/backend/internal/application/services"
	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/pkg/auth"
	"github.com/flowgate/backend/pkg/constants"
	"github.com/flowgate/backend/pkg/utils"
)

var defaultRoles = []struct {
	name        string
	description string
}{
	{constants.AdminRoleName, "Full access, including template management"},
	{"Manager", "Approves workflow steps routed to managers"},
	{"Finance", "Approves workflow steps routed to finance"},
	{"Employee", "Submits requests and tracks their progress"},
}

// InitializeSystemData seeds default roles and an initial admin account on
// an empty database. Safe to call on every startup.
func InitializeSystemData(sm *services.ServiceManager) error {
	log.Println("🔧 Initializing system data...")

	ctx := context.Background()

	count, err := sm.Users.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		log.Println("   ✅ System data already present, skipping seed")
		return nil
	}

	now := time.Now().UTC()
	var adminRoleID string
	for _, r := range defaultRoles {
		role := &models.Role{
			ID:          utils.GenerateID(),
			Name:        r.name,
			Description: r.description,
			CreatedDate: now,
		}
		if err := sm.Users.CreateRole(ctx, role); err != nil {
			return fmt.Errorf("failed to create role %s: %w", r.name, err)
		}
		if r.name == constants.AdminRoleName {
			adminRoleID = role.ID
		}
	}
	log.Printf("   ✅ Created %d default roles", len(defaultRoles))

	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@flowgate.local"
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		ID:          utils.GenerateID(),
		Username:    "admin",
		Email:       adminEmail,
		RoleID:      &adminRoleID,
		IsActive:    true,
		CreatedDate: now,
	}
	if err := sm.Users.CreateUser(ctx, admin, hash); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Printf("   ✅ Created admin user %s", adminEmail)

	return nil
}
