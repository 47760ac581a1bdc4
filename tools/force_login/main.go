package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/flowgate/backend/internal/infrastructure/database"
	"github.com/flowgate/backend/internal/infrastructure/persistence"
	"github.com/flowgate/backend/pkg/auth"
)

// Development helper: mints a JWT for an existing user so API calls can be
// made without going through the login endpoint.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: force_login <user_id>")
	}
	userID := os.Args[1]

	_ = godotenv.Load()

	dbConn, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	users := persistence.NewUserRepository(dbConn.DB())

	ctx := context.Background()
	user, err := users.GetUserByID(ctx, userID)
	if err != nil {
		log.Fatalf("Failed to load user: %v", err)
	}
	if user == nil {
		log.Fatalf("User '%s' not found", userID)
	}

	session := auth.UserSession{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
	if user.RoleID != nil {
		role, err := users.GetRoleByID(ctx, *user.RoleID)
		if err != nil {
			log.Fatalf("Failed to load role: %v", err)
		}
		if role != nil {
			session.RoleID = role.ID
			session.RoleName = role.Name
		}
	}

	token, err := auth.GenerateToken(session)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Println(token)
}
