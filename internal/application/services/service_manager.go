package services

import (
	"github.com/flowgate/backend/internal/infrastructure/database"
	"github.com/flowgate/backend/internal/infrastructure/persistence"
	"github.com/flowgate/backend/pkg/expression"
)

// ServiceManager wires repositories and services over one database
// connection. All state lives in the database; the services themselves are
// stateless and safe for concurrent use.
type ServiceManager struct {
	Templates *TemplateService
	Instances *InstanceService
	Auth      *AuthService

	// Users is exposed for bootstrap seeding
	Users *persistence.UserRepository
}

// NewServiceManager creates the full service graph
func NewServiceManager(db *database.Connection) *ServiceManager {
	sqlDB := db.DB()

	templateRepo := persistence.NewTemplateRepository(sqlDB)
	instanceRepo := persistence.NewInstanceRepository(sqlDB)
	assignmentRepo := persistence.NewAssignmentRepository(sqlDB)
	actionRepo := persistence.NewActionRepository(sqlDB)
	userRepo := persistence.NewUserRepository(sqlDB)

	txManager := persistence.NewTransactionManager(db)
	exprs := expression.NewEngine()

	resolver := NewAssignmentResolver()
	engine := NewTransitionEngine(exprs)
	recorder := NewActionRecorder()

	return &ServiceManager{
		Templates: NewTemplateService(templateRepo, userRepo, txManager, exprs),
		Instances: NewInstanceService(templateRepo, instanceRepo, assignmentRepo, actionRepo, userRepo, txManager, resolver, engine, recorder),
		Auth:      NewAuthService(userRepo),
		Users:     userRepo,
	}
}
