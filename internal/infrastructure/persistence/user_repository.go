package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/internal/domain/ports"
	"github.com/flowgate/backend/pkg/constants"
)

// UserRepository reads users and roles. Assignee resolution runs on this
// data; it is a pure read within whatever transaction encloses it.
type UserRepository struct {
	q Queryer
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// WithTx returns a copy bound to the given transaction
func (r *UserRepository) WithTx(tx *sql.Tx) ports.DirectoryStore {
	return &UserRepository{q: tx}
}

// RoleExists checks whether a role id is known
func (r *UserRepository) RoleExists(ctx context.Context, roleID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)", constants.TableRole, constants.FieldID)
	err := r.q.QueryRowContext(ctx, query, roleID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetRoleByID fetches a role
func (r *UserRepository) GetRoleByID(ctx context.Context, roleID string) (*models.Role, error) {
	query := fmt.Sprintf(`
		SELECT id, name, description, created_date
		FROM %s
		WHERE id = ? LIMIT 1`,
		constants.TableRole)

	var role models.Role
	var description sql.NullString

	err := r.q.QueryRowContext(ctx, query, roleID).Scan(&role.ID, &role.Name, &description, &role.CreatedDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	role.Description = description.String
	return &role, nil
}

// FindFirstEligible returns the earliest-created active user holding the
// role, ties broken by ascending id. Returns nil when the role has no
// holders.
func (r *UserRepository) FindFirstEligible(ctx context.Context, roleID string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, email, role_id, is_active, created_date
		FROM %s
		WHERE role_id = ? AND is_active = TRUE
		ORDER BY created_date ASC, id ASC
		LIMIT 1`,
		constants.TableUser)

	return r.scanUser(r.q.QueryRowContext(ctx, query, roleID))
}

// GetUserByID fetches basic user info
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, email, role_id, is_active, created_date
		FROM %s
		WHERE id = ? LIMIT 1`,
		constants.TableUser)

	return r.scanUser(r.q.QueryRowContext(ctx, query, userID))
}

// UserWithPassword extends User to include the password hash for auth checks
type UserWithPassword struct {
	*models.User
	PasswordHash string
}

// FindUserByEmailWithPassword retrieves a user and their password hash by email
func (r *UserRepository) FindUserByEmailWithPassword(ctx context.Context, email string) (*UserWithPassword, error) {
	query := fmt.Sprintf(`
		SELECT id, username, email, password, role_id, is_active, created_date
		FROM %s
		WHERE email = ? LIMIT 1`,
		constants.TableUser)

	var u UserWithPassword
	var user models.User
	u.User = &user

	var password, roleID sql.NullString

	err := r.q.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Username, &user.Email, &password, &roleID, &user.IsActive, &user.CreatedDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if password.Valid {
		u.PasswordHash = password.String
	}
	if roleID.Valid {
		rID := roleID.String
		user.RoleID = &rID
	}

	return &u, nil
}

// CreateRole inserts a role; used by bootstrap seeding
func (r *UserRepository) CreateRole(ctx context.Context, role *models.Role) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, description, created_date)
		VALUES (?, ?, ?, ?)`,
		constants.TableRole)
	_, err := r.q.ExecContext(ctx, query, role.ID, role.Name, role.Description, role.CreatedDate)
	return err
}

// CreateUser inserts a user with a password hash; used by bootstrap seeding
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User, passwordHash string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, username, email, password, role_id, is_active, created_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		constants.TableUser)
	_, err := r.q.ExecContext(ctx, query, user.ID, user.Username, user.Email, passwordHash, user.RoleID, user.IsActive, user.CreatedDate)
	return err
}

// CountUsers returns the number of user rows; bootstrap uses it to decide
// whether seeding is needed
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", constants.TableUser)
	err := r.q.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var roleID sql.NullString

	err := row.Scan(&u.ID, &u.Username, &u.Email, &roleID, &u.IsActive, &u.CreatedDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if roleID.Valid {
		rID := roleID.String
		u.RoleID = &rID
	}
	return &u, nil
}
