package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/finalproject-api/internal/models"
)

// AdvisorRoleRepository persists the named advisor roles.
type AdvisorRoleRepository struct {
	db *sqlx.DB
}

// NewAdvisorRoleRepository constructs the repository.
func NewAdvisorRoleRepository(db *sqlx.DB) *AdvisorRoleRepository {
	return &AdvisorRoleRepository{db: db}
}

// List returns every role ordered by name.
func (r *AdvisorRoleRepository) List(ctx context.Context) ([]models.AdvisorRole, error) {
	var roles []models.AdvisorRole
	if err := r.db.SelectContext(ctx, &roles, `SELECT id, role, created_at FROM advisor_roles ORDER BY role ASC`); err != nil {
		return nil, fmt.Errorf("list advisor roles: %w", err)
	}
	return roles, nil
}

// FindByID fetches a single role.
func (r *AdvisorRoleRepository) FindByID(ctx context.Context, id string) (*models.AdvisorRole, error) {
	var role models.AdvisorRole
	if err := r.db.GetContext(ctx, &role, `SELECT id, role, created_at FROM advisor_roles WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &role, nil
}

// Create inserts a role.
func (r *AdvisorRoleRepository) Create(ctx context.Context, role *models.AdvisorRole) error {
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	if role.CreatedAt.IsZero() {
		role.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, `INSERT INTO advisor_roles (id, role, created_at) VALUES (:id, :role, :created_at)`, role); err != nil {
		return fmt.Errorf("create advisor role: %w", err)
	}
	return nil
}

// Update renames a role.
func (r *AdvisorRoleRepository) Update(ctx context.Context, role *models.AdvisorRole) error {
	res, err := r.db.ExecContext(ctx, `UPDATE advisor_roles SET role = $2 WHERE id = $1`, role.ID, role.Role)
	if err != nil {
		return fmt.Errorf("update advisor role: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a role and its assignments.
func (r *AdvisorRoleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM advisor_roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete advisor role: %w", err)
	}
	return expectAffected(res)
}
