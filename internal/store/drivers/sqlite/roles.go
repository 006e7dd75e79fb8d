package sqlite

import (
	"context"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/pkg/idx"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) scanRole(row interface{ Scan(...any) error }) (domain.Role, error) {
	var (
		role domain.Role
		id   string
	)
	if err := row.Scan(&id, &role.Name, &role.CreatedAt); err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	role.ID = idx.ID(id)
	return role, nil
}

func (r *rolesRepo) GetByID(ctx context.Context, id idx.ID) (domain.Role, error) {
	return r.scanRole(r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM roles WHERE id = ?`, string(id)))
}

func (r *rolesRepo) GetByName(ctx context.Context, name string) (domain.Role, error) {
	return r.scanRole(r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM roles WHERE name = ?`, name))
}

func (r *rolesRepo) ListAll(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		role, err := r.scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *rolesRepo) Create(ctx context.Context, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (id, name, created_at) VALUES (?, ?, ?)`,
		string(role.ID), role.Name, role.CreatedAt)
	return mapConflict(err)
}
