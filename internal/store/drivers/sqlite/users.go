package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/internal/store"
	"github.com/nexushq/nexus/pkg/idx"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `u.id, u.username, u.email, u.password_hash, u.first_name,
	u.last_name, u.dni, u.birth_date, u.phone_number, u.enabled, u.role_id,
	u.two_factor_enabled, u.two_factor_secret, u.password_reset_token,
	u.reset_token_expires_at, u.avatar_url, u.created_at, u.updated_at, r.name`

const userSelect = `SELECT ` + userColumns + `
	FROM users u JOIN roles r ON r.id = u.role_id`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u                   domain.User
		id, roleID          string
		dni, phone          sql.NullString
		birthDate           sql.NullTime
		secret, resetToken  sql.NullString
		resetTokenExpiresAt sql.NullTime
		avatarURL           sql.NullString
	)

	err := row.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName,
		&u.LastName, &dni, &birthDate, &phone, &u.Enabled, &roleID,
		&u.TwoFactorEnabled, &secret, &resetToken, &resetTokenExpiresAt,
		&avatarURL, &u.CreatedAt, &u.UpdatedAt, &u.RoleName)
	if err != nil {
		return domain.User{}, err
	}

	u.ID = idx.ID(id)
	u.RoleID = idx.ID(roleID)
	u.DNI = mapNullStringPtr(dni)
	u.BirthDate = mapNullTimePtr(birthDate)
	u.PhoneNumber = mapNullStringPtr(phone)
	u.TwoFactorSecret = mapNullStringPtr(secret)
	u.PasswordResetToken = mapNullStringPtr(resetToken)
	u.ResetTokenExpiresAt = mapNullTimePtr(resetTokenExpiresAt)
	u.AvatarURL = mapNullStringPtr(avatarURL)
	return u, nil
}

func (r *usersRepo) getBy(ctx context.Context, where string, arg any) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, userSelect+` WHERE `+where, arg))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetByID(ctx context.Context, id idx.ID) (domain.User, error) {
	return r.getBy(ctx, `u.id = ?`, string(id))
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getBy(ctx, `u.email = ?`, email)
}

func (r *usersRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getBy(ctx, `u.username = ?`, username)
}

func (r *usersRepo) GetByResetToken(ctx context.Context, token string) (domain.User, error) {
	return r.getBy(ctx, `u.password_reset_token = ?`, token)
}

func (r *usersRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, username, email, password_hash, first_name, last_name,
			dni, birth_date, phone_number, enabled, role_id,
			two_factor_enabled, two_factor_secret, password_reset_token,
			reset_token_expires_at, avatar_url, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(u.ID), u.Username, u.Email, u.PasswordHash, u.FirstName,
		u.LastName, mapOptionalString(u.DNI), mapOptionalTime(u.BirthDate),
		mapOptionalString(u.PhoneNumber), u.Enabled, string(u.RoleID),
		u.TwoFactorEnabled, mapOptionalString(u.TwoFactorSecret),
		mapOptionalString(u.PasswordResetToken),
		mapOptionalTime(u.ResetTokenExpiresAt),
		mapOptionalString(u.AvatarURL), u.CreatedAt, u.UpdatedAt)
	return mapConflict(err)
}

func (r *usersRepo) List(ctx context.Context, roleName string) ([]domain.User, error) {
	query := userSelect
	var args []any
	if roleName != "" {
		query += ` WHERE r.name = ?`
		args = append(args, roleName)
	}
	query += ` ORDER BY u.username`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) Update(ctx context.Context, id idx.ID, upd store.UserUpdate) error {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.Username != nil {
		set("username", *upd.Username)
	}
	if upd.Email != nil {
		set("email", *upd.Email)
	}
	if upd.FirstName != nil {
		set("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		set("last_name", *upd.LastName)
	}
	if upd.DNI != nil {
		set("dni", *upd.DNI)
	}
	if upd.BirthDate != nil {
		set("birth_date", *upd.BirthDate)
	}
	if upd.PhoneNumber != nil {
		set("phone_number", *upd.PhoneNumber)
	}
	if upd.RoleID != nil {
		set("role_id", string(*upd.RoleID))
	}
	if len(sets) == 0 {
		return nil
	}
	set("updated_at", time.Now().UTC())
	args = append(args, string(id))

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s WHERE id = ?`, strings.Join(sets, ", ")),
		args...)
	if err != nil {
		return mapConflict(err)
	}
	return requireRow(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, id idx.ID, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now().UTC(), string(id))
}

func (r *usersRepo) SetEnabled(ctx context.Context, id idx.ID, enabled bool) error {
	return r.exec(ctx, `UPDATE users SET enabled = ?, updated_at = ? WHERE id = ?`,
		enabled, time.Now().UTC(), string(id))
}

func (r *usersRepo) SetAvatarURL(ctx context.Context, id idx.ID, url string) error {
	return r.exec(ctx, `UPDATE users SET avatar_url = ?, updated_at = ? WHERE id = ?`,
		url, time.Now().UTC(), string(id))
}

func (r *usersRepo) SetTwoFactorSecret(ctx context.Context, id idx.ID, secret string) error {
	return r.exec(ctx, `UPDATE users SET two_factor_secret = ?, updated_at = ? WHERE id = ?`,
		secret, time.Now().UTC(), string(id))
}

func (r *usersRepo) EnableTwoFactor(ctx context.Context, id idx.ID) error {
	return r.exec(ctx, `UPDATE users SET two_factor_enabled = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), string(id))
}

func (r *usersRepo) DisableTwoFactor(ctx context.Context, id idx.ID) error {
	return r.exec(ctx, `
		UPDATE users SET two_factor_enabled = 0, two_factor_secret = NULL,
			updated_at = ? WHERE id = ?`,
		time.Now().UTC(), string(id))
}

func (r *usersRepo) SetResetToken(ctx context.Context, id idx.ID, token string, expiresAt time.Time) error {
	return r.exec(ctx, `
		UPDATE users SET password_reset_token = ?, reset_token_expires_at = ?,
			updated_at = ? WHERE id = ?`,
		token, expiresAt, time.Now().UTC(), string(id))
}

func (r *usersRepo) ClearResetToken(ctx context.Context, id idx.ID) error {
	return r.exec(ctx, `
		UPDATE users SET password_reset_token = NULL, reset_token_expires_at = NULL,
			updated_at = ? WHERE id = ?`,
		time.Now().UTC(), string(id))
}

func (r *usersRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_reset_token = NULL, reset_token_expires_at = NULL
		WHERE password_reset_token IS NOT NULL AND reset_token_expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *usersRepo) Delete(ctx context.Context, id idx.ID) error {
	return r.exec(ctx, `DELETE FROM users WHERE id = ?`, string(id))
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func (r *usersRepo) CountByEnabled(ctx context.Context) (total, active int64, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN enabled THEN 1 ELSE 0 END), 0)
		FROM users`).Scan(&total, &active)
	return total, active, err
}

func (r *usersRepo) CountByRole(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.name, COUNT(u.id)
		FROM roles r LEFT JOIN users u ON u.role_id = r.id
		GROUP BY r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var name string
		var n int64
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

func (r *usersRepo) CountByMonth(ctx context.Context) ([]domain.MonthlyRegistrations, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT CAST(strftime('%Y', created_at) AS INTEGER),
			CAST(strftime('%m', created_at) AS INTEGER),
			COUNT(*)
		FROM users
		GROUP BY 1, 2
		ORDER BY 1, 2`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MonthlyRegistrations
	for rows.Next() {
		var m domain.MonthlyRegistrations
		if err := rows.Scan(&m.Year, &m.Month, &m.Count); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *usersRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapConflict(err)
	}
	return requireRow(res)
}

// requireRow turns a zero-row update or delete into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
