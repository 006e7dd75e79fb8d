package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nexushq/nexus/internal/domain"
	"github.com/nexushq/nexus/pkg/idx"
)

type auditLogsRepo struct {
	db dbtx
}

func (r *auditLogsRepo) Append(ctx context.Context, e domain.LogEntry) error {
	var userID, targetUserID sql.NullString
	if e.UserID != nil {
		userID = sql.NullString{String: string(*e.UserID), Valid: true}
	}
	if e.TargetUserID != nil {
		targetUserID = sql.NullString{String: string(*e.TargetUserID), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, created_at, event_type, username, user_id,
			target_username, target_user_id, description, result, ip_address
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID), e.CreatedAt, e.EventType, e.Username, userID,
		mapOptionalString(e.TargetUsername), targetUserID,
		e.Description, e.Result, e.IPAddress)
	return err
}

// sortColumns whitelists order-by targets; anything else falls back to
// created_at descending.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"event_type": "event_type",
	"username":   "username",
}

func (r *auditLogsRepo) Query(ctx context.Context, f domain.LogFilter, s domain.LogSort, page, size int) (domain.LogPage, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		conds = append(conds, cond)
		args = append(args, v)
	}

	if f.EventType != "" {
		add(`event_type = ?`, f.EventType)
	}
	if f.Username != "" {
		add(`username = ?`, f.Username)
	}
	if f.TargetUsername != "" {
		add(`target_username = ?`, f.TargetUsername)
	}
	if f.Start != nil {
		add(`created_at >= ?`, *f.Start)
	}
	if f.End != nil {
		add(`created_at <= ?`, *f.End)
	}

	where := ""
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, " AND ")
	}

	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total)
	if err != nil {
		return domain.LogPage{}, err
	}

	col, ok := sortColumns[s.Field]
	dir := "ASC"
	if !ok {
		col, dir = "created_at", "DESC"
	} else if s.Desc {
		dir = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT id, created_at, event_type, username, user_id,
			target_username, target_user_id, description, result, ip_address
		FROM audit_logs%s ORDER BY %s %s LIMIT ? OFFSET ?`, where, col, dir)
	rows, err := r.db.QueryContext(ctx, query, append(args, size, page*size)...)
	if err != nil {
		return domain.LogPage{}, err
	}
	defer rows.Close()

	entries := []domain.LogEntry{}
	for rows.Next() {
		var (
			e                    domain.LogEntry
			id                   string
			userID, targetUserID sql.NullString
			targetUsername       sql.NullString
		)
		err := rows.Scan(&id, &e.CreatedAt, &e.EventType, &e.Username,
			&userID, &targetUsername, &targetUserID, &e.Description,
			&e.Result, &e.IPAddress)
		if err != nil {
			return domain.LogPage{}, err
		}
		e.ID = idx.ID(id)
		if userID.Valid {
			uid := idx.ID(userID.String)
			e.UserID = &uid
		}
		if targetUserID.Valid {
			tid := idx.ID(targetUserID.String)
			e.TargetUserID = &tid
		}
		e.TargetUsername = mapNullStringPtr(targetUsername)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return domain.LogPage{}, err
	}

	return domain.LogPage{
		Entries:       entries,
		Page:          page,
		Size:          size,
		TotalElements: total,
	}, nil
}

func (r *auditLogsRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
