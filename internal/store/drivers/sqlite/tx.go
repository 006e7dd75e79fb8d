package sqlite

import (
	"database/sql"

	"github.com/nexushq/nexus/internal/store"
)

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Users() store.Users         { return &usersRepo{db: t.tx} }
func (t *txStore) Roles() store.Roles         { return &rolesRepo{db: t.tx} }
func (t *txStore) AuditLogs() store.AuditLogs { return &auditLogsRepo{db: t.tx} }
