package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/crm-access/internal"
	"github.com/frahmantamala/crm-access/internal/user"
)

const profileColumns = `
SELECT u.id, u.email, u.name, COALESCE(r.name, '') AS role_name,
       u.reports_to_id, u.is_active, u.created_at
FROM users u
LEFT JOIN roles r ON r.id = u.role_id
`

// Repository reads user profiles with plain SQL; placeholders are rebound for
// whichever driver db was opened with.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (p *Repository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	query := p.db.Rebind(profileColumns + "WHERE u.id = ?")
	if err := p.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

func (p *Repository) ListReports(ctx context.Context, managerID int64) ([]*user.User, error) {
	reports := []*user.User{}
	query := p.db.Rebind(profileColumns + "WHERE u.reports_to_id = ? ORDER BY u.id")
	if err := p.db.SelectContext(ctx, &reports, query, managerID); err != nil {
		return nil, fmt.Errorf("list reports of %d: %w", managerID, err)
	}
	return reports, nil
}
