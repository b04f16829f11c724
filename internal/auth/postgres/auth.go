package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/crm-access/internal"
	"github.com/frahmantamala/crm-access/internal/auth"
	userDatamodel "github.com/frahmantamala/crm-access/internal/core/datamodel/user"
	directoryPostgres "github.com/frahmantamala/crm-access/internal/directory/postgres"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (int64, string, error) {
	var row struct {
		ID           int64
		PasswordHash string
	}
	tx := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Select("id", "password_hash").
		Where("email = ? AND is_active = ?", email, true).
		Limit(1).
		Scan(&row)
	if tx.Error != nil {
		return 0, "", tx.Error
	}
	if tx.RowsAffected == 0 {
		return 0, "", internal.ErrUserNotFound
	}
	return row.ID, row.PasswordHash, nil
}

func (r *Repository) GetUserWithRole(ctx context.Context, userID int64) (*auth.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("id = ? AND is_active = ?", userID, true).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}

	user := &auth.User{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		ReportsToID: u.ReportsToID,
	}
	if u.Role != nil {
		role, err := directoryPostgres.ToRole(u.Role)
		if err != nil {
			return nil, internal.NewInternalError("Stored role permissions are malformed", err)
		}
		user.Role = role
	}
	return user, nil
}
