package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/crm-access/internal"
	userDatamodel "github.com/frahmantamala/crm-access/internal/core/datamodel/user"
	"github.com/frahmantamala/crm-access/internal/rbac"
)

// UserDirectory reads users and their roles for authorization decisions.
// Deactivated users are invisible to FindUserWithRole but still listed as
// reports, so work already assigned to them stays visible to their managers.
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) FindUserWithRole(ctx context.Context, id int64) (*rbac.DirectoryUser, error) {
	var u userDatamodel.User
	err := d.db.WithContext(ctx).
		Preload("Role").
		Where("id = ? AND is_active = ?", id, true).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rbac.ErrUserNotFound
		}
		return nil, err
	}
	return toDirectoryUser(&u)
}

func (d *UserDirectory) FindUsersByManager(ctx context.Context, managerID int64) ([]rbac.DirectoryUser, error) {
	var users []userDatamodel.User
	err := d.db.WithContext(ctx).
		Preload("Role").
		Where("reports_to_id = ?", managerID).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	out := make([]rbac.DirectoryUser, 0, len(users))
	for i := range users {
		du, err := toDirectoryUser(&users[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *du)
	}
	return out, nil
}

func toDirectoryUser(u *userDatamodel.User) (*rbac.DirectoryUser, error) {
	du := &rbac.DirectoryUser{
		ID:          u.ID,
		Name:        u.Name,
		ReportsToID: u.ReportsToID,
	}
	if u.Role == nil {
		return du, nil
	}

	role, err := ToRole(u.Role)
	if err != nil {
		return nil, internal.NewInternalError("Stored role permissions are malformed",
			fmt.Errorf("role %d: %w", u.Role.ID, err))
	}
	du.Role = role
	return du, nil
}

// ToRole converts a stored role row into the snapshot the evaluator works on.
func ToRole(r *userDatamodel.Role) (rbac.Role, error) {
	tree, err := rbac.ParsePermissionTree(r.Permissions)
	if err != nil {
		return rbac.Role{}, err
	}
	return rbac.Role{
		Name:           r.Name,
		PermissionType: r.PermissionType,
		Permissions:    tree,
	}, nil
}
