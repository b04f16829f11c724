package user

import (
	"time"

	"gorm.io/datatypes"
)

type Role struct {
	ID             int64          `gorm:"primaryKey"`
	Name           string         `gorm:"column:name;uniqueIndex;not null"`
	PermissionType string         `gorm:"column:permission_type;not null;default:'custom'"`
	Permissions    datatypes.JSON `gorm:"column:permissions"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	RoleID       *int64    `gorm:"column:role_id;index"`
	ReportsToID  *int64    `gorm:"column:reports_to_id;index"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Role *Role `gorm:"foreignKey:RoleID"`
}

func (User) TableName() string {
	return "users"
}
