package user

import (
	"time"
)

// User is the public profile of a directory user.
type User struct {
	ID          int64     `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	Name        string    `json:"name" db:"name"`
	Role        string    `json:"role" db:"role_name"`
	ReportsToID *int64    `json:"reports_to_id,omitempty" db:"reports_to_id"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

func (u *User) IsActiveUser() bool {
	return u.IsActive
}

type ReportsResponse struct {
	ManagerID int64   `json:"manager_id"`
	Reports   []*User `json:"reports"`
}
