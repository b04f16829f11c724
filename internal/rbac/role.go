// Package rbac decides who may assign tasks to whom and which task rows a
// user may list. It reads users and roles through Directory and holds no state
// between calls.
package rbac

import (
	"context"
	"errors"
)

// RoleKind is the closed set of roles the hierarchy rules know about. Custom
// role names map to RoleOther.
type RoleKind int

const (
	RoleOther RoleKind = iota
	RoleEmployee
	RoleLead
	RoleManager
	RoleAdministrator
)

const (
	RoleNameAdministrator = "Administrator"
	RoleNameManager       = "Manager"
	RoleNameLead          = "Lead"
	RoleNameEmployee      = "Employee"
)

const (
	PermissionTypeAll    = "all"
	PermissionTypeCustom = "custom"
)

const (
	ModuleTasks = "tasks"

	ActionCreate    = "create"
	ActionAssign    = "assign"
	ActionView      = "view"
	ActionManageAll = "manage_all"
)

// ParseRole maps a stored role name to its kind. Matching is exact.
func ParseRole(name string) RoleKind {
	switch name {
	case RoleNameAdministrator:
		return RoleAdministrator
	case RoleNameManager:
		return RoleManager
	case RoleNameLead:
		return RoleLead
	case RoleNameEmployee:
		return RoleEmployee
	default:
		return RoleOther
	}
}

func (k RoleKind) String() string {
	switch k {
	case RoleAdministrator:
		return RoleNameAdministrator
	case RoleManager:
		return RoleNameManager
	case RoleLead:
		return RoleNameLead
	case RoleEmployee:
		return RoleNameEmployee
	default:
		return "Other"
	}
}

// Role is a snapshot of a role row taken for a single decision.
type Role struct {
	Name           string         `json:"name"`
	PermissionType string         `json:"permission_type"`
	Permissions    PermissionTree `json:"permissions,omitempty"`
}

func (r Role) Kind() RoleKind {
	return ParseRole(r.Name)
}

// HasFullAccess is true for Administrator and for any role with permission_type "all".
func (r Role) HasFullAccess() bool {
	return r.PermissionType == PermissionTypeAll || r.Kind() == RoleAdministrator
}

// DirectoryUser is a user as seen by the authorization core.
type DirectoryUser struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	ReportsToID *int64 `json:"reports_to_id,omitempty"`
}

// ReportsTo reports whether managerID is the user's direct manager.
func (u *DirectoryUser) ReportsTo(managerID int64) bool {
	return u.ReportsToID != nil && *u.ReportsToID == managerID
}

var ErrUserNotFound = errors.New("user not found")

// Directory is the user/role store the core consumes. FindUserWithRole returns
// ErrUserNotFound on a miss; any other error is an infrastructure failure.
type Directory interface {
	FindUserWithRole(ctx context.Context, id int64) (*DirectoryUser, error)
	FindUsersByManager(ctx context.Context, managerID int64) ([]DirectoryUser, error)
}
