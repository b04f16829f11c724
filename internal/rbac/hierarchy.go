package rbac

import (
	"context"
	"errors"
)

// HierarchyResolver checks whether an assigner has organisational authority
// over an assignee. Only two tiers are resolved: Manager -> Lead -> Employee.
type HierarchyResolver struct {
	directory Directory
}

func NewHierarchyResolver(directory Directory) *HierarchyResolver {
	return &HierarchyResolver{directory: directory}
}

// InHierarchy returns false (not an error) when the assignee is out of scope.
// The error is reserved for directory failures.
func (h *HierarchyResolver) InHierarchy(ctx context.Context, assigner, assignee *DirectoryUser) (bool, error) {
	if assigner == nil || assignee == nil {
		return false, nil
	}
	if assigner.ID == assignee.ID {
		return true, nil
	}

	switch assigner.Role.Kind() {
	case RoleManager:
		if assignee.ReportsTo(assigner.ID) {
			return true, nil
		}
		return h.reportsThroughLead(ctx, assigner.ID, assignee)
	case RoleLead:
		return assignee.ReportsTo(assigner.ID), nil
	default:
		return false, nil
	}
}

// reportsThroughLead looks up the assignee's direct manager and accepts it
// only if that user is a Lead reporting to managerID.
func (h *HierarchyResolver) reportsThroughLead(ctx context.Context, managerID int64, assignee *DirectoryUser) (bool, error) {
	if assignee.ReportsToID == nil {
		return false, nil
	}

	lead, err := h.directory.FindUserWithRole(ctx, *assignee.ReportsToID)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return lead.Role.Kind() == RoleLead && lead.ReportsTo(managerID), nil
}
