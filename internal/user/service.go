package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/crm-access/internal"
	"github.com/frahmantamala/crm-access/internal/rbac"
)

type Repository interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	ListReports(ctx context.Context, managerID int64) ([]*User, error)
}

type HierarchyChecker interface {
	InHierarchy(ctx context.Context, assigner, assignee *rbac.DirectoryUser) (bool, error)
}

type Service struct {
	repo      Repository
	directory rbac.Directory
	hierarchy HierarchyChecker
	logger    *slog.Logger
}

func NewService(repo Repository, directory rbac.Directory, hierarchy HierarchyChecker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		directory: directory,
		hierarchy: hierarchy,
		logger:    logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("Failed to get user", err)
	}
	return u, nil
}

// ListReports returns the direct reports of managerID. Callers may list their
// own reports, anyone's with full access, or those of users inside their
// hierarchy.
func (s *Service) ListReports(ctx context.Context, viewer *rbac.DirectoryUser, managerID int64) ([]*User, error) {
	if err := s.authorizeReports(ctx, viewer, managerID); err != nil {
		return nil, err
	}

	reports, err := s.repo.ListReports(ctx, managerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list reports", "error", err, "manager_id", managerID)
		return nil, internal.NewInternalError("Failed to list reports", err)
	}
	return reports, nil
}

func (s *Service) authorizeReports(ctx context.Context, viewer *rbac.DirectoryUser, managerID int64) error {
	if viewer.ID == managerID || viewer.Role.HasFullAccess() {
		return nil
	}

	target, err := s.directory.FindUserWithRole(ctx, managerID)
	if errors.Is(err, rbac.ErrUserNotFound) {
		return internal.ErrUserNotFound
	}
	if err != nil {
		return err
	}

	ok, err := s.hierarchy.InHierarchy(ctx, viewer, target)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.WarnContext(ctx, "reports outside viewer hierarchy",
			"viewer_id", viewer.ID,
			"manager_id", managerID)
		return internal.ErrPermissionDenied
	}
	return nil
}
