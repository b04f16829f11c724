package rbac

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/crm-access/internal"
)

type timedDirectory struct {
	next    Directory
	timeout time.Duration
}

// WithLookupTimeout bounds every directory call by timeout. Failures that are
// neither ErrUserNotFound nor an *internal.AppError become
// internal.ErrDirectoryUnavailable, never a denial.
func WithLookupTimeout(d Directory, timeout time.Duration) Directory {
	if td, ok := d.(*timedDirectory); ok {
		d = td.next
	}
	return &timedDirectory{next: d, timeout: timeout}
}

func (d *timedDirectory) FindUserWithRole(ctx context.Context, id int64) (*DirectoryUser, error) {
	ctx, cancel := internal.WithTimeout(ctx, d.timeout)
	defer cancel()

	u, err := d.next.FindUserWithRole(ctx, id)
	if err != nil {
		return nil, classifyLookupError(err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (d *timedDirectory) FindUsersByManager(ctx context.Context, managerID int64) ([]DirectoryUser, error) {
	ctx, cancel := internal.WithTimeout(ctx, d.timeout)
	defer cancel()

	users, err := d.next.FindUsersByManager(ctx, managerID)
	if err != nil {
		return nil, classifyLookupError(err)
	}
	return users, nil
}

func classifyLookupError(err error) error {
	if errors.Is(err, ErrUserNotFound) {
		return ErrUserNotFound
	}
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	return internal.ErrDirectoryUnavailable.WithCause(err)
}
