package rbac

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
)

type Operator string

const (
	OpEquals Operator = "eq"
	OpIn     Operator = "in"
)

const (
	ColumnAssignedTo = "assigned_to_id"
	ColumnAssignedBy = "assigned_by_id"
)

// Condition is a single equality or membership test on an id column.
type Condition struct {
	Column string   `json:"column"`
	Op     Operator `json:"op"`
	Values []int64  `json:"values"`
}

// VisibilityFilter describes which rows a user may list. An unrestricted
// filter matches everything; otherwise a row is visible when any condition
// holds. A restricted filter with no conditions matches nothing.
type VisibilityFilter struct {
	Unrestricted bool        `json:"unrestricted"`
	AnyOf        []Condition `json:"any_of,omitempty"`
}

// Matches evaluates the filter against a single row in memory.
func (f VisibilityFilter) Matches(assignedToID, assignedByID *int64) bool {
	if f.Unrestricted {
		return true
	}
	for _, c := range f.AnyOf {
		var v *int64
		switch c.Column {
		case ColumnAssignedTo:
			v = assignedToID
		case ColumnAssignedBy:
			v = assignedByID
		}
		if v != nil && slices.Contains(c.Values, *v) {
			return true
		}
	}
	return false
}

func ownTasks(userID int64) Condition {
	return Condition{Column: ColumnAssignedTo, Op: OpEquals, Values: []int64{userID}}
}

func assignedBy(userID int64) Condition {
	return Condition{Column: ColumnAssignedBy, Op: OpEquals, Values: []int64{userID}}
}

func assignedToAny(ids []int64) Condition {
	return Condition{Column: ColumnAssignedTo, Op: OpIn, Values: ids}
}

// VisibilityBuilder builds listing filters from the reporting hierarchy.
type VisibilityBuilder struct {
	directory Directory
	metrics   *Metrics
	logger    *slog.Logger
}

func NewVisibilityBuilder(directory Directory, metrics *Metrics, logger *slog.Logger) *VisibilityBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisibilityBuilder{
		directory: directory,
		metrics:   metrics,
		logger:    logger,
	}
}

// GetVisibleTaskIds returns the filter for userID acting with roleName.
// Unknown roles get the Employee filter.
func (b *VisibilityBuilder) GetVisibleTaskIds(ctx context.Context, userID int64, roleName string) (VisibilityFilter, error) {
	kind := ParseRole(roleName)
	b.metrics.observeVisibility(kind)

	switch kind {
	case RoleAdministrator:
		return VisibilityFilter{Unrestricted: true}, nil

	case RoleLead:
		reports, err := b.directory.FindUsersByManager(ctx, userID)
		if err != nil {
			b.logger.ErrorContext(ctx, "failed to resolve lead subordinates", "user_id", userID, "error", err)
			return VisibilityFilter{}, err
		}
		return teamFilter(userID, userIDs(reports)), nil

	case RoleManager:
		subtree, err := b.managerSubtree(ctx, userID)
		if err != nil {
			b.logger.ErrorContext(ctx, "failed to resolve manager subtree", "user_id", userID, "error", err)
			return VisibilityFilter{}, err
		}
		return teamFilter(userID, subtree), nil

	default:
		return VisibilityFilter{AnyOf: []Condition{ownTasks(userID)}}, nil
	}
}

// managerSubtree returns the Leads reporting to managerID plus every direct
// report of those Leads.
func (b *VisibilityBuilder) managerSubtree(ctx context.Context, managerID int64) ([]int64, error) {
	reports, err := b.directory.FindUsersByManager(ctx, managerID)
	if err != nil {
		return nil, err
	}

	var leads []int64
	for _, u := range reports {
		if u.Role.Kind() == RoleLead {
			leads = append(leads, u.ID)
		}
	}

	perLead := make([][]int64, len(leads))
	g, gctx := errgroup.WithContext(ctx)
	for i, leadID := range leads {
		g.Go(func() error {
			members, err := b.directory.FindUsersByManager(gctx, leadID)
			if err != nil {
				return err
			}
			perLead[i] = userIDs(members)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := slices.Clone(leads)
	for _, members := range perLead {
		ids = append(ids, members...)
	}
	return dedupe(ids), nil
}

func teamFilter(userID int64, team []int64) VisibilityFilter {
	conds := []Condition{ownTasks(userID), assignedBy(userID)}
	if len(team) > 0 {
		conds = append(conds, assignedToAny(team))
	}
	return VisibilityFilter{AnyOf: conds}
}

func userIDs(users []DirectoryUser) []int64 {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return dedupe(ids)
}

func dedupe(ids []int64) []int64 {
	slices.Sort(ids)
	return slices.Compact(ids)
}
