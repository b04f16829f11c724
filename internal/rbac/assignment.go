package rbac

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/crm-access/internal"
)

const (
	msgManagerOutOfScope = "Managers can only assign tasks to users in their hierarchy"
	msgLeadOutOfScope    = "Leads can only assign tasks to users who report directly to them"
)

// AssignmentDecision is returned on every successful validation.
type AssignmentDecision struct {
	AssignerRole string `json:"assignerRole"`
	AssigneeRole string `json:"assigneeRole"`
}

// AssignmentService decides whether a task may be assigned. It performs no
// writes; callers persist the assignment after a successful call.
type AssignmentService struct {
	directory Directory
	evaluator *Evaluator
	hierarchy *HierarchyResolver
	metrics   *Metrics
	logger    *slog.Logger
}

func NewAssignmentService(directory Directory, evaluator *Evaluator, metrics *Metrics, logger *slog.Logger) *AssignmentService {
	if logger == nil {
		logger = slog.Default()
	}
	if evaluator == nil {
		evaluator = NewEvaluator()
	}
	return &AssignmentService{
		directory: directory,
		evaluator: evaluator,
		hierarchy: NewHierarchyResolver(directory),
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *AssignmentService) ValidateAssignment(ctx context.Context, assignerID, assigneeID int64) (AssignmentDecision, error) {
	assigner, assignee, err := s.loadParties(ctx, assignerID, assigneeID)
	if err != nil {
		s.metrics.observeAssignment(outcomeFor(err))
		if errors.Is(err, ErrUserNotFound) {
			s.logger.WarnContext(ctx, "assignment rejected: party not found",
				"assigner_id", assignerID,
				"assignee_id", assigneeID)
			return AssignmentDecision{}, internal.ErrAssignmentPartyNotFound
		}
		s.logger.ErrorContext(ctx, "assignment lookup failed",
			"assigner_id", assignerID,
			"assignee_id", assigneeID,
			"error", err)
		return AssignmentDecision{}, err
	}

	decision := AssignmentDecision{
		AssignerRole: assigner.Role.Name,
		AssigneeRole: assignee.Role.Name,
	}

	if assigner.Role.HasFullAccess() {
		s.metrics.observeAssignment(outcomeFullAccess)
		return decision, nil
	}

	if !s.evaluator.CanAny(assigner.Role, ModuleTasks, ActionAssign, ActionCreate) {
		s.logger.WarnContext(ctx, "assignment rejected: missing assign permission",
			"assigner_id", assignerID,
			"assigner_role", assigner.Role.Name)
		s.metrics.observeAssignment(outcomePermissionDenied)
		return AssignmentDecision{}, internal.ErrAssignPermissionDenied
	}

	if s.evaluator.Can(assigner.Role, ModuleTasks, ActionManageAll) {
		s.metrics.observeAssignment(outcomeManageAll)
		return decision, nil
	}

	var violation string
	switch assigner.Role.Kind() {
	case RoleManager:
		violation = msgManagerOutOfScope
	case RoleLead:
		violation = msgLeadOutOfScope
	default:
		// Custom roles holding assign rights are not hierarchy-bound.
		s.metrics.observeAssignment(outcomeUnrestricted)
		return decision, nil
	}

	inScope, err := s.hierarchy.InHierarchy(ctx, assigner, assignee)
	if err != nil {
		s.logger.ErrorContext(ctx, "hierarchy lookup failed",
			"assigner_id", assignerID,
			"assignee_id", assigneeID,
			"error", err)
		s.metrics.observeAssignment(outcomeFor(err))
		return AssignmentDecision{}, err
	}
	if !inScope {
		s.logger.WarnContext(ctx, "assignment rejected: outside hierarchy",
			"assigner_id", assignerID,
			"assignee_id", assigneeID,
			"assigner_role", assigner.Role.Name)
		s.metrics.observeAssignment(outcomeHierarchyViolation)
		return AssignmentDecision{}, internal.NewHierarchyViolation(violation)
	}

	s.metrics.observeAssignment(outcomeInHierarchy)
	return decision, nil
}

// loadParties fetches assigner and assignee concurrently.
func (s *AssignmentService) loadParties(ctx context.Context, assignerID, assigneeID int64) (*DirectoryUser, *DirectoryUser, error) {
	var assigner, assignee *DirectoryUser

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.directory.FindUserWithRole(gctx, assignerID)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrUserNotFound
		}
		assigner = u
		return nil
	})
	g.Go(func() error {
		u, err := s.directory.FindUserWithRole(gctx, assigneeID)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrUserNotFound
		}
		assignee = u
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return assigner, assignee, nil
}
