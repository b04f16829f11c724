package task

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/crm-access/internal"
	"github.com/frahmantamala/crm-access/internal/core/events"
	"github.com/frahmantamala/crm-access/internal/rbac"
)

// Repository interface defines the data access methods for tasks
type Repository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id int64) (*Task, error)
	List(ctx context.Context, filter rbac.VisibilityFilter, limit, offset int) ([]*Task, int64, error)
	// UpdateAssignment writes the new assignee only if the row is still at
	// expectedVersion, returning internal.ErrAssignmentConflict otherwise.
	UpdateAssignment(ctx context.Context, id, assigneeID, assignerID, expectedVersion int64) (*Task, error)
}

type AssignmentValidator interface {
	ValidateAssignment(ctx context.Context, assignerID, assigneeID int64) (rbac.AssignmentDecision, error)
}

type VisibilityProvider interface {
	GetVisibleTaskIds(ctx context.Context, userID int64, roleName string) (rbac.VisibilityFilter, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Actor is the caller on whose behalf the service acts.
type Actor struct {
	ID       int64
	RoleName string
}

// Service handles task business logic
type Service struct {
	repo        Repository
	assignments AssignmentValidator
	visibility  VisibilityProvider
	publisher   EventPublisher
	logger      *slog.Logger
}

func NewService(repo Repository, assignments AssignmentValidator, visibility VisibilityProvider, publisher EventPublisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		assignments: assignments,
		visibility:  visibility,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreateTask stores a new task. An explicit assignee goes through the same
// authorization as a reassignment.
func (s *Service) CreateTask(ctx context.Context, actor Actor, dto CreateTaskDTO) (*Task, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var decision rbac.AssignmentDecision
	if dto.AssignedToID != nil {
		d, err := s.assignments.ValidateAssignment(ctx, actor.ID, *dto.AssignedToID)
		if err != nil {
			return nil, err
		}
		decision = d
	}

	task := NewTask(actor.ID, dto)
	if err := s.repo.Create(ctx, task); err != nil {
		s.logger.ErrorContext(ctx, "failed to create task", "error", err, "user_id", actor.ID)
		return nil, internal.NewInternalError("Failed to create task", err)
	}

	s.logger.InfoContext(ctx, "task created",
		"task_id", task.ID,
		"user_id", actor.ID,
		"assigned_to_id", *task.AssignedToID)

	if dto.AssignedToID != nil && *dto.AssignedToID != actor.ID {
		s.publishAssigned(ctx, task, decision)
	}
	return task, nil
}

func (s *Service) ListTasks(ctx context.Context, actor Actor, limit, offset int) ([]*Task, int64, error) {
	filter, err := s.visibility.GetVisibleTaskIds(ctx, actor.ID, actor.RoleName)
	if err != nil {
		return nil, 0, err
	}

	tasks, total, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list tasks", "error", err, "user_id", actor.ID)
		return nil, 0, internal.NewInternalError("Failed to list tasks", err)
	}
	return tasks, total, nil
}

// GetTask answers not found for tasks outside the actor's visibility so their
// existence is not disclosed.
func (s *Service) GetTask(ctx context.Context, actor Actor, id int64) (*Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	filter, err := s.visibility.GetVisibleTaskIds(ctx, actor.ID, actor.RoleName)
	if err != nil {
		return nil, err
	}
	if !filter.Matches(task.AssignedToID, task.AssignedByID) {
		s.logger.WarnContext(ctx, "task outside caller visibility", "task_id", id, "user_id", actor.ID)
		return nil, internal.ErrTaskNotFound
	}
	return task, nil
}

// AssignTask authorizes and persists a reassignment, then announces it.
func (s *Service) AssignTask(ctx context.Context, actor Actor, taskID int64, dto AssignTaskDTO) (*Task, rbac.AssignmentDecision, error) {
	if err := dto.Validate(); err != nil {
		return nil, rbac.AssignmentDecision{}, err
	}

	current, err := s.GetTask(ctx, actor, taskID)
	if err != nil {
		return nil, rbac.AssignmentDecision{}, err
	}

	decision, err := s.assignments.ValidateAssignment(ctx, actor.ID, dto.AssigneeID)
	if err != nil {
		return nil, rbac.AssignmentDecision{}, err
	}

	expected := current.Version
	if dto.Version != nil {
		expected = *dto.Version
	}

	updated, err := s.repo.UpdateAssignment(ctx, taskID, dto.AssigneeID, actor.ID, expected)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			s.logger.WarnContext(ctx, "task assignment not persisted",
				"task_id", taskID,
				"expected_version", expected,
				"code", appErr.Code)
			return nil, rbac.AssignmentDecision{}, appErr
		}
		s.logger.ErrorContext(ctx, "failed to persist task assignment", "error", err, "task_id", taskID)
		return nil, rbac.AssignmentDecision{}, internal.NewInternalError("Failed to assign task", err)
	}

	s.logger.InfoContext(ctx, "task assigned",
		"task_id", taskID,
		"assigner_id", actor.ID,
		"assignee_id", dto.AssigneeID,
		"assigner_role", decision.AssignerRole,
		"assignee_role", decision.AssigneeRole,
		"version", updated.Version)

	s.publishAssigned(ctx, updated, decision)
	return updated, decision, nil
}

func (s *Service) publishAssigned(ctx context.Context, task *Task, decision rbac.AssignmentDecision) {
	if s.publisher == nil || task.AssignedToID == nil || task.AssignedByID == nil {
		return
	}
	event := events.NewTaskAssignedEvent(task.ID, *task.AssignedToID, *task.AssignedByID,
		decision.AssignerRole, decision.AssigneeRole, task.Version)
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish task event", "error", err, "task_id", task.ID)
	}
}
