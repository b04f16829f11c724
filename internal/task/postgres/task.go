package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/crm-access/internal"
	taskDatamodel "github.com/frahmantamala/crm-access/internal/core/datamodel/task"
	"github.com/frahmantamala/crm-access/internal/rbac"
	"github.com/frahmantamala/crm-access/internal/task"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	model := task.ToDataModel(t)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	t.ID = model.ID
	t.CreatedAt = model.CreatedAt
	t.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	var model taskDatamodel.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTaskNotFound
		}
		return nil, err
	}
	return task.FromDataModel(&model), nil
}

func (r *TaskRepository) List(ctx context.Context, filter rbac.VisibilityFilter, limit, offset int) ([]*task.Task, int64, error) {
	base := r.db.WithContext(ctx).Model(&taskDatamodel.Task{}).Scopes(Visible(filter))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []*taskDatamodel.Task
	err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}
	return task.FromDataModelSlice(models), total, nil
}

// UpdateAssignment is a compare-and-swap on the version column.
func (r *TaskRepository) UpdateAssignment(ctx context.Context, id, assigneeID, assignerID, expectedVersion int64) (*task.Task, error) {
	var updated *task.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&taskDatamodel.Task{}).
			Where("id = ? AND version = ?", id, expectedVersion).
			Updates(map[string]interface{}{
				"assigned_to_id": assigneeID,
				"assigned_by_id": assignerID,
				"version":        gorm.Expr("version + 1"),
				"updated_at":     time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&taskDatamodel.Task{}).Where("id = ?", id).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return internal.ErrTaskNotFound
			}
			return internal.ErrAssignmentConflict
		}

		var model taskDatamodel.Task
		if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
			return err
		}
		updated = task.FromDataModel(&model)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Visible translates a visibility filter into a WHERE clause. Conditions are
// OR'd inside one group so they compose with other scopes.
func Visible(filter rbac.VisibilityFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Unrestricted {
			return db
		}
		if len(filter.AnyOf) == 0 {
			return db.Where("1 = 0")
		}

		group := db.Session(&gorm.Session{NewDB: true})
		for i, c := range filter.AnyOf {
			clause, args, err := conditionSQL(c)
			if err != nil {
				_ = db.AddError(err)
				return db
			}
			if i == 0 {
				group = group.Where(clause, args...)
			} else {
				group = group.Or(clause, args...)
			}
		}
		return db.Where(group)
	}
}

func conditionSQL(c rbac.Condition) (string, []interface{}, error) {
	switch c.Column {
	case rbac.ColumnAssignedTo, rbac.ColumnAssignedBy:
	default:
		return "", nil, fmt.Errorf("visibility: unsupported column %q", c.Column)
	}

	switch c.Op {
	case rbac.OpEquals:
		if len(c.Values) != 1 {
			return "", nil, fmt.Errorf("visibility: eq on %s needs one value, got %d", c.Column, len(c.Values))
		}
		return c.Column + " = ?", []interface{}{c.Values[0]}, nil
	case rbac.OpIn:
		if len(c.Values) == 0 {
			return "1 = 0", nil, nil
		}
		return c.Column + " IN ?", []interface{}{c.Values}, nil
	default:
		return "", nil, fmt.Errorf("visibility: unsupported operator %q", c.Op)
	}
}
