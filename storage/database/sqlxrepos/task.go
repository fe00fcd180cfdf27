package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/task"
)

type taskRow struct {
	ID            string      `db:"id"`
	Title         string      `db:"title"`
	Description   null.String `db:"description"`
	AssignedTo    string      `db:"assigned_to"`
	CreatedBy     string      `db:"created_by"`
	Status        string      `db:"status"`
	Priority      string      `db:"priority"`
	DueDate       null.Time   `db:"due_date"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
	AssigneeEmail null.String `db:"assignee_email"`
	AssigneeName  null.String `db:"assignee_name"`
}

// selectTasks joins the assignee of each task.
const selectTasks = `SELECT t.id, t.title, t.description, t.assigned_to, t.created_by, t.status, t.priority,
	t.due_date, t.created_at, t.updated_at, u.email AS assignee_email, u.name AS assignee_name
	FROM tasks t LEFT JOIN users u ON u.id = t.assigned_to`

func toTaskRow(t task.Task) taskRow {
	return taskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: null.NewString(t.Description, t.Description != ""),
		AssignedTo:  t.AssignedTo,
		CreatedBy:   t.CreatedBy,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func (r taskRow) task() task.Task {
	t := task.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description.String,
		AssignedTo:  r.AssignedTo,
		CreatedBy:   r.CreatedBy,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.DueDate.Valid {
		t.DueDate.Time = r.DueDate.Time.UTC()
	}
	if r.AssigneeEmail.Valid {
		t.Assignee = &task.Assignee{Email: r.AssigneeEmail.String, Name: r.AssigneeName.String}
	}
	return t
}

// taskRepository relies on the tasks trigger to publish the change events.
type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *sqlx.DB) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	q := `INSERT INTO tasks (id, title, description, assigned_to, created_by, status, priority, due_date, created_at, updated_at)
		VALUES (:id, :title, :description, :assigned_to, :created_by, :status, :priority, :due_date, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toTaskRow(t)); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return repo.GetTask(ctx, t.ID)
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Task{}, task.ErrNotFound
	}
	var row taskRow
	if err := repo.db.GetContext(ctx, &row, selectTasks+" WHERE t.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "finding task")
	}
	return row.task(), nil
}

func (repo *taskRepository) QueryTasks(ctx context.Context, filter *task.QueryFilter, ordering []core.DBOrdering) ([]task.Task, error) {
	var where []string
	var args []interface{}

	if filter != nil {
		if filter.AssignedTo != "" {
			if _, err := uuid.Parse(filter.AssignedTo); err != nil {
				return []task.Task{}, nil
			}
			where = append(where, "t.assigned_to = ?")
			args = append(args, filter.AssignedTo)
		}
		if len(filter.Statuses) > 0 {
			where = append(where, "t.status IN (?)")
			args = append(args, filter.Statuses)
		}
		if len(filter.Priorities) > 0 {
			where = append(where, "t.priority IN (?)")
			args = append(args, filter.Priorities)
		}
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			where = append(where, "(t.title ILIKE ? OR t.description ILIKE ?)")
			args = append(args, val, val)
		}
	}

	query := selectTasks
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	orderings := make([]core.DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		orderings = append(orderings, core.DBOrdering{Field: "t." + ord.Field, Ascending: ord.Ascending})
	}
	query += orderBy(orderings)

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building tasks query")
	}
	var rows []taskRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}

	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.task())
	}
	return tasks, nil
}

func (repo *taskRepository) UpdateTaskStatus(ctx context.Context, id, from, to string, updatedAt time.Time) (task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Task{}, task.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx,
		"UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
		to, updatedAt.UTC(), id, from,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task status")
	}
	if n == 0 {
		// deleted, or moved by someone else since it was read
		if _, err = repo.GetTask(ctx, id); err != nil {
			return task.Task{}, err
		}
		return task.Task{}, task.ErrInvalidTransition
	}
	return repo.GetTask(ctx, id)
}

func (repo *taskRepository) DeleteTask(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return task.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.ErrNotFound
	}
	return nil
}
