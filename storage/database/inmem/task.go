package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/events"
	"github.com/trezcool/gmao/core/task"
)

type taskRepository struct {
	db *DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db}
}

// withAssignee joins the assignee, like the SQL store does.
func (repo *taskRepository) withAssignee(t task.Task) task.Task {
	if usr, ok := repo.db.users[t.AssignedTo]; ok {
		t.Assignee = &task.Assignee{Email: usr.Email, Name: usr.Name}
	}
	return t
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.Assignee = nil
	repo.db.tasks[t.ID] = &t
	repo.db.taskOrder = append(repo.db.taskOrder, t.ID)
	repo.db.publish(events.TypeInsert, t)
	return repo.withAssignee(t), nil
}

func (repo *taskRepository) GetTask(_ context.Context, id string) (task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.tasks[id]; ok {
		return repo.withAssignee(*t), nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) QueryTasks(_ context.Context, filter *task.QueryFilter, ordering []core.DBOrdering) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	tasks := make([]task.Task, 0)
	for _, id := range repo.db.taskOrder {
		t := *repo.db.tasks[id]
		if filter.AssignedTo != "" && t.AssignedTo != filter.AssignedTo {
			continue
		}
		if filter.Statuses != nil && !contains(filter.Statuses, t.Status) {
			continue
		}
		if filter.Priorities != nil && !contains(filter.Priorities, t.Priority) {
			continue
		}
		if search != "" && !(strings.Contains(strings.ToLower(t.Title), search) || strings.Contains(strings.ToLower(t.Description), search)) {
			continue
		}
		tasks = append(tasks, repo.withAssignee(t))
	}

	sortTasks(tasks, ordering)
	return tasks, nil
}

func (repo *taskRepository) UpdateTaskStatus(_ context.Context, id, from, to string, updatedAt time.Time) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t, ok := repo.db.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	if t.Status != from {
		return task.Task{}, task.ErrInvalidTransition
	}
	t.Status = to
	t.UpdatedAt = updatedAt
	repo.db.publish(events.TypeUpdate, *t)
	return repo.withAssignee(*t), nil
}

func (repo *taskRepository) DeleteTask(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	t, ok := repo.db.tasks[id]
	if !ok {
		return task.ErrNotFound
	}
	delete(repo.db.tasks, id)
	repo.db.taskOrder = removeID(repo.db.taskOrder, id)
	deleted := *t
	deleted.UpdatedAt = time.Now().UTC()
	repo.db.publish(events.TypeDelete, deleted)
	return nil
}

func sortTasks(tasks []task.Task, ordering []core.DBOrdering) {
	sort.SliceStable(tasks, func(i, j int) bool {
		for _, ord := range ordering {
			var cmp int
			switch ord.Field {
			case "created_at":
				cmp = compareTimes(tasks[i].CreatedAt, tasks[j].CreatedAt)
			case "updated_at":
				cmp = compareTimes(tasks[i].UpdatedAt, tasks[j].UpdatedAt)
			case "due_date":
				cmp = compareTimes(tasks[i].DueDate.Time, tasks[j].DueDate.Time)
			case "title":
				cmp = strings.Compare(tasks[i].Title, tasks[j].Title)
			}
			if cmp != 0 {
				return (cmp < 0) == ord.Ascending
			}
		}
		return false
	})
}
