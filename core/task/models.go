package task

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gmao/core"
)

// Statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var (
	AllStatuses   = []string{StatusPending, StatusInProgress, StatusCompleted}
	AllPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

	dueDateLayouts = []string{"2006-01-02", time.RFC3339}
)

type Assignee struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AssignedTo  string    `json:"assigned_to"`
	CreatedBy   string    `json:"created_by"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	DueDate     null.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
	Assignee    *Assignee `json:"assignee,omitempty"`
}

// NewTask contains information needed to create a new Task.
type NewTask struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"max=2000"`
	AssignedTo  string `json:"assigned_to" validate:"required,uuid"`
	Priority    string `json:"priority" validate:"omitempty,taskpriority"`
	DueDate     string `json:"due_date"` // YYYY-MM-DD or RFC 3339

	dueDate null.Time
}

func (nt *NewTask) Validate(ctx context.Context, validate *validator.Validate, assignees AssigneeChecker) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	nt.AssignedTo = core.CleanString(nt.AssignedTo, true /* lower */)
	nt.Priority = core.CleanString(nt.Priority, true /* lower */)
	if nt.Priority == "" {
		nt.Priority = PriorityMedium
	}

	if err := validate.Struct(nt); err != nil {
		return err
	}

	if dd := core.CleanString(nt.DueDate); dd != "" {
		t, ok := parseDueDate(dd)
		if !ok {
			return core.NewFieldValidationError("due_date", "due_date must be a date formatted as YYYY-MM-DD")
		}
		nt.dueDate = null.TimeFrom(t)
	}

	return assignees.CheckAssignee(ctx, nt.AssignedTo)
}

func parseDueDate(s string) (time.Time, bool) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// UpdateStatus is the payload of a status change.
type UpdateStatus struct {
	Status string `json:"status" validate:"required,taskstatus"`
}

func (us *UpdateStatus) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status, true /* lower */)
	return validate.Struct(us)
}

type QueryFilter struct {
	Search     string   `query:"search"`
	AssignedTo string   `query:"assigned_to"`
	Statuses   []string `query:"status"`
	Priorities []string `query:"priority"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.AssignedTo = core.CleanString(qf.AssignedTo, true /* lower */)
	qf.Statuses = cleanList(qf.Statuses)
	qf.Priorities = cleanList(qf.Priorities)
}

func cleanList(vals []string) []string {
	cleaned := make([]string, 0, len(vals))
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if part = core.CleanString(part, true /* lower */); part != "" {
				cleaned = append(cleaned, part)
			}
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}
