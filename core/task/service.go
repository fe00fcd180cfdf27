package task

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("task not found")
	ErrForbidden         = errors.New("permission denied")
	ErrInvalidTransition = errors.New("invalid status transition")

	errInvalidAssignee = "assignee must be an active technician"

	// OrderingFields are the fields tasks can be ordered by.
	OrderingFields  = []string{"created_at", "updated_at", "due_date", "title"}
	defaultOrdering = core.DBOrdering{Field: "created_at", Ascending: false}
)

type (
	// Repository stores the tasks. Implementations publish an events.Event for every mutation,
	// so changes made by any process reach the subscribers.
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		GetTask(ctx context.Context, id string) (Task, error)
		// QueryTasks joins the assignee and applies AND operation on available QueryFilter fields.
		QueryTasks(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Task, error)
		// UpdateTaskStatus sets the status of a task still in status `from`, else fails with ErrInvalidTransition.
		UpdateTaskStatus(ctx context.Context, id, from, to string, updatedAt time.Time) (Task, error)
		DeleteTask(ctx context.Context, id string) error
	}

	// AssigneeChecker rejects users tasks cannot be assigned to.
	AssigneeChecker interface {
		CheckAssignee(ctx context.Context, userID string) error
	}

	Service interface {
		AssigneeChecker

		Create(ctx context.Context, creator user.User, nt NewTask) (Task, error)
		Get(ctx context.Context, actor user.User, id string) (Task, error)
		List(ctx context.Context, actor user.User, filter *QueryFilter, ordering []core.DBOrdering) ([]Task, error)
		ListByAssignee(ctx context.Context, assignee user.User) ([]Task, error)
		UpdateStatus(ctx context.Context, actor user.User, id, status string) (Task, error)
		Delete(ctx context.Context, actor user.User, id string) error
	}

	service struct {
		repo    Repository
		usrSvc  user.Service
		mailSvc core.EmailService
		logger  core.Logger
		nowFunc func() time.Time
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, usrSvc user.Service, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{
		repo:    repo,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// InitValidators registers the task validations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterOneOfValidation(validate, translator, "taskstatus", "invalid status", AllStatuses...)
	core.RegisterOneOfValidation(validate, translator, "taskpriority", "invalid priority", AllPriorities...)
}

func (svc *service) CheckAssignee(ctx context.Context, userID string) error {
	usr, err := svc.usrSvc.GetByID(ctx, userID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewFieldValidationError("assigned_to", errInvalidAssignee)
		}
		return errors.Wrap(err, "finding assignee")
	}
	if !usr.IsActive || !usr.IsTechnician() {
		return core.NewFieldValidationError("assigned_to", errInvalidAssignee)
	}
	return nil
}

// Create stores a new pending task and notifies its assignee. nt must have been validated.
func (svc *service) Create(ctx context.Context, creator user.User, nt NewTask) (Task, error) {
	if !creator.IsManager() {
		return Task{}, ErrForbidden
	}

	now := svc.nowFunc().UTC()
	t := Task{
		ID:          uuid.New().String(),
		Title:       nt.Title,
		Description: nt.Description,
		AssignedTo:  nt.AssignedTo,
		CreatedBy:   creator.ID,
		Status:      StatusPending,
		Priority:    nt.Priority,
		DueDate:     nt.dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}

	t, err := svc.repo.CreateTask(ctx, t)
	if err != nil {
		return Task{}, errors.Wrap(err, "creating task")
	}
	svc.notifyAssignee(ctx, t)
	return t, nil
}

func (svc *service) notifyAssignee(ctx context.Context, t Task) {
	assignee, err := svc.usrSvc.GetByID(ctx, t.AssignedTo)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("task.notifyAssignee: %v", err), err)
		return
	}

	data := assignedMailData{
		Name:        assignee.Name,
		Title:       t.Title,
		Description: t.Description,
		Priority:    priorityLabels[t.Priority],
	}
	if t.DueDate.Valid {
		data.DueDate = t.DueDate.Time.Format("02/01/2006")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: assignee.Name, Address: assignee.Email}},
		Subject:      "Nouvelle tâche : " + t.Title,
		TemplateName: "task_assigned",
		TemplateData: data,
	})
}

func (svc *service) Get(ctx context.Context, actor user.User, id string) (Task, error) {
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	// technicians only see their own tasks
	if !actor.IsManager() && t.AssignedTo != actor.ID {
		return Task{}, ErrNotFound
	}
	return t, nil
}

// List returns the tasks of every technician, newest first unless ordered otherwise.
func (svc *service) List(ctx context.Context, actor user.User, filter *QueryFilter, ordering []core.DBOrdering) ([]Task, error) {
	if !actor.IsManager() {
		return nil, ErrForbidden
	}
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Clean()
	return svc.repo.QueryTasks(ctx, filter, core.CleanOrderings(ordering, OrderingFields, defaultOrdering))
}

// ListByAssignee returns the tasks assigned to assignee, newest first.
func (svc *service) ListByAssignee(ctx context.Context, assignee user.User) ([]Task, error) {
	return svc.repo.QueryTasks(ctx, &QueryFilter{AssignedTo: assignee.ID}, []core.DBOrdering{defaultOrdering})
}

// UpdateStatus moves a task to status. Only its assignee or a manager may do it.
// Setting the current status again is a no-op.
func (svc *service) UpdateStatus(ctx context.Context, actor user.User, id, status string) (Task, error) {
	t, err := svc.Get(ctx, actor, id)
	if err != nil {
		return Task{}, err
	}
	if t.Status == status {
		return t, nil
	}
	if !CanTransition(t.Status, status, actor.IsManager()) {
		msg := fmt.Sprintf("cannot go from %s to %s", t.Status, status)
		return Task{}, core.NewValidationError(
			errors.Wrap(ErrInvalidTransition, msg),
			core.FieldError{Field: "status", Error: msg},
		)
	}
	updated, err := svc.repo.UpdateTaskStatus(ctx, id, t.Status, status, svc.nowFunc().UTC())
	if err != nil {
		if errors.Cause(err) == ErrInvalidTransition {
			msg := "task status has changed, reload it"
			return Task{}, core.NewValidationError(
				errors.Wrap(ErrInvalidTransition, msg),
				core.FieldError{Field: "status", Error: msg},
			)
		}
		return Task{}, err
	}
	return updated, nil
}

func (svc *service) Delete(ctx context.Context, actor user.User, id string) error {
	if !actor.IsManager() {
		return ErrForbidden
	}
	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	return svc.repo.DeleteTask(ctx, id)
}

var priorityLabels = map[string]string{
	PriorityLow:    "Basse",
	PriorityMedium: "Moyenne",
	PriorityHigh:   "Haute",
}

type assignedMailData struct {
	Name        string
	Title       string
	Description string
	Priority    string
	DueDate     string
}
