package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/events"
	"github.com/trezcool/gmao/core/task"
	"github.com/trezcool/gmao/services/metrics"
)

type taskApi struct {
	svc      task.Service
	broker   *events.Broker
	metrics  *metrics.Metrics
	logger   core.Logger
	validate *validator.Validate
	conf     *core.Config
}

func registerTaskAPI(g *echo.Group, auth *authenticator, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := taskApi{
		svc:      deps.TaskSvc,
		broker:   deps.Broker,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		validate: deps.Validate,
		conf:     deps.Conf,
	}

	// the change feed authenticates with a query param
	g.GET("/tasks/stream", api.stream, auth.streamJWT(), auth.session())

	tg := g.Group("/tasks", authed...)
	tg.POST("", api.create, managerMiddleware)
	tg.GET("", api.query, managerMiddleware)
	tg.GET("/mine", api.queryMine)
	tg.GET("/:id", api.retrieve)
	tg.PATCH("/:id/status", api.updateStatus)
	tg.DELETE("/:id", api.destroy, managerMiddleware)
}

// Handlers

func (api *taskApi) create(ctx echo.Context) error {
	sess, err := getSession(ctx)
	if err != nil {
		return err
	}

	var data task.NewTask
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	rctx := ctx.Request().Context()
	if err = data.Validate(rctx, api.validate, api.svc); err != nil {
		return err
	}

	t, err := api.svc.Create(rctx, sess.User, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) query(ctx echo.Context) error {
	sess, err := getSession(ctx)
	if err != nil {
		return err
	}

	filter := new(task.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []task.Task{})
	}
	ordering, err := bindOrdering(ctx, task.OrderingFields)
	if err != nil {
		return err
	}

	tasks, err := api.svc.List(ctx.Request().Context(), sess.User, filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) queryMine(ctx echo.Context) error {
	sess, err := getSession(ctx)
	if err != nil {
		return err
	}

	tasks, err := api.svc.ListByAssignee(ctx.Request().Context(), sess.User)
	if err != nil {
		return errors.Wrap(err, "querying assigned tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	sess, err := getSession(ctx)
	if err != nil {
		return err
	}

	t, err := api.svc.Get(ctx.Request().Context(), sess.User, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) updateStatus(ctx echo.Context) error {
	sess, err := getSession(ctx)
	if err != nil {
		return err
	}

	var data task.UpdateStatus
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.UpdateStatus(ctx.Request().Context(), sess.User, ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "updating task status")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	sess, err := getSession(ctx)
	if err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), sess.User, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}
