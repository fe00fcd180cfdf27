package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type dashboardApi struct {
	svc         DashboardService
	predictions PredictionStore
}

func registerDashboardAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := dashboardApi{svc: deps.Dashboard, predictions: deps.Predictions}

	mw := append(authed[:len(authed):len(authed)], managerMiddleware)
	g.GET("/dashboard", api.retrieve, mw...)
	g.POST("/dashboard/reload", api.reload, mw...)
	g.GET("/predictions", api.forecast, mw...)
}

func (api *dashboardApi) retrieve(ctx echo.Context) error {
	snap, err := api.svc.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting dashboard")
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *dashboardApi) reload(ctx echo.Context) error {
	snap, err := api.svc.Reload(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reloading dashboard")
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *dashboardApi) forecast(ctx echo.Context) error {
	fc, err := api.predictions.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting predictions")
	}
	return ctx.JSON(http.StatusOK, fc)
}
