package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/gmao/services/metrics"
)

// managerMiddleware restricts a route to managers. It must run after the session middleware.
func managerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		sess, err := getSession(ctx)
		if err != nil {
			return err
		}
		if !sess.IsManager() {
			return errHttpForbidden
		}
		return next(ctx)
	}
}

// metricsMiddleware records every request, labelled with its route pattern rather than its path.
func metricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if m == nil {
				return next(ctx)
			}
			start := time.Now()
			err := next(ctx)
			if err != nil {
				ctx.Error(err) // commit the response so its status is known
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(ctx.Request().Method, route, ctx.Response().Status, time.Since(start))
			return nil
		}
	}
}
