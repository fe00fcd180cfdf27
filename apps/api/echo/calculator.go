package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gmao/core/calculator"
)

type calculatorApi struct {
	validate *validator.Validate
}

func registerCalculatorAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := calculatorApi{validate: deps.Validate}

	cg := g.Group("/calculators", append(authed[:len(authed):len(authed)], managerMiddleware)...)
	cg.GET("", api.list)
	cg.POST("/:type", api.calculate)
}

func (api *calculatorApi) list(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, calculator.Definitions)
}

func (api *calculatorApi) calculate(ctx echo.Context) error {
	in, err := calculator.NewInput(ctx.Param("type"))
	if err != nil {
		return err
	}
	if err = ctx.Bind(in); err != nil {
		return errors.Wrap(err, "binding calculator input")
	}

	res, err := calculator.Calculate(api.validate, in)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
