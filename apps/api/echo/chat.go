package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gmao/core"
	"github.com/trezcool/gmao/core/chat"
)

type chatApi struct {
	kb       *chat.KnowledgeBase
	validate *validator.Validate
}

func registerChatAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := chatApi{kb: deps.Chat, validate: deps.Validate}

	cg := g.Group("/chat", authed...)
	cg.POST("", api.ask)
	cg.GET("/suggestions", api.intro)
}

func (api *chatApi) ask(ctx echo.Context) error {
	var data chat.Question
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Question")
	}
	data.Message = core.CleanString(data.Message)
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.kb.Ask(data.Message))
}

func (api *chatApi) intro(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.kb.Intro())
}
