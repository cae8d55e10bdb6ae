package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
)

type sessionApi struct {
	svc     *session.Service
	userSvc *user.Service
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *session.Service, userSvc *user.Service) {
	api := sessionApi{svc: svc, userSvc: userSvc}

	sg := g.Group("/sessions", jwt)
	sg.POST("/start", api.start, teacherOrAdminMiddleware())
	sg.GET("/active", api.active)
	sg.GET("/history", api.history)
	sg.GET("/:id", api.retrieve)
	sg.POST("/:id/end", api.end, teacherOrAdminMiddleware())
	sg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *sessionApi) start(ctx echo.Context) error {
	var data session.StartSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartSession")
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sess, err := api.svc.Start(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *sessionApi) end(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sess, err := api.svc.End(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	sess, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) active(ctx echo.Context) error {
	filter := new(session.ActiveFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []session.Session{})
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sessions, err := api.svc.Active(ctx.Request().Context(), ctxUsr, *filter)
	if err != nil {
		return err
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *sessionApi) history(ctx echo.Context) error {
	filter := new(session.HistoryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []session.Session{})
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sessions, err := api.svc.History(ctx.Request().Context(), ctxUsr, *filter)
	if err != nil {
		return err
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *sessionApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.AdminDelete(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
