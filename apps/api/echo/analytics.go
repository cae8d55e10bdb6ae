package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/analytics"
	"github.com/trezcool/mahudhurio/core/user"
)

type analyticsApi struct {
	svc     *analytics.Service
	userSvc *user.Service
}

func registerAnalyticsAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *analytics.Service, userSvc *user.Service) {
	api := analyticsApi{svc: svc, userSvc: userSvc}

	ag := g.Group("/analytics", jwt)
	ag.GET("/student/:id", api.studentStats)
	ag.GET("/class/:id", api.classOverview, teacherOrAdminMiddleware())
}

func (api *analyticsApi) studentStats(ctx echo.Context) error {
	filter := new(analytics.Filter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	stats, err := api.svc.StudentStats(ctx.Request().Context(), ctxUsr, ctx.Param("id"), *filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *analyticsApi) classOverview(ctx echo.Context) error {
	filter := new(analytics.Filter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	overview, err := api.svc.ClassOverview(ctx.Request().Context(), ctxUsr, ctx.Param("id"), *filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, overview)
}
