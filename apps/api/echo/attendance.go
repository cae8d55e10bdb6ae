package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/user"
)

type attendanceApi struct {
	svc     *attendance.Service
	userSvc *user.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, userSvc *user.Service) {
	api := attendanceApi{svc: svc, userSvc: userSvc}

	ag := g.Group("/attendance", jwt)
	ag.POST("/mark", api.mark, teacherOrAdminMiddleware())
	ag.POST("/bulk-mark", api.bulkMark, teacherOrAdminMiddleware())
	ag.PUT("/:id", api.update, teacherOrAdminMiddleware())
	ag.GET("/session/:id", api.sessionRecords, teacherOrAdminMiddleware())
	ag.GET("/session/:id/stats", api.sessionStats, teacherOrAdminMiddleware())
	ag.GET("/student/:id", api.studentRecords)
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.MarkAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rec, err := api.svc.Mark(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) bulkMark(ctx echo.Context) error {
	var data attendance.BulkMarkAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkMarkAttendance")
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	res, err := api.svc.BulkMark(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *attendanceApi) update(ctx echo.Context) error {
	var data attendance.UpdateAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAttendance")
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rec, err := api.svc.Update(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) sessionRecords(ctx echo.Context) error {
	recs, err := api.svc.SessionAttendance(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) sessionStats(ctx echo.Context) error {
	stats, err := api.svc.SessionStats(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *attendanceApi) studentRecords(ctx echo.Context) error {
	filter := new(attendance.StudentFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to StudentFilter")
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	recs, err := api.svc.StudentAttendance(ctx.Request().Context(), ctxUsr, ctx.Param("id"), *filter)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}
