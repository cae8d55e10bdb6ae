package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/mahudhurio/core/notification"
)

type notificationApi struct {
	svc *notification.Service
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *notification.Service) {
	api := notificationApi{svc: svc}

	ng := g.Group("/notifications", jwt, adminMiddleware())
	ng.GET("", api.query)
	ng.GET("/:id", api.retrieve)
	ng.POST("/trigger-weekly-report", api.triggerWeeklyReports)
	ng.POST("/trigger-low-attendance-alert", api.triggerLowAttendanceAlerts)
}

func (api *notificationApi) query(ctx echo.Context) error {
	notifs, err := api.svc.Query(ctx.Request().Context(), ctx.QueryParam("status"))
	if err != nil {
		return err
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) retrieve(ctx echo.Context) error {
	notif, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, notif)
}

func (api *notificationApi) triggerWeeklyReports(ctx echo.Context) error {
	if err := api.svc.TriggerWeeklyReports(ctx.Request().Context(), time.Now()); err != nil {
		return err
	}
	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "weekly reports queued"})
}

func (api *notificationApi) triggerLowAttendanceAlerts(ctx echo.Context) error {
	if err := api.svc.TriggerLowAttendanceAlerts(ctx.Request().Context(), time.Now()); err != nil {
		return err
	}
	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "low attendance alerts queued"})
}
