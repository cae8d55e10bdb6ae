package echoapi

import (
	"net/http"
	"net/mail"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/report"
	"github.com/trezcool/mahudhurio/core/user"
)

type reportApi struct {
	svc     *report.Service
	userSvc *user.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *report.Service, userSvc *user.Service) {
	api := reportApi{svc: svc, userSvc: userSvc}

	rg := g.Group("/reports", jwt)
	rg.POST("/generate", api.generate)
	rg.GET("", api.query)
	rg.GET("/:id", api.retrieve)
	rg.GET("/:id/download", api.download)
	rg.POST("/:id/email", api.email)
}

func (api *reportApi) generate(ctx echo.Context) error {
	var data report.NewReport
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReport")
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rep, err := api.svc.Generate(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rep)
}

func (api *reportApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reps, err := api.svc.Query(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return err
	}
	if reps == nil {
		reps = []report.Report{}
	}
	return ctx.JSON(http.StatusOK, reps)
}

func (api *reportApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rep, err := api.svc.GetByID(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportApi) download(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rep, err := api.svc.Download(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.Attachment(rep.FilePath, filepath.Base(rep.FilePath))
}

func (api *reportApi) email(ctx echo.Context) error {
	var data EmailReportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailReportRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	recipient := mail.Address{Name: data.Name, Address: data.Email}
	if err = api.svc.EmailReport(ctx.Request().Context(), ctxUsr, ctx.Param("id"), recipient); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "report sent to " + data.Email})
}
