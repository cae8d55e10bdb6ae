package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/analytics"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/notification"
	"github.com/trezcool/mahudhurio/core/report"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
)

type (
	Deps struct {
		DisableReqLogs bool

		Logger          core.Logger
		UserSvc         *user.Service
		SchoolSvc       *school.Service
		SessionSvc      *session.Service
		AttendanceSvc   *attendance.Service
		AnalyticsSvc    *analytics.Service
		ReportSvc       *report.Service
		NotificationSvc *notification.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		addr string
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(addr string, shutdown chan os.Signal, deps *Deps) Server {
	s := &server{
		addr: addr,
		app:  echo.New(),
	}
	s.setup(shutdown, deps)
	return s
}

func (s *server) setup(shutdown chan os.Signal, deps *Deps) {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	signalShutdown := func() { shutdown <- syscall.SIGTERM }
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, deps.UserSvc)
	registerSchoolAPI(v1, jwt, deps.SchoolSvc, deps.UserSvc)
	registerSessionAPI(v1, jwt, deps.SessionSvc, deps.UserSvc)
	registerAttendanceAPI(v1, jwt, deps.AttendanceSvc, deps.UserSvc)
	registerAnalyticsAPI(v1, jwt, deps.AnalyticsSvc, deps.UserSvc)
	registerReportAPI(v1, jwt, deps.ReportSvc, deps.UserSvc)
	registerNotificationAPI(v1, jwt, deps.NotificationSvc)
}

func (s *server) Start() {
	if err := s.app.Start(s.addr); err != nil && err != http.ErrServerClosed {
		s.app.Logger.Fatal(err)
	}
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}
