package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/analytics"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/notification"
	"github.com/trezcool/mahudhurio/core/report"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/storage/database"
	sqlxrepos "github.com/trezcool/mahudhurio/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, fmt.Sprintf("%s API : ", core.Conf.AppName), log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var logger core.Logger
	if core.Conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	} else {
		logger = core.NewStdLogger(std)
	}
	logger.Enable(!core.Conf.TestMode)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(std, err)
	defer db.Close()
	errAndDie(std, database.Migrate(db))

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db))
	schoolSvc := school.NewService(sqlxrepos.NewSchoolRepository(db))
	sessionSvc := session.NewService(sqlxrepos.NewSessionRepository(db), schoolSvc, usrSvc)
	attRepo := sqlxrepos.NewAttendanceRepository(db)
	attSvc := attendance.NewService(attRepo, sessionSvc, schoolSvc)
	analyticsSvc := analytics.NewService(attRepo, schoolSvc)
	reportSvc := report.NewService(
		sqlxrepos.NewReportRepository(db), attRepo, schoolSvc, sessionSvc, usrSvc, mailSvc, core.Conf.ReportsDir)
	notifSvc := notification.NewService(
		sqlxrepos.NewNotificationRepository(db), mailSvc, logger, schoolSvc, attRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifSvc.Start(ctx)

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	addr := fmt.Sprintf("%s:%d", core.Conf.Server.Host, core.Conf.Server.Port)
	app := echoapi.NewServer(addr, shutdown, &echoapi.Deps{
		Logger:          logger,
		UserSvc:         usrSvc,
		SchoolSvc:       schoolSvc,
		SessionSvc:      sessionSvc,
		AttendanceSvc:   attSvc,
		AnalyticsSvc:    analyticsSvc,
		ReportSvc:       reportSvc,
		NotificationSvc: notifSvc,
	})
	go app.Start()

	sig := <-shutdown
	std.Printf("shutting down: %v", sig)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		std.Printf("stopping server: %v", err)
	}
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
