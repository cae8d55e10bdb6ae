package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
)

type schoolApi struct {
	svc     *school.Service
	userSvc *user.Service
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *school.Service, userSvc *user.Service) {
	api := schoolApi{svc: svc, userSvc: userSvc}

	sg := g.Group("/subjects", jwt)
	sg.POST("", api.createSubject, adminMiddleware())
	sg.GET("", api.querySubjects)
	sg.GET("/:id", api.retrieveSubject)

	tg := g.Group("/teachers", jwt)
	tg.POST("", api.createTeacher, adminMiddleware())
	tg.GET("", api.queryTeachers)
	tg.GET("/:id", api.retrieveTeacher)

	stg := g.Group("/students", jwt)
	stg.POST("", api.createStudent, adminMiddleware())
	stg.GET("", api.queryStudents, teacherOrAdminMiddleware())
	stg.GET("/:id", api.retrieveStudent)

	cg := g.Group("/classes", jwt)
	cg.POST("", api.createClass, adminMiddleware())
	cg.GET("", api.queryClasses)
	cg.GET("/:id", api.retrieveClass)
	cg.GET("/:id/enrollments", api.queryClassEnrollments, teacherOrAdminMiddleware())
	cg.POST("/:id/enrollments", api.enroll, adminMiddleware())
	cg.DELETE("/:id/enrollments/:studentID", api.unenroll, adminMiddleware())
}

func (api *schoolApi) createSubject(ctx echo.Context) error {
	var data school.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, err := api.svc.CreateSubject(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *schoolApi) querySubjects(ctx echo.Context) error {
	subs, err := api.svc.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subs == nil {
		subs = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *schoolApi) retrieveSubject(ctx echo.Context) error {
	sub, err := api.svc.GetSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *schoolApi) createTeacher(ctx echo.Context) error {
	var data school.NewTeacherProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacherProfile")
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	tchr, err := api.svc.CreateTeacher(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tchr)
}

func (api *schoolApi) queryTeachers(ctx echo.Context) error {
	tchrs, err := api.svc.QueryTeachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if tchrs == nil {
		tchrs = []school.TeacherProfile{}
	}
	return ctx.JSON(http.StatusOK, tchrs)
}

func (api *schoolApi) retrieveTeacher(ctx echo.Context) error {
	tchr, err := api.svc.GetTeacher(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tchr)
}

func (api *schoolApi) createStudent(ctx echo.Context) error {
	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	std, err := api.svc.CreateStudent(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *schoolApi) queryStudents(ctx echo.Context) error {
	stds, err := api.svc.QueryStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if stds == nil {
		stds = []school.Student{}
	}
	return ctx.JSON(http.StatusOK, stds)
}

func (api *schoolApi) retrieveStudent(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	std, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	// students can only see their own profile
	if ctxUsr.IsStudent() && !ctxUsr.IsAdmin() && !ctxUsr.IsTeacher() && std.Email != ctxUsr.Email {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *schoolApi) createClass(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	class, err := api.svc.CreateClass(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, class)
}

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	filter := new(school.ClassFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Class{})
	}
	classes, err := api.svc.QueryClasses(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) retrieveClass(ctx echo.Context) error {
	class, err := api.svc.GetClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *schoolApi) queryClassEnrollments(ctx echo.Context) error {
	enrs, err := api.svc.QueryClassEnrollments(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying class enrollments")
	}
	if enrs == nil {
		enrs = []school.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *schoolApi) enroll(ctx echo.Context) error {
	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	enr, err := api.svc.Enroll(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data.StudentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *schoolApi) unenroll(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Unenroll(ctx.Request().Context(), ctxUsr, ctx.Param("id"), ctx.Param("studentID")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
