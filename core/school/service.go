package school

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyEnrolled = errors.New("student already enrolled in class")
	ErrClassFull       = errors.New("class is full")
)

type Repository interface {
	CreateSubject(ctx context.Context, sub Subject) error
	GetSubjectByID(ctx context.Context, id string) (Subject, error)
	QuerySubjects(ctx context.Context, ordering ...core.DBOrdering) ([]Subject, error)

	CreateTeacher(ctx context.Context, t TeacherProfile) error
	GetTeacherByID(ctx context.Context, id string) (TeacherProfile, error)
	GetTeacherByUserID(ctx context.Context, userID string) (TeacherProfile, error)
	QueryTeachers(ctx context.Context, ordering ...core.DBOrdering) ([]TeacherProfile, error)

	CreateStudent(ctx context.Context, s Student) error
	GetStudentByID(ctx context.Context, id string) (Student, error)
	QueryStudents(ctx context.Context, ordering ...core.DBOrdering) ([]Student, error)

	CreateClass(ctx context.Context, c Class) error
	GetClassByID(ctx context.Context, id string) (Class, error)
	QueryClasses(ctx context.Context, filter ClassFilter, ordering ...core.DBOrdering) ([]Class, error)

	CreateEnrollment(ctx context.Context, e Enrollment) error
	DeleteEnrollment(ctx context.Context, classID, studentID string) error
	QueryClassEnrollments(ctx context.Context, classID string) ([]Enrollment, error)
	QueryStudentEnrollments(ctx context.Context, studentID string) ([]Enrollment, error)
	CountClassStudents(ctx context.Context, classID string) (int, error)
	IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateSubject(ctx context.Context, actor user.User, ns NewSubject) (Subject, error) {
	if !actor.IsAdmin() {
		return Subject{}, core.NewForbiddenError("admin role required")
	}
	if err := ns.Validate(); err != nil {
		return Subject{}, err
	}
	now := time.Now().UTC()
	sub := Subject{
		ID:          uuid.New().String(),
		Name:        ns.Name,
		Code:        ns.Code,
		Description: ns.Description,
		CreatedAt:   now,
	}
	if err := svc.repo.CreateSubject(ctx, sub); err != nil {
		return Subject{}, errors.Wrap(err, "creating subject")
	}
	return sub, nil
}

func (svc *Service) GetSubject(ctx context.Context, id string) (Subject, error) {
	sub, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Subject{}, core.NewNotFoundError("subject not found")
		}
		return Subject{}, errors.Wrapf(err, "getting subject %s", id)
	}
	return sub, nil
}

func (svc *Service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	subs, err := svc.repo.QuerySubjects(ctx, core.DBOrdering{Field: "name", Ascending: true})
	return subs, errors.Wrap(err, "querying subjects")
}

func (svc *Service) CreateTeacher(ctx context.Context, actor user.User, nt NewTeacherProfile) (TeacherProfile, error) {
	if !actor.IsAdmin() {
		return TeacherProfile{}, core.NewForbiddenError("admin role required")
	}
	if err := nt.Validate(); err != nil {
		return TeacherProfile{}, err
	}
	t := TeacherProfile{
		ID:             uuid.New().String(),
		UserID:         nt.UserID,
		EmployeeID:     nt.EmployeeID,
		Department:     nt.Department,
		Specialization: nt.Specialization,
		HireDate:       nt.HireDate,
		CreatedAt:      time.Now().UTC(),
	}
	if err := svc.repo.CreateTeacher(ctx, t); err != nil {
		return TeacherProfile{}, errors.Wrap(err, "creating teacher")
	}
	return t, nil
}

func (svc *Service) GetTeacher(ctx context.Context, id string) (TeacherProfile, error) {
	t, err := svc.repo.GetTeacherByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return TeacherProfile{}, core.NewNotFoundError("teacher not found")
		}
		return TeacherProfile{}, errors.Wrapf(err, "getting teacher %s", id)
	}
	return t, nil
}

func (svc *Service) GetTeacherByUserID(ctx context.Context, userID string) (TeacherProfile, error) {
	t, err := svc.repo.GetTeacherByUserID(ctx, userID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return TeacherProfile{}, core.NewNotFoundError("teacher not found")
		}
		return TeacherProfile{}, errors.Wrapf(err, "getting teacher for user %s", userID)
	}
	return t, nil
}

func (svc *Service) QueryTeachers(ctx context.Context) ([]TeacherProfile, error) {
	ts, err := svc.repo.QueryTeachers(ctx, core.DBOrdering{Field: "employee_id", Ascending: true})
	return ts, errors.Wrap(err, "querying teachers")
}

func (svc *Service) CreateStudent(ctx context.Context, actor user.User, ns NewStudent) (Student, error) {
	if !actor.IsAdmin() {
		return Student{}, core.NewForbiddenError("admin role required")
	}
	if err := ns.Validate(); err != nil {
		return Student{}, err
	}
	s := Student{
		ID:             uuid.New().String(),
		StudentNo:      ns.StudentNo,
		FirstName:      ns.FirstName,
		LastName:       ns.LastName,
		Email:          ns.Email,
		DateOfBirth:    ns.DateOfBirth,
		EnrollmentDate: ns.EnrollmentDate,
		Major:          ns.Major,
		CreatedAt:      time.Now().UTC(),
	}
	if err := svc.repo.CreateStudent(ctx, s); err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}
	return s, nil
}

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	s, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Student{}, core.NewNotFoundError("student not found")
		}
		return Student{}, errors.Wrapf(err, "getting student %s", id)
	}
	return s, nil
}

func (svc *Service) QueryStudents(ctx context.Context) ([]Student, error) {
	ss, err := svc.repo.QueryStudents(ctx, core.DBOrdering{Field: "student_no", Ascending: true})
	return ss, errors.Wrap(err, "querying students")
}

func (svc *Service) CreateClass(ctx context.Context, actor user.User, nc NewClass) (Class, error) {
	if !actor.IsAdmin() {
		return Class{}, core.NewForbiddenError("admin role required")
	}
	if err := nc.Validate(); err != nil {
		return Class{}, err
	}
	if _, err := svc.GetSubject(ctx, nc.SubjectID); err != nil {
		return Class{}, err
	}
	if _, err := svc.GetTeacher(ctx, nc.TeacherID); err != nil {
		return Class{}, err
	}
	c := Class{
		ID:           uuid.New().String(),
		Name:         nc.Name,
		SubjectID:    nc.SubjectID,
		TeacherID:    nc.TeacherID,
		AcademicYear: nc.AcademicYear,
		Semester:     nc.Semester,
		RoomNumber:   nc.RoomNumber,
		Schedule:     nc.Schedule,
		MaxStudents:  nc.MaxStudents,
		CreatedAt:    time.Now().UTC(),
	}
	if err := svc.repo.CreateClass(ctx, c); err != nil {
		return Class{}, errors.Wrap(err, "creating class")
	}
	return c, nil
}

func (svc *Service) GetClass(ctx context.Context, id string) (Class, error) {
	c, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Class{}, core.NewNotFoundError("class not found")
		}
		return Class{}, errors.Wrapf(err, "getting class %s", id)
	}
	return c, nil
}

func (svc *Service) QueryClasses(ctx context.Context, filter ClassFilter) ([]Class, error) {
	cs, err := svc.repo.QueryClasses(ctx, filter, core.DBOrdering{Field: "name", Ascending: true})
	return cs, errors.Wrap(err, "querying classes")
}

// Enroll adds a student to a class, enforcing class capacity and rejecting
// duplicate enrollments.
func (svc *Service) Enroll(ctx context.Context, actor user.User, classID, studentID string) (Enrollment, error) {
	if !actor.IsAdmin() {
		return Enrollment{}, core.NewForbiddenError("admin role required")
	}
	class, err := svc.GetClass(ctx, classID)
	if err != nil {
		return Enrollment{}, err
	}
	if _, err = svc.GetStudent(ctx, studentID); err != nil {
		return Enrollment{}, err
	}
	if class.MaxStudents > 0 {
		count, err := svc.repo.CountClassStudents(ctx, classID)
		if err != nil {
			return Enrollment{}, errors.Wrapf(err, "counting students in class %s", classID)
		}
		if count >= class.MaxStudents {
			return Enrollment{}, core.NewConflictError("class is full")
		}
	}
	e := Enrollment{
		ID:         uuid.New().String(),
		ClassID:    classID,
		StudentID:  studentID,
		EnrolledAt: time.Now().UTC(),
	}
	if err = svc.repo.CreateEnrollment(ctx, e); err != nil {
		if errors.Cause(err) == ErrAlreadyEnrolled {
			return Enrollment{}, core.NewConflictError("student already enrolled in class")
		}
		return Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return e, nil
}

func (svc *Service) Unenroll(ctx context.Context, actor user.User, classID, studentID string) error {
	if !actor.IsAdmin() {
		return core.NewForbiddenError("admin role required")
	}
	if err := svc.repo.DeleteEnrollment(ctx, classID, studentID); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewNotFoundError("enrollment not found")
		}
		return errors.Wrap(err, "deleting enrollment")
	}
	return nil
}

func (svc *Service) QueryClassEnrollments(ctx context.Context, classID string) ([]Enrollment, error) {
	es, err := svc.repo.QueryClassEnrollments(ctx, classID)
	return es, errors.Wrapf(err, "querying enrollments for class %s", classID)
}

func (svc *Service) QueryStudentEnrollments(ctx context.Context, studentID string) ([]Enrollment, error) {
	es, err := svc.repo.QueryStudentEnrollments(ctx, studentID)
	return es, errors.Wrapf(err, "querying enrollments for student %s", studentID)
}

func (svc *Service) IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	ok, err := svc.repo.IsStudentEnrolled(ctx, classID, studentID)
	return ok, errors.Wrap(err, "checking enrollment")
}

func (svc *Service) CountClassStudents(ctx context.Context, classID string) (int, error) {
	count, err := svc.repo.CountClassStudents(ctx, classID)
	return count, errors.Wrapf(err, "counting students in class %s", classID)
}
