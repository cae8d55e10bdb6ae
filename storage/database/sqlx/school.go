package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
)

type subjectRow struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	Code        string      `db:"code"`
	Description null.String `db:"description"`
	CreatedAt   null.Time   `db:"created_at"`
}

func (row subjectRow) subject() school.Subject {
	return school.Subject{
		ID:          row.ID,
		Name:        row.Name,
		Code:        row.Code,
		Description: row.Description.String,
		CreatedAt:   row.CreatedAt.Time,
	}
}

type teacherRow struct {
	ID             string      `db:"id"`
	UserID         string      `db:"user_id"`
	EmployeeID     string      `db:"employee_id"`
	Department     string      `db:"department"`
	Specialization null.String `db:"specialization"`
	HireDate       time.Time   `db:"hire_date"`
	CreatedAt      null.Time   `db:"created_at"`
}

func (row teacherRow) teacher() school.TeacherProfile {
	return school.TeacherProfile{
		ID:             row.ID,
		UserID:         row.UserID,
		EmployeeID:     row.EmployeeID,
		Department:     row.Department,
		Specialization: row.Specialization.String,
		HireDate:       row.HireDate,
		CreatedAt:      row.CreatedAt.Time,
	}
}

type studentRow struct {
	ID             string      `db:"id"`
	StudentNo      string      `db:"student_no"`
	FirstName      string      `db:"first_name"`
	LastName       string      `db:"last_name"`
	Email          string      `db:"email"`
	DateOfBirth    null.Time   `db:"date_of_birth"`
	EnrollmentDate time.Time   `db:"enrollment_date"`
	Major          null.String `db:"major"`
	CreatedAt      null.Time   `db:"created_at"`
}

func (row studentRow) student() school.Student {
	return school.Student{
		ID:             row.ID,
		StudentNo:      row.StudentNo,
		FirstName:      row.FirstName,
		LastName:       row.LastName,
		Email:          row.Email,
		DateOfBirth:    row.DateOfBirth.Ptr(),
		EnrollmentDate: row.EnrollmentDate,
		Major:          row.Major.String,
		CreatedAt:      row.CreatedAt.Time,
	}
}

type classRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	SubjectID    string      `db:"subject_id"`
	TeacherID    string      `db:"teacher_id"`
	AcademicYear string      `db:"academic_year"`
	Semester     string      `db:"semester"`
	RoomNumber   null.String `db:"room_number"`
	Schedule     null.String `db:"schedule"`
	MaxStudents  int         `db:"max_students"`
	CreatedAt    null.Time   `db:"created_at"`
}

func (row classRow) class() school.Class {
	return school.Class{
		ID:           row.ID,
		Name:         row.Name,
		SubjectID:    row.SubjectID,
		TeacherID:    row.TeacherID,
		AcademicYear: row.AcademicYear,
		Semester:     row.Semester,
		RoomNumber:   row.RoomNumber.String,
		Schedule:     row.Schedule.String,
		MaxStudents:  row.MaxStudents,
		CreatedAt:    row.CreatedAt.Time,
	}
}

type enrollmentRow struct {
	ID         string    `db:"id"`
	ClassID    string    `db:"class_id"`
	StudentID  string    `db:"student_id"`
	EnrolledAt null.Time `db:"enrolled_at"`
}

func (row enrollmentRow) enrollment() school.Enrollment {
	return school.Enrollment{
		ID:         row.ID,
		ClassID:    row.ClassID,
		StudentID:  row.StudentID,
		EnrolledAt: row.EnrolledAt.Time,
	}
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSubject(ctx context.Context, sub school.Subject) error {
	q := `
INSERT INTO subject (id, name, code, description, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, q, sub.ID, sub.Name, sub.Code,
		null.NewString(sub.Description, sub.Description != ""), sub.CreatedAt)
	return errors.Wrap(err, "inserting subject")
}

func (repo *schoolRepository) GetSubjectByID(ctx context.Context, id string) (school.Subject, error) {
	var row subjectRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM subject WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.Subject{}, school.ErrNotFound
		}
		return school.Subject{}, errors.Wrap(err, "getting subject")
	}
	return row.subject(), nil
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context, ordering ...core.DBOrdering) ([]school.Subject, error) {
	var rows []subjectRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM subject`+orderBy(ordering)); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subs := make([]school.Subject, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.subject())
	}
	return subs, nil
}

func (repo *schoolRepository) CreateTeacher(ctx context.Context, t school.TeacherProfile) error {
	q := `
INSERT INTO teacher (id, user_id, employee_id, department, specialization, hire_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q, t.ID, t.UserID, t.EmployeeID, t.Department,
		null.NewString(t.Specialization, t.Specialization != ""), t.HireDate, t.CreatedAt)
	return errors.Wrap(err, "inserting teacher")
}

func (repo *schoolRepository) GetTeacherByID(ctx context.Context, id string) (school.TeacherProfile, error) {
	var row teacherRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM teacher WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.TeacherProfile{}, school.ErrNotFound
		}
		return school.TeacherProfile{}, errors.Wrap(err, "getting teacher")
	}
	return row.teacher(), nil
}

func (repo *schoolRepository) GetTeacherByUserID(ctx context.Context, userID string) (school.TeacherProfile, error) {
	var row teacherRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM teacher WHERE user_id = $1`, userID); err != nil {
		if err == sql.ErrNoRows {
			return school.TeacherProfile{}, school.ErrNotFound
		}
		return school.TeacherProfile{}, errors.Wrap(err, "getting teacher")
	}
	return row.teacher(), nil
}

func (repo *schoolRepository) QueryTeachers(ctx context.Context, ordering ...core.DBOrdering) ([]school.TeacherProfile, error) {
	var rows []teacherRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM teacher`+orderBy(ordering)); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	ts := make([]school.TeacherProfile, 0, len(rows))
	for _, row := range rows {
		ts = append(ts, row.teacher())
	}
	return ts, nil
}

func (repo *schoolRepository) CreateStudent(ctx context.Context, s school.Student) error {
	q := `
INSERT INTO student (id, student_no, first_name, last_name, email, date_of_birth, enrollment_date, major, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, q, s.ID, s.StudentNo, s.FirstName, s.LastName, s.Email,
		null.TimeFromPtr(s.DateOfBirth), s.EnrollmentDate, null.NewString(s.Major, s.Major != ""), s.CreatedAt)
	return errors.Wrap(err, "inserting student")
}

func (repo *schoolRepository) GetStudentByID(ctx context.Context, id string) (school.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM student WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.Student{}, school.ErrNotFound
		}
		return school.Student{}, errors.Wrap(err, "getting student")
	}
	return row.student(), nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, ordering ...core.DBOrdering) ([]school.Student, error) {
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM student`+orderBy(ordering)); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	ss := make([]school.Student, 0, len(rows))
	for _, row := range rows {
		ss = append(ss, row.student())
	}
	return ss, nil
}

func (repo *schoolRepository) CreateClass(ctx context.Context, c school.Class) error {
	q := `
INSERT INTO class (id, name, subject_id, teacher_id, academic_year, semester, room_number, schedule, max_students, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, q, c.ID, c.Name, c.SubjectID, c.TeacherID, c.AcademicYear, c.Semester,
		null.NewString(c.RoomNumber, c.RoomNumber != ""), null.NewString(c.Schedule, c.Schedule != ""),
		c.MaxStudents, c.CreatedAt)
	return errors.Wrap(err, "inserting class")
}

func (repo *schoolRepository) GetClassByID(ctx context.Context, id string) (school.Class, error) {
	var row classRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM class WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.Class{}, school.ErrNotFound
		}
		return school.Class{}, errors.Wrap(err, "getting class")
	}
	return row.class(), nil
}

func (repo *schoolRepository) QueryClasses(ctx context.Context, filter school.ClassFilter, ordering ...core.DBOrdering) ([]school.Class, error) {
	q := `SELECT * FROM class`
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}

	if filter.SubjectID != "" {
		conds = append(conds, "subject_id = "+arg(filter.SubjectID))
	}
	if filter.TeacherID != "" {
		conds = append(conds, "teacher_id = "+arg(filter.TeacherID))
	}
	if filter.AcademicYear != "" {
		conds = append(conds, "academic_year = "+arg(filter.AcademicYear))
	}
	if filter.Semester != "" {
		conds = append(conds, "semester = "+arg(filter.Semester))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering)

	var rows []classRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	cs := make([]school.Class, 0, len(rows))
	for _, row := range rows {
		cs = append(cs, row.class())
	}
	return cs, nil
}

func (repo *schoolRepository) CreateEnrollment(ctx context.Context, e school.Enrollment) error {
	q := `
INSERT INTO enrollment (id, class_id, student_id, enrolled_at)
VALUES ($1, $2, $3, $4)`
	if _, err := repo.db.ExecContext(ctx, q, e.ID, e.ClassID, e.StudentID, e.EnrolledAt); err != nil {
		if violatesUnique(errors.Cause(err), "enrollment_class_id_student_id_key") {
			return school.ErrAlreadyEnrolled
		}
		return errors.Wrap(err, "inserting enrollment")
	}
	return nil
}

func (repo *schoolRepository) DeleteEnrollment(ctx context.Context, classID, studentID string) error {
	q := `DELETE FROM enrollment WHERE class_id = $1 AND student_id = $2`
	res, err := repo.db.ExecContext(ctx, q, classID, studentID)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.ErrNotFound
	}
	return nil
}

func (repo *schoolRepository) QueryClassEnrollments(ctx context.Context, classID string) ([]school.Enrollment, error) {
	var rows []enrollmentRow
	q := `SELECT * FROM enrollment WHERE class_id = $1 ORDER BY enrolled_at ASC`
	if err := repo.db.SelectContext(ctx, &rows, q, classID); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	es := make([]school.Enrollment, 0, len(rows))
	for _, row := range rows {
		es = append(es, row.enrollment())
	}
	return es, nil
}

func (repo *schoolRepository) QueryStudentEnrollments(ctx context.Context, studentID string) ([]school.Enrollment, error) {
	var rows []enrollmentRow
	q := `SELECT * FROM enrollment WHERE student_id = $1 ORDER BY enrolled_at ASC`
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	es := make([]school.Enrollment, 0, len(rows))
	for _, row := range rows {
		es = append(es, row.enrollment())
	}
	return es, nil
}

func (repo *schoolRepository) CountClassStudents(ctx context.Context, classID string) (int, error) {
	var count int
	q := `SELECT COUNT(*) FROM enrollment WHERE class_id = $1`
	if err := repo.db.GetContext(ctx, &count, q, classID); err != nil {
		return 0, errors.Wrap(err, "counting class students")
	}
	return count, nil
}

func (repo *schoolRepository) IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM enrollment WHERE class_id = $1 AND student_id = $2)`
	if err := repo.db.GetContext(ctx, &exists, q, classID, studentID); err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return exists, nil
}
