package school

import (
	"strings"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// Semesters
const (
	SemesterFall   = "FALL"
	SemesterSpring = "SPRING"
	SemesterSummer = "SUMMER"
	SemesterWinter = "WINTER"
)

type Subject struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// TeacherProfile extends a User account with teacher-specific information.
type TeacherProfile struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	EmployeeID     string    `json:"employee_id"`
	Department     string    `json:"department"`
	Specialization string    `json:"specialization,omitempty"`
	HireDate       time.Time `json:"hire_date"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// Student may or may not have a User account; attendance is keyed on the
// Student record, notifications on its email.
type Student struct {
	ID             string     `json:"id"`
	StudentNo      string     `json:"student_no"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	EnrollmentDate time.Time  `json:"enrollment_date"`
	Major          string     `json:"major,omitempty"`
	CreatedAt      time.Time  `json:"created_at"` // UTC
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Class represents a specific class offering, e.g. "Math 101 - Fall 2024 - Room 301".
type Class struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SubjectID    string    `json:"subject_id"`
	TeacherID    string    `json:"teacher_id"`
	AcademicYear string    `json:"academic_year"` // e.g. "2024-2025"
	Semester     string    `json:"semester"`
	RoomNumber   string    `json:"room_number,omitempty"`
	Schedule     string    `json:"schedule,omitempty"` // e.g. "MWF 10:00-11:00"
	MaxStudents  int       `json:"max_students"`       // 0 = unlimited
	CreatedAt    time.Time `json:"created_at"`         // UTC
}

// Enrollment asserts a Student belongs to a Class; unique per (class, student).
type Enrollment struct {
	ID         string    `json:"id"`
	ClassID    string    `json:"class_id"`
	StudentID  string    `json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
}

type NewSubject struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
}

func (ns *NewSubject) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)
	return core.Validate.Struct(ns)
}

type NewTeacherProfile struct {
	UserID         string    `json:"user_id" validate:"required"`
	EmployeeID     string    `json:"employee_id" validate:"required"`
	Department     string    `json:"department" validate:"required"`
	Specialization string    `json:"specialization"`
	HireDate       time.Time `json:"hire_date" validate:"required"`
}

func (nt *NewTeacherProfile) Validate() error {
	nt.EmployeeID = core.CleanString(nt.EmployeeID)
	nt.Department = core.CleanString(nt.Department)
	return core.Validate.Struct(nt)
}

type NewStudent struct {
	StudentNo      string     `json:"student_no" validate:"required"`
	FirstName      string     `json:"first_name" validate:"required"`
	LastName       string     `json:"last_name" validate:"required"`
	Email          string     `json:"email" validate:"required,email"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	EnrollmentDate time.Time  `json:"enrollment_date" validate:"required"`
	Major          string     `json:"major"`
}

func (ns *NewStudent) Validate() error {
	ns.StudentNo = core.CleanString(ns.StudentNo)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return core.Validate.Struct(ns)
}

type NewClass struct {
	Name         string `json:"name" validate:"required"`
	SubjectID    string `json:"subject_id" validate:"required"`
	TeacherID    string `json:"teacher_id" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	Semester     string `json:"semester" validate:"required,oneof=FALL SPRING SUMMER WINTER"`
	RoomNumber   string `json:"room_number"`
	Schedule     string `json:"schedule"`
	MaxStudents  int    `json:"max_students" validate:"omitempty,min=1"`
}

func (nc *NewClass) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.AcademicYear = core.CleanString(nc.AcademicYear)
	return core.Validate.Struct(nc)
}

type ClassFilter struct {
	SubjectID    string `query:"subject_id"`
	TeacherID    string `query:"teacher_id"`
	AcademicYear string `query:"academic_year"`
	Semester     string `query:"semester"`
}
