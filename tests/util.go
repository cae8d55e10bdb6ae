package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSubject(t *testing.T, repo school.Repository, name, code string) school.Subject {
	t.Helper()

	sub := school.Subject{
		ID:        uuid.New().String(),
		Name:      name,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateSubject(context.Background(), sub); err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func CreateTeacher(t *testing.T, repo school.Repository, userID, employeeID string) school.TeacherProfile {
	t.Helper()

	tchr := school.TeacherProfile{
		ID:         uuid.New().String(),
		UserID:     userID,
		EmployeeID: employeeID,
		Department: "Mathematics",
		HireDate:   time.Now().UTC(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := repo.CreateTeacher(context.Background(), tchr); err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tchr
}

func CreateStudent(t *testing.T, repo school.Repository, studentNo, firstName, lastName, email string) school.Student {
	t.Helper()

	std := school.Student{
		ID:             uuid.New().String(),
		StudentNo:      studentNo,
		FirstName:      firstName,
		LastName:       lastName,
		Email:          email,
		EnrollmentDate: time.Now().UTC(),
		CreatedAt:      time.Now().UTC(),
	}
	if err := repo.CreateStudent(context.Background(), std); err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateClass(t *testing.T, repo school.Repository, name, subjectID, teacherID string, maxStudents int) school.Class {
	t.Helper()

	class := school.Class{
		ID:           uuid.New().String(),
		Name:         name,
		SubjectID:    subjectID,
		TeacherID:    teacherID,
		AcademicYear: "2024-2025",
		Semester:     "FALL",
		MaxStudents:  maxStudents,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateClass(context.Background(), class); err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return class
}

func Enroll(t *testing.T, repo school.Repository, classID, studentID string) school.Enrollment {
	t.Helper()

	e := school.Enrollment{
		ID:         uuid.New().String(),
		ClassID:    classID,
		StudentID:  studentID,
		EnrolledAt: time.Now().UTC(),
	}
	if err := repo.CreateEnrollment(context.Background(), e); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return e
}
