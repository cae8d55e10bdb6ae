package school_test

import (
	"context"
	"testing"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
	dummydb "github.com/trezcool/mahudhurio/storage/database/dummy"
	testutil "github.com/trezcool/mahudhurio/tests"
)

var (
	admin   = user.User{ID: "admin-id", Email: "admin@test.cd", Roles: user.AdminRoles}
	student = user.User{ID: "std-id", Email: "std@test.cd", Roles: user.StudentRoles}
)

func setup(t *testing.T) (school.Repository, *school.Service) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewSchoolRepository(db)
	return repo, school.NewService(repo)
}

func TestService_CreateSubject(t *testing.T) {
	_, svc := setup(t)
	ctx := context.Background()

	if _, err := svc.CreateSubject(ctx, student, school.NewSubject{Name: "Algebra", Code: "MATH101"}); !core.IsForbidden(err) {
		t.Errorf("CreateSubject() error = %v, want ForbiddenError", err)
	}

	sub, err := svc.CreateSubject(ctx, admin, school.NewSubject{Name: "Algebra", Code: "MATH101"})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	got, err := svc.GetSubject(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetSubject() failed: %v", err)
	}
	if got.Code != "MATH101" {
		t.Errorf("GetSubject().Code = %s, want MATH101", got.Code)
	}
}

func TestService_Enroll(t *testing.T) {
	repo, svc := setup(t)
	ctx := context.Background()

	sub := testutil.CreateSubject(t, repo, "Algebra", "MATH101")
	tchr := testutil.CreateTeacher(t, repo, "tchr-usr-id", "EMP001")
	class := testutil.CreateClass(t, repo, "Algebra A", sub.ID, tchr.ID, 2)
	std1 := testutil.CreateStudent(t, repo, "S001", "Jane", "Doe", "jane@test.cd")
	std2 := testutil.CreateStudent(t, repo, "S002", "John", "Doe", "john@test.cd")
	std3 := testutil.CreateStudent(t, repo, "S003", "Jim", "Doe", "jim@test.cd")

	// students cannot enroll themselves
	if _, err := svc.Enroll(ctx, student, class.ID, std1.ID); !core.IsForbidden(err) {
		t.Errorf("Enroll() error = %v, want ForbiddenError", err)
	}

	if _, err := svc.Enroll(ctx, admin, class.ID, std1.ID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}

	// re-enrolling is rejected
	if _, err := svc.Enroll(ctx, admin, class.ID, std1.ID); !core.IsConflict(err) {
		t.Errorf("Enroll() error = %v, want ConflictError", err)
	}

	// capacity is enforced
	if _, err := svc.Enroll(ctx, admin, class.ID, std2.ID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	if _, err := svc.Enroll(ctx, admin, class.ID, std3.ID); !core.IsConflict(err) {
		t.Errorf("Enroll() error = %v, want ConflictError (class full)", err)
	}

	enrolled, err := svc.IsStudentEnrolled(ctx, class.ID, std1.ID)
	if err != nil {
		t.Fatalf("IsStudentEnrolled() failed: %v", err)
	}
	if !enrolled {
		t.Error("IsStudentEnrolled() = false, want true")
	}

	// unknown class / student
	if _, err := svc.Enroll(ctx, admin, "nope", std1.ID); !core.IsNotFound(err) {
		t.Errorf("Enroll() error = %v, want NotFoundError", err)
	}
	if _, err := svc.Enroll(ctx, admin, class.ID, "nope"); !core.IsNotFound(err) {
		t.Errorf("Enroll() error = %v, want NotFoundError", err)
	}
}

func TestService_Unenroll(t *testing.T) {
	repo, svc := setup(t)
	ctx := context.Background()

	sub := testutil.CreateSubject(t, repo, "Algebra", "MATH101")
	tchr := testutil.CreateTeacher(t, repo, "tchr-usr-id", "EMP001")
	class := testutil.CreateClass(t, repo, "Algebra A", sub.ID, tchr.ID, 0)
	std := testutil.CreateStudent(t, repo, "S001", "Jane", "Doe", "jane@test.cd")
	testutil.Enroll(t, repo, class.ID, std.ID)

	if err := svc.Unenroll(ctx, student, class.ID, std.ID); !core.IsForbidden(err) {
		t.Errorf("Unenroll() error = %v, want ForbiddenError", err)
	}
	if err := svc.Unenroll(ctx, admin, class.ID, std.ID); err != nil {
		t.Fatalf("Unenroll() failed: %v", err)
	}
	if err := svc.Unenroll(ctx, admin, class.ID, std.ID); !core.IsNotFound(err) {
		t.Errorf("Unenroll() error = %v, want NotFoundError", err)
	}
}

func TestService_CreateClass(t *testing.T) {
	repo, svc := setup(t)
	ctx := context.Background()

	sub := testutil.CreateSubject(t, repo, "Algebra", "MATH101")
	tchr := testutil.CreateTeacher(t, repo, "tchr-usr-id", "EMP001")

	nc := school.NewClass{
		Name:         "Algebra A",
		SubjectID:    sub.ID,
		TeacherID:    tchr.ID,
		AcademicYear: "2024-2025",
		Semester:     "FALL",
	}

	class, err := svc.CreateClass(ctx, admin, nc)
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	if class.MaxStudents != 0 {
		t.Errorf("CreateClass().MaxStudents = %d, want 0 (unlimited)", class.MaxStudents)
	}

	// unknown refs are rejected
	bad := nc
	bad.SubjectID = "nope"
	if _, err = svc.CreateClass(ctx, admin, bad); !core.IsNotFound(err) {
		t.Errorf("CreateClass() error = %v, want NotFoundError", err)
	}
	bad = nc
	bad.TeacherID = "nope"
	if _, err = svc.CreateClass(ctx, admin, bad); !core.IsNotFound(err) {
		t.Errorf("CreateClass() error = %v, want NotFoundError", err)
	}

	// semester is constrained
	bad = nc
	bad.Semester = "AUTUMN"
	if _, err = svc.CreateClass(ctx, admin, bad); err == nil {
		t.Error("CreateClass() expected validation error, got nil")
	}
}
