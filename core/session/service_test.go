package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
	dummydb "github.com/trezcool/mahudhurio/storage/database/dummy"
	testutil "github.com/trezcool/mahudhurio/tests"
)

type fixtures struct {
	svc *session.Service

	admin    user.User
	teacher  user.User
	teacher2 user.User
	student  user.User
	class    school.Class
	class2   school.Class
}

func setup(t *testing.T) fixtures {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	schoolRepo := dummydb.NewSchoolRepository(db)
	schoolSvc := school.NewService(schoolRepo)
	usrSvc := user.NewService(usrRepo)
	svc := session.NewService(dummydb.NewSessionRepository(db), schoolSvc, usrSvc)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "pwd", user.AdminRoles, true)
	tchrUsr := testutil.CreateUser(t, usrRepo, "Teacher One", "teach1", "t1@test.cd", "pwd", user.TeacherRoles, true)
	tchrUsr2 := testutil.CreateUser(t, usrRepo, "Teacher Two", "teach2", "t2@test.cd", "pwd", user.TeacherRoles, true)
	stdUsr := testutil.CreateUser(t, usrRepo, "Student", "student1", "s1@test.cd", "pwd", user.StudentRoles, true)

	sub := testutil.CreateSubject(t, schoolRepo, "Algebra", "MATH101")
	tchr := testutil.CreateTeacher(t, schoolRepo, tchrUsr.ID, "EMP001")
	tchr2 := testutil.CreateTeacher(t, schoolRepo, tchrUsr2.ID, "EMP002")
	class := testutil.CreateClass(t, schoolRepo, "Algebra A", sub.ID, tchr.ID, 0)
	class2 := testutil.CreateClass(t, schoolRepo, "Algebra B", sub.ID, tchr2.ID, 0)

	return fixtures{
		svc:      svc,
		admin:    admin,
		teacher:  tchrUsr,
		teacher2: tchrUsr2,
		student:  stdUsr,
		class:    class,
		class2:   class2,
	}
}

func TestService_Start(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	// students may not start sessions
	if _, err := fx.svc.Start(ctx, fx.student, session.StartSession{ClassID: fx.class.ID}); !core.IsForbidden(err) {
		t.Errorf("Start() error = %v, want ForbiddenError", err)
	}
	// teachers may not start sessions for other teachers' classes
	if _, err := fx.svc.Start(ctx, fx.teacher2, session.StartSession{ClassID: fx.class.ID}); !core.IsForbidden(err) {
		t.Errorf("Start() error = %v, want ForbiddenError", err)
	}

	sess, err := fx.svc.Start(ctx, fx.teacher, session.StartSession{ClassID: fx.class.ID})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if sess.Status != session.StatusActive {
		t.Errorf("Start().Status = %s, want %s", sess.Status, session.StatusActive)
	}
	if sess.SubjectName != "Algebra" || sess.TeacherName != "Teacher One" {
		t.Errorf("Start() snapshot = (%s, %s), want (Algebra, Teacher One)", sess.SubjectName, sess.TeacherName)
	}

	// only one active session per class
	if _, err = fx.svc.Start(ctx, fx.teacher, session.StartSession{ClassID: fx.class.ID}); !core.IsConflict(err) {
		t.Errorf("Start() error = %v, want ConflictError", err)
	}
	// ...another class is unaffected
	if _, err = fx.svc.Start(ctx, fx.admin, session.StartSession{ClassID: fx.class2.ID}); err != nil {
		t.Errorf("Start() failed: %v", err)
	}

	// ending the session frees the class up again
	if _, err = fx.svc.End(ctx, fx.teacher, sess.ID); err != nil {
		t.Fatalf("End() failed: %v", err)
	}
	if _, err = fx.svc.Start(ctx, fx.teacher, session.StartSession{ClassID: fx.class.ID}); err != nil {
		t.Errorf("Start() failed after End(): %v", err)
	}
}

func TestService_Start_concurrent(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	const n = 10
	errs := make(chan error, n)
	ready := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			<-ready
			_, err := fx.svc.Start(ctx, fx.teacher, session.StartSession{ClassID: fx.class.ID})
			errs <- err
		}()
	}
	close(ready)
	wg.Wait()
	close(errs)

	var started, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			started++
		case core.IsConflict(err):
			conflicts++
		default:
			t.Errorf("Start() error = %v, want nil or ConflictError", err)
		}
	}
	if started != 1 || conflicts != n-1 {
		t.Errorf("Start() x%d = %d started, %d conflicts; want 1 and %d", n, started, conflicts, n-1)
	}

	active, err := fx.svc.Active(ctx, fx.admin, session.ActiveFilter{})
	if err != nil {
		t.Fatalf("Active() failed: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("Active() returned %d sessions, want 1", len(active))
	}
}

func TestService_End(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	sess, err := fx.svc.Start(ctx, fx.teacher, session.StartSession{ClassID: fx.class.ID})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if _, err = fx.svc.End(ctx, fx.teacher2, sess.ID); !core.IsForbidden(err) {
		t.Errorf("End() error = %v, want ForbiddenError", err)
	}

	ended, err := fx.svc.End(ctx, fx.teacher, sess.ID)
	if err != nil {
		t.Fatalf("End() failed: %v", err)
	}
	if ended.Status != session.StatusEnded || ended.EndTime == nil {
		t.Errorf("End() = (%s, %v), want ended with an end time", ended.Status, ended.EndTime)
	}

	// double end
	if _, err = fx.svc.End(ctx, fx.admin, sess.ID); !core.IsConflict(err) {
		t.Errorf("End() error = %v, want ConflictError", err)
	}

	// unknown session
	if _, err = fx.svc.End(ctx, fx.admin, "nope"); !core.IsNotFound(err) {
		t.Errorf("End() error = %v, want NotFoundError", err)
	}
}

func TestService_ActiveAndHistory(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	s1, err := fx.svc.Start(ctx, fx.teacher, session.StartSession{ClassID: fx.class.ID})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if _, err = fx.svc.Start(ctx, fx.teacher2, session.StartSession{ClassID: fx.class2.ID}); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// admin sees all
	active, err := fx.svc.Active(ctx, fx.admin, session.ActiveFilter{})
	if err != nil {
		t.Fatalf("Active() failed: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("Active() returned %d sessions, want 2", len(active))
	}

	// teachers are scoped to their own classes
	active, err = fx.svc.Active(ctx, fx.teacher, session.ActiveFilter{})
	if err != nil {
		t.Fatalf("Active() failed: %v", err)
	}
	if len(active) != 1 || active[0].ClassID != fx.class.ID {
		t.Errorf("Active() = %+v, want only class %s", active, fx.class.ID)
	}

	if _, err = fx.svc.End(ctx, fx.teacher, s1.ID); err != nil {
		t.Fatalf("End() failed: %v", err)
	}

	hist, err := fx.svc.History(ctx, fx.teacher, session.HistoryFilter{})
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(hist) != 1 {
		t.Errorf("History() returned %d sessions, want 1", len(hist))
	}
}

func TestService_AdminDelete(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	sess, err := fx.svc.Start(ctx, fx.teacher, session.StartSession{ClassID: fx.class.ID})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if err = fx.svc.AdminDelete(ctx, fx.teacher, sess.ID); !core.IsForbidden(err) {
		t.Errorf("AdminDelete() error = %v, want ForbiddenError", err)
	}
	if err = fx.svc.AdminDelete(ctx, fx.admin, sess.ID); err != nil {
		t.Fatalf("AdminDelete() failed: %v", err)
	}
	if _, err = fx.svc.GetByID(ctx, sess.ID); !core.IsNotFound(err) {
		t.Errorf("GetByID() error = %v, want NotFoundError", err)
	}
}
