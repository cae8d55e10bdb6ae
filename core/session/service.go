package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
)

var (
	ErrNotFound            = errors.New("session not found")
	ErrActiveSessionExists = errors.New("class already has an active session")
	ErrAlreadyEnded        = errors.New("session already ended")
)

type Repository interface {
	CreateSession(ctx context.Context, sess Session) error
	GetSessionByID(ctx context.Context, id string) (Session, error)
	QueryActiveSessions(ctx context.Context, filter ActiveFilter) ([]Session, error)
	QuerySessionHistory(ctx context.Context, filter HistoryFilter, ordering ...core.DBOrdering) ([]Session, error)
	// EndSession transitions an ACTIVE session to ENDED; returns
	// ErrAlreadyEnded if the session is no longer active.
	EndSession(ctx context.Context, id string, endTime time.Time) error
	DeleteSession(ctx context.Context, id string) error
}

// ClassDirectory is the slice of the school registry sessions depend on.
type ClassDirectory interface {
	GetClass(ctx context.Context, id string) (school.Class, error)
	GetSubject(ctx context.Context, id string) (school.Subject, error)
	GetTeacher(ctx context.Context, id string) (school.TeacherProfile, error)
	GetTeacherByUserID(ctx context.Context, userID string) (school.TeacherProfile, error)
}

// UserDirectory resolves user accounts for teacher name snapshots.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type Service struct {
	repo     Repository
	registry ClassDirectory
	users    UserDirectory
}

func NewService(repo Repository, registry ClassDirectory, users UserDirectory) *Service {
	return &Service{repo: repo, registry: registry, users: users}
}

// canManage reports whether the actor may start/end sessions for the class:
// admins always, teachers only for their own classes.
func (svc *Service) canManage(ctx context.Context, actor user.User, class school.Class) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	if !actor.IsTeacher() {
		return false, nil
	}
	t, err := svc.registry.GetTeacher(ctx, class.TeacherID)
	if err != nil {
		return false, err
	}
	return t.UserID == actor.ID, nil
}

// Start opens a new ACTIVE session for the class, snapshotting subject and
// teacher details. At most one active session may exist per class; attempting
// a second returns a conflict.
func (svc *Service) Start(ctx context.Context, actor user.User, ss StartSession) (Session, error) {
	if err := ss.Validate(); err != nil {
		return Session{}, err
	}
	class, err := svc.registry.GetClass(ctx, ss.ClassID)
	if err != nil {
		return Session{}, err
	}
	if ok, err := svc.canManage(ctx, actor, class); err != nil {
		return Session{}, err
	} else if !ok {
		return Session{}, core.NewForbiddenError("only the class teacher or an admin may start a session")
	}

	sub, err := svc.registry.GetSubject(ctx, class.SubjectID)
	if err != nil {
		return Session{}, err
	}
	teacher, err := svc.registry.GetTeacher(ctx, class.TeacherID)
	if err != nil {
		return Session{}, err
	}
	tUsr, err := svc.users.GetByID(ctx, teacher.UserID)
	if err != nil {
		return Session{}, errors.Wrapf(err, "getting teacher user %s", teacher.UserID)
	}

	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.New().String(),
		ClassID:   class.ID,
		ClassName: class.Name,
		Snapshot: Snapshot{
			SubjectID:     sub.ID,
			SubjectName:   sub.Name,
			TeacherID:     teacher.ID,
			TeacherUserID: teacher.UserID,
			TeacherName:   tUsr.Name,
		},
		StartTime: now,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = svc.repo.CreateSession(ctx, sess); err != nil {
		if errors.Cause(err) == ErrActiveSessionExists {
			return Session{}, core.NewConflictError("class already has an active session")
		}
		return Session{}, errors.Wrap(err, "creating session")
	}
	return sess, nil
}

// End closes an ACTIVE session; attendance for it becomes read-only. Ending
// an already ended session returns a conflict.
func (svc *Service) End(ctx context.Context, actor user.User, id string) (Session, error) {
	sess, err := svc.GetByID(ctx, id)
	if err != nil {
		return Session{}, err
	}
	class, err := svc.registry.GetClass(ctx, sess.ClassID)
	if err != nil {
		return Session{}, err
	}
	if ok, err := svc.canManage(ctx, actor, class); err != nil {
		return Session{}, err
	} else if !ok {
		return Session{}, core.NewForbiddenError("only the class teacher or an admin may end a session")
	}

	endTime := time.Now().UTC()
	if err = svc.repo.EndSession(ctx, id, endTime); err != nil {
		if errors.Cause(err) == ErrAlreadyEnded {
			return Session{}, core.NewConflictError("session already ended")
		}
		return Session{}, errors.Wrapf(err, "ending session %s", id)
	}
	sess.EndTime = &endTime
	sess.Status = StatusEnded
	sess.UpdatedAt = endTime
	return sess, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Session, error) {
	sess, err := svc.repo.GetSessionByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Session{}, core.NewNotFoundError("session not found")
		}
		return Session{}, errors.Wrapf(err, "getting session %s", id)
	}
	return sess, nil
}

// Active lists ACTIVE sessions; teachers are scoped to their own classes.
func (svc *Service) Active(ctx context.Context, actor user.User, filter ActiveFilter) ([]Session, error) {
	if !actor.IsAdmin() && actor.IsTeacher() {
		t, err := svc.registry.GetTeacherByUserID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		filter.TeacherID = t.ID
	}
	sess, err := svc.repo.QueryActiveSessions(ctx, filter)
	return sess, errors.Wrap(err, "querying active sessions")
}

// History lists past and present sessions matching the filter, newest first;
// teachers are scoped to their own classes.
func (svc *Service) History(ctx context.Context, actor user.User, filter HistoryFilter) ([]Session, error) {
	if !actor.IsAdmin() && actor.IsTeacher() {
		t, err := svc.registry.GetTeacherByUserID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		filter.TeacherID = t.ID
	}
	sess, err := svc.repo.QuerySessionHistory(ctx, filter, core.DBOrdering{Field: "start_time"})
	return sess, errors.Wrap(err, "querying session history")
}

// AdminDelete removes a session and its attendance records. Superuser-only
// corrective action.
func (svc *Service) AdminDelete(ctx context.Context, actor user.User, id string) error {
	if !actor.IsAdmin() {
		return core.NewForbiddenError("admin role required")
	}
	if _, err := svc.GetByID(ctx, id); err != nil {
		return err
	}
	return errors.Wrapf(svc.repo.DeleteSession(ctx, id), "deleting session %s", id)
}
