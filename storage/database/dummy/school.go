package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
)

type schoolRepository struct {
	subjects    *subjectTable
	teachers    *teacherTable
	students    *studentTable
	classes     *classTable
	enrollments *enrollmentTable
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{
		subjects:    db.subject,
		teachers:    db.teacher,
		students:    db.student,
		classes:     db.class,
		enrollments: db.enrollment,
	}
}

func (repo *schoolRepository) CreateSubject(ctx context.Context, sub school.Subject) error {
	repo.subjects.Lock()
	defer repo.subjects.Unlock()

	repo.subjects.table[sub.ID] = &sub
	return nil
}

func (repo *schoolRepository) GetSubjectByID(ctx context.Context, id string) (school.Subject, error) {
	repo.subjects.RLock()
	defer repo.subjects.RUnlock()

	if sub, ok := repo.subjects.table[id]; ok {
		return *sub, nil
	}
	return school.Subject{}, school.ErrNotFound
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context, ordering ...core.DBOrdering) ([]school.Subject, error) {
	repo.subjects.RLock()
	defer repo.subjects.RUnlock()

	subs := make([]school.Subject, 0, len(repo.subjects.table))
	for _, sub := range repo.subjects.table {
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
	return subs, nil
}

func (repo *schoolRepository) CreateTeacher(ctx context.Context, t school.TeacherProfile) error {
	repo.teachers.Lock()
	defer repo.teachers.Unlock()

	repo.teachers.table[t.ID] = &t
	return nil
}

func (repo *schoolRepository) GetTeacherByID(ctx context.Context, id string) (school.TeacherProfile, error) {
	repo.teachers.RLock()
	defer repo.teachers.RUnlock()

	if t, ok := repo.teachers.table[id]; ok {
		return *t, nil
	}
	return school.TeacherProfile{}, school.ErrNotFound
}

func (repo *schoolRepository) GetTeacherByUserID(ctx context.Context, userID string) (school.TeacherProfile, error) {
	repo.teachers.RLock()
	defer repo.teachers.RUnlock()

	for _, t := range repo.teachers.table {
		if t.UserID == userID {
			return *t, nil
		}
	}
	return school.TeacherProfile{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryTeachers(ctx context.Context, ordering ...core.DBOrdering) ([]school.TeacherProfile, error) {
	repo.teachers.RLock()
	defer repo.teachers.RUnlock()

	ts := make([]school.TeacherProfile, 0, len(repo.teachers.table))
	for _, t := range repo.teachers.table {
		ts = append(ts, *t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].EmployeeID < ts[j].EmployeeID })
	return ts, nil
}

func (repo *schoolRepository) CreateStudent(ctx context.Context, s school.Student) error {
	repo.students.Lock()
	defer repo.students.Unlock()

	repo.students.table[s.ID] = &s
	return nil
}

func (repo *schoolRepository) GetStudentByID(ctx context.Context, id string) (school.Student, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()

	if s, ok := repo.students.table[id]; ok {
		return *s, nil
	}
	return school.Student{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, ordering ...core.DBOrdering) ([]school.Student, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()

	ss := make([]school.Student, 0, len(repo.students.table))
	for _, s := range repo.students.table {
		ss = append(ss, *s)
	}
	sort.Slice(ss, func(i, j int) bool { return ss[i].StudentNo < ss[j].StudentNo })
	return ss, nil
}

func (repo *schoolRepository) CreateClass(ctx context.Context, c school.Class) error {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	repo.classes.table[c.ID] = &c
	return nil
}

func (repo *schoolRepository) GetClassByID(ctx context.Context, id string) (school.Class, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	if c, ok := repo.classes.table[id]; ok {
		return *c, nil
	}
	return school.Class{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryClasses(ctx context.Context, filter school.ClassFilter, ordering ...core.DBOrdering) ([]school.Class, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	cs := make([]school.Class, 0, len(repo.classes.table))
	for _, c := range repo.classes.table {
		if filter.SubjectID != "" && c.SubjectID != filter.SubjectID {
			continue
		}
		if filter.TeacherID != "" && c.TeacherID != filter.TeacherID {
			continue
		}
		if filter.AcademicYear != "" && c.AcademicYear != filter.AcademicYear {
			continue
		}
		if filter.Semester != "" && c.Semester != filter.Semester {
			continue
		}
		cs = append(cs, *c)
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
	return cs, nil
}

func (repo *schoolRepository) CreateEnrollment(ctx context.Context, e school.Enrollment) error {
	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()

	for _, enr := range repo.enrollments.table {
		if enr.ClassID == e.ClassID && enr.StudentID == e.StudentID {
			return school.ErrAlreadyEnrolled
		}
	}
	repo.enrollments.table[e.ID] = &e
	return nil
}

func (repo *schoolRepository) DeleteEnrollment(ctx context.Context, classID, studentID string) error {
	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()

	for id, enr := range repo.enrollments.table {
		if enr.ClassID == classID && enr.StudentID == studentID {
			delete(repo.enrollments.table, id)
			return nil
		}
	}
	return school.ErrNotFound
}

func (repo *schoolRepository) QueryClassEnrollments(ctx context.Context, classID string) ([]school.Enrollment, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	var es []school.Enrollment
	for _, enr := range repo.enrollments.table {
		if enr.ClassID == classID {
			es = append(es, *enr)
		}
	}
	sort.Slice(es, func(i, j int) bool { return es[i].EnrolledAt.Before(es[j].EnrolledAt) })
	return es, nil
}

func (repo *schoolRepository) QueryStudentEnrollments(ctx context.Context, studentID string) ([]school.Enrollment, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	var es []school.Enrollment
	for _, enr := range repo.enrollments.table {
		if enr.StudentID == studentID {
			es = append(es, *enr)
		}
	}
	sort.Slice(es, func(i, j int) bool { return es[i].EnrolledAt.Before(es[j].EnrolledAt) })
	return es, nil
}

func (repo *schoolRepository) CountClassStudents(ctx context.Context, classID string) (int, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	var count int
	for _, enr := range repo.enrollments.table {
		if enr.ClassID == classID {
			count++
		}
	}
	return count, nil
}

func (repo *schoolRepository) IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	for _, enr := range repo.enrollments.table {
		if enr.ClassID == classID && enr.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}
