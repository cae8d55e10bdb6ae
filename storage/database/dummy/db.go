package dummydb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/notification"
	"github.com/trezcool/mahudhurio/core/report"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
)

type (
	DB struct {
		user         *userTable
		subject      *subjectTable
		teacher      *teacherTable
		student      *studentTable
		class        *classTable
		enrollment   *enrollmentTable
		session      *sessionTable
		attendance   *attendanceTable
		report       *reportTable
		notification *notificationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	subjectTable struct {
		sync.RWMutex
		table map[string]*school.Subject
	}

	teacherTable struct {
		sync.RWMutex
		table map[string]*school.TeacherProfile
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*school.Student
	}

	classTable struct {
		sync.RWMutex
		table map[string]*school.Class
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*school.Enrollment
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*session.Session
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}

	reportTable struct {
		sync.RWMutex
		table map[string]*report.Report
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:         &userTable{table: make(map[string]*user.User)},
		subject:      &subjectTable{table: make(map[string]*school.Subject)},
		teacher:      &teacherTable{table: make(map[string]*school.TeacherProfile)},
		student:      &studentTable{table: make(map[string]*school.Student)},
		class:        &classTable{table: make(map[string]*school.Class)},
		enrollment:   &enrollmentTable{table: make(map[string]*school.Enrollment)},
		session:      &sessionTable{table: make(map[string]*session.Session)},
		attendance:   &attendanceTable{table: make(map[string]*attendance.Record)},
		report:       &reportTable{table: make(map[string]*report.Report)},
		notification: &notificationTable{table: make(map[string]*notification.Notification)},
	}
	return db, nil
}
