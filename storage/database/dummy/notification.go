package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[n.ID] = &n
	return nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.table[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) UpdateNotification(ctx context.Context, n notification.Notification) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.table[n.ID]
	if !ok {
		return notification.ErrNotFound
	}
	*existing = n
	return nil
}

func (repo *notificationRepository) QueryDueNotifications(ctx context.Context, now time.Time) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var due []notification.Notification
	for _, n := range repo.db.table {
		if n.Status != notification.StatusPending && n.Status != notification.StatusRetrying {
			continue
		}
		if n.ScheduledAt.After(now) {
			continue
		}
		due = append(due, *n)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })
	return due, nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, status string, ordering ...core.DBOrdering) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var ns []notification.Notification
	for _, n := range repo.db.table {
		if status != "" && n.Status != status {
			continue
		}
		ns = append(ns, *n)
	}
	sort.Slice(ns, func(i, j int) bool { return ns[i].CreatedAt.Before(ns[j].CreatedAt) })
	return ns, nil
}
