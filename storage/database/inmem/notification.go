package inmemdb

import (
	"context"
	"sort"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/notification"
)

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) GetOrCreateNotification(_ context.Context, n notification.Notification) (notification.Notification, bool, error) {
	tbl := repo.db.notifs
	tbl.Lock()
	defer tbl.Unlock()
	if found, ok := tbl.first(func(x notification.Notification) bool {
		return x.UserID == n.UserID && x.EventType == n.EventType && x.SourceType == n.SourceType && x.ObjectID == n.ObjectID
	}); ok {
		return found, false, nil
	}
	n.ID = tbl.nextID()
	tbl.put(n.ID, n)
	return n, true, nil
}

func (repo *notificationRepository) ListNotifications(_ context.Context, userID int64, page core.Page) ([]notification.Notification, error) {
	tbl := repo.db.notifs
	tbl.RLock()
	defer tbl.RUnlock()
	notifs := tbl.list(func(n notification.Notification) bool { return n.UserID == userID })
	sort.SliceStable(notifs, func(i, j int) bool {
		if !notifs[i].CreatedAt.Equal(notifs[j].CreatedAt) {
			return notifs[i].CreatedAt.After(notifs[j].CreatedAt)
		}
		return notifs[i].ID > notifs[j].ID
	})
	if page.Offset >= len(notifs) {
		return []notification.Notification{}, nil
	}
	notifs = notifs[page.Offset:]
	if page.Limit > 0 && len(notifs) > page.Limit {
		notifs = notifs[:page.Limit]
	}
	return notifs, nil
}

func (repo *notificationRepository) CountNotifications(_ context.Context, userID int64, unreadOnly bool) (int, error) {
	tbl := repo.db.notifs
	tbl.RLock()
	defer tbl.RUnlock()
	return len(tbl.list(func(n notification.Notification) bool {
		return n.UserID == userID && (!unreadOnly || !n.IsRead)
	})), nil
}

func (repo *notificationRepository) MarkRead(_ context.Context, userID int64, ids ...int64) (int, error) {
	tbl := repo.db.notifs
	tbl.Lock()
	defer tbl.Unlock()
	updated := 0
	for _, n := range tbl.rows {
		if n.UserID == userID && !n.IsRead && containsID(ids, n.ID) {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}
