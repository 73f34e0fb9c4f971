package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/notification"
)

type notificationRepository struct {
	base
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{base{db: db}}
}

type notificationRow struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	EventType  string    `db:"event_type"`
	Title      string    `db:"title"`
	Body       string    `db:"body"`
	SourceType string    `db:"source_type"`
	ObjectID   int64     `db:"object_id"`
	Data       []byte    `db:"data"`
	IsRead     bool      `db:"is_read"`
	CreatedAt  time.Time `db:"created_at"`
}

var notificationColumns = columns(notificationRow{})

func (r notificationRow) notification() (notification.Notification, error) {
	n := notification.Notification{
		ID:         r.ID,
		UserID:     r.UserID,
		EventType:  r.EventType,
		Title:      r.Title,
		Body:       r.Body,
		SourceType: r.SourceType,
		ObjectID:   r.ObjectID,
		IsRead:     r.IsRead,
		CreatedAt:  r.CreatedAt,
	}
	err := json.Unmarshal(r.Data, &n.Data)
	return n, errors.Wrap(err, "decoding notification data")
}

func (repo *notificationRepository) GetOrCreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, bool, error) {
	var id int64
	ins := psql.Insert("notifications").SetMap(values(n, "id")).
		Suffix("ON CONFLICT (user_id, event_type, source_type, object_id) DO NOTHING RETURNING id")
	err := repo.get(ctx, &id, ins)
	if err == nil {
		n.ID = id
		return n, true, nil
	}
	if err = trapNoRows(err, nil, "inserting notification"); err != nil {
		return notification.Notification{}, false, err
	}

	var row notificationRow
	q := psql.Select(notificationColumns...).From("notifications").Where(sq.Eq{
		"user_id":     n.UserID,
		"event_type":  n.EventType,
		"source_type": n.SourceType,
		"object_id":   n.ObjectID,
	})
	if err := repo.get(ctx, &row, q); err != nil {
		return notification.Notification{}, false, errors.Wrap(err, "finding notification")
	}
	existing, err := row.notification()
	return existing, false, err
}

func (repo *notificationRepository) ListNotifications(ctx context.Context, userID int64, page core.Page) ([]notification.Notification, error) {
	var rows []notificationRow
	q := psql.Select(notificationColumns...).From("notifications").Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")
	if page.Limit > 0 {
		q = q.Limit(uint64(page.Limit))
	}
	if page.Offset > 0 {
		q = q.Offset(uint64(page.Offset))
	}
	if err := repo.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "listing notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, r := range rows {
		n, err := r.notification()
		if err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, nil
}

func (repo *notificationRepository) CountNotifications(ctx context.Context, userID int64, unreadOnly bool) (int, error) {
	q := psql.Select("COUNT(*)").From("notifications").Where(sq.Eq{"user_id": userID})
	if unreadOnly {
		q = q.Where(sq.Eq{"is_read": false})
	}
	var n int
	if err := repo.get(ctx, &n, q); err != nil {
		return 0, errors.Wrap(err, "counting notifications")
	}
	return n, nil
}

func (repo *notificationRepository) MarkRead(ctx context.Context, userID int64, ids ...int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := psql.Update("notifications").Set("is_read", true).
		Where(sq.Eq{"user_id": userID, "is_read": false, "id": ids})
	n, err := repo.exec(ctx, q)
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	return int(n), nil
}
