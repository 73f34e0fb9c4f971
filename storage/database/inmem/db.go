package inmemdb

import (
	"sort"
	"sync"

	"github.com/janisrealty/janis/core/agenda"
	"github.com/janisrealty/janis/core/catalog"
	"github.com/janisrealty/janis/core/chat"
	"github.com/janisrealty/janis/core/device"
	"github.com/janisrealty/janis/core/lead"
	"github.com/janisrealty/janis/core/matching"
	"github.com/janisrealty/janis/core/notification"
	"github.com/janisrealty/janis/core/owner"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/requirement"
	"github.com/janisrealty/janis/core/task"
	"github.com/janisrealty/janis/core/user"
)

type (
	table[T any] struct {
		sync.RWMutex
		rows map[int64]*T
		pk   int64
	}

	DB struct {
		users       *table[user.User]
		profiles    *table[user.Profile]
		areas       *table[user.Area]
		fieldPerms  *table[user.FieldPermission]
		devices     *table[device.Device]
		items       *table[catalog.Item]
		owners      *table[owner.Owner]
		properties  *table[property.Property]
		changes     *table[property.Change]
		images      *table[property.Image]
		videos      *table[property.Video]
		documents   *table[property.Document]
		rooms       *table[property.Room]
		financials  *table[property.FinancialInfo]
		reqs        *table[requirement.Requirement]
		events      *table[agenda.Event]
		agency      *table[agenda.AgencyConfig]
		weights     *table[matching.Weight]
		matchEvents *table[matching.Event]
		matches     *table[matching.Match]
		notifs      *table[notification.Notification]
		tasks       *table[task.Task]
		comments    *table[task.Comment]
		convs       *table[chat.Conversation]
		messages    *table[chat.Message]
		attachments *table[chat.Attachment]
		leads       *table[lead.Lead]
		links       *table[lead.Link]
		leadMsgs    *table[lead.Message]
	}
)

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int64]*T)}
}

// nextID allocates a primary key. Callers hold the write lock.
func (t *table[T]) nextID() int64 {
	t.pk++
	return t.pk
}

func (t *table[T]) put(id int64, row T) {
	t.rows[id] = &row
}

// list returns copies of the rows matching keep, ordered by primary key. Callers hold a lock.
func (t *table[T]) list(keep func(T) bool) []T {
	ids := make([]int64, 0, len(t.rows))
	for id, row := range t.rows {
		if keep == nil || keep(*row) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, *t.rows[id])
	}
	return out
}

// first returns the lowest keyed row matching keep. Callers hold a lock.
func (t *table[T]) first(keep func(T) bool) (T, bool) {
	rows := t.list(keep)
	if len(rows) == 0 {
		var zero T
		return zero, false
	}
	return rows[0], true
}

func (t *table[T]) remove(keep func(T) bool) int {
	n := 0
	for id, row := range t.rows {
		if keep(*row) {
			delete(t.rows, id)
			n++
		}
	}
	return n
}

func Open() (*DB, error) {
	return &DB{
		users:       newTable[user.User](),
		profiles:    newTable[user.Profile](),
		areas:       newTable[user.Area](),
		fieldPerms:  newTable[user.FieldPermission](),
		devices:     newTable[device.Device](),
		items:       newTable[catalog.Item](),
		owners:      newTable[owner.Owner](),
		properties:  newTable[property.Property](),
		changes:     newTable[property.Change](),
		images:      newTable[property.Image](),
		videos:      newTable[property.Video](),
		documents:   newTable[property.Document](),
		rooms:       newTable[property.Room](),
		financials:  newTable[property.FinancialInfo](),
		reqs:        newTable[requirement.Requirement](),
		events:      newTable[agenda.Event](),
		agency:      newTable[agenda.AgencyConfig](),
		weights:     newTable[matching.Weight](),
		matchEvents: newTable[matching.Event](),
		matches:     newTable[matching.Match](),
		notifs:      newTable[notification.Notification](),
		tasks:       newTable[task.Task](),
		comments:    newTable[task.Comment](),
		convs:       newTable[chat.Conversation](),
		messages:    newTable[chat.Message](),
		attachments: newTable[chat.Attachment](),
		leads:       newTable[lead.Lead](),
		links:       newTable[lead.Link](),
		leadMsgs:    newTable[lead.Message](),
	}, nil
}

func containsID(ids []int64, id int64) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

func eqPtr(p *int64, v int64) bool {
	return p != nil && *p == v
}
