package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/property"
)

type propertyRepository struct {
	db *DB
}

var _ property.Repository = (*propertyRepository)(nil)

func NewPropertyRepository(db *DB) property.Repository {
	return &propertyRepository{db: db}
}

func (repo *propertyRepository) CreateProperty(_ context.Context, p property.Property) (property.Property, error) {
	tbl := repo.db.properties
	tbl.Lock()
	defer tbl.Unlock()
	p.ID = tbl.nextID()
	tbl.put(p.ID, p)
	return p, nil
}

func (repo *propertyRepository) GetProperty(_ context.Context, id int64) (property.Property, error) {
	tbl := repo.db.properties
	tbl.RLock()
	defer tbl.RUnlock()
	if p, ok := tbl.rows[id]; ok {
		return *p, nil
	}
	return property.Property{}, property.ErrNotFound
}

func (repo *propertyRepository) GetPropertyByCode(_ context.Context, code string) (property.Property, error) {
	tbl := repo.db.properties
	tbl.RLock()
	defer tbl.RUnlock()
	if p, ok := tbl.first(func(p property.Property) bool { return p.Code == code }); ok {
		return p, nil
	}
	return property.Property{}, property.ErrNotFound
}

func (repo *propertyRepository) UniqueCodeExists(_ context.Context, code string) (bool, error) {
	tbl := repo.db.properties
	tbl.RLock()
	defer tbl.RUnlock()
	_, ok := tbl.first(func(p property.Property) bool { return p.UniqueCode == code })
	return ok, nil
}

func (repo *propertyRepository) LastPropertyID(_ context.Context) (int64, error) {
	tbl := repo.db.properties
	tbl.RLock()
	defer tbl.RUnlock()
	var last int64
	for id := range tbl.rows {
		if id > last {
			last = id
		}
	}
	return last, nil
}

func (repo *propertyRepository) UpdateProperty(_ context.Context, p property.Property) (property.Property, error) {
	tbl := repo.db.properties
	tbl.Lock()
	defer tbl.Unlock()
	if _, ok := tbl.rows[p.ID]; !ok {
		return property.Property{}, property.ErrNotFound
	}
	tbl.put(p.ID, p)
	return p, nil
}

func (repo *propertyRepository) DeleteProperty(_ context.Context, id int64) error {
	tbl := repo.db.properties
	tbl.Lock()
	n := tbl.remove(func(p property.Property) bool { return p.ID == id })
	tbl.Unlock()
	if n == 0 {
		return property.ErrNotFound
	}

	byProperty := func(pid int64) bool { return pid == id }
	repo.db.images.Lock()
	repo.db.images.remove(func(img property.Image) bool { return byProperty(img.PropertyID) })
	repo.db.images.Unlock()
	repo.db.videos.Lock()
	repo.db.videos.remove(func(v property.Video) bool { return byProperty(v.PropertyID) })
	repo.db.videos.Unlock()
	repo.db.documents.Lock()
	repo.db.documents.remove(func(d property.Document) bool { return byProperty(d.PropertyID) })
	repo.db.documents.Unlock()
	repo.db.rooms.Lock()
	repo.db.rooms.remove(func(r property.Room) bool { return byProperty(r.PropertyID) })
	repo.db.rooms.Unlock()
	repo.db.changes.Lock()
	repo.db.changes.remove(func(c property.Change) bool { return byProperty(c.PropertyID) })
	repo.db.changes.Unlock()
	return nil
}

func matchesProperty(p property.Property, f property.QueryFilter) bool {
	if s := strings.ToLower(f.Search); s != "" {
		found := false
		for _, v := range []string{p.Title, p.Description, p.RealAddress, p.ExactAddress, p.Code, p.UniqueCode, p.District} {
			if strings.Contains(strings.ToLower(v), s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Province != "" && !strings.EqualFold(p.Province, f.Province) {
		return false
	}
	if f.District != "" && !strings.EqualFold(p.District, f.District) {
		return false
	}
	if f.PropertyTypeID != nil && !eqPtr(p.PropertyTypeID, *f.PropertyTypeID) {
		return false
	}
	if f.StatusID != nil && !eqPtr(p.StatusID, *f.StatusID) {
		return false
	}
	if f.CurrencyID != nil && !eqPtr(p.CurrencyID, *f.CurrencyID) {
		return false
	}
	if f.ResponsibleID != nil && !eqPtr(p.ResponsibleID, *f.ResponsibleID) {
		return false
	}
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	if f.IsDraft != nil && p.IsDraft != *f.IsDraft {
		return false
	}
	if f.Source != "" && p.Source != f.Source {
		return false
	}
	if f.MinPrice != nil && (p.Price == nil || *p.Price < *f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && (p.Price == nil || *p.Price > *f.MaxPrice) {
		return false
	}
	if f.PublicOnly && !p.IsPublic() {
		return false
	}
	if f.VisibleTo != nil {
		if p.IsDraft && !eqPtr(p.ResponsibleID, *f.VisibleTo) {
			return false
		}
		if !p.IsDraft && !p.IsActive {
			return false
		}
	}
	if f.MineOf != nil && (p.IsDraft || !eqPtr(p.ResponsibleID, *f.MineOf)) {
		return false
	}
	if len(f.CreatedByIDs) > 0 && (p.CreatedByID == nil || !containsID(f.CreatedByIDs, *p.CreatedByID)) {
		return false
	}
	if len(f.Codes) > 0 && !containsString(f.Codes, p.Code) {
		return false
	}
	return true
}

func propertyLess(a, b property.Property, field string) bool {
	switch field {
	case "price":
		av, bv := 0.0, 0.0
		if a.Price != nil {
			av = *a.Price
		}
		if b.Price != nil {
			bv = *b.Price
		}
		return av < bv
	case "created_at":
		return a.CreatedAt.Before(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Before(b.UpdatedAt)
	case "code":
		return a.Code < b.Code
	case "title":
		return a.Title < b.Title
	}
	return a.ID < b.ID
}

func (repo *propertyRepository) FilterProperties(_ context.Context, filter property.QueryFilter, ordering []core.DBOrdering) ([]property.Property, error) {
	tbl := repo.db.properties
	tbl.RLock()
	props := tbl.list(func(p property.Property) bool { return matchesProperty(p, filter) })
	tbl.RUnlock()

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	for i := len(ordering) - 1; i >= 0; i-- {
		ord := ordering[i]
		sort.SliceStable(props, func(a, b int) bool {
			if ord.Ascending {
				return propertyLess(props[a], props[b], ord.Field)
			}
			return propertyLess(props[b], props[a], ord.Field)
		})
	}
	if filter.Limit > 0 && len(props) > filter.Limit {
		props = props[:filter.Limit]
	}
	return props, nil
}

func (repo *propertyRepository) ListPropertiesByID(_ context.Context, ids ...int64) ([]property.Property, error) {
	tbl := repo.db.properties
	tbl.RLock()
	defer tbl.RUnlock()
	return tbl.list(func(p property.Property) bool { return containsID(ids, p.ID) }), nil
}

func (repo *propertyRepository) CreateChanges(_ context.Context, changes ...property.Change) error {
	tbl := repo.db.changes
	tbl.Lock()
	defer tbl.Unlock()
	for _, c := range changes {
		c.ID = tbl.nextID()
		tbl.put(c.ID, c)
	}
	return nil
}

func (repo *propertyRepository) ListChanges(_ context.Context, propertyID int64) ([]property.Change, error) {
	tbl := repo.db.changes
	tbl.RLock()
	defer tbl.RUnlock()
	changes := tbl.list(func(c property.Change) bool { return c.PropertyID == propertyID })
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].ChangedAt.After(changes[j].ChangedAt) })
	return changes, nil
}

func (repo *propertyRepository) CreateImage(_ context.Context, img property.Image) (property.Image, error) {
	tbl := repo.db.images
	tbl.Lock()
	defer tbl.Unlock()
	img.ID = tbl.nextID()
	tbl.put(img.ID, img)
	return img, nil
}

func (repo *propertyRepository) GetImage(_ context.Context, id int64) (property.Image, error) {
	tbl := repo.db.images
	tbl.RLock()
	defer tbl.RUnlock()
	if img, ok := tbl.rows[id]; ok {
		return *img, nil
	}
	return property.Image{}, property.ErrImageNotFound
}

func (repo *propertyRepository) ListImages(_ context.Context, propertyID int64) ([]property.Image, error) {
	tbl := repo.db.images
	tbl.RLock()
	defer tbl.RUnlock()
	imgs := tbl.list(func(img property.Image) bool { return img.PropertyID == propertyID })
	sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].Order < imgs[j].Order })
	return imgs, nil
}

func (repo *propertyRepository) UpdateImage(_ context.Context, img property.Image) (property.Image, error) {
	tbl := repo.db.images
	tbl.Lock()
	defer tbl.Unlock()
	if _, ok := tbl.rows[img.ID]; !ok {
		return property.Image{}, property.ErrImageNotFound
	}
	tbl.put(img.ID, img)
	return img, nil
}

func (repo *propertyRepository) DeleteImage(_ context.Context, id int64) error {
	tbl := repo.db.images
	tbl.Lock()
	defer tbl.Unlock()
	if tbl.remove(func(img property.Image) bool { return img.ID == id }) == 0 {
		return property.ErrImageNotFound
	}
	return nil
}

func (repo *propertyRepository) UnsetPrimaryImages(_ context.Context, propertyID, exceptID int64) error {
	tbl := repo.db.images
	tbl.Lock()
	defer tbl.Unlock()
	for _, img := range tbl.rows {
		if img.PropertyID == propertyID && img.ID != exceptID {
			img.IsPrimary = false
		}
	}
	return nil
}

func (repo *propertyRepository) CreateVideo(_ context.Context, v property.Video) (property.Video, error) {
	tbl := repo.db.videos
	tbl.Lock()
	defer tbl.Unlock()
	v.ID = tbl.nextID()
	tbl.put(v.ID, v)
	return v, nil
}

func (repo *propertyRepository) GetVideo(_ context.Context, id int64) (property.Video, error) {
	tbl := repo.db.videos
	tbl.RLock()
	defer tbl.RUnlock()
	if v, ok := tbl.rows[id]; ok {
		return *v, nil
	}
	return property.Video{}, property.ErrVideoNotFound
}

func (repo *propertyRepository) ListVideos(_ context.Context, propertyID int64) ([]property.Video, error) {
	tbl := repo.db.videos
	tbl.RLock()
	defer tbl.RUnlock()
	return tbl.list(func(v property.Video) bool { return v.PropertyID == propertyID }), nil
}

func (repo *propertyRepository) DeleteVideo(_ context.Context, id int64) error {
	tbl := repo.db.videos
	tbl.Lock()
	defer tbl.Unlock()
	if tbl.remove(func(v property.Video) bool { return v.ID == id }) == 0 {
		return property.ErrVideoNotFound
	}
	return nil
}

func (repo *propertyRepository) CreateDocument(_ context.Context, doc property.Document) (property.Document, error) {
	tbl := repo.db.documents
	tbl.Lock()
	defer tbl.Unlock()
	doc.ID = tbl.nextID()
	tbl.put(doc.ID, doc)
	return doc, nil
}

func (repo *propertyRepository) GetDocument(_ context.Context, id int64) (property.Document, error) {
	tbl := repo.db.documents
	tbl.RLock()
	defer tbl.RUnlock()
	if doc, ok := tbl.rows[id]; ok {
		return *doc, nil
	}
	return property.Document{}, property.ErrDocumentNotFound
}

func (repo *propertyRepository) ListDocuments(_ context.Context, propertyID int64) ([]property.Document, error) {
	tbl := repo.db.documents
	tbl.RLock()
	defer tbl.RUnlock()
	return tbl.list(func(d property.Document) bool { return d.PropertyID == propertyID }), nil
}

func (repo *propertyRepository) UpdateDocument(_ context.Context, doc property.Document) (property.Document, error) {
	tbl := repo.db.documents
	tbl.Lock()
	defer tbl.Unlock()
	if _, ok := tbl.rows[doc.ID]; !ok {
		return property.Document{}, property.ErrDocumentNotFound
	}
	tbl.put(doc.ID, doc)
	return doc, nil
}

func (repo *propertyRepository) DeleteDocument(_ context.Context, id int64) error {
	tbl := repo.db.documents
	tbl.Lock()
	defer tbl.Unlock()
	if tbl.remove(func(d property.Document) bool { return d.ID == id }) == 0 {
		return property.ErrDocumentNotFound
	}
	return nil
}

func (repo *propertyRepository) CreateRoom(_ context.Context, r property.Room) (property.Room, error) {
	tbl := repo.db.rooms
	tbl.Lock()
	defer tbl.Unlock()
	r.ID = tbl.nextID()
	tbl.put(r.ID, r)
	return r, nil
}

func (repo *propertyRepository) ListRooms(_ context.Context, propertyID int64) ([]property.Room, error) {
	tbl := repo.db.rooms
	tbl.RLock()
	defer tbl.RUnlock()
	rooms := tbl.list(func(r property.Room) bool { return r.PropertyID == propertyID })
	sort.SliceStable(rooms, func(i, j int) bool { return rooms[i].Order < rooms[j].Order })
	return rooms, nil
}

func (repo *propertyRepository) DeleteRoom(_ context.Context, propertyID, id int64) error {
	tbl := repo.db.rooms
	tbl.Lock()
	defer tbl.Unlock()
	if tbl.remove(func(r property.Room) bool { return r.ID == id && r.PropertyID == propertyID }) == 0 {
		return property.ErrRoomNotFound
	}
	return nil
}

func (repo *propertyRepository) GetFinancialInfo(_ context.Context, propertyID int64) (property.FinancialInfo, error) {
	tbl := repo.db.financials
	tbl.RLock()
	defer tbl.RUnlock()
	if fi, ok := tbl.rows[propertyID]; ok {
		return *fi, nil
	}
	return property.FinancialInfo{PropertyID: propertyID}, nil
}

func (repo *propertyRepository) SaveFinancialInfo(_ context.Context, fi property.FinancialInfo) (property.FinancialInfo, error) {
	tbl := repo.db.financials
	tbl.Lock()
	defer tbl.Unlock()
	tbl.put(fi.PropertyID, fi)
	return fi, nil
}
