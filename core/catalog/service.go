package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/kat-co/vala"

	"github.com/janisrealty/janis/core"
)

var (
	// errors
	ErrNotFound    = errors.New("catalog item not found")
	ErrUnknownKind = errors.New("unknown catalog")
	errBadParent   = "parent not found"
)

type (
	Repository interface {
		CreateItem(ctx context.Context, it Item) (Item, error)
		GetItem(ctx context.Context, kind Kind, id int64) (Item, error)
		// FindItem does a case-insensitive match on name (or code when byCode) within kind and parent.
		FindItem(ctx context.Context, kind Kind, value string, byCode bool, parentID *int64) (Item, error)
		ListItems(ctx context.Context, kind Kind, filter QueryFilter) ([]Item, error)
		ListItemsByID(ctx context.Context, ids ...int64) ([]Item, error)
		UpdateItem(ctx context.Context, it Item) (Item, error)
		DeleteItem(ctx context.Context, kind Kind, id int64) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(vala.IsNotNil(repo, "repo")).CheckAndPanic()
	return &Service{repo: repo}
}

func (svc *Service) checkParent(ctx context.Context, kind Kind, parentID *int64) error {
	pk, ok := kind.Parent()
	if !ok {
		return nil
	}
	if parentID == nil {
		return core.NewFieldError("parent_id", "this field is required")
	}
	if _, err := svc.repo.GetItem(ctx, pk, *parentID); err != nil {
		if err == ErrNotFound {
			return core.NewFieldError("parent_id", errBadParent)
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, kind Kind, ni NewItem) (Item, error) {
	if !kind.Valid() {
		return Item{}, ErrUnknownKind
	}
	if _, ok := kind.Parent(); !ok {
		ni.ParentID = nil
	}
	if err := svc.checkParent(ctx, kind, ni.ParentID); err != nil {
		return Item{}, err
	}
	return svc.repo.CreateItem(ctx, Item{
		Kind:     kind,
		Name:     ni.Name,
		Code:     ni.Code,
		Symbol:   ni.Symbol,
		Color:    ni.Color,
		Order:    ni.Order,
		ParentID: ni.ParentID,
		IsActive: true,
	})
}

func (svc *Service) Get(ctx context.Context, kind Kind, id int64) (Item, error) {
	if !kind.Valid() {
		return Item{}, ErrUnknownKind
	}
	return svc.repo.GetItem(ctx, kind, id)
}

// List returns the items of kind ordered by order then name.
func (svc *Service) List(ctx context.Context, kind Kind, filter QueryFilter) ([]Item, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	filter.Clean()
	return svc.repo.ListItems(ctx, kind, filter)
}

func (svc *Service) Update(ctx context.Context, it Item, ui UpdateItem) (Item, error) {
	if ui.Name != "" {
		it.Name = ui.Name
	}
	if ui.Code != nil {
		it.Code = strings.ToUpper(core.CleanString(*ui.Code))
	}
	if ui.Symbol != nil {
		it.Symbol = core.CleanString(*ui.Symbol)
	}
	if ui.Color != nil {
		it.Color = *ui.Color
	}
	if ui.Order != nil {
		it.Order = *ui.Order
	}
	if ui.IsActive != nil {
		it.IsActive = *ui.IsActive
	}
	if ui.ParentID != nil {
		if err := svc.checkParent(ctx, it.Kind, ui.ParentID); err != nil {
			return Item{}, err
		}
		it.ParentID = ui.ParentID
	}
	return svc.repo.UpdateItem(ctx, it)
}

func (svc *Service) Delete(ctx context.Context, kind Kind, id int64) error {
	return svc.repo.DeleteItem(ctx, kind, id)
}

// FindByName does a case-insensitive lookup by name.
func (svc *Service) FindByName(ctx context.Context, kind Kind, name string) (Item, error) {
	name = core.CleanString(name)
	if name == "" {
		return Item{}, ErrNotFound
	}
	return svc.repo.FindItem(ctx, kind, name, false, nil)
}

// FindByCode does a case-insensitive lookup by code.
func (svc *Service) FindByCode(ctx context.Context, kind Kind, code string) (Item, error) {
	code = core.CleanString(code)
	if code == "" {
		return Item{}, ErrNotFound
	}
	return svc.repo.FindItem(ctx, kind, code, true, nil)
}

// GetOrCreate finds an item by name (within parent) or creates it.
func (svc *Service) GetOrCreate(ctx context.Context, kind Kind, name string, parentID *int64) (Item, bool, error) {
	name = core.CleanString(name)
	if name == "" {
		return Item{}, false, core.NewFieldError("name", "this field is required")
	}
	it, err := svc.repo.FindItem(ctx, kind, name, false, parentID)
	if err == nil {
		return it, false, nil
	} else if err != ErrNotFound {
		return Item{}, false, err
	}
	ni := NewItem{Name: name, ParentID: parentID}
	ni.Clean(kind)
	it, err = svc.Create(ctx, kind, ni)
	return it, err == nil, err
}

// Names maps the given IDs to item names.
func (svc *Service) Names(ctx context.Context, ids ...int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	items, err := svc.repo.ListItemsByID(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		names[it.ID] = it.Name
	}
	return names, nil
}

// Items returns the items with the given IDs keyed by ID.
func (svc *Service) Items(ctx context.Context, ids ...int64) (map[int64]Item, error) {
	out := make(map[int64]Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	items, err := svc.repo.ListItemsByID(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

// First returns the first active item of kind, by order.
func (svc *Service) First(ctx context.Context, kind Kind) (Item, error) {
	items, err := svc.repo.ListItems(ctx, kind, QueryFilter{})
	if err != nil {
		return Item{}, err
	}
	if len(items) == 0 {
		return Item{}, ErrNotFound
	}
	return items[0], nil
}
