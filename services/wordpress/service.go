package wordpress

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
)

type (
	// Remote is the WordPress API used by the sync service.
	Remote interface {
		Me(ctx context.Context) (Object, error)
		GetProperty(ctx context.Context, id int64) (Object, error)
		CreateProperty(ctx context.Context, p Payload) (Object, error)
		UpdateProperty(ctx context.Context, id int64, p Payload) (Object, error)
		DeleteProperty(ctx context.Context, id int64, force bool) (Object, error)
		FindPropertyBySlug(ctx context.Context, slug string) ([]Object, error)
		DeleteMedia(ctx context.Context, id int64, force bool) (Object, error)
		ImportMediaFromURL(ctx context.Context, url string) (Object, error)
	}

	PropertyStore interface {
		GetByID(ctx context.Context, id int64) (property.Property, error)
		Save(ctx context.Context, p property.Property) (property.Property, error)
		View(ctx context.Context, p property.Property) (property.View, error)
		Filter(ctx context.Context, filter property.QueryFilter, ordering []core.DBOrdering) ([]property.Property, error)
		Images(ctx context.Context, propertyID int64) ([]property.Image, error)
		SaveImage(ctx context.Context, img property.Image) (property.Image, error)
	}

	NameLookup interface {
		Names(ctx context.Context, ids ...int64) (map[int64]string, error)
	}

	// SyncRecorder counts sync outcomes.
	SyncRecorder interface {
		SyncResult(err error)
	}

	Service struct {
		remote     Remote
		properties PropertyStore
		names      NameLookup
		taxonomies *Taxonomies
		recorder   SyncRecorder
		logger     core.Logger
	}
)

// Warning reports a local value with no WordPress term.
type Warning struct {
	Taxonomy string `json:"taxonomy"`
	Value    string `json:"value"`
	Reason   string `json:"reason"`
}

type SyncResult struct {
	WP       Object    `json:"wp"`
	Warnings []Warning `json:"warnings"`
	Payload  Payload   `json:"payload"`
}

type SyncManyItem struct {
	PropertyID int64     `json:"property_id"`
	OK         bool      `json:"ok"`
	WPPostID   int64     `json:"wp_post_id,omitempty"`
	Warnings   []Warning `json:"warnings,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type SyncManyResult struct {
	Total   int            `json:"total"`
	Synced  int            `json:"synced"`
	Failed  int            `json:"failed"`
	Results []SyncManyItem `json:"results"`
}

type MediaError struct {
	MediaID int64  `json:"media_id,omitempty"`
	Step    string `json:"step,omitempty"`
	Error   string `json:"error"`
}

type DeleteResult struct {
	Deleted      bool         `json:"deleted"`
	Reason       string       `json:"reason,omitempty"`
	WPPostID     int64        `json:"wp_post_id,omitempty"`
	WPResponse   Object       `json:"wp_response,omitempty"`
	MediaDeleted []int64      `json:"media_deleted"`
	MediaErrors  []MediaError `json:"media_errors"`
}

// MissingFieldsDetail is the summary shown with a MissingFieldsError.
const MissingFieldsDetail = "No se puede publicar en WordPress."

// MissingFieldsError is returned when a listing lacks what a post needs.
type MissingFieldsError struct {
	Missing []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("Te falta registrar %s antes de subir a WP.", strings.Join(e.Missing, ", "))
}

func NewService(remote Remote, properties PropertyStore, names NameLookup, taxonomies *Taxonomies, recorder SyncRecorder, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(remote, "remote"),
		vala.IsNotNil(properties, "properties"),
		vala.IsNotNil(names, "names"),
		vala.IsNotNil(taxonomies, "taxonomies"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	return &Service{
		remote:     remote,
		properties: properties,
		names:      names,
		taxonomies: taxonomies,
		recorder:   recorder,
		logger:     logger,
	}
}

func (svc *Service) record(err error) {
	if svc.recorder != nil {
		svc.recorder.SyncResult(err)
	}
}

// TestAuth returns the WordPress user the credentials belong to.
func (svc *Service) TestAuth(ctx context.Context) (Object, error) {
	return svc.remote.Me(ctx)
}

func checkMinFields(p property.Property) error {
	var missing []string
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "título")
	}
	if strings.TrimSpace(p.Description) == "" {
		missing = append(missing, "descripción")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Missing: missing}
	}
	return nil
}

func (svc *Service) resolveTaxonomies(ctx context.Context, v property.View) (map[string][]int64, []Warning, error) {
	out := map[string][]int64{TaxCountry: {svc.taxonomies.CanonicalCountry}}
	var warnings []Warning

	addOne := func(tax, label, name string) {
		if strings.TrimSpace(name) == "" {
			return
		}
		if id, ok := svc.taxonomies.Resolve(tax, name); ok {
			out[tax] = []int64{id}
			return
		}
		warnings = append(warnings, Warning{Taxonomy: tax, Value: name, Reason: "no term mapped for " + label})
	}
	addOne(TaxType, "property type", v.TypeName)
	addOne(TaxStatus, "status", v.StatusName)
	addOne(TaxState, "department", v.Department)
	addOne(TaxCity, "province", v.Province)
	addOne(TaxArea, "district", v.District)

	if len(v.TagIDs) > 0 {
		names, err := svc.names.Names(ctx, v.TagIDs...)
		if err != nil {
			return nil, nil, err
		}
		var features []int64
		for _, id := range v.TagIDs {
			name := names[id]
			if fid, ok := svc.taxonomies.Resolve(TaxFeature, name); ok {
				features = append(features, fid)
			} else if name != "" {
				warnings = append(warnings, Warning{Taxonomy: TaxFeature, Value: name, Reason: "no term mapped for tag"})
			}
		}
		if len(features) > 0 {
			out[TaxFeature] = features
		}
	}
	return out, warnings, nil
}

// uploadImages makes sure every image of the listing exists in the media library.
// It returns the featured media id and the gallery ids in display order.
func (svc *Service) uploadImages(ctx context.Context, propertyID int64) (int64, []int64, error) {
	imgs, err := svc.properties.Images(ctx, propertyID)
	if err != nil {
		return 0, nil, err
	}
	sort.SliceStable(imgs, func(i, j int) bool {
		if imgs[i].IsPrimary != imgs[j].IsPrimary {
			return imgs[i].IsPrimary
		}
		if imgs[i].Order != imgs[j].Order {
			return imgs[i].Order < imgs[j].Order
		}
		return imgs[i].ID < imgs[j].ID
	})

	mediaIDs := make([]int64, len(imgs))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for i, img := range imgs {
		if img.BlobKey == "" || img.URL == "" {
			continue
		}
		i, img := i, img
		g.Go(func() error {
			if img.WPMediaID != nil && img.WPSourceURL == img.URL {
				mediaIDs[i] = *img.WPMediaID
				return nil
			}
			media, err := svc.remote.ImportMediaFromURL(gctx, img.URL)
			if err != nil {
				return err
			}
			mid := media.Int("id")
			if mid == 0 {
				return nil
			}
			now := time.Now().UTC()
			img.WPMediaID = &mid
			img.WPSourceURL = img.URL
			img.WPLastSync = &now
			mu.Lock()
			defer mu.Unlock()
			if _, err := svc.properties.SaveImage(gctx, img); err != nil {
				return err
			}
			mediaIDs[i] = mid
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, nil, errors.Wrap(err, "uploading images")
	}

	// primary images sort first, so the first uploaded one is featured
	var featured int64
	gallery := make([]int64, 0, len(mediaIDs))
	for _, mid := range mediaIDs {
		if mid == 0 {
			continue
		}
		if featured == 0 {
			featured = mid
		}
		gallery = append(gallery, mid)
	}
	return featured, gallery, nil
}

func (svc *Service) track(ctx context.Context, p property.Property, obj Object) (property.Property, error) {
	id := obj.Int("id")
	now := time.Now().UTC()
	if id != 0 {
		p.WPPostID = &id
	}
	p.WPSlug = obj.String("slug")
	p.WPLastSync = &now
	return svc.properties.Save(ctx, p)
}

// SyncOne creates or updates the post of the listing.
func (svc *Service) SyncOne(ctx context.Context, id int64) (res SyncResult, err error) {
	defer func() { svc.record(err) }()

	p, err := svc.properties.GetByID(ctx, id)
	if err != nil {
		return SyncResult{}, err
	}
	if err := checkMinFields(p); err != nil {
		return SyncResult{}, err
	}

	slug := Slug(p.ID)
	if p.WPPostID == nil {
		found, err := svc.remote.FindPropertyBySlug(ctx, slug)
		if err != nil {
			return SyncResult{}, err
		}
		if len(found) > 0 {
			if p, err = svc.track(ctx, p, found[0]); err != nil {
				return SyncResult{}, err
			}
		}
	}

	v, err := svc.properties.View(ctx, p)
	if err != nil {
		return SyncResult{}, err
	}
	taxIDs, warnings, err := svc.resolveTaxonomies(ctx, v)
	if err != nil {
		return SyncResult{}, err
	}
	featured, gallery, err := svc.uploadImages(ctx, p.ID)
	if err != nil {
		return SyncResult{}, err
	}

	payload := BuildPayload(v, taxIDs, featured, gallery)
	var obj Object
	if p.WPPostID != nil {
		obj, err = svc.remote.UpdateProperty(ctx, *p.WPPostID, payload)
	} else {
		obj, err = svc.remote.CreateProperty(ctx, payload)
	}
	if err != nil {
		return SyncResult{}, err
	}
	if _, err := svc.track(ctx, p, obj); err != nil {
		return SyncResult{}, err
	}
	svc.logger.Info("wordpress: synced property", map[string]interface{}{"property_id": p.ID, "wp_post_id": obj.Int("id")})
	return SyncResult{WP: obj, Warnings: warnings, Payload: payload}, nil
}

// SyncMany syncs listings by id, optionally only the active ones. A limit of 0 syncs all.
func (svc *Service) SyncMany(ctx context.Context, onlyActive bool, limit int) (SyncManyResult, error) {
	filter := property.QueryFilter{Limit: limit}
	if onlyActive {
		filter.IsActive = core.BoolPtr(true)
	}
	props, err := svc.properties.Filter(ctx, filter, []core.DBOrdering{{Field: "id", Ascending: true}})
	if err != nil {
		return SyncManyResult{}, err
	}
	res := SyncManyResult{Total: len(props), Results: make([]SyncManyItem, 0, len(props))}
	for _, p := range props {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		item := SyncManyItem{PropertyID: p.ID}
		out, err := svc.SyncOne(ctx, p.ID)
		if err != nil {
			item.Error = err.Error()
			res.Failed++
			svc.logger.Warn("wordpress: sync failed", err, map[string]interface{}{"property_id": p.ID})
		} else {
			item.OK = true
			item.WPPostID = out.WP.Int("id")
			item.Warnings = out.Warnings
			res.Synced++
		}
		res.Results = append(res.Results, item)
	}
	return res, nil
}

// GetRemote returns the post of the listing, or nil when it was never synced.
func (svc *Service) GetRemote(ctx context.Context, id int64) (property.Property, Object, error) {
	p, err := svc.properties.GetByID(ctx, id)
	if err != nil {
		return property.Property{}, nil, err
	}
	if p.WPPostID == nil {
		return p, nil, nil
	}
	obj, err := svc.remote.GetProperty(ctx, *p.WPPostID)
	return p, obj, err
}

func galleryMediaIDs(obj Object) []int64 {
	var ids []int64
	for _, key := range []string{"property_meta", "meta"} {
		meta, ok := obj[key].(map[string]interface{})
		if !ok {
			continue
		}
		values, _ := meta["fave_property_images"].([]interface{})
		for _, v := range values {
			for _, part := range strings.Split(fmt.Sprint(v), ",") {
				if n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil && n > 0 {
					ids = append(ids, n)
				}
			}
		}
	}
	return ids
}

// DeleteOne deletes the post of the listing and forgets every WordPress id stored for it.
func (svc *Service) DeleteOne(ctx context.Context, id int64, force, deleteMedia bool) (DeleteResult, error) {
	p, err := svc.properties.GetByID(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	if p.WPPostID == nil {
		return DeleteResult{Reason: "property has no wp_post_id"}, nil
	}
	res := DeleteResult{WPPostID: *p.WPPostID, MediaDeleted: []int64{}, MediaErrors: []MediaError{}}

	if deleteMedia {
		obj, err := svc.remote.GetProperty(ctx, *p.WPPostID)
		if err != nil {
			res.MediaErrors = append(res.MediaErrors, MediaError{Step: "get_property", Error: err.Error()})
		} else {
			set := map[int64]bool{}
			if fid := obj.Int("featured_media"); fid != 0 {
				set[fid] = true
			}
			for _, mid := range galleryMediaIDs(obj) {
				set[mid] = true
			}
			ids := make([]int64, 0, len(set))
			for mid := range set {
				ids = append(ids, mid)
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			for _, mid := range ids {
				if _, err := svc.remote.DeleteMedia(ctx, mid, true); err != nil {
					res.MediaErrors = append(res.MediaErrors, MediaError{MediaID: mid, Error: err.Error()})
					continue
				}
				res.MediaDeleted = append(res.MediaDeleted, mid)
			}
		}
	}

	if res.WPResponse, err = svc.remote.DeleteProperty(ctx, *p.WPPostID, force); err != nil {
		return DeleteResult{}, err
	}

	imgs, err := svc.properties.Images(ctx, p.ID)
	if err != nil {
		return DeleteResult{}, err
	}
	for _, img := range imgs {
		if img.WPMediaID == nil && img.WPSourceURL == "" && img.WPLastSync == nil {
			continue
		}
		img.WPMediaID, img.WPSourceURL, img.WPLastSync = nil, "", nil
		if _, err := svc.properties.SaveImage(ctx, img); err != nil {
			return DeleteResult{}, err
		}
	}
	p.WPPostID, p.WPSlug, p.WPLastSync = nil, "", nil
	if _, err := svc.properties.Save(ctx, p); err != nil {
		return DeleteResult{}, err
	}
	res.Deleted = true
	return res, nil
}

// AllowInternal reports whether a caller may use the internal WordPress endpoints:
// staff and superusers always, anyone else with the internal key when one is configured.
func AllowInternal(usr *user.User, key, expected string) bool {
	if usr != nil && (usr.IsStaff || usr.IsSuperuser) {
		return true
	}
	if expected == "" {
		return true
	}
	return key == expected
}
