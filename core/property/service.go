package property

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/catalog"
	"github.com/janisrealty/janis/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("property not found")
	ErrImageNotFound    = errors.New("image not found")
	ErrVideoNotFound    = errors.New("video not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrRoomNotFound     = errors.New("room not found")
	ErrCodeExists       = errors.New("a property with this code already exists")
)

// Orderings allowed on listing queries.
var Orderings = []string{"price", "created_at", "updated_at", "code", "title"}

const (
	imagesPrefix    = "properties/images/"
	videosPrefix    = "properties/videos/"
	documentsPrefix = "properties/documents/"
)

type (
	Repository interface {
		CreateProperty(ctx context.Context, p Property) (Property, error)
		GetProperty(ctx context.Context, id int64) (Property, error)
		GetPropertyByCode(ctx context.Context, code string) (Property, error)
		UniqueCodeExists(ctx context.Context, code string) (bool, error)
		LastPropertyID(ctx context.Context) (int64, error)
		UpdateProperty(ctx context.Context, p Property) (Property, error)
		DeleteProperty(ctx context.Context, id int64) error
		// FilterProperties applies AND operation on the set QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on title, description, addresses or code.
		FilterProperties(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Property, error)
		ListPropertiesByID(ctx context.Context, ids ...int64) ([]Property, error)

		CreateChanges(ctx context.Context, changes ...Change) error
		ListChanges(ctx context.Context, propertyID int64) ([]Change, error)

		CreateImage(ctx context.Context, img Image) (Image, error)
		GetImage(ctx context.Context, id int64) (Image, error)
		// ListImages sorts by order then id.
		ListImages(ctx context.Context, propertyID int64) ([]Image, error)
		UpdateImage(ctx context.Context, img Image) (Image, error)
		DeleteImage(ctx context.Context, id int64) error
		UnsetPrimaryImages(ctx context.Context, propertyID, exceptID int64) error

		CreateVideo(ctx context.Context, v Video) (Video, error)
		GetVideo(ctx context.Context, id int64) (Video, error)
		ListVideos(ctx context.Context, propertyID int64) ([]Video, error)
		DeleteVideo(ctx context.Context, id int64) error

		CreateDocument(ctx context.Context, doc Document) (Document, error)
		GetDocument(ctx context.Context, id int64) (Document, error)
		ListDocuments(ctx context.Context, propertyID int64) ([]Document, error)
		UpdateDocument(ctx context.Context, doc Document) (Document, error)
		DeleteDocument(ctx context.Context, id int64) error

		CreateRoom(ctx context.Context, r Room) (Room, error)
		ListRooms(ctx context.Context, propertyID int64) ([]Room, error)
		DeleteRoom(ctx context.Context, propertyID, id int64) error

		// GetFinancialInfo returns a zero FinancialInfo for the property when none was saved.
		GetFinancialInfo(ctx context.Context, propertyID int64) (FinancialInfo, error)
		SaveFinancialInfo(ctx context.Context, fi FinancialInfo) (FinancialInfo, error)
	}

	ItemLookup interface {
		Items(ctx context.Context, ids ...int64) (map[int64]catalog.Item, error)
	}

	OwnerLookup interface {
		FullNames(ctx context.Context, ids ...int64) (map[int64]string, error)
	}

	UserLookup interface {
		GetByID(ctx context.Context, id int64) (user.User, error)
	}

	Service struct {
		repo   Repository
		blobs  core.BlobStore
		items  ItemLookup
		owners OwnerLookup
		users  UserLookup
	}
)

// NowFunc is mocked in tests.
var NowFunc = func() time.Time { return time.Now().UTC() }

func NewService(repo Repository, blobs core.BlobStore, items ItemLookup, owners OwnerLookup, users UserLookup) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(blobs, "blobs"),
		vala.IsNotNil(items, "items"),
		vala.IsNotNil(owners, "owners"),
		vala.IsNotNil(users, "users"),
	).CheckAndPanic()
	return &Service{repo: repo, blobs: blobs, items: items, owners: owners, users: users}
}

// CanView reports whether usr may see p.
func CanView(usr user.User, p Property) bool {
	if usr.IsPrivileged() {
		return true
	}
	if p.IsDraft {
		return p.ResponsibleID != nil && *p.ResponsibleID == usr.ID
	}
	return p.IsActive
}

func (svc *Service) nextCode(ctx context.Context) (string, error) {
	lastID, err := svc.repo.LastPropertyID(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PROP%06d", lastID+1), nil
}

// newUniqueCode returns 2 random upper letters followed by 9 random digits, unused so far.
func (svc *Service) newUniqueCode(ctx context.Context) (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	for {
		var b strings.Builder
		for i := 0; i < 2; i++ {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
			if err != nil {
				return "", err
			}
			b.WriteByte(letters[n.Int64()])
		}
		n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%09d", n.Int64())
		code := b.String()
		exists, err := svc.repo.UniqueCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}

func (svc *Service) checkCode(ctx context.Context, code string, exclID int64) error {
	other, err := svc.repo.GetPropertyByCode(ctx, code)
	if err == ErrNotFound {
		return nil
	} else if err != nil {
		return err
	}
	if other.ID != exclID {
		return core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	}
	return nil
}

// Create stores a new listing. The acting user is the creator and, unless another is given, the responsible.
func (svc *Service) Create(ctx context.Context, actor *user.User, in Input) (Property, error) {
	now := NowFunc()
	p := Property{Floors: 1, CreatedAt: now, UpdatedAt: now}
	if actor != nil {
		p.CreatedByID = &actor.ID
		p.ResponsibleID = &actor.ID
	}
	in.apply(&p)
	return svc.create(ctx, p)
}

// Import stores p as is, filling its codes. Used by importers.
func (svc *Service) Import(ctx context.Context, p Property) (Property, error) {
	now := NowFunc()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Floors == 0 {
		p.Floors = 1
	}
	if p.AvailabilityStatus == "" {
		p.AvailabilityStatus = AvailabilityAvailable
	}
	p.applyTitleCase()
	return svc.create(ctx, p)
}

func (svc *Service) create(ctx context.Context, p Property) (Property, error) {
	var err error
	if p.Code == "" {
		if p.Code, err = svc.nextCode(ctx); err != nil {
			return Property{}, err
		}
	}
	if err = svc.checkCode(ctx, p.Code, 0); err != nil {
		return Property{}, err
	}
	if p.UniqueCode == "" {
		if p.UniqueCode, err = svc.newUniqueCode(ctx); err != nil {
			return Property{}, err
		}
	}
	return svc.repo.CreateProperty(ctx, p)
}

func (svc *Service) GetByID(ctx context.Context, id int64) (Property, error) {
	return svc.repo.GetProperty(ctx, id)
}

func (svc *Service) GetByCode(ctx context.Context, code string) (Property, error) {
	return svc.repo.GetPropertyByCode(ctx, strings.ToUpper(core.CleanString(code)))
}

// Get returns the listing if usr may see it. Hidden listings are reported as not found.
func (svc *Service) Get(ctx context.Context, usr user.User, id int64) (Property, error) {
	p, err := svc.repo.GetProperty(ctx, id)
	if err != nil {
		return Property{}, err
	}
	if !CanView(usr, p) {
		return Property{}, ErrNotFound
	}
	return p, nil
}

// Update applies in on p and records one Change per modified field.
func (svc *Service) Update(ctx context.Context, actor user.User, p Property, in Input) (Property, error) {
	orig := p
	in.apply(&p)
	if p.Code != orig.Code {
		if err := svc.checkCode(ctx, p.Code, p.ID); err != nil {
			return Property{}, err
		}
	}
	p.UpdatedAt = NowFunc()
	p, err := svc.repo.UpdateProperty(ctx, p)
	if err != nil {
		return Property{}, err
	}
	if changes := diff(orig, p, &actor.ID, p.UpdatedAt); len(changes) > 0 {
		if err := svc.repo.CreateChanges(ctx, changes...); err != nil {
			return Property{}, err
		}
	}
	return p, nil
}

// Save stores p without auditing. Used by integrations that only touch tracking fields.
func (svc *Service) Save(ctx context.Context, p Property) (Property, error) {
	p.UpdatedAt = NowFunc()
	return svc.repo.UpdateProperty(ctx, p)
}

func (svc *Service) Changes(ctx context.Context, propertyID int64) ([]Change, error) {
	return svc.repo.ListChanges(ctx, propertyID)
}

func defaultOrdering(ordering []core.DBOrdering) []core.DBOrdering {
	ordering = core.AllowedOrderings(ordering, Orderings...)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	return ordering
}

// Query lists the listings visible to usr.
func (svc *Service) Query(ctx context.Context, usr user.User, filter QueryFilter, ordering []core.DBOrdering) ([]Property, error) {
	filter.PublicOnly, filter.MineOf, filter.VisibleTo = false, nil, nil
	if !usr.IsPrivileged() {
		filter.VisibleTo = &usr.ID
	}
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.FilterProperties(ctx, filter, defaultOrdering(ordering))
}

// Mine lists the non-draft listings usr is responsible for.
func (svc *Service) Mine(ctx context.Context, usr user.User, filter QueryFilter, ordering []core.DBOrdering) ([]Property, error) {
	filter.PublicOnly, filter.VisibleTo = false, nil
	filter.MineOf = &usr.ID
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.FilterProperties(ctx, filter, defaultOrdering(ordering))
}

// Public lists active non-draft listings, newest first by default.
func (svc *Service) Public(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Property, error) {
	filter.VisibleTo, filter.MineOf = nil, nil
	filter.PublicOnly = true
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.FilterProperties(ctx, filter, defaultOrdering(ordering))
}

// Filter runs an unrestricted query. Used by integrations.
func (svc *Service) Filter(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Property, error) {
	return svc.repo.FilterProperties(ctx, filter, ordering)
}

// Delete removes the listing and the blobs of its media.
func (svc *Service) Delete(ctx context.Context, id int64) error {
	var keys []string
	imgs, err := svc.repo.ListImages(ctx, id)
	if err != nil {
		return err
	}
	for _, img := range imgs {
		keys = append(keys, img.BlobKey)
	}
	vids, err := svc.repo.ListVideos(ctx, id)
	if err != nil {
		return err
	}
	for _, v := range vids {
		keys = append(keys, v.BlobKey)
	}
	docs, err := svc.repo.ListDocuments(ctx, id)
	if err != nil {
		return err
	}
	for _, d := range docs {
		keys = append(keys, d.BlobKey)
	}

	if err := svc.repo.DeleteProperty(ctx, id); err != nil {
		return err
	}
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := svc.blobs.Delete(ctx, k); err != nil && err != core.ErrBlobNotFound {
			return err
		}
	}
	return nil
}

// Views resolves the names of the relations of props.
func (svc *Service) Views(ctx context.Context, props []Property) ([]View, error) {
	var itemIDs, ownerIDs []int64
	userIDs := map[int64]bool{}
	for _, p := range props {
		for _, id := range []*int64{p.CurrencyID, p.PropertyTypeID, p.PropertySubtypeID, p.StatusID} {
			if id != nil {
				itemIDs = append(itemIDs, *id)
			}
		}
		if p.OwnerID != nil {
			ownerIDs = append(ownerIDs, *p.OwnerID)
		}
		if p.ResponsibleID != nil {
			userIDs[*p.ResponsibleID] = true
		}
	}

	items, err := svc.items.Items(ctx, itemIDs...)
	if err != nil {
		return nil, err
	}
	owners, err := svc.owners.FullNames(ctx, ownerIDs...)
	if err != nil {
		return nil, err
	}
	users := make(map[int64]string, len(userIDs))
	for id := range userIDs {
		usr, err := svc.users.GetByID(ctx, id)
		if err == user.ErrNotFound {
			continue
		} else if err != nil {
			return nil, err
		}
		users[id] = usr.FullName()
	}

	name := func(id *int64) catalog.Item {
		if id == nil {
			return catalog.Item{}
		}
		return items[*id]
	}
	views := make([]View, 0, len(props))
	for _, p := range props {
		v := View{Property: p}
		v.Latitude, v.Longitude = p.LatLng()
		cur := name(p.CurrencyID)
		v.CurrencySymbol, v.CurrencyCode = cur.Symbol, cur.Code
		v.TypeName = name(p.PropertyTypeID).Name
		v.SubtypeName = name(p.PropertySubtypeID).Name
		v.StatusName = name(p.StatusID).Name
		if p.OwnerID != nil {
			v.OwnerName = owners[*p.OwnerID]
		}
		if p.ResponsibleID != nil {
			v.ResponsibleName = users[*p.ResponsibleID]
		}
		views = append(views, v)
	}
	return views, nil
}

// View resolves the relations of p and loads its media.
func (svc *Service) View(ctx context.Context, p Property) (View, error) {
	views, err := svc.Views(ctx, []Property{p})
	if err != nil {
		return View{}, err
	}
	v := views[0]
	if v.Images, err = svc.Images(ctx, p.ID); err != nil {
		return View{}, err
	}
	if v.Videos, err = svc.Videos(ctx, p.ID); err != nil {
		return View{}, err
	}
	if v.Documents, err = svc.Documents(ctx, p.ID); err != nil {
		return View{}, err
	}
	return v, nil
}

// MatchKeywords scores public listings against keywords and returns the best 3.
// userIDs restricts the candidates to listings created by those users.
func (svc *Service) MatchKeywords(ctx context.Context, keywords []string, userIDs []int64) ([]KeywordMatch, error) {
	keywords = cleanKeywords(keywords)
	if len(keywords) == 0 {
		return []KeywordMatch{}, nil
	}
	props, err := svc.repo.FilterProperties(ctx, QueryFilter{PublicOnly: true, CreatedByIDs: userIDs}, nil)
	if err != nil {
		return nil, err
	}
	scored := rankByKeywords(props, keywords, 3)
	if len(scored) == 0 {
		return []KeywordMatch{}, nil
	}

	kept := make([]Property, len(scored))
	for i, s := range scored {
		kept[i] = s.prop
	}
	views, err := svc.Views(ctx, kept)
	if err != nil {
		return nil, err
	}
	out := make([]KeywordMatch, len(views))
	for i, v := range views {
		out[i] = KeywordMatch{View: v, MatchScore: scored[i].score}
	}
	return out, nil
}

// Images

func blobKey(prefix, filename string) string {
	return prefix + uuid.NewString() + strings.ToLower(path.Ext(filename))
}

func (svc *Service) withImageURL(img Image) Image {
	if img.BlobKey != "" {
		img.URL = svc.blobs.URL(img.BlobKey)
	} else {
		img.URL = img.WPSourceURL
	}
	return img
}

// AddImage uploads r to the blob store and attaches it to the listing.
func (svc *Service) AddImage(ctx context.Context, uploaderID *int64, propertyID int64, in ImageInput, r io.Reader, filename, contentType string) (Image, error) {
	key := blobKey(imagesPrefix, filename)
	if err := svc.blobs.Put(ctx, key, r, contentType); err != nil {
		return Image{}, err
	}
	return svc.AttachImage(ctx, Image{
		PropertyID:   propertyID,
		ImageTypeID:  in.ImageTypeID,
		RoomTypeID:   in.RoomTypeID,
		BlobKey:      key,
		ContentType:  contentType,
		Caption:      in.Caption,
		Order:        in.Order,
		IsPrimary:    in.IsPrimary,
		UploadedByID: uploaderID,
	})
}

// AttachImage stores an image whose blob already exists.
func (svc *Service) AttachImage(ctx context.Context, img Image) (Image, error) {
	if img.UploadedAt.IsZero() {
		img.UploadedAt = NowFunc()
	}
	img, err := svc.repo.CreateImage(ctx, img)
	if err != nil {
		return Image{}, err
	}
	if img.IsPrimary {
		if err := svc.repo.UnsetPrimaryImages(ctx, img.PropertyID, img.ID); err != nil {
			return Image{}, err
		}
	}
	return svc.withImageURL(img), nil
}

func (svc *Service) Images(ctx context.Context, propertyID int64) ([]Image, error) {
	imgs, err := svc.repo.ListImages(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	for i := range imgs {
		imgs[i] = svc.withImageURL(imgs[i])
	}
	return imgs, nil
}

func (svc *Service) propertyImage(ctx context.Context, propertyID, id int64) (Image, error) {
	img, err := svc.repo.GetImage(ctx, id)
	if err != nil {
		return Image{}, err
	}
	if img.PropertyID != propertyID {
		return Image{}, ErrImageNotFound
	}
	return img, nil
}

// SetPrimaryImage makes the image the only primary one of the listing.
func (svc *Service) SetPrimaryImage(ctx context.Context, propertyID, id int64) (Image, error) {
	img, err := svc.propertyImage(ctx, propertyID, id)
	if err != nil {
		return Image{}, err
	}
	img.IsPrimary = true
	if img, err = svc.repo.UpdateImage(ctx, img); err != nil {
		return Image{}, err
	}
	if err := svc.repo.UnsetPrimaryImages(ctx, propertyID, id); err != nil {
		return Image{}, err
	}
	return svc.withImageURL(img), nil
}

// SaveImage stores img as is. Used to maintain the WordPress media cache.
func (svc *Service) SaveImage(ctx context.Context, img Image) (Image, error) {
	return svc.repo.UpdateImage(ctx, img)
}

func (svc *Service) DeleteImage(ctx context.Context, propertyID, id int64) error {
	img, err := svc.propertyImage(ctx, propertyID, id)
	if err != nil {
		return err
	}
	if err := svc.repo.DeleteImage(ctx, id); err != nil {
		return err
	}
	if img.BlobKey != "" {
		if err := svc.blobs.Delete(ctx, img.BlobKey); err != nil && err != core.ErrBlobNotFound {
			return err
		}
	}
	return nil
}

// Videos

func (svc *Service) AddVideo(ctx context.Context, uploaderID *int64, propertyID int64, in VideoInput, r io.Reader, filename, contentType string) (Video, error) {
	key := blobKey(videosPrefix, filename)
	if err := svc.blobs.Put(ctx, key, r, contentType); err != nil {
		return Video{}, err
	}
	v, err := svc.repo.CreateVideo(ctx, Video{
		PropertyID:   propertyID,
		VideoTypeID:  in.VideoTypeID,
		BlobKey:      key,
		Caption:      core.TitleCase(in.Caption),
		UploadedByID: uploaderID,
		UploadedAt:   NowFunc(),
	})
	if err != nil {
		return Video{}, err
	}
	v.URL = svc.blobs.URL(v.BlobKey)
	return v, nil
}

func (svc *Service) Videos(ctx context.Context, propertyID int64) ([]Video, error) {
	vids, err := svc.repo.ListVideos(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	for i := range vids {
		vids[i].URL = svc.blobs.URL(vids[i].BlobKey)
	}
	return vids, nil
}

func (svc *Service) DeleteVideo(ctx context.Context, propertyID, id int64) error {
	v, err := svc.repo.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	if v.PropertyID != propertyID {
		return ErrVideoNotFound
	}
	if err := svc.repo.DeleteVideo(ctx, id); err != nil {
		return err
	}
	if err := svc.blobs.Delete(ctx, v.BlobKey); err != nil && err != core.ErrBlobNotFound {
		return err
	}
	return nil
}

// Documents

func (svc *Service) AddDocument(ctx context.Context, uploaderID *int64, propertyID int64, in DocumentInput, r io.Reader, filename, contentType string) (Document, error) {
	key := blobKey(documentsPrefix, filename)
	if err := svc.blobs.Put(ctx, key, r, contentType); err != nil {
		return Document{}, err
	}
	return svc.AttachDocument(ctx, Document{
		PropertyID:     propertyID,
		DocumentTypeID: in.DocumentTypeID,
		BlobKey:        key,
		Title:          core.TitleCase(in.Title),
		ValidFrom:      in.ValidFrom,
		ValidTo:        in.ValidTo,
		Notes:          in.Notes,
		UploadedByID:   uploaderID,
	})
}

// AttachDocument stores a document whose blob already exists.
func (svc *Service) AttachDocument(ctx context.Context, doc Document) (Document, error) {
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = NowFunc()
	}
	doc, err := svc.repo.CreateDocument(ctx, doc)
	if err != nil {
		return Document{}, err
	}
	doc.URL = svc.blobs.URL(doc.BlobKey)
	return doc, nil
}

func (svc *Service) Documents(ctx context.Context, propertyID int64) ([]Document, error) {
	docs, err := svc.repo.ListDocuments(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].URL = svc.blobs.URL(docs[i].BlobKey)
	}
	return docs, nil
}

func (svc *Service) propertyDocument(ctx context.Context, propertyID, id int64) (Document, error) {
	doc, err := svc.repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.PropertyID != propertyID {
		return Document{}, ErrDocumentNotFound
	}
	return doc, nil
}

func (svc *Service) ApproveDocument(ctx context.Context, propertyID, id int64) (Document, error) {
	doc, err := svc.propertyDocument(ctx, propertyID, id)
	if err != nil {
		return Document{}, err
	}
	doc.IsApproved = true
	if doc, err = svc.repo.UpdateDocument(ctx, doc); err != nil {
		return Document{}, err
	}
	doc.URL = svc.blobs.URL(doc.BlobKey)
	return doc, nil
}

func (svc *Service) DeleteDocument(ctx context.Context, propertyID, id int64) error {
	doc, err := svc.propertyDocument(ctx, propertyID, id)
	if err != nil {
		return err
	}
	if err := svc.repo.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if err := svc.blobs.Delete(ctx, doc.BlobKey); err != nil && err != core.ErrBlobNotFound {
		return err
	}
	return nil
}

// Rooms

func (svc *Service) AddRoom(ctx context.Context, propertyID int64, r Room) (Room, error) {
	r.ID = 0
	r.PropertyID = propertyID
	r.clean()
	return svc.repo.CreateRoom(ctx, r)
}

func (svc *Service) Rooms(ctx context.Context, propertyID int64) ([]Room, error) {
	return svc.repo.ListRooms(ctx, propertyID)
}

func (svc *Service) DeleteRoom(ctx context.Context, propertyID, id int64) error {
	return svc.repo.DeleteRoom(ctx, propertyID, id)
}

// Financial info

func (svc *Service) FinancialInfo(ctx context.Context, propertyID int64) (FinancialInfo, error) {
	return svc.repo.GetFinancialInfo(ctx, propertyID)
}

func (svc *Service) SaveFinancialInfo(ctx context.Context, propertyID int64, fi FinancialInfo) (FinancialInfo, error) {
	fi.PropertyID = propertyID
	fi.UpdatedAt = NowFunc()
	return svc.repo.SaveFinancialInfo(ctx, fi)
}
