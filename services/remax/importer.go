package remax

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/catalog"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
)

const agentArea = "Operaciones"

type (
	Catalogs interface {
		GetOrCreate(ctx context.Context, kind catalog.Kind, name string, parentID *int64) (catalog.Item, bool, error)
		FindByName(ctx context.Context, kind catalog.Kind, name string) (catalog.Item, error)
		FindByCode(ctx context.Context, kind catalog.Kind, code string) (catalog.Item, error)
	}

	Properties interface {
		GetByCode(ctx context.Context, code string) (property.Property, error)
		Import(ctx context.Context, p property.Property) (property.Property, error)
		Save(ctx context.Context, p property.Property) (property.Property, error)
		Filter(ctx context.Context, filter property.QueryFilter, ordering []core.DBOrdering) ([]property.Property, error)
		Delete(ctx context.Context, id int64) error
		Images(ctx context.Context, propertyID int64) ([]property.Image, error)
		AddImage(ctx context.Context, uploaderID *int64, propertyID int64, in property.ImageInput, r io.Reader, filename, contentType string) (property.Image, error)
		SaveImage(ctx context.Context, img property.Image) (property.Image, error)
	}

	Users interface {
		GetOrCreateBySnapshot(ctx context.Context, snap user.Snapshot) (user.User, bool, error)
		Query(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error)
		Delete(ctx context.Context, ids ...int64) error
	}

	// Downloader fetches a remote image.
	Downloader interface {
		Download(ctx context.Context, url string) (content []byte, contentType string, err error)
	}

	Importer struct {
		catalogs   Catalogs
		properties Properties
		users      Users
		downloader Downloader
		logger     core.Logger
	}
)

type Options struct {
	ActorID *int64
	DryRun  bool
	Images  bool
	// Limit stops after that many rows. 0 reads all.
	Limit int
}

type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

type PurgeResult struct {
	Properties int `json:"deleted_properties"`
	Images     int `json:"deleted_images"`
	Users      int `json:"deleted_users"`
}

func NewImporter(catalogs Catalogs, properties Properties, users Users, downloader Downloader, logger core.Logger) *Importer {
	vala.BeginValidation().Validate(
		vala.IsNotNil(catalogs, "catalogs"),
		vala.IsNotNil(properties, "properties"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(downloader, "downloader"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	return &Importer{catalogs: catalogs, properties: properties, users: users, downloader: downloader, logger: logger}
}

// Import upserts every listing of the export read from r.
func (imp *Importer) Import(ctx context.Context, r io.Reader, opts Options) (Result, error) {
	reader, err := NewReader(r)
	if err != nil {
		return Result{}, err
	}
	var res Result
	for idx := 1; opts.Limit <= 0 || idx <= opts.Limit; idx++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		row, err := reader.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return res, errors.Wrapf(err, "reading row %d", idx)
		}

		l, err := MapRow(row)
		if err != nil {
			res.Errors++
			imp.logger.Warn("remax: bad row", err, map[string]interface{}{"row": idx})
			continue
		}
		if opts.DryRun {
			res.Skipped++
			imp.logger.Info("remax: dry run", map[string]interface{}{"row": idx, "code": l.Code})
			continue
		}
		p, created, err := imp.Upsert(ctx, l, opts)
		if err != nil {
			res.Errors++
			imp.logger.Error("remax: import failed", err, map[string]interface{}{"row": idx, "code": l.Code})
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
		imp.logger.Debug("remax: imported", map[string]interface{}{"code": p.Code, "id": p.ID, "created": created})
	}
	return res, nil
}

func (imp *Importer) lookup(ctx context.Context, kind catalog.Kind, name string, byCode bool) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	var (
		it  catalog.Item
		err error
	)
	if byCode {
		it, err = imp.catalogs.FindByCode(ctx, kind, name)
	} else {
		it, err = imp.catalogs.FindByName(ctx, kind, name)
	}
	if err == catalog.ErrNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &it.ID, nil
}

func splitName(full string) (string, string) {
	first, last, _ := strings.Cut(strings.Join(strings.Fields(full), " "), " ")
	return first, last
}

func (imp *Importer) agent(ctx context.Context, l Listing) (*int64, error) {
	if l.AgentName == "" && l.AgentEmail == "" {
		return nil, nil
	}
	first, last := splitName(l.AgentName)
	usr, _, err := imp.users.GetOrCreateBySnapshot(ctx, user.Snapshot{
		Email:     l.AgentEmail,
		FirstName: first,
		LastName:  last,
		Phone:     l.AgentPhone,
		RoleCode:  user.RoleRemaxAgent,
		AreaName:  agentArea,
	})
	if err != nil {
		return nil, errors.Wrap(err, "agent")
	}
	return &usr.ID, nil
}

func (l Listing) apply(p *property.Property) {
	p.Source = l.Source
	p.SourceURL = l.SourceURL
	p.SourcePublishedAt = l.PublishedAt
	p.Title = l.Title
	p.Description = l.Description
	p.Price = l.Price
	p.Department = l.Department
	p.Province = l.Province
	p.District = l.District
	p.LandArea = l.LandArea
	p.BuiltArea = l.BuiltArea
	p.AntiquityYears = l.AntiquityYears
	p.Floors, p.Bedrooms, p.Bathrooms, p.GarageSpaces = 1, 0, 0, 0
	if l.Floors != nil && *l.Floors > 0 {
		p.Floors = *l.Floors
	}
	if l.Bedrooms != nil {
		p.Bedrooms = *l.Bedrooms
	}
	if l.Bathrooms != nil {
		p.Bathrooms = *l.Bathrooms
	}
	if l.GarageSpaces != nil {
		p.GarageSpaces = *l.GarageSpaces
	}
}

// Upsert creates or updates the listing with the code of l.
func (imp *Importer) Upsert(ctx context.Context, l Listing, opts Options) (property.Property, bool, error) {
	var p property.Property
	var err error

	if l.PropertyType != "" {
		pt, _, err := imp.catalogs.GetOrCreate(ctx, catalog.KindPropertyType, l.PropertyType, nil)
		if err != nil {
			return property.Property{}, false, err
		}
		p.PropertyTypeID = &pt.ID
		if l.PropertySubtype != "" {
			st, _, err := imp.catalogs.GetOrCreate(ctx, catalog.KindPropertySubtype, l.PropertySubtype, &pt.ID)
			if err != nil {
				return property.Property{}, false, err
			}
			p.PropertySubtypeID = &st.ID
		}
	}
	if p.CurrencyID, err = imp.lookup(ctx, catalog.KindCurrency, l.CurrencyCode, true); err != nil {
		return property.Property{}, false, err
	}
	services := []struct {
		kind catalog.Kind
		name string
		dst  **int64
	}{
		{catalog.KindWaterService, l.WaterService, &p.WaterServiceID},
		{catalog.KindEnergyService, l.EnergyService, &p.EnergyServiceID},
		{catalog.KindDrainageService, l.DrainageService, &p.DrainageServiceID},
		{catalog.KindGasService, l.GasService, &p.GasServiceID},
	}
	for _, s := range services {
		if *s.dst, err = imp.lookup(ctx, s.kind, s.name, false); err != nil {
			return property.Property{}, false, err
		}
	}
	if p.ResponsibleID, err = imp.agent(ctx, l); err != nil {
		return property.Property{}, false, err
	}

	existing, err := imp.properties.GetByCode(ctx, l.Code)
	created := err == property.ErrNotFound
	if err != nil && !created {
		return property.Property{}, false, err
	}
	if created {
		p.Code = strings.ToUpper(l.Code)
		p.CreatedByID = opts.ActorID
		p.IsActive = true
		l.apply(&p)
		if p, err = imp.properties.Import(ctx, p); err != nil {
			return property.Property{}, false, err
		}
	} else {
		existing.PropertyTypeID, existing.PropertySubtypeID = p.PropertyTypeID, p.PropertySubtypeID
		existing.CurrencyID, existing.ResponsibleID = p.CurrencyID, p.ResponsibleID
		existing.WaterServiceID, existing.EnergyServiceID = p.WaterServiceID, p.EnergyServiceID
		existing.DrainageServiceID, existing.GasServiceID = p.DrainageServiceID, p.GasServiceID
		if opts.ActorID != nil {
			existing.CreatedByID = opts.ActorID
		}
		l.apply(&existing)
		if p, err = imp.properties.Save(ctx, existing); err != nil {
			return property.Property{}, false, err
		}
	}

	if opts.Images && len(l.ImageURLs) > 0 {
		if err := imp.importImages(ctx, p, l.ImageURLs, opts.ActorID); err != nil {
			return property.Property{}, false, err
		}
	}
	return p, created, nil
}

func filenameFromURL(u string) string {
	base, _, _ := strings.Cut(u, "?")
	name := path.Base(strings.TrimRight(base, "/"))
	if name == "" || name == "." || name == "/" {
		name = "image.jpg"
	}
	if len(name) > 200 {
		name = name[:200]
	}
	return name
}

// importImages downloads the images not attached yet. The first one of the list is primary.
func (imp *Importer) importImages(ctx context.Context, p property.Property, urls []string, actorID *int64) error {
	imgs, err := imp.properties.Images(ctx, p.ID)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(imgs))
	for _, img := range imgs {
		existing[img.WPSourceURL] = true
	}
	for i, u := range urls {
		if existing[u] {
			continue
		}
		content, contentType, err := imp.downloader.Download(ctx, u)
		if err != nil || len(content) == 0 {
			imp.logger.Warn("remax: image download failed", err, map[string]interface{}{"url": u})
			continue
		}
		img, err := imp.properties.AddImage(ctx, actorID, p.ID, property.ImageInput{Order: i, IsPrimary: i == 0},
			bytes.NewReader(content), filenameFromURL(u), contentType)
		if err != nil {
			return err
		}
		img.WPSourceURL = u
		if _, err := imp.properties.SaveImage(ctx, img); err != nil {
			return err
		}
	}
	return nil
}

// Purge deletes the imported listings, then the RE/MAX agents that are neither staff nor superusers.
func (imp *Importer) Purge(ctx context.Context) (PurgeResult, error) {
	var res PurgeResult
	props, err := imp.properties.Filter(ctx, property.QueryFilter{Source: property.SourceRemax}, nil)
	if err != nil {
		return res, err
	}
	for _, p := range props {
		imgs, err := imp.properties.Images(ctx, p.ID)
		if err != nil {
			return res, err
		}
		if err := imp.properties.Delete(ctx, p.ID); err != nil {
			return res, errors.Wrapf(err, "deleting property %d", p.ID)
		}
		res.Properties++
		res.Images += len(imgs)
	}

	agents, err := imp.users.Query(ctx, &user.QueryFilter{Roles: []string{user.RoleRemaxAgent}}, nil)
	if err != nil {
		return res, err
	}
	var ids []int64
	for _, u := range agents {
		if u.IsSuperuser || u.IsStaff {
			continue
		}
		ids = append(ids, u.ID)
	}
	if len(ids) > 0 {
		if err := imp.users.Delete(ctx, ids...); err != nil {
			return res, err
		}
	}
	res.Users = len(ids)
	return res, nil
}

// HTTPDownloader fetches images over HTTP.
type HTTPDownloader struct {
	client *rest.Client
}

func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	return &HTTPDownloader{client: &rest.Client{HTTPClient: &http.Client{Timeout: timeout}}}
}

func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := d.client.SendWithContext(ctx, rest.Request{Method: rest.Get, BaseURL: url})
	if err != nil {
		return nil, "", errors.Wrapf(err, "downloading %s", url)
	}
	if resp.StatusCode >= 400 {
		return nil, "", errors.Errorf("downloading %s: status %d", url, resp.StatusCode)
	}
	var contentType string
	if ct := resp.Headers["Content-Type"]; len(ct) > 0 {
		contentType = ct[0]
	}
	return []byte(resp.Body), contentType, nil
}
