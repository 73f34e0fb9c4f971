package transfer

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/catalog"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
)

type ImportOptions struct {
	ActorID *int64
	// MarkSource overrides the source of every imported listing when set.
	MarkSource string
	DryRun     bool
	Images     bool
	Documents  bool
	Limit      int
}

type ImportResult struct {
	Created      int `json:"created"`
	Updated      int `json:"updated"`
	Skipped      int `json:"skipped"`
	Errors       int `json:"errors"`
	ImagesLinked int `json:"images_linked"`
	DocsLinked   int `json:"docs_linked"`
}

// Import upserts every item of the payload by code.
func (svc *Service) Import(ctx context.Context, payload Payload, opts ImportOptions) (ImportResult, error) {
	items := payload.Items
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	var res ImportResult
	for idx, it := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		code := strings.ToUpper(core.CleanString(it.Code))
		if code == "" {
			res.Errors++
			svc.logger.Warn("transfer: bad item", errNoCode, map[string]interface{}{"item": idx + 1})
			continue
		}
		if opts.DryRun {
			res.Skipped++
			continue
		}
		created, err := svc.importOne(ctx, code, it, opts, &res)
		if err != nil {
			res.Errors++
			svc.logger.Error("transfer: import failed", err, map[string]interface{}{"item": idx + 1, "code": code})
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

func (svc *Service) lookup(ctx context.Context, kind catalog.Kind, value string, byCode bool) (*int64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var (
		it  catalog.Item
		err error
	)
	if byCode {
		it, err = svc.catalogs.FindByCode(ctx, kind, value)
	} else {
		it, err = svc.catalogs.FindByName(ctx, kind, value)
	}
	if err == catalog.ErrNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &it.ID, nil
}

// responsible finds the user by email and creates it only when missing.
func (svc *Service) responsible(ctx context.Context, snap *user.Snapshot) (*int64, error) {
	if snap == nil || core.CleanString(snap.Email) == "" {
		return nil, nil
	}
	usr, _, err := svc.users.GetOrCreateBySnapshot(ctx, user.Snapshot{
		Email:     snap.Email,
		FirstName: snap.FirstName,
		LastName:  snap.LastName,
		Phone:     snap.Phone,
	})
	if err != nil {
		return nil, errors.Wrap(err, "responsible")
	}
	return &usr.ID, nil
}

func (svc *Service) resolve(ctx context.Context, it Item, p *property.Property) error {
	var err error
	p.PropertyTypeID, p.PropertySubtypeID = nil, nil
	if name := core.CleanString(it.PropertyTypeName); name != "" {
		pt, _, err := svc.catalogs.GetOrCreate(ctx, catalog.KindPropertyType, name, nil)
		if err != nil {
			return err
		}
		p.PropertyTypeID = &pt.ID
		if sub := core.CleanString(it.PropertySubtypeName); sub != "" {
			st, _, err := svc.catalogs.GetOrCreate(ctx, catalog.KindPropertySubtype, sub, &pt.ID)
			if err != nil {
				return err
			}
			p.PropertySubtypeID = &st.ID
		}
	}
	if p.CurrencyID, err = svc.lookup(ctx, catalog.KindCurrency, it.CurrencyCode, true); err != nil {
		return err
	}
	// services are looked up only, the catalogs are not extended
	if p.WaterServiceID, err = svc.lookup(ctx, catalog.KindWaterService, it.WaterServiceName, false); err != nil {
		return err
	}
	if p.EnergyServiceID, err = svc.lookup(ctx, catalog.KindEnergyService, it.EnergyServiceName, false); err != nil {
		return err
	}
	if p.DrainageServiceID, err = svc.lookup(ctx, catalog.KindDrainageService, it.DrainageServiceName, false); err != nil {
		return err
	}
	if p.GasServiceID, err = svc.lookup(ctx, catalog.KindGasService, it.GasServiceName, false); err != nil {
		return err
	}
	p.ResponsibleID, err = svc.responsible(ctx, it.Responsible)
	return err
}

func (it Item) apply(p *property.Property, opts ImportOptions) {
	p.Title = it.Title
	p.Description = it.Description
	p.Price = it.Price
	p.AvailabilityStatus = property.Availability(it.AvailabilityStatus)
	if p.AvailabilityStatus == "" {
		p.AvailabilityStatus = property.AvailabilityAvailable
	}
	p.Department = it.Department
	p.Province = it.Province
	p.District = it.District
	p.Urbanization = it.Urbanization
	p.Coordinates = it.Coordinates
	p.ExactAddress = it.ExactAddress
	p.RealAddress = it.RealAddress
	p.LandArea = it.LandArea
	p.BuiltArea = it.BuiltArea
	p.Floors = it.Floors
	p.Bedrooms = it.Bedrooms
	p.Bathrooms = it.Bathrooms
	p.HalfBathrooms = it.HalfBathrooms
	p.GarageSpaces = it.GarageSpaces
	p.AntiquityYears = it.AntiquityYears
	p.DeliveryDate = it.DeliveryDate
	p.Source = it.Source
	if opts.MarkSource != "" {
		p.Source = opts.MarkSource
	}
	p.SourceURL = it.SourceURL
	p.SourcePublishedAt = it.SourcePublishedAt
	if opts.ActorID != nil {
		p.CreatedByID = opts.ActorID
	}
}

func (svc *Service) importOne(ctx context.Context, code string, it Item, opts ImportOptions, res *ImportResult) (bool, error) {
	p, err := svc.properties.GetByCode(ctx, code)
	created := err == property.ErrNotFound
	if err != nil && !created {
		return false, err
	}
	if created {
		p = property.Property{Code: code, IsActive: true}
	}
	if err := svc.resolve(ctx, it, &p); err != nil {
		return false, err
	}
	it.apply(&p, opts)
	if created {
		p, err = svc.properties.Import(ctx, p)
	} else {
		p, err = svc.properties.Save(ctx, p)
	}
	if err != nil {
		return false, err
	}

	if opts.Images && len(it.Images) > 0 {
		n, err := svc.linkImages(ctx, p.ID, it.Images, opts.ActorID)
		if err != nil {
			return false, err
		}
		res.ImagesLinked += n
	}
	if opts.Documents && len(it.Documents) > 0 {
		n, err := svc.linkDocuments(ctx, p.ID, it.Documents, opts.ActorID)
		if err != nil {
			return false, err
		}
		res.DocsLinked += n
	}
	return created, nil
}

// linkImages attaches image references whose blob key and WP source URL are both new to the listing.
func (svc *Service) linkImages(ctx context.Context, propertyID int64, refs []ImageRef, actorID *int64) (int, error) {
	imgs, err := svc.properties.Images(ctx, propertyID)
	if err != nil {
		return 0, err
	}
	keys := make(map[string]bool, len(imgs))
	urls := make(map[string]bool, len(imgs))
	for _, img := range imgs {
		keys[img.BlobKey] = true
		if img.WPSourceURL != "" {
			urls[img.WPSourceURL] = true
		}
	}
	linked := 0
	for _, ref := range refs {
		key := strings.TrimSpace(ref.BlobKey)
		if key == "" || keys[key] || (ref.WPSourceURL != "" && urls[ref.WPSourceURL]) {
			continue
		}
		if _, err := svc.properties.AttachImage(ctx, property.Image{
			PropertyID:   propertyID,
			BlobKey:      key,
			Caption:      ref.Caption,
			Order:        ref.Order,
			IsPrimary:    ref.IsPrimary,
			UploadedByID: actorID,
			WPSourceURL:  ref.WPSourceURL,
		}); err != nil {
			return linked, err
		}
		keys[key] = true
		linked++
	}
	return linked, nil
}

// linkDocuments attaches one document per known type. Unknown types are skipped.
func (svc *Service) linkDocuments(ctx context.Context, propertyID int64, refs []DocumentRef, actorID *int64) (int, error) {
	docs, err := svc.properties.Documents(ctx, propertyID)
	if err != nil {
		return 0, err
	}
	types := make(map[int64]bool, len(docs))
	for _, d := range docs {
		if d.DocumentTypeID != nil {
			types[*d.DocumentTypeID] = true
		}
	}
	linked := 0
	for _, ref := range refs {
		if strings.TrimSpace(ref.BlobKey) == "" {
			continue
		}
		typeID, err := svc.lookup(ctx, catalog.KindDocumentType, ref.TypeCode, true)
		if err != nil {
			return linked, err
		}
		if typeID == nil {
			if typeID, err = svc.lookup(ctx, catalog.KindDocumentType, ref.TypeName, false); err != nil {
				return linked, err
			}
		}
		if typeID == nil || types[*typeID] {
			continue
		}
		if _, err := svc.properties.AttachDocument(ctx, property.Document{
			PropertyID:     propertyID,
			DocumentTypeID: typeID,
			BlobKey:        ref.BlobKey,
			Title:          ref.Title,
			ValidFrom:      ref.ValidFrom,
			ValidTo:        ref.ValidTo,
			Notes:          ref.Notes,
			UploadedByID:   actorID,
		}); err != nil {
			return linked, err
		}
		types[*typeID] = true
		linked++
	}
	return linked, nil
}
