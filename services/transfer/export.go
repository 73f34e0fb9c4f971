package transfer

import (
	"context"
	"strings"
	"time"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
)

// ExportOptions selects the listings to export. Exactly one mode must be set.
type ExportOptions struct {
	Last  int
	All   bool
	Codes []string
}

func (o ExportOptions) modes() int {
	n := 0
	if o.Last > 0 {
		n++
	}
	if o.All {
		n++
	}
	if len(o.Codes) > 0 {
		n++
	}
	return n
}

func (svc *Service) selectProperties(ctx context.Context, opts ExportOptions) ([]property.Property, error) {
	if opts.modes() != 1 {
		return nil, ErrExportMode
	}
	switch {
	case len(opts.Codes) > 0:
		codes := make([]string, 0, len(opts.Codes))
		for _, c := range opts.Codes {
			codes = append(codes, strings.ToUpper(core.CleanString(c)))
		}
		return svc.properties.Filter(ctx, property.QueryFilter{Codes: codes}, []core.DBOrdering{{Field: "id", Ascending: true}})
	case opts.Last > 0:
		return svc.properties.Filter(ctx, property.QueryFilter{Limit: opts.Last}, []core.DBOrdering{{Field: "created_at"}})
	default:
		return svc.properties.Filter(ctx, property.QueryFilter{}, []core.DBOrdering{{Field: "id", Ascending: true}})
	}
}

// Export builds the payload for the selected listings.
func (svc *Service) Export(ctx context.Context, opts ExportOptions) (Payload, error) {
	props, err := svc.selectProperties(ctx, opts)
	if err != nil {
		return Payload{}, err
	}
	svc.logger.Info("transfer: exporting", map[string]interface{}{"count": len(props)})

	items := make([]Item, 0, len(props))
	for _, p := range props {
		it, err := svc.exportOne(ctx, p)
		if err != nil {
			return Payload{}, err
		}
		items = append(items, it)
	}
	return Payload{
		Meta:  Meta{ExportedAt: time.Now().UTC(), Count: len(items)},
		Items: items,
	}, nil
}

func (svc *Service) exportOne(ctx context.Context, p property.Property) (Item, error) {
	var ids []int64
	for _, id := range []*int64{p.CurrencyID, p.PropertyTypeID, p.PropertySubtypeID,
		p.WaterServiceID, p.EnergyServiceID, p.DrainageServiceID, p.GasServiceID} {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	docs, err := svc.properties.Documents(ctx, p.ID)
	if err != nil {
		return Item{}, err
	}
	for _, d := range docs {
		if d.DocumentTypeID != nil {
			ids = append(ids, *d.DocumentTypeID)
		}
	}
	names, err := svc.catalogs.Items(ctx, ids...)
	if err != nil {
		return Item{}, err
	}

	it := Item{
		Code:                p.Code,
		Title:               p.Title,
		Description:         p.Description,
		Price:               p.Price,
		AvailabilityStatus:  string(p.AvailabilityStatus),
		Department:          p.Department,
		Province:            p.Province,
		District:            p.District,
		Urbanization:        p.Urbanization,
		Coordinates:         p.Coordinates,
		ExactAddress:        p.ExactAddress,
		RealAddress:         p.RealAddress,
		LandArea:            p.LandArea,
		BuiltArea:           p.BuiltArea,
		Floors:              p.Floors,
		Bedrooms:            p.Bedrooms,
		Bathrooms:           p.Bathrooms,
		HalfBathrooms:       p.HalfBathrooms,
		GarageSpaces:        p.GarageSpaces,
		AntiquityYears:      p.AntiquityYears,
		DeliveryDate:        p.DeliveryDate,
		Source:              p.Source,
		SourceURL:           p.SourceURL,
		SourcePublishedAt:   p.SourcePublishedAt,
		CurrencyCode:        optionalName(names, p.CurrencyID, true),
		PropertyTypeName:    optionalName(names, p.PropertyTypeID, false),
		PropertySubtypeName: optionalName(names, p.PropertySubtypeID, false),
		WaterServiceName:    optionalName(names, p.WaterServiceID, false),
		EnergyServiceName:   optionalName(names, p.EnergyServiceID, false),
		DrainageServiceName: optionalName(names, p.DrainageServiceID, false),
		GasServiceName:      optionalName(names, p.GasServiceID, false),
		Images:              []ImageRef{},
		Documents:           []DocumentRef{},
	}

	if p.ResponsibleID != nil {
		usr, err := svc.users.GetByID(ctx, *p.ResponsibleID)
		if err != nil && err != user.ErrNotFound {
			return Item{}, err
		}
		if err == nil {
			it.Responsible = &user.Snapshot{
				Email:     usr.Email,
				FirstName: usr.FirstName,
				LastName:  usr.LastName,
				Phone:     usr.Phone,
			}
		}
	}

	imgs, err := svc.properties.Images(ctx, p.ID)
	if err != nil {
		return Item{}, err
	}
	for _, img := range imgs {
		it.Images = append(it.Images, ImageRef{
			BlobKey:     img.BlobKey,
			WPSourceURL: img.WPSourceURL,
			Order:       img.Order,
			IsPrimary:   img.IsPrimary,
			Caption:     img.Caption,
		})
	}
	for _, d := range docs {
		it.Documents = append(it.Documents, DocumentRef{
			TypeCode:  optionalName(names, d.DocumentTypeID, true),
			TypeName:  optionalName(names, d.DocumentTypeID, false),
			BlobKey:   d.BlobKey,
			FileURL:   d.URL,
			Title:     d.Title,
			ValidFrom: d.ValidFrom,
			ValidTo:   d.ValidTo,
			Notes:     d.Notes,
		})
	}
	return it, nil
}
