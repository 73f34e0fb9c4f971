// Package transfer moves listings between environments as JSON. Foreign keys travel by name or code
// and media by reference, so blobs are never copied.
package transfer

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/catalog"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/user"
)

var (
	ErrExportMode = errors.New("use exactly one of: last N, all, codes")
	errNoCode     = errors.New("item has no code")
)

type (
	Catalogs interface {
		Items(ctx context.Context, ids ...int64) (map[int64]catalog.Item, error)
		GetOrCreate(ctx context.Context, kind catalog.Kind, name string, parentID *int64) (catalog.Item, bool, error)
		FindByName(ctx context.Context, kind catalog.Kind, name string) (catalog.Item, error)
		FindByCode(ctx context.Context, kind catalog.Kind, code string) (catalog.Item, error)
	}

	Properties interface {
		GetByCode(ctx context.Context, code string) (property.Property, error)
		Filter(ctx context.Context, filter property.QueryFilter, ordering []core.DBOrdering) ([]property.Property, error)
		Import(ctx context.Context, p property.Property) (property.Property, error)
		Save(ctx context.Context, p property.Property) (property.Property, error)
		Images(ctx context.Context, propertyID int64) ([]property.Image, error)
		AttachImage(ctx context.Context, img property.Image) (property.Image, error)
		Documents(ctx context.Context, propertyID int64) ([]property.Document, error)
		AttachDocument(ctx context.Context, doc property.Document) (property.Document, error)
	}

	Users interface {
		GetByID(ctx context.Context, id int64) (user.User, error)
		GetOrCreateBySnapshot(ctx context.Context, snap user.Snapshot) (user.User, bool, error)
	}

	Service struct {
		catalogs   Catalogs
		properties Properties
		users      Users
		logger     core.Logger
	}
)

type Meta struct {
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
}

type Payload struct {
	Meta  Meta   `json:"meta"`
	Items []Item `json:"items"`
}

// Item is one exported listing.
type Item struct {
	Code               string     `json:"code"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Price              *float64   `json:"price"`
	AvailabilityStatus string     `json:"availability_status"`
	Department         string     `json:"department"`
	Province           string     `json:"province"`
	District           string     `json:"district"`
	Urbanization       string     `json:"urbanization"`
	Coordinates        string     `json:"coordinates"`
	ExactAddress       string     `json:"exact_address"`
	RealAddress        string     `json:"real_address"`
	LandArea           *float64   `json:"land_area"`
	BuiltArea          *float64   `json:"built_area"`
	Floors             int        `json:"floors"`
	Bedrooms           int        `json:"bedrooms"`
	Bathrooms          int        `json:"bathrooms"`
	HalfBathrooms      int        `json:"half_bathrooms"`
	GarageSpaces       int        `json:"garage_spaces"`
	AntiquityYears     *int       `json:"antiquity_years"`
	DeliveryDate       *time.Time `json:"delivery_date"`

	Source            string     `json:"source"`
	SourceURL         string     `json:"source_url"`
	SourcePublishedAt *time.Time `json:"source_published_at"`

	CurrencyCode        string `json:"currency_code,omitempty"`
	PropertyTypeName    string `json:"property_type_name,omitempty"`
	PropertySubtypeName string `json:"property_subtype_name,omitempty"`
	WaterServiceName    string `json:"water_service_name,omitempty"`
	EnergyServiceName   string `json:"energy_service_name,omitempty"`
	DrainageServiceName string `json:"drainage_service_name,omitempty"`
	GasServiceName      string `json:"gas_service_name,omitempty"`

	Responsible *user.Snapshot `json:"responsible"`
	Images      []ImageRef     `json:"images"`
	Documents   []DocumentRef  `json:"documents"`
}

type ImageRef struct {
	BlobKey     string `json:"image_name"`
	WPSourceURL string `json:"wp_source_url"`
	Order       int    `json:"order"`
	IsPrimary   bool   `json:"is_primary"`
	Caption     string `json:"caption"`
}

type DocumentRef struct {
	TypeCode  string     `json:"document_type_code,omitempty"`
	TypeName  string     `json:"document_type_name,omitempty"`
	BlobKey   string     `json:"file_name"`
	FileURL   string     `json:"file_url"`
	Title     string     `json:"title"`
	ValidFrom *time.Time `json:"valid_from"`
	ValidTo   *time.Time `json:"valid_to"`
	Notes     string     `json:"notes"`
}

func NewService(catalogs Catalogs, properties Properties, users Users, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(catalogs, "catalogs"),
		vala.IsNotNil(properties, "properties"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	return &Service{catalogs: catalogs, properties: properties, users: users, logger: logger}
}

// Write encodes the payload as indented JSON.
func Write(w io.Writer, p Payload) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func Read(r io.Reader) (Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Payload{}, errors.Wrap(err, "decoding export")
	}
	return p, nil
}

func optionalName(items map[int64]catalog.Item, id *int64, code bool) string {
	if id == nil {
		return ""
	}
	it, ok := items[*id]
	if !ok {
		return ""
	}
	if code {
		return it.Code
	}
	return it.Name
}
