package remax

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/property"
)

// Row is one CSV record keyed by header.
type Row map[string]string

func (r Row) get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// Listing is a mapped CSV row.
type Listing struct {
	Source          string
	SourceURL       string
	Code            string
	Title           string
	Description     string
	Price           *float64
	CurrencyCode    string
	Department      string
	Province        string
	District        string
	LandArea        *float64
	BuiltArea       *float64
	Floors          *int
	Bedrooms        *int
	Bathrooms       *int
	GarageSpaces    *int
	AntiquityYears  *int
	PublishedAt     *time.Time
	WaterService    string
	EnergyService   string
	DrainageService string
	GasService      string
	PropertyType    string
	PropertySubtype string
	AgentName       string
	AgentEmail      string
	AgentPhone      string
	ImageURLs       []string
}

var errNoCode = errors.New("row has no 'ID de la Propiedad'")

// MapRow maps a RE/MAX export row.
func MapRow(r Row) (Listing, error) {
	code := r.get("ID de la Propiedad")
	if code == "" {
		return Listing{}, errNoCode
	}
	source := r.get("portal")
	if source == "" {
		source = property.SourceRemax
	}
	ptype := r.get("Type Property", "Tipo", "Tipo de Propiedad")
	return Listing{
		Source:          strings.ToLower(source),
		SourceURL:       r.get("URL de la Propiedad"),
		Code:            code,
		Title:           r.get("Tipo de Propiedad", "Type Property", "Tipo"),
		Description:     r.get("Descripción Detallada"),
		Price:           parseDecimal(r.get("Precio (USD)")),
		CurrencyCode:    "USD",
		Department:      r.get("Departamento"),
		Province:        r.get("Provincia"),
		District:        r.get("Distrito"),
		LandArea:        parseDecimal(r.get("Área de Terreno (m²)")),
		BuiltArea:       parseDecimal(r.get("Área Construida (m²)")),
		Floors:          parseInt(r.get("Número de Pisos")),
		Bedrooms:        parseInt(r.get("Número de Habitaciones")),
		Bathrooms:       parseInt(r.get("Número de Baños")),
		GarageSpaces:    parseInt(r.get("Número de Cocheras")),
		AntiquityYears:  parseAntiquity(r.get("Antigüedad")),
		PublishedAt:     parseDate(r.get("Fecha de Publicación")),
		WaterService:    normalizeService(r.get("Servicio de Agua")),
		EnergyService:   normalizeService(r.get("Energía Eléctrica")),
		DrainageService: normalizeService(r.get("Servicio de Drenaje")),
		GasService:      normalizeService(r.get("Servicio de Gas")),
		PropertyType:    ptype,
		PropertySubtype: r.get("Subtipo de Propiedad"),
		AgentName:       r.get("Agente Inmobiliario"),
		AgentEmail:      strings.ToLower(r.get("Email del Agente")),
		AgentPhone:      r.get("Teléfono del Agente"),
		ImageURLs:       parseImageURLs(r.get("Imágenes de la Propiedad")),
	}, nil
}

func parseDecimal(s string) *float64 {
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt(s string) *int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}

var digits = regexp.MustCompile(`\d+`)

// parseAntiquity reads "20 Años" as 20.
func parseAntiquity(s string) *int {
	m := digits.FindString(s)
	if m == "" {
		return nil
	}
	n, _ := strconv.Atoi(m)
	return &n
}

func parseDate(s string) *time.Time {
	for _, layout := range []string{"2/1/2006", "2/1/06"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return &t
		}
	}
	return nil
}

func normalizeService(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no tiene", "ninguno", "n/a":
		return ""
	}
	return strings.TrimSpace(s)
}

var imageExts = []string{".jpg", ".jpeg", ".png", ".webp"}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		base, _, _ := strings.Cut(raw, "?")
		return base
	}
	u.RawQuery, u.Fragment = "", ""
	return u.String()
}

// parseImageURLs splits a comma separated list, keeping unique image URLs without query strings.
func parseImageURLs(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, raw := range strings.Split(s, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.Contains(raw, "blank.gif") {
			continue
		}
		clean := stripQuery(raw)
		low := strings.ToLower(clean)
		ok := false
		for _, ext := range imageExts {
			if strings.HasSuffix(low, ext) {
				ok = true
				break
			}
		}
		if !ok || seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}
