package wordpress

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/janisrealty/janis/core/property"
)

// Payload is the JSON body of a property post.
type Payload map[string]interface{}

// Meta returns the post meta values of the payload.
func (p Payload) Meta() map[string][]string {
	m, _ := p["meta"].(map[string][]string)
	return m
}

var (
	ugc     = bluemonday.UGCPolicy()
	printer = message.NewPrinter(language.English)
)

// Slug is the post slug of the listing with the given id.
func Slug(id int64) string {
	return "propify-" + strconv.FormatInt(id, 10)
}

func floatString(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func intOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// BuildPayload maps a listing to the Houzez property post.
func BuildPayload(v property.View, taxonomyIDs map[string][]int64, featuredMediaID int64, galleryIDs []int64) Payload {
	status := "draft"
	if v.IsActive && !v.IsDraft {
		status = "publish"
	}
	payload := Payload{
		"title":   v.Title,
		"content": ugc.Sanitize(v.Description),
		"status":  status,
		"slug":    Slug(v.ID),
	}
	for tax, ids := range taxonomyIDs {
		if len(ids) > 0 {
			payload[tax] = ids
		}
	}
	if featuredMediaID != 0 {
		payload["featured_media"] = featuredMediaID
	}

	var price float64
	if v.Price != nil {
		price = *v.Price
	}
	currency := v.CurrencyCode
	if currency == "" {
		currency = "USD"
	}
	floors := v.Floors
	if floors == 0 {
		floors = 1
	}
	address := v.ExactAddress
	if address == "" {
		address = v.RealAddress
	}
	var lat, lng string
	if latS, lngS, ok := strings.Cut(v.Coordinates, ","); ok {
		lat, lng = strings.TrimSpace(latS), strings.TrimSpace(lngS)
	}
	location, hasMap := "", "0"
	if lat != "" && lng != "" {
		location, hasMap = lat+","+lng, "1"
	}
	code := strings.TrimSpace(v.UniqueCode)
	if code == "" {
		code = strings.TrimSpace(v.Code)
	}
	year := ""
	if v.AntiquityYears != nil {
		year = intOrEmpty(*v.AntiquityYears)
	}

	meta := map[string][]string{
		"fave_property_price":         {printer.Sprintf("%.0f", price)},
		"fave_property_price_postfix": {""},
		"fave_property_price_prefix":  {""},
		"fave_currency":               {currency},
		"fave_property_size":          {floatString(v.BuiltArea)},
		"fave_property_size_prefix":   {"m²"},
		"fave_property_land":          {floatString(v.LandArea)},
		"fave_property_land_postfix":  {"m²"},
		"fave_property_bedrooms":      {strconv.Itoa(v.Bedrooms)},
		"fave_property_bathrooms":     {strconv.Itoa(v.Bathrooms)},
		"fave_property_garage":        {intOrEmpty(v.GarageSpaces)},
		"property_floors":             {strconv.Itoa(floors)},
		"fave_property_map_address":   {address},
		"fave_property_address":       {address},
		"houzez_geolocation_lat":      {lat},
		"houzez_geolocation_long":     {lng},
		"fave_property_location":      {location},
		"fave_property_map":           {hasMap},
		"fave_property_id":            {code},
		"fave_property_rooms":         {intOrEmpty(v.Bedrooms)},
		"fave_property_zip":           {""},
		"fave_property_year":          {year},
		"fave_video_url":              {""},
	}
	if len(galleryIDs) > 0 {
		ids := make([]string, len(galleryIDs))
		for i, id := range galleryIDs {
			ids[i] = fmt.Sprint(id)
		}
		meta["fave_property_images"] = ids
	}
	payload["meta"] = meta
	return payload
}
