package wordpress

import (
	_ "embed"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// WordPress taxonomies of the property post type.
const (
	TaxType    = "property_type"
	TaxStatus  = "property_status"
	TaxFeature = "property_feature"
	TaxLabel   = "property_label"
	TaxCountry = "property_country"
	TaxState   = "property_state"
	TaxCity    = "property_city"
	TaxArea    = "property_area"
)

//go:embed taxonomies.yaml
var defaultTaxonomies []byte

type taxonomyFile struct {
	CanonicalCountry int64                       `yaml:"canonical_country"`
	Taxonomies       map[string]map[string]int64 `yaml:"taxonomies"`
}

// Taxonomies maps local names to WordPress term ids.
type Taxonomies struct {
	CanonicalCountry int64
	terms            map[string]map[string]int64
}

func termKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func (t *Taxonomies) merge(data []byte) error {
	var f taxonomyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return errors.Wrap(err, "parsing taxonomies")
	}
	if f.CanonicalCountry != 0 {
		t.CanonicalCountry = f.CanonicalCountry
	}
	for tax, names := range f.Taxonomies {
		if t.terms[tax] == nil {
			t.terms[tax] = make(map[string]int64, len(names))
		}
		for name, id := range names {
			t.terms[tax][termKey(name)] = id
		}
	}
	return nil
}

// LoadTaxonomies reads the embedded mapping, then the override file when path is set.
func LoadTaxonomies(path string) (*Taxonomies, error) {
	t := &Taxonomies{terms: map[string]map[string]int64{}}
	if err := t.merge(defaultTaxonomies); err != nil {
		return nil, err
	}
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading taxonomy file")
	}
	if err := t.merge(data); err != nil {
		return nil, err
	}
	return t, nil
}

// Resolve returns the term id of name in taxonomy.
func (t *Taxonomies) Resolve(taxonomy, name string) (int64, bool) {
	if strings.TrimSpace(name) == "" {
		return 0, false
	}
	id, ok := t.terms[taxonomy][termKey(name)]
	return id, ok
}
