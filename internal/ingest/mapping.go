package ingest

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pkordes/school-directory/internal/domain"
)

// Field is a logical school attribute read from an extract.
type Field string

const (
	FieldID                 Field = "id"
	FieldName               Field = "name"
	FieldCity               Field = "city"
	FieldProvince           Field = "province"
	FieldLatitude           Field = "latitude"
	FieldLongitude          Field = "longitude"
	FieldWebsite            Field = "website"
	FieldPhone              Field = "phone"
	FieldHasWebsite         Field = "has_website"
	FieldEducationStructure Field = "education_structure"
	FieldLevelsOffered      Field = "levels_offered"
	FieldLevelPRO           Field = "level_pro"
	FieldLevelVMBO          Field = "level_vmbo"
	FieldLevelMAVO          Field = "level_mavo"
	FieldLevelHAVO          Field = "level_havo"
	FieldLevelVWO           Field = "level_vwo"
	FieldLevelBrugjaar      Field = "level_brugjaar"
	FieldEnrollmentTotal    Field = "enrollment_total"
	FieldSizeCategory       Field = "size_category"
	FieldDenomination       Field = "denomination"
)

// levelFields pairs each level flag with its logical field.
var levelFields = map[domain.Level]Field{
	domain.LevelPRO:      FieldLevelPRO,
	domain.LevelVMBO:     FieldLevelVMBO,
	domain.LevelMAVO:     FieldLevelMAVO,
	domain.LevelHAVO:     FieldLevelHAVO,
	domain.LevelVWO:      FieldLevelVWO,
	domain.LevelBrugjaar: FieldLevelBrugjaar,
}

// Mapping lists, for each logical field, the candidate column names in
// priority order. For a given row the first candidate that is present in the
// header and non-blank supplies the value.
type Mapping map[Field][]string

// DefaultMapping returns the column names used by the DUO school extracts,
// plus a few common aliases.
func DefaultMapping() Mapping {
	return Mapping{
		FieldID:                 {"vestigings_id", "vestigingsnummer", "id"},
		FieldName:               {"school_name", "vestigingsnaam", "name"},
		FieldCity:               {"city", "plaatsnaam"},
		FieldProvince:           {"province", "provincie"},
		FieldLatitude:           {"latitude", "lat"},
		FieldLongitude:          {"longitude", "lon", "lng"},
		FieldWebsite:            {"website", "internetadres"},
		FieldPhone:              {"phone_formatted", "phone", "telefoonnummer"},
		FieldHasWebsite:         {"has_website"},
		FieldEducationStructure: {"education_structure", "onderwijsstructuur"},
		FieldLevelsOffered:      {"levels_offered"},
		FieldLevelPRO:           {"PRO"},
		FieldLevelVMBO:          {"VMBO"},
		FieldLevelMAVO:          {"MAVO"},
		FieldLevelHAVO:          {"HAVO"},
		FieldLevelVWO:           {"VWO"},
		FieldLevelBrugjaar:      {"BRUGJAAR"},
		FieldEnrollmentTotal:    {"enrollment_total", "totaal_leerlingen"},
		FieldSizeCategory:       {"school_size_category", "size_category"},
		FieldDenomination:       {"denomination", "denominatie"},
	}
}

// LoadMapping reads a YAML file of field → candidate columns and overlays it
// on DefaultMapping. Fields absent from the file keep their defaults.
//
//	id: [vestigings_id]
//	website: [url, website]
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest.LoadMapping: %w", err)
	}

	var overrides map[string][]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("ingest.LoadMapping: %w: %v", domain.ErrValidation, err)
	}

	m := DefaultMapping()
	for name, columns := range overrides {
		f := Field(strings.TrimSpace(name))
		if _, known := m[f]; !known {
			return nil, fmt.Errorf("ingest.LoadMapping: %w: unknown field %q", domain.ErrValidation, name)
		}
		if len(columns) == 0 {
			return nil, fmt.Errorf("ingest.LoadMapping: %w: field %q has no columns", domain.ErrValidation, name)
		}
		m[f] = columns
	}
	return m, nil
}

// columns resolves the mapping against a header row: for each field, the
// indexes of the candidate columns that exist, in priority order.
type columns map[Field][]int

func (m Mapping) resolve(header []string) columns {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	c := make(columns, len(m))
	for f, candidates := range m {
		for _, name := range candidates {
			if i, ok := index[name]; ok {
				c[f] = append(c[f], i)
			}
		}
	}
	return c
}

// value returns the first non-blank candidate value for f in row.
func (c columns) value(row []string, f Field) (string, bool) {
	for _, i := range c[f] {
		if i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return v, true
		}
	}
	return "", false
}
