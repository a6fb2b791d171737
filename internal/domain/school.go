// Package domain contains the core data types for the school directory.
// This package has no storage or transport dependencies and is imported by
// every other internal package (repo, ingest, service, handler).
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Level is one of the education-level flags carried by a school.
type Level string

const (
	LevelPRO      Level = "PRO"
	LevelVMBO     Level = "VMBO"
	LevelMAVO     Level = "MAVO"
	LevelHAVO     Level = "HAVO"
	LevelVWO      Level = "VWO"
	LevelBrugjaar Level = "BRUGJAAR"
)

// AllLevels lists every stored level flag in display order.
func AllLevels() []Level {
	return []Level{LevelPRO, LevelVMBO, LevelMAVO, LevelHAVO, LevelVWO, LevelBrugjaar}
}

// SelectableLevels lists the levels offered to end users as filter choices.
func SelectableLevels() []Level {
	return []Level{LevelVMBO, LevelHAVO, LevelVWO}
}

// ExcludedLevels lists the levels that are stored and filterable
// programmatically but never offered as user-facing filter choices.
func ExcludedLevels() []Level {
	return []Level{LevelPRO, LevelBrugjaar, LevelMAVO}
}

// IsExcluded reports whether l is hidden from user-facing level selection.
func (l Level) IsExcluded() bool {
	for _, x := range ExcludedLevels() {
		if l == x {
			return true
		}
	}
	return false
}

// ParseLevel resolves a level name case-insensitively.
func ParseLevel(s string) (Level, error) {
	want := Level(strings.ToUpper(strings.TrimSpace(s)))
	for _, l := range AllLevels() {
		if l == want {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: unknown level %q", ErrValidation, s)
}

// LevelFlags holds the six independent level flags. Flags are non-exclusive
// and nullable: nil means the extract carried no value.
type LevelFlags struct {
	PRO      *bool `json:"pro,omitempty"`
	VMBO     *bool `json:"vmbo,omitempty"`
	MAVO     *bool `json:"mavo,omitempty"`
	HAVO     *bool `json:"havo,omitempty"`
	VWO      *bool `json:"vwo,omitempty"`
	Brugjaar *bool `json:"brugjaar,omitempty"`
}

// Flag returns the address of the flag for l, or nil for an unknown level.
// The returned pointer can be used both to read and to assign the flag.
func (f *LevelFlags) Flag(l Level) **bool {
	switch l {
	case LevelPRO:
		return &f.PRO
	case LevelVMBO:
		return &f.VMBO
	case LevelMAVO:
		return &f.MAVO
	case LevelHAVO:
		return &f.HAVO
	case LevelVWO:
		return &f.VWO
	case LevelBrugjaar:
		return &f.Brugjaar
	}
	return nil
}

// Has reports whether the flag for l is set to true. Null counts as false.
func (f LevelFlags) Has(l Level) bool {
	p := f.Flag(l)
	return p != nil && *p != nil && **p
}

// School is one school's canonical attribute row.
// All nullable columns use pointers so that NULL is distinguishable from a
// zero value. ID is assigned by the extract and never changes.
type School struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	City               *string    `json:"city,omitempty"`
	Province           *string    `json:"province,omitempty"`
	Latitude           *float64   `json:"latitude,omitempty"`
	Longitude          *float64   `json:"longitude,omitempty"`
	Website            *string    `json:"website,omitempty"`
	Phone              *string    `json:"phone,omitempty"`
	HasWebsite         *bool      `json:"has_website,omitempty"`
	EducationStructure *string    `json:"education_structure,omitempty"`
	LevelsOffered      *string    `json:"levels_offered,omitempty"`
	Levels             LevelFlags `json:"levels"`
	EnrollmentTotal    *int       `json:"enrollment_total,omitempty"`
	SizeCategory       *string    `json:"size_category,omitempty"`
	Denomination       *string    `json:"denomination,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (s School) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// DisplayLevels returns LevelsOffered with excluded level tokens removed,
// e.g. "PRO, VMBO, HAVO" → "VMBO, HAVO". Returns "" when LevelsOffered is nil.
func (s School) DisplayLevels() string {
	if s.LevelsOffered == nil {
		return ""
	}
	var kept []string
	for _, part := range strings.Split(*s.LevelsOffered, ",") {
		p := strings.TrimSpace(part)
		if p == "" || Level(strings.ToUpper(p)).IsExcluded() {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ", ")
}

// SchoolView is a School annotated with derived flags for presentation.
type SchoolView struct {
	School
	IsClient bool `json:"is_client"`
}

// Facets lists the distinct values available for each categorical filter,
// sorted ascending. Null values are omitted.
type Facets struct {
	Provinces      []string `json:"provinces"`
	SizeCategories []string `json:"size_categories"`
	Denominations  []string `json:"denominations"`
}
