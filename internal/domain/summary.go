package domain

import "fmt"

// Dimension is a categorical School attribute that results can be grouped by.
type Dimension string

const (
	DimProvince     Dimension = "province"
	DimCity         Dimension = "city"
	DimSizeCategory Dimension = "size_category"
	DimDenomination Dimension = "denomination"
	DimStructure    Dimension = "education_structure"
)

// UnknownGroup is the group key used for schools with no value for the
// grouped dimension.
const UnknownGroup = "unknown"

// ParseDimension resolves a dimension name. An empty name defaults to
// DimProvince.
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(s); d {
	case "":
		return DimProvince, nil
	case DimProvince, DimCity, DimSizeCategory, DimDenomination, DimStructure:
		return d, nil
	}
	return "", fmt.Errorf("%w: unknown group_by %q", ErrValidation, s)
}

// Of returns the value of the dimension for s, or nil when it is missing.
func (d Dimension) Of(s School) *string {
	switch d {
	case DimProvince:
		return s.Province
	case DimCity:
		return s.City
	case DimSizeCategory:
		return s.SizeCategory
	case DimDenomination:
		return s.Denomination
	case DimStructure:
		return s.EducationStructure
	}
	return nil
}

// GroupStat is one bucket of a grouped breakdown.
type GroupStat struct {
	Key           string  `json:"key"`
	Count         int     `json:"count"`
	EnrollmentSum int64   `json:"enrollment_sum"`
	WebsitePct    float64 `json:"website_pct"`
}

// LevelStat is the breakdown for one level flag.
type LevelStat struct {
	Level         Level   `json:"level"`
	Count         int     `json:"count"`
	EnrollmentSum int64   `json:"enrollment_sum"`
	Pct           float64 `json:"pct"`
}

// Summary holds the statistics computed over one filtered result set.
//
// EnrollmentSum treats a missing enrollment as zero and EnrollmentMean divides
// by Count, not by the number of schools that reported an enrollment.
// Percentages carry one decimal, rounded half away from zero.
type Summary struct {
	Count          int         `json:"count"`
	ClientCount    int         `json:"client_count"`
	EnrollmentSum  int64       `json:"enrollment_sum"`
	EnrollmentMean float64     `json:"enrollment_mean"`
	WebsitePct     float64     `json:"website_pct"`
	PhonePct       float64     `json:"phone_pct"`
	GroupedBy      Dimension   `json:"grouped_by"`
	Groups         []GroupStat `json:"groups"`
	Levels         []LevelStat `json:"levels"`
	// Breadth groups schools by how many selectable levels they offer.
	Breadth []GroupStat `json:"breadth"`
}
