package repo

import (
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/school-directory/internal/domain"
)

// levelColumns maps each level flag to its column. It doubles as the
// whitelist of identifiers that may appear in generated SQL.
var levelColumns = map[domain.Level]string{
	domain.LevelPRO:      "level_pro",
	domain.LevelVMBO:     "level_vmbo",
	domain.LevelMAVO:     "level_mavo",
	domain.LevelHAVO:     "level_havo",
	domain.LevelVWO:      "level_vwo",
	domain.LevelBrugjaar: "level_brugjaar",
}

// buildWhere renders f as a WHERE clause over the schools table aliased "s".
// It returns "" when the filter constrains nothing. Values are always passed
// as named arguments; only whitelisted column names are interpolated.
//
// This is the SQL twin of domain.Filter.Matches and must stay in step with it.
func buildWhere(f domain.Filter) (string, pgx.NamedArgs) {
	var conditions []string
	args := pgx.NamedArgs{}

	if v, ok := domain.Value(f.Province); ok {
		conditions = append(conditions, "s.province = @province")
		args["province"] = v
	}
	if v, ok := domain.Value(f.SizeCategory); ok {
		conditions = append(conditions, "s.size_category = @size_category")
		args["size_category"] = v
	}
	if v, ok := domain.Value(f.Denomination); ok {
		conditions = append(conditions, "s.denomination = @denomination")
		args["denomination"] = v
	}
	if q, ok := domain.Value(f.Search); ok {
		conditions = append(conditions, "(s.name ILIKE @search OR s.city ILIKE @search)")
		args["search"] = "%" + escapeLike(q) + "%"
	}
	if len(f.Levels) > 0 {
		conditions = append(conditions, levelCondition(f.Levels))
	}
	if f.ClientsOnly {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM client_tags ct WHERE ct.school_id = s.id)")
	}
	if f.GeoOnly {
		conditions = append(conditions, "s.latitude IS NOT NULL AND s.longitude IS NOT NULL")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// levelCondition ORs the requested level flags. A NULL flag never matches.
// A non-empty set with no known level matches nothing, as Matches does.
func levelCondition(levels []domain.Level) string {
	var ors []string
	for _, l := range domain.AllLevels() {
		if !slices.Contains(levels, l) {
			continue
		}
		ors = append(ors, "s."+levelColumns[l]+" IS TRUE")
	}
	if len(ors) == 0 {
		return "FALSE"
	}
	return "(" + strings.Join(ors, " OR ") + ")"
}

// escapeLike escapes the LIKE wildcards so the search term matches literally.
// Backslash is Postgres' default LIKE escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
