// Package repo contains all database access logic for the school directory.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/school-directory/internal/domain"
)

// MaxPageSize is the most rows the store returns for a single range read.
// Larger requests are clamped, so callers sweeping a result set must not ask
// for more than this per page.
const MaxPageSize = 1000

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
// Begin is used for batch writes; on a pgx.Tx it opens a savepoint.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SchoolRepo defines the persistence operations for schools.
// The service and ingest layers depend on this interface, not the concrete
// Postgres implementation, so they can be unit-tested with a fake.
type SchoolRepo interface {
	// UpsertBatch writes schools in one transaction. A row whose id already
	// exists replaces every column except created_at. Rows are applied in
	// order, so a later duplicate id in the same batch wins.
	UpsertBatch(ctx context.Context, schools []domain.School) error

	// GetByID retrieves a single school.
	// Returns domain.ErrNotFound if no school with that id exists.
	GetByID(ctx context.Context, id string) (domain.School, error)

	// ListRange returns at most limit schools matching f, ordered by id
	// ascending, starting at offset. limit is clamped to MaxPageSize.
	ListRange(ctx context.Context, f domain.Filter, offset, limit int) ([]domain.School, error)

	// Count returns the number of schools matching f.
	Count(ctx context.Context, f domain.Filter) (int64, error)

	// Delete removes a school and, by cascade, its client tag. hadTag
	// reports whether a tag was removed with it; no tag can be added to the
	// school while the delete runs. Returns domain.ErrNotFound if it does not
	// exist.
	Delete(ctx context.Context, id string) (hadTag bool, err error)

	// Facets returns the distinct non-null values of the categorical columns.
	Facets(ctx context.Context) (domain.Facets, error)
}

// pgSchoolRepo is the Postgres implementation of SchoolRepo.
type pgSchoolRepo struct {
	db db
}

// NewSchoolRepo constructs a SchoolRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewSchoolRepo(db db) SchoolRepo {
	return &pgSchoolRepo{db: db}
}

const schoolColumns = `
	s.id, s.name, s.city, s.province, s.latitude, s.longitude, s.website, s.phone,
	s.has_website, s.education_structure, s.levels_offered,
	s.level_pro, s.level_vmbo, s.level_mavo, s.level_havo, s.level_vwo, s.level_brugjaar,
	s.enrollment_total, s.size_category, s.denomination, s.created_at`

const upsertSchoolSQL = `
	INSERT INTO schools (
		id, name, city, province, latitude, longitude, website, phone,
		has_website, education_structure, levels_offered,
		level_pro, level_vmbo, level_mavo, level_havo, level_vwo, level_brugjaar,
		enrollment_total, size_category, denomination)
	VALUES (
		@id, @name, @city, @province, @latitude, @longitude, @website, @phone,
		@has_website, @education_structure, @levels_offered,
		@level_pro, @level_vmbo, @level_mavo, @level_havo, @level_vwo, @level_brugjaar,
		@enrollment_total, @size_category, @denomination)
	ON CONFLICT (id) DO UPDATE SET
		name                = EXCLUDED.name,
		city                = EXCLUDED.city,
		province            = EXCLUDED.province,
		latitude            = EXCLUDED.latitude,
		longitude           = EXCLUDED.longitude,
		website             = EXCLUDED.website,
		phone               = EXCLUDED.phone,
		has_website         = EXCLUDED.has_website,
		education_structure = EXCLUDED.education_structure,
		levels_offered      = EXCLUDED.levels_offered,
		level_pro           = EXCLUDED.level_pro,
		level_vmbo          = EXCLUDED.level_vmbo,
		level_mavo          = EXCLUDED.level_mavo,
		level_havo          = EXCLUDED.level_havo,
		level_vwo           = EXCLUDED.level_vwo,
		level_brugjaar      = EXCLUDED.level_brugjaar,
		enrollment_total    = EXCLUDED.enrollment_total,
		size_category       = EXCLUDED.size_category,
		denomination        = EXCLUDED.denomination`

// UpsertBatch queues one upsert per school and sends them in a single round
// trip inside a transaction, so the batch commits or fails as a unit.
func (r *pgSchoolRepo) UpsertBatch(ctx context.Context, schools []domain.School) error {
	if len(schools) == 0 {
		return nil
	}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, s := range schools {
			b.Queue(upsertSchoolSQL, schoolArgs(s))
		}

		br := tx.SendBatch(ctx, b)
		for i := range schools {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("row %d (id %q): %w", i, schools[i].ID, err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return storeErr("repo.SchoolRepo.UpsertBatch", err)
	}
	return nil
}

// GetByID retrieves a school by primary key.
func (r *pgSchoolRepo) GetByID(ctx context.Context, id string) (domain.School, error) {
	q := `SELECT ` + schoolColumns + ` FROM schools s WHERE s.id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanSchool(row)
	if err != nil {
		return domain.School{}, storeErr("repo.SchoolRepo.GetByID", err)
	}
	return result, nil
}

// ListRange returns one bounded, id-ordered slice of the filtered result set.
func (r *pgSchoolRepo) ListRange(ctx context.Context, f domain.Filter, offset, limit int) ([]domain.School, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	where, args := buildWhere(f)
	args["limit"] = limit
	args["offset"] = offset
	q := `SELECT ` + schoolColumns + ` FROM schools s ` + where + `
		ORDER BY s.id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, storeErr("repo.SchoolRepo.ListRange", err)
	}
	defer rows.Close()

	schools := []domain.School{}
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, storeErr("repo.SchoolRepo.ListRange: scan", err)
		}
		schools = append(schools, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("repo.SchoolRepo.ListRange: rows", err)
	}
	return schools, nil
}

// Count returns the size of the filtered result set.
func (r *pgSchoolRepo) Count(ctx context.Context, f domain.Filter) (int64, error) {
	where, args := buildWhere(f)
	q := `SELECT count(*) FROM schools s ` + where

	var n int64
	if err := r.db.QueryRow(ctx, q, args).Scan(&n); err != nil {
		return 0, storeErr("repo.SchoolRepo.Count", err)
	}
	return n, nil
}

// Delete removes a school by primary key. The client_tags foreign key
// cascades, so a tag on the school disappears with it.
//
// The school row is locked first. A tag insert needs a key-share lock on the
// same row, so none can commit between the tag check and the delete.
func (r *pgSchoolRepo) Delete(ctx context.Context, id string) (bool, error) {
	const (
		lockQ = `SELECT 1 FROM schools WHERE id = @id FOR UPDATE`
		tagQ  = `SELECT EXISTS (SELECT 1 FROM client_tags WHERE school_id = @id)`
		delQ  = `DELETE FROM schools WHERE id = @id`
	)
	args := pgx.NamedArgs{"id": id}

	var tagged bool
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var one int
		if err := tx.QueryRow(ctx, lockQ, args).Scan(&one); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		if err := tx.QueryRow(ctx, tagQ, args).Scan(&tagged); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, delQ, args)
		return err
	})
	if err != nil {
		return false, storeErr("repo.SchoolRepo.Delete", err)
	}
	return tagged, nil
}

// Facets lists distinct provinces, size categories and denominations.
func (r *pgSchoolRepo) Facets(ctx context.Context) (domain.Facets, error) {
	var (
		f   domain.Facets
		err error
	)
	if f.Provinces, err = r.distinct(ctx, "province"); err != nil {
		return domain.Facets{}, err
	}
	if f.SizeCategories, err = r.distinct(ctx, "size_category"); err != nil {
		return domain.Facets{}, err
	}
	if f.Denominations, err = r.distinct(ctx, "denomination"); err != nil {
		return domain.Facets{}, err
	}
	return f, nil
}

// distinct returns the sorted non-null values of column. column is always
// one of the fixed names passed by Facets.
func (r *pgSchoolRepo) distinct(ctx context.Context, column string) ([]string, error) {
	q := `SELECT DISTINCT ` + column + ` FROM schools WHERE ` + column + ` IS NOT NULL ORDER BY 1`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, storeErr("repo.SchoolRepo.Facets", err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, storeErr("repo.SchoolRepo.Facets: "+column, err)
	}
	return values, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanSchool to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanSchool maps a single database row into a domain.School.
// Nullable columns scan into pointer fields and stay nil on NULL.
func scanSchool(s scanner) (domain.School, error) {
	var sc domain.School
	err := s.Scan(
		&sc.ID, &sc.Name, &sc.City, &sc.Province, &sc.Latitude, &sc.Longitude,
		&sc.Website, &sc.Phone, &sc.HasWebsite, &sc.EducationStructure, &sc.LevelsOffered,
		&sc.Levels.PRO, &sc.Levels.VMBO, &sc.Levels.MAVO, &sc.Levels.HAVO, &sc.Levels.VWO, &sc.Levels.Brugjaar,
		&sc.EnrollmentTotal, &sc.SizeCategory, &sc.Denomination, &sc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.School{}, domain.ErrNotFound
		}
		return domain.School{}, err
	}
	return sc, nil
}

// schoolArgs maps a school onto the named parameters of upsertSchoolSQL.
// Nil pointers become NULL.
func schoolArgs(s domain.School) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":                  s.ID,
		"name":                s.Name,
		"city":                s.City,
		"province":            s.Province,
		"latitude":            s.Latitude,
		"longitude":           s.Longitude,
		"website":             s.Website,
		"phone":               s.Phone,
		"has_website":         s.HasWebsite,
		"education_structure": s.EducationStructure,
		"levels_offered":      s.LevelsOffered,
		"level_pro":           s.Levels.PRO,
		"level_vmbo":          s.Levels.VMBO,
		"level_mavo":          s.Levels.MAVO,
		"level_havo":          s.Levels.HAVO,
		"level_vwo":           s.Levels.VWO,
		"level_brugjaar":      s.Levels.Brugjaar,
		"enrollment_total":    s.EnrollmentTotal,
		"size_category":       s.SizeCategory,
		"denomination":        s.Denomination,
	}
}

// storeErr wraps err with the operation name. Store failures additionally
// wrap domain.ErrStore; not-found passes through unchanged.
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}
