package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/school-directory/internal/domain"
)

// pgForeignKeyViolation is the SQLSTATE Postgres reports when an insert
// references a missing parent row.
const pgForeignKeyViolation = "23503"

// ClientTagRepo defines the persistence operations for the global client tag set.
type ClientTagRepo interface {
	// Add tags a school. Idempotent: adding an existing tag is a no-op that
	// keeps the original created_at and created_by. created reports whether a
	// row was inserted.
	// Returns domain.ErrIntegrity if the school does not exist.
	Add(ctx context.Context, schoolID string, createdBy *uuid.UUID) (created bool, err error)

	// Remove untags a school. Removing a missing tag is a no-op; removed
	// reports whether a row was deleted.
	Remove(ctx context.Context, schoolID string) (removed bool, err error)

	// Get returns the tag for a school.
	// Returns domain.ErrNotFound if the school is not tagged.
	Get(ctx context.Context, schoolID string) (domain.ClientTag, error)

	// List returns every tag ordered by school id.
	List(ctx context.Context) ([]domain.ClientTag, error)

	// ListEntries returns every tag joined with the tagged school's display
	// fields, ordered by school name then id.
	ListEntries(ctx context.Context) ([]domain.ClientEntry, error)
}

// pgClientTagRepo is the Postgres implementation of ClientTagRepo.
type pgClientTagRepo struct {
	db db
}

// NewClientTagRepo constructs a ClientTagRepo backed by the provided db connection.
func NewClientTagRepo(db db) ClientTagRepo {
	return &pgClientTagRepo{db: db}
}

// Add inserts the tag unless one already exists. ON CONFLICT DO NOTHING
// leaves the first writer's metadata in place.
func (r *pgClientTagRepo) Add(ctx context.Context, schoolID string, createdBy *uuid.UUID) (bool, error) {
	const q = `
		INSERT INTO client_tags (school_id, created_by)
		VALUES (@school_id, @created_by)
		ON CONFLICT (school_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"school_id": schoolID, "created_by": toPgUUID(createdBy)})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return false, fmt.Errorf("repo.ClientTagRepo.Add: school %q: %w", schoolID, domain.ErrIntegrity)
		}
		return false, storeErr("repo.ClientTagRepo.Add", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Remove deletes the tag if present.
func (r *pgClientTagRepo) Remove(ctx context.Context, schoolID string) (bool, error) {
	const q = `DELETE FROM client_tags WHERE school_id = @school_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"school_id": schoolID})
	if err != nil {
		return false, storeErr("repo.ClientTagRepo.Remove", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Get retrieves a single tag by school id.
func (r *pgClientTagRepo) Get(ctx context.Context, schoolID string) (domain.ClientTag, error) {
	const q = `
		SELECT school_id, created_by, created_at
		FROM client_tags
		WHERE school_id = @school_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"school_id": schoolID})
	result, err := scanClientTag(row)
	if err != nil {
		return domain.ClientTag{}, storeErr("repo.ClientTagRepo.Get", err)
	}
	return result, nil
}

// List returns the whole tag set.
func (r *pgClientTagRepo) List(ctx context.Context) ([]domain.ClientTag, error) {
	const q = `
		SELECT school_id, created_by, created_at
		FROM client_tags
		ORDER BY school_id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, storeErr("repo.ClientTagRepo.List", err)
	}
	defer rows.Close()

	tags := []domain.ClientTag{}
	for rows.Next() {
		tag, err := scanClientTag(rows)
		if err != nil {
			return nil, storeErr("repo.ClientTagRepo.List: scan", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("repo.ClientTagRepo.List: rows", err)
	}
	return tags, nil
}

// ListEntries returns the tag set joined with school names.
func (r *pgClientTagRepo) ListEntries(ctx context.Context) ([]domain.ClientEntry, error) {
	const q = `
		SELECT ct.school_id, ct.created_by, ct.created_at, s.name, s.city, s.province
		FROM client_tags ct
		JOIN schools s ON s.id = ct.school_id
		ORDER BY s.name, s.id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, storeErr("repo.ClientTagRepo.ListEntries", err)
	}
	defer rows.Close()

	entries := []domain.ClientEntry{}
	for rows.Next() {
		var (
			e  domain.ClientEntry
			by pgtype.UUID
		)
		if err := rows.Scan(&e.SchoolID, &by, &e.CreatedAt, &e.Name, &e.City, &e.Province); err != nil {
			return nil, storeErr("repo.ClientTagRepo.ListEntries: scan", err)
		}
		e.CreatedBy = fromPgUUID(by)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("repo.ClientTagRepo.ListEntries: rows", err)
	}
	return entries, nil
}

// scanClientTag maps a single database row into a domain.ClientTag.
func scanClientTag(s scanner) (domain.ClientTag, error) {
	var (
		t  domain.ClientTag
		by pgtype.UUID
	)
	err := s.Scan(&t.SchoolID, &by, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ClientTag{}, domain.ErrNotFound
		}
		return domain.ClientTag{}, err
	}
	t.CreatedBy = fromPgUUID(by)
	return t, nil
}

func toPgUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func fromPgUUID(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	u := uuid.UUID(id.Bytes)
	return &u
}
