package service

import (
	"context"
	"iter"

	"github.com/pkordes/school-directory/internal/domain"
	"github.com/pkordes/school-directory/internal/repo"
)

// PageFunc reads one id-ordered range of a result set: at most limit rows
// starting at offset. A page shorter than limit means the set is exhausted.
type PageFunc func(ctx context.Context, offset, limit int) ([]domain.School, error)

// SweepOptions bounds a sweep.
type SweepOptions struct {
	// PageSize is the number of rows requested per read. Values outside
	// (0, repo.MaxPageSize] are clamped to repo.MaxPageSize.
	PageSize int
	// Offset is the position of the first row to return.
	Offset int
	// Max stops the sweep after this many rows. 0 means no limit.
	Max int
}

func (o SweepOptions) pageSize() int {
	if o.PageSize <= 0 || o.PageSize > repo.MaxPageSize {
		return repo.MaxPageSize
	}
	return o.PageSize
}

// Sweep returns a lazy sequence over the complete result set behind fetch.
//
// Pages are requested one at a time in increasing offset order, and only when
// the consumer asks for the next row; breaking out of the loop stops further
// requests. Rows are yielded in the order the store returns them, never
// reordered or deduplicated. A failed read yields the error once and ends the
// sequence. Ranging over the sequence again starts a fresh sweep.
func Sweep(ctx context.Context, fetch PageFunc, opts SweepOptions) iter.Seq2[domain.School, error] {
	size := opts.pageSize()

	return func(yield func(domain.School, error) bool) {
		offset := max(opts.Offset, 0)
		emitted := 0
		for {
			limit := size
			if opts.Max > 0 {
				limit = min(limit, opts.Max-emitted)
			}
			if err := ctx.Err(); err != nil {
				yield(domain.School{}, err)
				return
			}

			page, err := fetch(ctx, offset, limit)
			if err != nil {
				yield(domain.School{}, err)
				return
			}
			if len(page) > limit {
				page = page[:limit]
			}
			for _, s := range page {
				if !yield(s, nil) {
					return
				}
			}

			emitted += len(page)
			if len(page) < limit || (opts.Max > 0 && emitted >= opts.Max) {
				return
			}
			offset += len(page)
		}
	}
}

// Collect drains seq into a slice. If the sequence fails, the rows read so
// far are returned together with a *domain.PartialResultError.
func Collect(seq iter.Seq2[domain.School, error]) ([]domain.School, error) {
	rows := []domain.School{}
	for s, err := range seq {
		if err != nil {
			return rows, &domain.PartialResultError{Fetched: len(rows), Err: err}
		}
		rows = append(rows, s)
	}
	return rows, nil
}
