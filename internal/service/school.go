// Package service contains the business logic for the school directory.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pkordes/school-directory/internal/domain"
	"github.com/pkordes/school-directory/internal/events"
	"github.com/pkordes/school-directory/internal/repo"
)

// SchoolService implements the read side of the directory: filtered queries,
// the map variant, summaries and exports. It also deletes schools.
type SchoolService struct {
	schools  repo.SchoolRepo
	tags     repo.ClientTagRepo
	pub      events.Publisher
	log      *slog.Logger
	pageSize int
}

// NewSchoolService constructs a SchoolService. pageSize is the number of rows
// requested per store read; it is clamped to repo.MaxPageSize.
func NewSchoolService(schools repo.SchoolRepo, tags repo.ClientTagRepo, pub events.Publisher, log *slog.Logger, pageSize int) *SchoolService {
	if log == nil {
		log = slog.Default()
	}
	return &SchoolService{schools: schools, tags: tags, pub: pub, log: log, pageSize: pageSize}
}

// Query returns one window of the schools matching q.Filter, in identifier
// order, each annotated with its client flag, plus the total match count.
//
// The rows, the tag set and the count are read concurrently. If a page read
// fails, the rows fetched before it are returned with the error.
func (s *SchoolService) Query(ctx context.Context, q domain.Query) (domain.QueryResult, error) {
	if err := q.Filter.Validate(); err != nil {
		return domain.QueryResult{}, fmt.Errorf("service.SchoolService.Query: %w", err)
	}

	var (
		rows   []domain.School
		tagged map[string]bool
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = Collect(s.sweep(gctx, q.Filter, q.Window))
		return err
	})
	g.Go(func() error {
		var err error
		tagged, err = s.taggedSet(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.schools.Count(gctx, q.Filter)
		return err
	})
	err := g.Wait()

	result := domain.QueryResult{Schools: annotate(rows, tagged), Total: total}
	if err != nil {
		return result, fmt.Errorf("service.SchoolService.Query: %w", err)
	}
	return result, nil
}

// Map returns every school matching f that has both coordinates.
func (s *SchoolService) Map(ctx context.Context, f domain.Filter) ([]domain.SchoolView, error) {
	f.GeoOnly = true
	views, err := s.all(ctx, f)
	if err != nil {
		return views, fmt.Errorf("service.SchoolService.Map: %w", err)
	}
	return views, nil
}

// Summary aggregates every school matching f. Summaries are computed over
// the same result set Query pages through.
func (s *SchoolService) Summary(ctx context.Context, f domain.Filter, by domain.Dimension, top int) (domain.Summary, error) {
	views, err := s.all(ctx, f)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("service.SchoolService.Summary: %w", err)
	}
	return Summarize(views, by, top), nil
}

// Export returns every school matching f, annotated, for a flat export.
func (s *SchoolService) Export(ctx context.Context, f domain.Filter) ([]domain.SchoolView, error) {
	views, err := s.all(ctx, f)
	if err != nil {
		return views, fmt.Errorf("service.SchoolService.Export: %w", err)
	}
	return views, nil
}

// GetByID returns a single annotated school.
func (s *SchoolService) GetByID(ctx context.Context, id string) (domain.SchoolView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.SchoolView{}, fmt.Errorf("service.SchoolService.GetByID: %w: id is required", domain.ErrValidation)
	}

	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		return domain.SchoolView{}, fmt.Errorf("service.SchoolService.GetByID: %w", err)
	}
	tagged, err := s.isTagged(ctx, id)
	if err != nil {
		return domain.SchoolView{}, fmt.Errorf("service.SchoolService.GetByID: %w", err)
	}
	return domain.SchoolView{School: school, IsClient: tagged}, nil
}

// Delete removes a school. Its client tag goes with it; if it had one, the
// tag-dependent views are announced stale.
func (s *SchoolService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("service.SchoolService.Delete: %w: id is required", domain.ErrValidation)
	}

	hadTag, err := s.schools.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("service.SchoolService.Delete: %w", err)
	}
	if hadTag {
		publishStale(ctx, s.pub, s.log, id, "delete")
	}
	return nil
}

// Facets returns the values available for the categorical filters.
func (s *SchoolService) Facets(ctx context.Context) (domain.Facets, error) {
	f, err := s.schools.Facets(ctx)
	if err != nil {
		return domain.Facets{}, fmt.Errorf("service.SchoolService.Facets: %w", err)
	}
	return f, nil
}

// all sweeps the full result set for f and annotates it.
func (s *SchoolService) all(ctx context.Context, f domain.Filter) ([]domain.SchoolView, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var (
		rows   []domain.School
		tagged map[string]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = Collect(s.sweep(gctx, f, domain.Window{}))
		return err
	})
	g.Go(func() error {
		var err error
		tagged, err = s.taggedSet(gctx)
		return err
	})
	err := g.Wait()
	return annotate(rows, tagged), err
}

func (s *SchoolService) sweep(ctx context.Context, f domain.Filter, w domain.Window) iter.Seq2[domain.School, error] {
	fetch := func(ctx context.Context, offset, limit int) ([]domain.School, error) {
		return s.schools.ListRange(ctx, f, offset, limit)
	}
	return Sweep(ctx, fetch, SweepOptions{PageSize: s.pageSize, Offset: w.Offset, Max: w.Max()})
}

func (s *SchoolService) taggedSet(ctx context.Context) (map[string]bool, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t.SchoolID] = true
	}
	return set, nil
}

func (s *SchoolService) isTagged(ctx context.Context, id string) (bool, error) {
	_, err := s.tags.Get(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func annotate(rows []domain.School, tagged map[string]bool) []domain.SchoolView {
	views := make([]domain.SchoolView, 0, len(rows))
	for _, r := range rows {
		views = append(views, domain.SchoolView{School: r, IsClient: tagged[r.ID]})
	}
	return views
}

// publishStale announces the tag-dependent views as stale. Failures are
// logged; the mutation that caused them has already succeeded.
func publishStale(ctx context.Context, pub events.Publisher, log *slog.Logger, schoolID, op string) {
	if pub == nil {
		return
	}
	ev := events.StaleViews{
		SchoolID: schoolID,
		Op:       op,
		Views:    domain.TagDependentViews(),
		At:       time.Now().UTC(),
	}
	if err := pub.PublishStale(ctx, ev); err != nil {
		log.WarnContext(ctx, "publish stale views failed", "school_id", schoolID, "op", op, "error", err)
	}
}
