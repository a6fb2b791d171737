package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/school-directory/internal/config"
	"github.com/pkordes/school-directory/internal/domain"
	"github.com/pkordes/school-directory/internal/events"
	"github.com/pkordes/school-directory/internal/repo"
)

// ---- fakes -----------------------------------------------------------------

// fakeDirectory is an in-memory schools table plus tag set.
type fakeDirectory struct {
	mu      sync.Mutex
	schools map[string]domain.School
	tags    map[string]domain.ClientTag
}

func newFakeDirectory(schools ...domain.School) *fakeDirectory {
	d := &fakeDirectory{schools: map[string]domain.School{}, tags: map[string]domain.ClientTag{}}
	for _, s := range schools {
		d.schools[s.ID] = s
	}
	return d
}

func (d *fakeDirectory) UpsertBatch(_ context.Context, schools []domain.School) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range schools {
		d.schools[s.ID] = s
	}
	return nil
}

func (d *fakeDirectory) GetByID(_ context.Context, id string) (domain.School, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.schools[id]
	if !ok {
		return domain.School{}, domain.ErrNotFound
	}
	return s, nil
}

func (d *fakeDirectory) matching(f domain.Filter) []domain.School {
	var out []domain.School
	for _, s := range d.schools {
		_, tagged := d.tags[s.ID]
		if f.Matches(s, tagged) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *fakeDirectory) ListRange(_ context.Context, f domain.Filter, offset, limit int) ([]domain.School, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	all := d.matching(f)
	if offset >= len(all) {
		return []domain.School{}, nil
	}
	return slices.Clone(all[offset:min(offset+limit, len(all))]), nil
}

func (d *fakeDirectory) Count(_ context.Context, f domain.Filter) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.matching(f))), nil
}

func (d *fakeDirectory) Delete(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.schools[id]; !ok {
		return false, domain.ErrNotFound
	}
	_, tagged := d.tags[id]
	delete(d.schools, id)
	delete(d.tags, id)
	return tagged, nil
}

func (d *fakeDirectory) Facets(_ context.Context) (domain.Facets, error) {
	return domain.Facets{}, nil
}

func (d *fakeDirectory) Add(_ context.Context, schoolID string, createdBy *uuid.UUID) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.schools[schoolID]; !ok {
		return false, domain.ErrIntegrity
	}
	if _, ok := d.tags[schoolID]; ok {
		return false, nil
	}
	d.tags[schoolID] = domain.ClientTag{SchoolID: schoolID, CreatedBy: createdBy, CreatedAt: time.Now()}
	return true, nil
}

func (d *fakeDirectory) Remove(_ context.Context, schoolID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.tags[schoolID]
	delete(d.tags, schoolID)
	return ok, nil
}

func (d *fakeDirectory) Get(_ context.Context, schoolID string) (domain.ClientTag, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tags[schoolID]
	if !ok {
		return domain.ClientTag{}, domain.ErrNotFound
	}
	return t, nil
}

func (d *fakeDirectory) List(_ context.Context) ([]domain.ClientTag, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []domain.ClientTag{}
	for _, t := range d.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SchoolID < out[j].SchoolID })
	return out, nil
}

func (d *fakeDirectory) ListEntries(ctx context.Context) ([]domain.ClientEntry, error) {
	tags, _ := d.List(ctx)
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []domain.ClientEntry{}
	for _, t := range tags {
		s := d.schools[t.SchoolID]
		out = append(out, domain.ClientEntry{ClientTag: t, Name: s.Name, City: s.City, Province: s.Province})
	}
	return out, nil
}

var (
	_ repo.SchoolRepo    = (*fakeDirectory)(nil)
	_ repo.ClientTagRepo = (*fakeDirectory)(nil)
)

// recordingPublisher keeps every stale-view event it is given.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.StaleViews
}

func (p *recordingPublisher) PublishStale(_ context.Context, ev events.StaleViews) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// ---- helpers ---------------------------------------------------------------

// run executes schoolctl with args against dir and returns stdout.
func run(t *testing.T, dir *fakeDirectory, pub events.Publisher, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "CORS_ORIGINS", "REDIS_URL", "STALE_CHANNEL",
		"FETCH_PAGE_SIZE", "INGEST_BATCH_SIZE", "MAX_BODY_BYTES", "EXTRACT_DIR", "MAPPING_FILE",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("DATABASE_URL", "postgres://schoolctl-test/unused")

	a := &app{
		errOut: io.Discard,
		open: func(context.Context, config.Config, *slog.Logger) (*backend, error) {
			return &backend{schools: dir, tags: dir, pub: pub, close: func() {}}, nil
		},
	}

	var out bytes.Buffer
	root := newRootCmd(a)
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func ptr[T any](v T) *T { return &v }
