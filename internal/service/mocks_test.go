package service_test

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/school-directory/internal/domain"
	"github.com/pkordes/school-directory/internal/events"
	"github.com/pkordes/school-directory/internal/repo"
)

// ---- mock SchoolRepo -------------------------------------------------------

type mockSchoolRepo struct {
	upsertBatch func(ctx context.Context, schools []domain.School) error
	getByID     func(ctx context.Context, id string) (domain.School, error)
	listRange   func(ctx context.Context, f domain.Filter, offset, limit int) ([]domain.School, error)
	count       func(ctx context.Context, f domain.Filter) (int64, error)
	delete      func(ctx context.Context, id string) (bool, error)
	facets      func(ctx context.Context) (domain.Facets, error)
}

func (m *mockSchoolRepo) UpsertBatch(ctx context.Context, schools []domain.School) error {
	return m.upsertBatch(ctx, schools)
}
func (m *mockSchoolRepo) GetByID(ctx context.Context, id string) (domain.School, error) {
	return m.getByID(ctx, id)
}
func (m *mockSchoolRepo) ListRange(ctx context.Context, f domain.Filter, offset, limit int) ([]domain.School, error) {
	return m.listRange(ctx, f, offset, limit)
}
func (m *mockSchoolRepo) Count(ctx context.Context, f domain.Filter) (int64, error) {
	return m.count(ctx, f)
}
func (m *mockSchoolRepo) Delete(ctx context.Context, id string) (bool, error) {
	return m.delete(ctx, id)
}
func (m *mockSchoolRepo) Facets(ctx context.Context) (domain.Facets, error) {
	return m.facets(ctx)
}

// compile-time check
var _ repo.SchoolRepo = (*mockSchoolRepo)(nil)

// ---- mock ClientTagRepo ----------------------------------------------------

type mockClientTagRepo struct {
	add         func(ctx context.Context, schoolID string, createdBy *uuid.UUID) (bool, error)
	remove      func(ctx context.Context, schoolID string) (bool, error)
	get         func(ctx context.Context, schoolID string) (domain.ClientTag, error)
	list        func(ctx context.Context) ([]domain.ClientTag, error)
	listEntries func(ctx context.Context) ([]domain.ClientEntry, error)
}

func (m *mockClientTagRepo) Add(ctx context.Context, schoolID string, createdBy *uuid.UUID) (bool, error) {
	return m.add(ctx, schoolID, createdBy)
}
func (m *mockClientTagRepo) Remove(ctx context.Context, schoolID string) (bool, error) {
	return m.remove(ctx, schoolID)
}
func (m *mockClientTagRepo) Get(ctx context.Context, schoolID string) (domain.ClientTag, error) {
	return m.get(ctx, schoolID)
}
func (m *mockClientTagRepo) List(ctx context.Context) ([]domain.ClientTag, error) {
	return m.list(ctx)
}
func (m *mockClientTagRepo) ListEntries(ctx context.Context) ([]domain.ClientEntry, error) {
	return m.listEntries(ctx)
}

var _ repo.ClientTagRepo = (*mockClientTagRepo)(nil)

// ---- mock Publisher --------------------------------------------------------

type mockPublisher struct {
	mu     sync.Mutex
	events []events.StaleViews
	err    error
}

func (m *mockPublisher) PublishStale(_ context.Context, ev events.StaleViews) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

// ---- in-memory store -------------------------------------------------------

// memStore implements both repo interfaces over maps, with the same ordering,
// page cap, idempotence and cascade rules as the Postgres repos.
type memStore struct {
	mu      sync.Mutex
	schools map[string]domain.School
	tags    map[string]domain.ClientTag
	reads   []int // offsets requested through ListRange
	failAt  int   // ListRange call number (1-based) that fails; 0 never
	calls   int
}

func newMemStore(schools ...domain.School) *memStore {
	m := &memStore{schools: map[string]domain.School{}, tags: map[string]domain.ClientTag{}}
	for _, s := range schools {
		m.schools[s.ID] = s
	}
	return m
}

func (m *memStore) UpsertBatch(_ context.Context, schools []domain.School) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range schools {
		if old, ok := m.schools[s.ID]; ok {
			s.CreatedAt = old.CreatedAt
		} else {
			s.CreatedAt = time.Now()
		}
		m.schools[s.ID] = s
	}
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (domain.School, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schools[id]
	if !ok {
		return domain.School{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *memStore) matching(f domain.Filter) []domain.School {
	var out []domain.School
	for _, s := range m.schools {
		_, tagged := m.tags[s.ID]
		if f.Matches(s, tagged) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) ListRange(_ context.Context, f domain.Filter, offset, limit int) ([]domain.School, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.reads = append(m.reads, offset)
	if m.failAt > 0 && m.calls == m.failAt {
		return nil, fmt.Errorf("memStore: %w: page %d unavailable", domain.ErrStore, m.calls)
	}
	if limit <= 0 || limit > repo.MaxPageSize {
		limit = repo.MaxPageSize
	}
	all := m.matching(f)
	if offset >= len(all) {
		return []domain.School{}, nil
	}
	return slices.Clone(all[offset:min(offset+limit, len(all))]), nil
}

func (m *memStore) Count(_ context.Context, f domain.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.matching(f))), nil
}

func (m *memStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schools[id]; !ok {
		return false, domain.ErrNotFound
	}
	_, tagged := m.tags[id]
	delete(m.schools, id)
	delete(m.tags, id)
	return tagged, nil
}

func (m *memStore) Facets(_ context.Context) (domain.Facets, error) {
	return domain.Facets{}, nil
}

func (m *memStore) Add(_ context.Context, schoolID string, createdBy *uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schools[schoolID]; !ok {
		return false, domain.ErrIntegrity
	}
	if _, ok := m.tags[schoolID]; ok {
		return false, nil
	}
	m.tags[schoolID] = domain.ClientTag{SchoolID: schoolID, CreatedBy: createdBy, CreatedAt: time.Now()}
	return true, nil
}

func (m *memStore) Remove(_ context.Context, schoolID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tags[schoolID]
	delete(m.tags, schoolID)
	return ok, nil
}

func (m *memStore) Get(_ context.Context, schoolID string) (domain.ClientTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[schoolID]
	if !ok {
		return domain.ClientTag{}, domain.ErrNotFound
	}
	return t, nil
}

func (m *memStore) List(_ context.Context) ([]domain.ClientTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.ClientTag{}
	for _, t := range m.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SchoolID < out[j].SchoolID })
	return out, nil
}

func (m *memStore) ListEntries(ctx context.Context) ([]domain.ClientEntry, error) {
	tags, _ := m.List(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.ClientEntry{}
	for _, t := range tags {
		s := m.schools[t.SchoolID]
		out = append(out, domain.ClientEntry{ClientTag: t, Name: s.Name, City: s.City, Province: s.Province})
	}
	return out, nil
}

var (
	_ repo.SchoolRepo    = (*memStore)(nil)
	_ repo.ClientTagRepo = (*memStore)(nil)
)

// ---- fixtures --------------------------------------------------------------

func ptr[T any](v T) *T { return &v }

func school(id string) domain.School {
	return domain.School{ID: id, Name: "School " + id}
}

// numbered returns n schools with ids "0000".."n-1", zero padded.
func numbered(n int) []domain.School {
	out := make([]domain.School, n)
	for i := range out {
		out[i] = school(fmt.Sprintf("%04d", i))
	}
	return out
}

func ids(rows []domain.School) []string {
	out := []string{}
	for _, s := range rows {
		out = append(out, s.ID)
	}
	return out
}

func viewIDs(rows []domain.SchoolView) []string {
	out := []string{}
	for _, s := range rows {
		out = append(out, s.ID)
	}
	return out
}
