package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkordes/school-directory/internal/domain"
	"github.com/pkordes/school-directory/internal/events"
	"github.com/pkordes/school-directory/internal/repo"
)

// ClientService manages the global client tag set.
//
// There is no ownership or authorization here: any caller may add or remove
// any tag. Concurrent toggles rely on the store's primary key; add racing
// remove resolves to whichever the store applies last.
type ClientService struct {
	tags repo.ClientTagRepo
	pub  events.Publisher
	log  *slog.Logger
}

// NewClientService constructs a ClientService. pub may be nil, in which case
// no stale-view events are sent.
func NewClientService(tags repo.ClientTagRepo, pub events.Publisher, log *slog.Logger) *ClientService {
	if log == nil {
		log = slog.Default()
	}
	return &ClientService{tags: tags, pub: pub, log: log}
}

// SetTag applies an add or remove toggle. Both directions are idempotent:
// adding an existing tag keeps its original timestamp and attribution, and
// removing a missing tag succeeds. When the tag set actually changed, the
// result lists the stale views and a stale-view event is published.
//
// Adding a tag for an unknown school returns domain.ErrIntegrity.
func (s *ClientService) SetTag(ctx context.Context, ch domain.TagChange) (domain.TagResult, error) {
	id := strings.TrimSpace(ch.SchoolID)
	if id == "" {
		return domain.TagResult{}, fmt.Errorf("service.ClientService.SetTag: %w: school id is required", domain.ErrValidation)
	}
	op, err := domain.ParseTagOp(string(ch.Op))
	if err != nil {
		return domain.TagResult{}, fmt.Errorf("service.ClientService.SetTag: %w", err)
	}

	var changed bool
	switch op {
	case domain.TagAdd:
		changed, err = s.tags.Add(ctx, id, ch.CreatedBy)
	case domain.TagRemove:
		changed, err = s.tags.Remove(ctx, id)
	}
	if err != nil {
		return domain.TagResult{}, fmt.Errorf("service.ClientService.SetTag: %w", err)
	}

	result := domain.TagResult{SchoolID: id, Op: op, Changed: changed, Stale: []string{}}
	if changed {
		result.Stale = domain.TagDependentViews()
		publishStale(ctx, s.pub, s.log, id, string(op))
	}
	return result, nil
}

// ListClients returns the tag set joined with school names.
func (s *ClientService) ListClients(ctx context.Context) ([]domain.ClientEntry, error) {
	entries, err := s.tags.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ClientService.ListClients: %w", err)
	}
	return entries, nil
}
