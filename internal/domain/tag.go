package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClientTag marks a school as a client. The tag set is global: it is shared
// by every writer and not owned by any user. SchoolID is the primary key, so
// a school carries at most one tag.
type ClientTag struct {
	SchoolID string `json:"school_id"`
	// CreatedBy is optional attribution. It is informational only and is
	// never used for authorization.
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TagOp is a toggle operation on the tag set.
type TagOp string

const (
	TagAdd    TagOp = "add"
	TagRemove TagOp = "remove"
)

// ParseTagOp resolves "add" or "remove" case-insensitively.
func ParseTagOp(s string) (TagOp, error) {
	switch op := TagOp(strings.ToLower(strings.TrimSpace(s))); op {
	case TagAdd, TagRemove:
		return op, nil
	}
	return "", fmt.Errorf("%w: op must be %q or %q", ErrValidation, TagAdd, TagRemove)
}

// TagChange is a single toggle request against the tag set.
type TagChange struct {
	SchoolID  string
	Op        TagOp
	CreatedBy *uuid.UUID
}

// Views that depend on tag membership. A successful tag mutation makes all
// of them stale.
const (
	ViewClients   = "clients"
	ViewMap       = "map"
	ViewDirectory = "directory"
	ViewSummary   = "summary"
)

// TagDependentViews lists the views invalidated by a tag mutation.
func TagDependentViews() []string {
	return []string{ViewClients, ViewMap, ViewDirectory, ViewSummary}
}

// TagResult reports the outcome of a toggle. Changed is false for redundant
// operations (adding an existing tag, removing a missing one); Stale is
// empty in that case.
type TagResult struct {
	SchoolID string   `json:"school_id"`
	Op       TagOp    `json:"op"`
	Changed  bool     `json:"changed"`
	Stale    []string `json:"stale_views"`
}

// ClientEntry is a tag joined with the tagged school's display fields.
type ClientEntry struct {
	ClientTag
	Name     string  `json:"name"`
	City     *string `json:"city,omitempty"`
	Province *string `json:"province,omitempty"`
}
