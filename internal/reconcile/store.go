// Package reconcile links externally-synced campaigns to engagements by
// parsing campaign names and fuzzy-matching them against the engagement
// pool, then batch-applying the resulting links.
package reconcile

import (
	"context"
	"time"

	"github.com/sells-group/outreach-sync/internal/matching"
)

// Campaign is an externally-synced outbound campaign awaiting association
// with an engagement. An empty EngagementID is the "unassigned" sentinel.
type Campaign struct {
	ID           string
	WorkspaceID  string
	Platform     string
	Name         string
	EngagementID string
	Sent         int
	Replied      int
	UpdatedAt    time.Time
}

// Store is the persistence boundary of the reconciliation driver.
type Store interface {
	// ListEligibleEngagements returns engagements with both sponsor and
	// portfolio company populated, excluding the "Unassigned" sentinel.
	ListEligibleEngagements(ctx context.Context, workspaceID string) ([]matching.Engagement, error)

	// ListUnassignedCampaigns returns campaigns currently pointing at the
	// unassigned sentinel.
	ListUnassignedCampaigns(ctx context.Context, workspaceID string) ([]Campaign, error)

	// WorkspaceAliases returns the workspace alias map, keyed by lower-cased
	// alias. An empty map is fine; absence of an alias is a no-op expansion.
	WorkspaceAliases(ctx context.Context, workspaceID string) (map[string]string, error)

	// LinkCampaigns points every listed campaign at the engagement in one
	// batched write. Relinking a campaign to its current engagement is a
	// no-op.
	LinkCampaigns(ctx context.Context, engagementID string, campaignIDs []string) error
}
