package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-sync/internal/db"
	"github.com/sells-group/outreach-sync/internal/matching"
)

// sentinelEngagementName is the display name of the placeholder engagement
// that unassigned campaigns nominally belong to in the dashboard UI. It is
// never a match target.
const sentinelEngagementName = "Unassigned"

// PostgresStore implements Store over the outreach schema.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a reconcile store backed by the given pool.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ListEligibleEngagements returns match-eligible engagements for a workspace.
func (s *PostgresStore) ListEligibleEngagements(ctx context.Context, workspaceID string) ([]matching.Engagement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, display_name, sponsor_name, portfolio_company
		 FROM outreach.engagements
		 WHERE workspace_id = $1
		   AND display_name != $2
		   AND sponsor_name IS NOT NULL AND sponsor_name != ''
		   AND portfolio_company IS NOT NULL AND portfolio_company != ''
		 ORDER BY display_name`,
		workspaceID, sentinelEngagementName,
	)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: list engagements")
	}
	defer rows.Close()

	var engagements []matching.Engagement
	for rows.Next() {
		var e matching.Engagement
		if err := rows.Scan(&e.ID, &e.DisplayName, &e.SponsorName, &e.PortfolioCompany); err != nil {
			return nil, eris.Wrap(err, "reconcile: scan engagement")
		}
		engagements = append(engagements, e)
	}
	return engagements, rows.Err()
}

// ListUnassignedCampaigns returns campaigns with no engagement link.
func (s *PostgresStore) ListUnassignedCampaigns(ctx context.Context, workspaceID string) ([]Campaign, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, workspace_id, platform, name, COALESCE(sent, 0), COALESCE(replied, 0), updated_at
		 FROM outreach.campaigns
		 WHERE workspace_id = $1 AND engagement_id IS NULL
		 ORDER BY name`,
		workspaceID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: list unassigned campaigns")
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Platform, &c.Name, &c.Sent, &c.Replied, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "reconcile: scan campaign")
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// WorkspaceAliases loads the workspace alias table keyed by lower-cased alias.
func (s *PostgresStore) WorkspaceAliases(ctx context.Context, workspaceID string) (map[string]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT alias, canonical FROM outreach.aliases WHERE workspace_id = $1`,
		workspaceID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: load aliases")
	}
	defer rows.Close()

	aliases := make(map[string]string)
	for rows.Next() {
		var alias, canonical string
		if err := rows.Scan(&alias, &canonical); err != nil {
			return nil, eris.Wrap(err, "reconcile: scan alias")
		}
		aliases[strings.ToLower(alias)] = canonical
	}
	return aliases, rows.Err()
}

// LinkCampaigns points all listed campaigns at one engagement. The
// IS DISTINCT FROM guard makes relinking to the same target a no-op.
func (s *PostgresStore) LinkCampaigns(ctx context.Context, engagementID string, campaignIDs []string) error {
	if len(campaignIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE outreach.campaigns
		 SET engagement_id = $1, updated_at = now()
		 WHERE id = ANY($2) AND engagement_id IS DISTINCT FROM $1`,
		engagementID, campaignIDs,
	)
	if err != nil {
		return eris.Wrapf(err, "reconcile: link %d campaigns to engagement %s", len(campaignIDs), engagementID)
	}
	return nil
}

// SaveAliases upserts sponsor/company aliases for a workspace. Aliases are
// stored lower-cased, matching how the matcher looks them up.
func (s *PostgresStore) SaveAliases(ctx context.Context, workspaceID string, aliases map[string]string) (int64, error) {
	if len(aliases) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(aliases))
	for alias, canonical := range aliases {
		rows = append(rows, []any{workspaceID, strings.ToLower(alias), canonical})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "outreach.aliases",
		Columns:      []string{"workspace_id", "alias", "canonical"},
		ConflictKeys: []string{"workspace_id", "alias"},
		UpdateCols:   []string{"canonical"},
	}, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "reconcile: save %d aliases", len(aliases))
	}
	return n, nil
}

// CampaignSnapshot is a raw external campaign row from a sync, upserted
// before matching runs.
type CampaignSnapshot struct {
	ID          string
	WorkspaceID string
	Platform    string
	Name        string
	Sent        int
	Replied     int
}

// ImportCampaigns upserts raw external campaign snapshots into the campaign
// table. Existing engagement links are left untouched; only the sync-owned
// columns are updated on conflict.
func (s *PostgresStore) ImportCampaigns(ctx context.Context, snapshots []CampaignSnapshot) (int64, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, len(snapshots))
	for i, snap := range snapshots {
		rows[i] = []any{snap.ID, snap.WorkspaceID, snap.Platform, snap.Name, snap.Sent, snap.Replied, now}
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "outreach.campaigns",
		Columns:      []string{"id", "workspace_id", "platform", "name", "sent", "replied", "updated_at"},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"name", "sent", "replied", "updated_at"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "reconcile: import campaigns")
	}
	return n, nil
}
