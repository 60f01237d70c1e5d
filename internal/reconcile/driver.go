package reconcile

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-sync/internal/matching"
)

// linkWriteConcurrency bounds the concurrent batched link writes. Groups are
// disjoint campaign-ID sets, so concurrent writes are safe.
const linkWriteConcurrency = 4

// UnlinkedEntry explains why one campaign was left unlinked.
type UnlinkedEntry struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// LinkedGroup records one engagement and the campaigns linked to it.
type LinkedGroup struct {
	EngagementID string   `json:"engagement_id"`
	Engagement   string   `json:"engagement"`
	Campaigns    []string `json:"campaigns"`
}

// Report is the structured outcome of a reconcile run. It is always
// complete: callers never need logs to know which campaigns need manual
// attention.
type Report struct {
	CampaignsLinked   int             `json:"campaigns_linked"`
	CampaignsUnlinked int             `json:"campaigns_unlinked"`
	Unlinked          []UnlinkedEntry `json:"unlinked,omitempty"`
	Ambiguous         []UnlinkedEntry `json:"ambiguous,omitempty"`
	LinkedGroups      []LinkedGroup   `json:"linked_groups,omitempty"`
	DryRun            bool            `json:"dry_run"`
}

// Driver orchestrates one reconciliation run: fetch, parse, match, group,
// batch-link, report.
type Driver struct {
	store  Store
	parser *matching.Parser
}

// NewDriver creates a reconciliation driver. The parser's tables are
// injected here; workspace aliases are loaded per invocation.
func NewDriver(store Store, parser *matching.Parser) *Driver {
	return &Driver{store: store, parser: parser}
}

// Reconcile links unassigned campaigns for a workspace. With dryRun the full
// report is produced but no writes are issued, so operators can preview
// before committing. A write failure for one engagement group downgrades
// that group's campaigns to unlinked and does not abort sibling groups.
func (d *Driver) Reconcile(ctx context.Context, workspaceID string, dryRun bool) (*Report, error) {
	log := zap.L().With(
		zap.String("component", "reconcile.driver"),
		zap.String("workspace_id", workspaceID),
		zap.Bool("dry_run", dryRun),
	)

	engagements, err := d.store.ListEligibleEngagements(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: fetch engagements")
	}

	campaigns, err := d.store.ListUnassignedCampaigns(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: fetch campaigns")
	}

	aliases, err := d.store.WorkspaceAliases(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: load aliases")
	}

	log.Info("reconcile: scan starting",
		zap.Int("engagements", len(engagements)),
		zap.Int("unassigned_campaigns", len(campaigns)),
		zap.Int("aliases", len(aliases)),
	)

	matcher := matching.NewMatcher(aliases)
	report := &Report{DryRun: dryRun}

	// Group campaign IDs per target engagement so one batched write moves
	// the whole group.
	groups := make(map[string][]string)
	displayNames := make(map[string]string)
	for _, e := range engagements {
		displayNames[e.ID] = e.DisplayName
	}

	for _, c := range campaigns {
		segments := d.parser.ParseSegments(c.Name)
		res := matcher.FindMatch(segments, engagements)

		switch res.Kind {
		case matching.MatchUnique:
			groups[res.EngagementID] = append(groups[res.EngagementID], c.ID)
		case matching.MatchAmbiguous:
			report.Ambiguous = append(report.Ambiguous, UnlinkedEntry{Name: c.Name, Reason: res.Reason})
		default:
			report.Unlinked = append(report.Unlinked, UnlinkedEntry{Name: c.Name, Reason: res.Reason})
		}
	}

	// Apply links, one batched write per engagement group. Groups are
	// disjoint, so the writes may run concurrently.
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(linkWriteConcurrency)

	for engagementID, campaignIDs := range groups {
		g.Go(func() error {
			if !dryRun {
				if err := d.store.LinkCampaigns(gctx, engagementID, campaignIDs); err != nil {
					log.Error("reconcile: link write failed",
						zap.String("engagement_id", engagementID),
						zap.Int("campaigns", len(campaignIDs)),
						zap.Error(err),
					)
					mu.Lock()
					for _, id := range campaignIDs {
						report.Unlinked = append(report.Unlinked, UnlinkedEntry{
							Name:   id,
							Reason: "db error applying link: " + err.Error(),
						})
					}
					mu.Unlock()
					return nil
				}
			}

			mu.Lock()
			report.LinkedGroups = append(report.LinkedGroups, LinkedGroup{
				EngagementID: engagementID,
				Engagement:   displayNames[engagementID],
				Campaigns:    campaignIDs,
			})
			report.CampaignsLinked += len(campaignIDs)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "reconcile: apply links")
	}

	sort.Slice(report.LinkedGroups, func(i, j int) bool {
		return report.LinkedGroups[i].Engagement < report.LinkedGroups[j].Engagement
	})
	report.CampaignsUnlinked = len(report.Unlinked) + len(report.Ambiguous)

	log.Info("reconcile: scan complete",
		zap.Int("linked", report.CampaignsLinked),
		zap.Int("unlinked", report.CampaignsUnlinked),
		zap.Int("ambiguous", len(report.Ambiguous)),
	)

	return report, nil
}
