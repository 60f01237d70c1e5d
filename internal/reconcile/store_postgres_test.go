package reconcile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_ListEligibleEngagements(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, display_name, sponsor_name, portfolio_company").
		WithArgs("ws1", "Unassigned").
		WillReturnRows(pgxmock.NewRows([]string{"id", "display_name", "sponsor_name", "portfolio_company"}).
			AddRow("e1", "Acme / Roadrunner", "Acme", "Roadrunner"))

	s := NewPostgresStore(mock)
	engagements, err := s.ListEligibleEngagements(context.Background(), "ws1")
	require.NoError(t, err)
	require.Len(t, engagements, 1)
	assert.Equal(t, "e1", engagements[0].ID)
	assert.Equal(t, "Acme", engagements[0].SponsorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListUnassignedCampaigns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT id, workspace_id, platform, name").
		WithArgs("ws1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "workspace_id", "platform", "name", "sent", "replied", "updated_at"}).
			AddRow("c1", "ws1", "mailer", "Acme - Roadrunner", 100, 7, now))

	s := NewPostgresStore(mock)
	campaigns, err := s.ListUnassignedCampaigns(context.Background(), "ws1")
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "c1", campaigns[0].ID)
	assert.Equal(t, 100, campaigns[0].Sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WorkspaceAliases_LowercasesKeys(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT alias, canonical FROM outreach.aliases").
		WithArgs("ws1").
		WillReturnRows(pgxmock.NewRows([]string{"alias", "canonical"}).
			AddRow("NH", "New Heritage"))

	s := NewPostgresStore(mock)
	aliases, err := s.WorkspaceAliases(context.Background(), "ws1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"nh": "New Heritage"}, aliases)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LinkCampaigns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE outreach.campaigns").
		WithArgs("e1", []string{"c1", "c2"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	s := NewPostgresStore(mock)
	err = s.LinkCampaigns(context.Background(), "e1", []string{"c1", "c2"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LinkCampaigns_Empty(t *testing.T) {
	s := NewPostgresStore(nil)
	assert.NoError(t, s.LinkCampaigns(context.Background(), "e1", nil))
}

func TestPostgresStore_LinkCampaigns_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE outreach.campaigns").
		WithArgs("e1", []string{"c1"}).
		WillReturnError(fmt.Errorf("deadlock detected"))

	s := NewPostgresStore(mock)
	err = s.LinkCampaigns(context.Background(), "e1", []string{"c1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link 1 campaigns")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAliases(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(
		[]string{"_tmp_upsert_outreach_aliases"},
		[]string{"workspace_id", "alias", "canonical"},
	).WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "outreach"."aliases"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	s := NewPostgresStore(mock)
	n, err := s.SaveAliases(context.Background(), "ws1", map[string]string{"NHP": "New Heritage Partners"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAliases_Empty(t *testing.T) {
	s := NewPostgresStore(nil)
	n, err := s.SaveAliases(context.Background(), "ws1", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestPostgresStore_ImportCampaigns_Empty(t *testing.T) {
	s := NewPostgresStore(nil)
	n, err := s.ImportCampaigns(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestPostgresStore_ImportCampaigns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(
		[]string{"_tmp_upsert_outreach_campaigns"},
		[]string{"id", "workspace_id", "platform", "name", "sent", "replied", "updated_at"},
	).WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "outreach"."campaigns"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	s := NewPostgresStore(mock)
	n, err := s.ImportCampaigns(context.Background(), []CampaignSnapshot{
		{ID: "c1", WorkspaceID: "ws1", Platform: "mailer", Name: "Acme - Roadrunner", Sent: 10, Replied: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
