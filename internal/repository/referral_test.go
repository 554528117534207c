package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/site-server-go/internal/database"
	"github.com/folio/site-server-go/internal/model"
)

func TestReferralPageRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	table := fmt.Sprintf("referral_pages_test_%d", time.Now().UnixNano())
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE %s (
			slug TEXT PRIMARY KEY,
			company_id BIGINT NOT NULL,
			company_name TEXT,
			pipeline_id TEXT,
			deal_ids BIGINT[] NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, table))
	require.NoError(t, err)
	defer db.ExecContext(ctx, "DROP TABLE "+table)

	repo := NewReferralPageRepository(db.DB, table)

	t.Run("inserts and finds a page", func(t *testing.T) {
		created, err := repo.Insert(ctx, &model.ReferralPage{
			Slug:        "acme-inc-123abc",
			CompanyID:   42,
			CompanyName: strPtr("Acme, Inc."),
			DealIDs:     []int64{1, 2, 3},
			Status:      model.ReferralStatusReady,
		})
		require.NoError(t, err)
		assert.False(t, created.CreatedAt.IsZero())

		page, err := repo.FindBySlug(ctx, "acme-inc-123abc")
		require.NoError(t, err)
		require.NotNil(t, page)
		assert.Equal(t, int64(42), page.CompanyID)
		assert.Equal(t, []int64{1, 2, 3}, []int64(page.DealIDs))
		assert.Nil(t, page.PipelineID)
	})

	t.Run("returns nil for unknown slug", func(t *testing.T) {
		page, err := repo.FindBySlug(ctx, "missing-000000")
		require.NoError(t, err)
		assert.Nil(t, page)
	})

	t.Run("reports existence", func(t *testing.T) {
		exists, err := repo.Exists(ctx, "acme-inc-123abc")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.Exists(ctx, "missing-000000")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("rejects duplicate slugs", func(t *testing.T) {
		_, err := repo.Insert(ctx, &model.ReferralPage{
			Slug:      "acme-inc-123abc",
			CompanyID: 1,
			DealIDs:   []int64{1},
			Status:    model.ReferralStatusReady,
		})
		assert.Error(t, err)
	})
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"referral_pages"`, quoteIdent("referral_pages"))
	assert.Equal(t, `"crm"."companies"`, quoteIdent("crm.companies"))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
}

// setupTestDB connects to TEST_DATABASE_URL and skips when it is unset.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Connect(url)
	require.NoError(t, err)
	require.NoError(t, db.Ping(context.Background()))
	return db
}
