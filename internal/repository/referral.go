package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/folio/site-server-go/internal/model"
)

// ReferralPageRepository is the contract shared by the primary database and
// the fallback file store.
type ReferralPageRepository interface {
	FindBySlug(ctx context.Context, slug string) (*model.ReferralPage, error)
	Insert(ctx context.Context, page *model.ReferralPage) (*model.ReferralPage, error)
	Exists(ctx context.Context, slug string) (bool, error)
}

const referralColumns = `slug, company_id, company_name, pipeline_id, deal_ids, status, created_at, updated_at`

type referralPageRepo struct {
	db    *sqlx.DB
	table string
}

func NewReferralPageRepository(db *sqlx.DB, table string) ReferralPageRepository {
	return &referralPageRepo{db: db, table: quoteIdent(table)}
}

func (r *referralPageRepo) FindBySlug(ctx context.Context, slug string) (*model.ReferralPage, error) {
	var page model.ReferralPage
	err := r.db.GetContext(ctx, &page, fmt.Sprintf(`
		SELECT %s FROM %s WHERE slug = $1
	`, referralColumns, r.table), slug)
	return HandleNotFound(&page, err)
}

func (r *referralPageRepo) Insert(ctx context.Context, page *model.ReferralPage) (*model.ReferralPage, error) {
	var created model.ReferralPage
	err := r.db.GetContext(ctx, &created, fmt.Sprintf(`
		INSERT INTO %s (slug, company_id, company_name, pipeline_id, deal_ids, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, r.table, referralColumns),
		page.Slug, page.CompanyID, page.CompanyName, page.PipelineID, page.DealIDs, page.Status,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *referralPageRepo) Exists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, fmt.Sprintf(`
		SELECT EXISTS(SELECT 1 FROM %s WHERE slug = $1)
	`, r.table), slug)
	if err != nil {
		return false, err
	}
	return exists, nil
}
