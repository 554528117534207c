package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/folio/site-server-go/internal/config"
	"github.com/folio/site-server-go/internal/model"
)

// CRMRepository reads the CRM mirror tables. The tables are synced from the
// CRM by another process and are never written here.
type CRMRepository interface {
	SearchCompanies(ctx context.Context, query string, limit int) ([]model.Company, error)
	FindCompany(ctx context.Context, id int64) (*model.Company, error)
	ListDeals(ctx context.Context, companyID int64, pipelineID string) ([]model.Deal, error)
}

type crmRepo struct {
	db *sqlx.DB

	companies    string
	companyName  string
	deals        string
	dealCompany  string
	dealPipeline string
	dealName     string
	dealStage    string
}

func NewCRMRepository(db *sqlx.DB, tables config.Tables) CRMRepository {
	return &crmRepo{
		db:           db,
		companies:    quoteIdent(tables.Companies),
		companyName:  quoteIdent(tables.CompanyNameColumn),
		deals:        quoteIdent(tables.Deals),
		dealCompany:  quoteIdent(tables.DealCompanyColumn),
		dealPipeline: quoteIdent(tables.DealPipelineColumn),
		dealName:     quoteIdent(tables.DealNameColumn),
		dealStage:    quoteIdent(tables.DealStageColumn),
	}
}

func (r *crmRepo) SearchCompanies(ctx context.Context, query string, limit int) ([]model.Company, error) {
	companies := []model.Company{}
	err := r.db.SelectContext(ctx, &companies, fmt.Sprintf(`
		SELECT id, COALESCE(%[1]s, '') AS name
		FROM %[2]s
		WHERE %[1]s ILIKE $1 ESCAPE '\'
		ORDER BY %[1]s ASC
		LIMIT $2
	`, r.companyName, r.companies), "%"+escapeLike(strings.TrimSpace(query))+"%", limit)
	return companies, err
}

func (r *crmRepo) FindCompany(ctx context.Context, id int64) (*model.Company, error) {
	var company model.Company
	err := r.db.GetContext(ctx, &company, fmt.Sprintf(`
		SELECT id, COALESCE(%s, '') AS name FROM %s WHERE id = $1
	`, r.companyName, r.companies), id)
	return HandleNotFound(&company, err)
}

func (r *crmRepo) ListDeals(ctx context.Context, companyID int64, pipelineID string) ([]model.Deal, error) {
	deals := []model.Deal{}
	err := r.db.SelectContext(ctx, &deals, fmt.Sprintf(`
		SELECT id,
			COALESCE(%[1]s, '') AS name,
			COALESCE(%[2]s, '') AS stage,
			COALESCE(%[3]s, '') AS pipeline_id
		FROM %[4]s
		WHERE %[5]s = $1 AND %[3]s = $2
		ORDER BY id ASC
	`, r.dealName, r.dealStage, r.dealPipeline, r.deals, r.dealCompany), companyID, pipelineID)
	return deals, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
