package service

import (
	"context"

	apperrors "github.com/folio/site-server-go/internal/errors"
	"github.com/folio/site-server-go/internal/model"
	"github.com/folio/site-server-go/internal/repository"
)

const (
	DefaultCompanySearchLimit = 20
	MaxCompanySearchLimit     = 100
)

// CRMService answers company and deal lookups against the CRM mirror.
type CRMService struct {
	repo            repository.CRMRepository
	defaultPipeline string
}

// NewCRMService accepts a nil repository when no database is configured;
// every lookup then reports the CRM as unavailable.
func NewCRMService(repo repository.CRMRepository, defaultPipeline string) *CRMService {
	return &CRMService{repo: repo, defaultPipeline: defaultPipeline}
}

func (s *CRMService) SearchCompanies(ctx context.Context, query string, limit int) ([]model.Company, error) {
	if s.repo == nil {
		return nil, apperrors.Unavailable("CRM database")
	}
	if limit <= 0 || limit > MaxCompanySearchLimit {
		limit = DefaultCompanySearchLimit
	}

	companies, err := s.repo.SearchCompanies(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return companies, nil
}

func (s *CRMService) ListDeals(ctx context.Context, companyID int64, pipelineID string) ([]model.Deal, error) {
	if s.repo == nil {
		return nil, apperrors.Unavailable("CRM database")
	}
	if companyID <= 0 {
		return nil, apperrors.InvalidInput("companyId", "must be a positive integer")
	}
	if pipelineID == "" {
		pipelineID = s.defaultPipeline
	}

	deals, err := s.repo.ListDeals(ctx, companyID, pipelineID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return deals, nil
}

// CompanyJobs returns the company and its open deals in one pipeline.
func (s *CRMService) CompanyJobs(ctx context.Context, companyID int64, pipelineID string) (*model.CompanyJobs, error) {
	if s.repo == nil {
		return nil, apperrors.Unavailable("CRM database")
	}
	if companyID <= 0 {
		return nil, apperrors.InvalidInput("companyId", "must be a positive integer")
	}
	if pipelineID == "" {
		pipelineID = s.defaultPipeline
	}

	company, err := s.repo.FindCompany(ctx, companyID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if company == nil {
		return nil, apperrors.NotFound("Company")
	}

	deals, err := s.repo.ListDeals(ctx, companyID, pipelineID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &model.CompanyJobs{
		Company:    *company,
		PipelineID: pipelineID,
		Jobs:       deals,
		Count:      len(deals),
	}, nil
}
