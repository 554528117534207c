package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/folio/site-server-go/internal/errors"
	"github.com/folio/site-server-go/internal/metrics"
	"github.com/folio/site-server-go/internal/model"
)

// ErrReferralNotFound is returned by Resolve when no usable record exists.
var ErrReferralNotFound = apperrors.NotFound("Referral page")

// ReferralView is what a referral page renders.
type ReferralView struct {
	Slug        string        `json:"slug"`
	CompanyID   int64         `json:"companyId"`
	CompanyName string        `json:"companyName,omitempty"`
	PipelineID  string        `json:"pipelineId"`
	DealIDs     []int64       `json:"dealIds"`
	JobCount    *int          `json:"jobCount,omitempty"`
	Jobs        []model.Deal  `json:"jobs,omitempty"`
	Backend     model.Backend `json:"backend"`
	Degraded    bool          `json:"degraded"`
}

// CreatedReferral is the result of ReferralService.Create.
type CreatedReferral struct {
	Page    *model.ReferralPage
	Backend model.Backend
}

type ReferralService struct {
	store           *ReferralStore
	slugs           *SlugGenerator
	jobs            CompanyJobsFetcher
	jobsBaseURL     string
	defaultPipeline string
}

// NewReferralService wires the store, slug generator and company jobs
// collaborator. A non-empty jobsBaseURL overrides the request origin when
// resolving pages.
func NewReferralService(
	store *ReferralStore,
	slugs *SlugGenerator,
	jobs CompanyJobsFetcher,
	jobsBaseURL string,
	defaultPipeline string,
) *ReferralService {
	return &ReferralService{
		store:           store,
		slugs:           slugs,
		jobs:            jobs,
		jobsBaseURL:     strings.TrimRight(jobsBaseURL, "/"),
		defaultPipeline: defaultPipeline,
	}
}

func (s *ReferralService) Create(ctx context.Context, params model.CreateReferralPageParams) (*CreatedReferral, error) {
	if params.CompanyID == 0 {
		return nil, apperrors.MissingRequired("companyId")
	}
	if params.CompanyID < 0 {
		return nil, apperrors.InvalidInput("companyId", "must be a positive integer")
	}
	if len(params.DealIDs) == 0 {
		return nil, apperrors.MissingRequired("dealIds")
	}
	for _, id := range params.DealIDs {
		if id <= 0 {
			return nil, apperrors.InvalidInput("dealIds", "must contain positive integers")
		}
	}

	companyName := strings.TrimSpace(params.CompanyName)
	slug, err := s.slugs.Generate(ctx, companyName, params.CompanyID)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}

	page := &model.ReferralPage{
		Slug:      slug,
		CompanyID: params.CompanyID,
		DealIDs:   append([]int64(nil), params.DealIDs...),
		Status:    model.ReferralStatusReady,
	}
	if companyName != "" {
		page.CompanyName = &companyName
	}
	if pipeline := strings.TrimSpace(params.PipelineID); pipeline != "" {
		page.PipelineID = &pipeline
	}

	stored, backend, err := s.store.Insert(ctx, page)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Str("backend", string(backend)).Msg("failed to store referral page")
		return nil, apperrors.Persistence(err)
	}

	log.Info().
		Str("slug", stored.Slug).
		Int64("companyId", stored.CompanyID).
		Str("backend", string(backend)).
		Msg("referral page created")

	return &CreatedReferral{Page: stored, Backend: backend}, nil
}

// Get returns the stored record and the backend that served it.
func (s *ReferralService) Get(ctx context.Context, slug string) (*model.ReferralPage, model.Backend, error) {
	page, backend, err := s.store.Get(ctx, slug)
	if err != nil {
		return nil, "", apperrors.Database(err)
	}
	if page == nil {
		return nil, "", ErrReferralNotFound
	}
	return page, backend, nil
}

// Resolve loads a referral page and enriches it with live company jobs.
// The collaborator is best effort: when it fails the view carries the stored
// company name and no job count.
func (s *ReferralService) Resolve(ctx context.Context, slug, origin string) (*ReferralView, error) {
	page, backend, err := s.store.Get(ctx, slug)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if page == nil || page.CompanyID == 0 {
		return nil, ErrReferralNotFound
	}

	pipelineID := page.PipelineOr(s.defaultPipeline)
	view := &ReferralView{
		Slug:        page.Slug,
		CompanyID:   page.CompanyID,
		CompanyName: page.StoredCompanyName(),
		PipelineID:  pipelineID,
		DealIDs:     []int64(page.DealIDs),
		Backend:     backend,
	}
	if view.DealIDs == nil {
		view.DealIDs = []int64{}
	}

	if s.jobsBaseURL != "" {
		origin = s.jobsBaseURL
	}

	jobs, err := s.jobs.FetchCompanyJobs(ctx, origin, page.CompanyID, pipelineID)
	if err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("company jobs unavailable, rendering stored referral")
		metrics.ObserveCompanyJobsLookup("degraded")
		view.Degraded = true
		return view, nil
	}
	metrics.ObserveCompanyJobsLookup("ok")

	if name := strings.TrimSpace(jobs.Company.Name); name != "" {
		view.CompanyName = name
	}
	count := jobs.Count
	view.JobCount = &count
	view.Jobs = selectDeals(jobs.Jobs, view.DealIDs)
	return view, nil
}

// selectDeals keeps the deals picked for the page, in the page's order.
// Deals that are no longer open in the pipeline are dropped.
func selectDeals(deals []model.Deal, ids []int64) []model.Deal {
	byID := make(map[int64]model.Deal, len(deals))
	for _, d := range deals {
		byID[d.ID] = d
	}

	selected := make([]model.Deal, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			selected = append(selected, d)
		}
	}
	return selected
}
