package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/folio/site-server-go/internal/config"
	"github.com/folio/site-server-go/internal/model"
)

const companyJobsPath = "/api/company-jobs"

// CompanyJobsFetcher looks up the live job list for a company.
type CompanyJobsFetcher interface {
	FetchCompanyJobs(ctx context.Context, origin string, companyID int64, pipelineID string) (*model.CompanyJobs, error)
}

// CompanyJobsClient calls the company jobs endpoint over HTTP, usually on the
// same origin that served the referral page.
type CompanyJobsClient struct {
	client *http.Client
}

func NewCompanyJobsClient() *CompanyJobsClient {
	return &CompanyJobsClient{
		client: &http.Client{
			Timeout: config.JobsClientTimeout,
		},
	}
}

func (c *CompanyJobsClient) FetchCompanyJobs(
	ctx context.Context,
	origin string,
	companyID int64,
	pipelineID string,
) (*model.CompanyJobs, error) {
	query := url.Values{}
	query.Set("companyId", strconv.FormatInt(companyID, 10))
	if pipelineID != "" {
		query.Set("pipelineId", pipelineID)
	}
	endpoint := strings.TrimRight(origin, "/") + companyJobsPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.Warn().
			Err(err).
			Str("url", endpoint).
			Dur("elapsed", elapsed).
			Msg("company jobs request error")
		return nil, fmt.Errorf("company jobs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().
			Str("url", endpoint).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("company jobs request failed")
		return nil, fmt.Errorf("company jobs failed with status %d", resp.StatusCode)
	}

	var jobs model.CompanyJobs
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("decode company jobs: %w", err)
	}

	log.Debug().
		Int64("companyId", companyID).
		Int("count", jobs.Count).
		Dur("elapsed", elapsed).
		Msg("company jobs fetched")

	return &jobs, nil
}
