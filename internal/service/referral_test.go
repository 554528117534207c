package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/folio/site-server-go/internal/errors"
	"github.com/folio/site-server-go/internal/model"
)

func newTestReferralService(primary, fallback *memoryReferralRepo, jobs CompanyJobsFetcher, jobsBaseURL string) *ReferralService {
	store := NewReferralStore(nil, fallback, &recordingPublisher{})
	if primary != nil {
		store = NewReferralStore(primary, fallback, &recordingPublisher{})
	}
	return NewReferralService(store, NewSlugGenerator(store), jobs, jobsBaseURL, "default")
}

func TestReferralService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a ready page", func(t *testing.T) {
		fallback := newMemoryReferralRepo()
		svc := newTestReferralService(nil, fallback, &fakeJobsFetcher{}, "")

		created, err := svc.Create(ctx, model.CreateReferralPageParams{
			CompanyID:   42,
			CompanyName: "Acme, Inc.",
			DealIDs:     []int64{1, 2, 3},
		})
		require.NoError(t, err)

		assert.Equal(t, model.BackendFallback, created.Backend)
		assert.Regexp(t, `^acme-inc-[0-9a-f]{6}$`, created.Page.Slug)
		assert.Equal(t, model.ReferralStatusReady, created.Page.Status)
		assert.Equal(t, []int64{1, 2, 3}, []int64(created.Page.DealIDs))
		assert.Equal(t, "Acme, Inc.", created.Page.StoredCompanyName())
		assert.Nil(t, created.Page.PipelineID)

		stored, err := fallback.FindBySlug(ctx, created.Page.Slug)
		require.NoError(t, err)
		assert.NotNil(t, stored)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		svc := newTestReferralService(nil, newMemoryReferralRepo(), &fakeJobsFetcher{}, "")

		tests := []struct {
			name   string
			params model.CreateReferralPageParams
			code   apperrors.ErrorCode
		}{
			{"missing company", model.CreateReferralPageParams{DealIDs: []int64{1}}, apperrors.ErrCodeMissingRequired},
			{"negative company", model.CreateReferralPageParams{CompanyID: -1, DealIDs: []int64{1}}, apperrors.ErrCodeInvalidInput},
			{"empty deals", model.CreateReferralPageParams{CompanyID: 42, DealIDs: []int64{}}, apperrors.ErrCodeMissingRequired},
			{"zero deal", model.CreateReferralPageParams{CompanyID: 42, DealIDs: []int64{1, 0}}, apperrors.ErrCodeInvalidInput},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.Create(ctx, tc.params)
				require.Error(t, err)
				assert.Equal(t, tc.code, apperrors.GetCode(err))
			})
		}
	})

	t.Run("persistence failure passes the message", func(t *testing.T) {
		primary := newMemoryReferralRepo()
		svc := newTestReferralService(primary, newMemoryReferralRepo(), &fakeJobsFetcher{}, "")
		primary.err = errUnreachable

		_, err := svc.Create(ctx, model.CreateReferralPageParams{CompanyID: 42, DealIDs: []int64{1}})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
		appErr, _ := apperrors.AsAppError(err)
		assert.Equal(t, errUnreachable.Error(), appErr.Message)
	})
}

func TestReferralService_Resolve(t *testing.T) {
	ctx := context.Background()
	page := model.ReferralPage{
		Slug:        "acme-1a2b3c",
		CompanyID:   42,
		CompanyName: strPtr("Acme"),
		DealIDs:     []int64{1, 2},
		Status:      model.ReferralStatusReady,
	}

	t.Run("enriches with company jobs", func(t *testing.T) {
		jobs := &fakeJobsFetcher{jobs: &model.CompanyJobs{
			Company:    model.Company{ID: 42, Name: "Acme Corporation"},
			PipelineID: "default",
			Jobs: []model.Deal{
				{ID: 2, Name: "Designer", Stage: "open"},
				{ID: 1, Name: "Backend Engineer", Stage: "open"},
				{ID: 9, Name: "Not selected", Stage: "open"},
			},
			Count: 3,
		}}
		svc := newTestReferralService(nil, newMemoryReferralRepo(page), jobs, "")

		view, err := svc.Resolve(ctx, "acme-1a2b3c", "https://folio.example.com")
		require.NoError(t, err)

		assert.Equal(t, "Acme Corporation", view.CompanyName)
		require.NotNil(t, view.JobCount)
		assert.Equal(t, 3, *view.JobCount)
		require.Len(t, view.Jobs, 2)
		assert.Equal(t, int64(1), view.Jobs[0].ID)
		assert.Equal(t, int64(2), view.Jobs[1].ID)
		assert.False(t, view.Degraded)
		assert.Equal(t, "https://folio.example.com", jobs.lastOrigin)
		assert.Equal(t, "default", jobs.lastPipe)
		assert.Equal(t, model.BackendFallback, view.Backend)
	})

	t.Run("degrades to stored name when collaborator fails", func(t *testing.T) {
		jobs := &fakeJobsFetcher{err: errors.New("company jobs failed with status 503")}
		svc := newTestReferralService(nil, newMemoryReferralRepo(page), jobs, "")

		view, err := svc.Resolve(ctx, "acme-1a2b3c", "http://localhost:3000")
		require.NoError(t, err)

		assert.Equal(t, "Acme", view.CompanyName)
		assert.Nil(t, view.JobCount)
		assert.True(t, view.Degraded)
		assert.Equal(t, []int64{1, 2}, view.DealIDs)
	})

	t.Run("uses record pipeline and configured base url", func(t *testing.T) {
		withPipeline := page
		withPipeline.PipelineID = strPtr("sales")
		jobs := &fakeJobsFetcher{jobs: &model.CompanyJobs{}}
		svc := newTestReferralService(nil, newMemoryReferralRepo(withPipeline), jobs, "https://jobs.internal/")

		_, err := svc.Resolve(ctx, "acme-1a2b3c", "http://localhost:3000")
		require.NoError(t, err)
		assert.Equal(t, "https://jobs.internal", jobs.lastOrigin)
		assert.Equal(t, "sales", jobs.lastPipe)
	})

	t.Run("unknown slug is not found", func(t *testing.T) {
		jobs := &fakeJobsFetcher{}
		svc := newTestReferralService(nil, newMemoryReferralRepo(), jobs, "")

		_, err := svc.Resolve(ctx, "missing", "http://localhost:3000")
		require.ErrorIs(t, err, ErrReferralNotFound)
		assert.Equal(t, 0, jobs.calls)
	})

	t.Run("record without company is not found", func(t *testing.T) {
		svc := newTestReferralService(nil, newMemoryReferralRepo(model.ReferralPage{Slug: "orphan"}), &fakeJobsFetcher{}, "")

		_, err := svc.Resolve(ctx, "orphan", "http://localhost:3000")
		require.ErrorIs(t, err, ErrReferralNotFound)
	})

	t.Run("resolves through the http client", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/company-jobs", r.URL.Path)
			assert.Equal(t, "42", r.URL.Query().Get("companyId"))
			assert.Equal(t, "default", r.URL.Query().Get("pipelineId"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"company":{"id":42,"name":"Acme Live"},"pipelineId":"default","jobs":[],"count":0}`))
		}))
		defer server.Close()

		svc := newTestReferralService(nil, newMemoryReferralRepo(page), NewCompanyJobsClient(), "")
		view, err := svc.Resolve(ctx, "acme-1a2b3c", server.URL)
		require.NoError(t, err)
		assert.Equal(t, "Acme Live", view.CompanyName)
		require.NotNil(t, view.JobCount)
		assert.Equal(t, 0, *view.JobCount)
	})

	t.Run("non-2xx collaborator response degrades", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		svc := newTestReferralService(nil, newMemoryReferralRepo(page), NewCompanyJobsClient(), "")
		view, err := svc.Resolve(ctx, "acme-1a2b3c", server.URL)
		require.NoError(t, err)
		assert.True(t, view.Degraded)
		assert.Equal(t, "Acme", view.CompanyName)
	})
}

func TestReferralService_Get(t *testing.T) {
	ctx := context.Background()
	svc := newTestReferralService(nil, newMemoryReferralRepo(model.ReferralPage{Slug: "acme-1a2b3c", CompanyID: 42}), &fakeJobsFetcher{}, "")

	page, backend, err := svc.Get(ctx, "acme-1a2b3c")
	require.NoError(t, err)
	assert.Equal(t, int64(42), page.CompanyID)
	assert.Equal(t, model.BackendFallback, backend)

	_, _, err = svc.Get(ctx, "missing")
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}
