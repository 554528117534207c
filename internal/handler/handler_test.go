package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/folio/site-server-go/internal/middleware"
	"github.com/folio/site-server-go/internal/model"
	"github.com/folio/site-server-go/internal/repository"
	"github.com/folio/site-server-go/internal/service"
	"github.com/folio/site-server-go/internal/session"
)

type mockCRMRepo struct {
	mock.Mock
}

func (m *mockCRMRepo) SearchCompanies(ctx context.Context, query string, limit int) ([]model.Company, error) {
	args := m.Called(ctx, query, limit)
	return args.Get(0).([]model.Company), args.Error(1)
}

func (m *mockCRMRepo) FindCompany(ctx context.Context, id int64) (*model.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *mockCRMRepo) ListDeals(ctx context.Context, companyID int64, pipelineID string) ([]model.Deal, error) {
	args := m.Called(ctx, companyID, pipelineID)
	return args.Get(0).([]model.Deal), args.Error(1)
}

type stubJobs struct {
	jobs *model.CompanyJobs
	err  error
}

func (s stubJobs) FetchCompanyJobs(context.Context, string, int64, string) (*model.CompanyJobs, error) {
	return s.jobs, s.err
}

const testSecret = "handler-test-secret"

type testServer struct {
	router   chi.Router
	codec    *session.Codec
	fallback repository.ReferralPageRepository
	crm      *mockCRMRepo
}

type serverOptions struct {
	password string
	jobs     service.CompanyJobsFetcher
	noCRM    bool
}

// newTestServer wires the real services over a temp fallback file, with the
// gate in front as in production.
func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()

	codec := session.NewCodec(testSecret)
	fallback := repository.NewFileReferralRepository(filepath.Join(t.TempDir(), "referral-pages.json"))
	store := service.NewReferralStore(nil, fallback, nil)

	jobs := opts.jobs
	if jobs == nil {
		jobs = stubJobs{err: context.DeadlineExceeded}
	}

	crmRepo := &mockCRMRepo{}
	var crmService *service.CRMService
	if opts.noCRM {
		crmService = service.NewCRMService(nil, "default")
	} else {
		crmService = service.NewCRMService(crmRepo, "default")
	}

	referrals := service.NewReferralService(store, service.NewSlugGenerator(store), jobs, "", "default")
	admin := NewAdminHandler(service.NewAdminAuthService(codec, opts.password, ""), referrals, crmService, "")
	pages := NewReferralHandler(referrals)

	r := chi.NewRouter()
	r.Use(middleware.NewAdminGate(codec).Handler)
	r.Get("/admin/signin", SignIn)
	r.Mount("/api/admin", admin.Routes())
	r.Get("/api/company-jobs", NewCompanyJobsHandler(crmService).ServeHTTP)
	r.Get("/api/referrals/{slug}", pages.View)
	r.Get("/referrals/{slug}", pages.Page)

	return &testServer{router: r, codec: codec, fallback: fallback, crm: crmRepo}
}

func (s *testServer) do(method, target, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.AddCookie(&http.Cookie{Name: middleware.AdminSessionCookie, Value: s.codec.Issue(1700000000)})
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&body))
	return body
}
