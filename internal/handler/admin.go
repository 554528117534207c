package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/folio/site-server-go/internal/audit"
	apperrors "github.com/folio/site-server-go/internal/errors"
	"github.com/folio/site-server-go/internal/httputil"
	"github.com/folio/site-server-go/internal/middleware"
	"github.com/folio/site-server-go/internal/model"
	"github.com/folio/site-server-go/internal/service"
	"github.com/folio/site-server-go/internal/util"
)

var errTrailingData = errors.New("unexpected data after JSON body")

type AdminHandler struct {
	auth          *service.AdminAuthService
	referrals     *service.ReferralService
	crm           *service.CRMService
	publicBaseURL string
}

// NewAdminHandler builds the /api/admin routes. publicBaseURL, when set,
// replaces the request origin in share links.
func NewAdminHandler(
	auth *service.AdminAuthService,
	referrals *service.ReferralService,
	crm *service.CRMService,
	publicBaseURL string,
) *AdminHandler {
	return &AdminHandler{
		auth:          auth,
		referrals:     referrals,
		crm:           crm,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Routes is mounted under /api/admin. Access control is the AdminGate's job;
// nothing here checks the session.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Post("/referral-pages", h.CreateReferralPage)
	r.Get("/referral-pages/{slug}", h.GetReferralPage)

	r.Get("/companies-search", h.SearchCompanies)
	r.Get("/companies/{id}/deals", h.ListCompanyDeals)

	return r
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	if isFormPost(r) {
		h.loginForm(w, r)
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	token, err := h.auth.Login(req.Password)
	switch {
	case errors.Is(err, service.ErrAdminNotConfigured):
		log.Error().Msg("admin login attempted but no admin password is configured")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server misconfigured"})
		return
	case err != nil:
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure})
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
		return
	}

	middleware.SetAdminSessionCookie(w, token)
	audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginSuccess})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// loginForm serves the no-script sign-in page, which posts a classic form and
// expects a redirect back.
func (h *AdminHandler) loginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid form body"})
		return
	}
	next := safeNext(r.PostForm.Get("next"))

	token, err := h.auth.Login(r.PostForm.Get("password"))
	switch {
	case errors.Is(err, service.ErrAdminNotConfigured):
		log.Error().Msg("admin login attempted but no admin password is configured")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server misconfigured"})
		return
	case err != nil:
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure})
		http.Redirect(w, r, middleware.SignInURL(next)+"&error=invalid", http.StatusSeeOther)
		return
	}

	middleware.SetAdminSessionCookie(w, token)
	audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginSuccess})
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout only clears the cookie. Tokens are stateless, so a copied token
// keeps working.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearAdminSessionCookie(w)
	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AdminHandler) CreateReferralPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyID   int64   `json:"companyId"`
		CompanyName string  `json:"companyName"`
		DealIDs     []int64 `json:"dealIds"`
		PipelineID  string  `json:"pipelineId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}

	created, err := h.referrals.Create(r.Context(), model.CreateReferralPageParams{
		CompanyID:   req.CompanyID,
		CompanyName: req.CompanyName,
		PipelineID:  req.PipelineID,
		DealIDs:     req.DealIDs,
	})
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeDatabase {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventReferralFailure,
				Details: map[string]any{"company_id": req.CompanyID, "error": err.Error()},
			})
		}
		writeError(w, err)
		return
	}

	slug := created.Page.Slug
	audit.LogFromRequest(r, audit.Event{
		Type: audit.EventReferralCreate,
		Slug: slug,
		Details: map[string]any{
			"company_id": created.Page.CompanyID,
			"deal_ids":   []int64(created.Page.DealIDs),
			"backend":    string(created.Backend),
		},
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Referral page created",
		"slug":     slug,
		"shareUrl": h.origin(r) + "/referrals/" + slug,
		"backend":  created.Backend,
	})
}

func (h *AdminHandler) GetReferralPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		writeError(w, apperrors.NotFound("Referral page"))
		return
	}

	page, backend, err := h.referrals.Get(r.Context(), slug)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":     page,
		"backend":  backend,
		"shareUrl": h.origin(r) + "/referrals/" + page.Slug,
	})
}

func (h *AdminHandler) SearchCompanies(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	companies, err := h.crm.SearchCompanies(r.Context(), query, limit)
	if err != nil {
		logServerError(err, "failed to search companies")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": companies,
		"total": len(companies),
	})
}

func (h *AdminHandler) ListCompanyDeals(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperrors.InvalidInput("companyId", "must be a positive integer"))
		return
	}

	deals, err := h.crm.ListDeals(r.Context(), companyID, r.URL.Query().Get("pipelineId"))
	if err != nil {
		logServerError(err, "failed to list company deals")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": deals,
		"total": len(deals),
	})
}

func (h *AdminHandler) origin(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	return httputil.RequestOrigin(r)
}

func isFormPost(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

// safeNext only allows local admin paths as post-login targets.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/admin") && !strings.HasPrefix(next, "//") && !strings.Contains(next, "\\") {
		return next
	}
	return "/admin"
}

func logServerError(err error, msg string) {
	if httputil.StatusFromCode(apperrors.GetCode(err)) >= http.StatusInternalServerError {
		log.Error().Err(err).Msg(msg)
	}
}
