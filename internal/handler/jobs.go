package handler

import (
	"net/http"

	apperrors "github.com/folio/site-server-go/internal/errors"
	"github.com/folio/site-server-go/internal/service"
)

// CompanyJobsHandler is the public company jobs endpoint that referral pages
// call back into.
type CompanyJobsHandler struct {
	crm *service.CRMService
}

func NewCompanyJobsHandler(crm *service.CRMService) *CompanyJobsHandler {
	return &CompanyJobsHandler{crm: crm}
}

func (h *CompanyJobsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	companyID, ok := queryInt64(r, "companyId")
	if !ok || companyID <= 0 {
		writeError(w, apperrors.InvalidInput("companyId", "must be a positive integer"))
		return
	}

	jobs, err := h.crm.CompanyJobs(r.Context(), companyID, r.URL.Query().Get("pipelineId"))
	if err != nil {
		logServerError(err, "failed to load company jobs")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}
