package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/folio/site-server-go/internal/errors"
	"github.com/folio/site-server-go/internal/httputil"
	"github.com/folio/site-server-go/internal/service"
	"github.com/folio/site-server-go/internal/util"
)

// ReferralHandler serves public referral pages, as HTML and as JSON.
type ReferralHandler struct {
	referrals *service.ReferralService
}

func NewReferralHandler(referrals *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{referrals: referrals}
}

func (h *ReferralHandler) Page(w http.ResponseWriter, r *http.Request) {
	view, err := h.resolve(r)
	if errors.Is(err, service.ErrReferralNotFound) {
		renderPage(w, http.StatusNotFound, "not_found.html", nil)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("slug", chi.URLParam(r, "slug")).Msg("failed to resolve referral page")
		renderPage(w, http.StatusInternalServerError, "not_found.html", nil)
		return
	}

	renderPage(w, http.StatusOK, "referral.html", view)
}

func (h *ReferralHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.resolve(r)
	if err != nil {
		if !errors.Is(err, service.ErrReferralNotFound) {
			log.Error().Err(err).Str("slug", chi.URLParam(r, "slug")).Msg("failed to resolve referral page")
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *ReferralHandler) resolve(r *http.Request) (*service.ReferralView, error) {
	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		return nil, service.ErrReferralNotFound
	}

	view, err := h.referrals.Resolve(r.Context(), slug, httputil.RequestOrigin(r))
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeNotFound {
			return nil, service.ErrReferralNotFound
		}
		return nil, err
	}
	return view, nil
}
