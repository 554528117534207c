package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/folio/site-server-go/internal/events"
	"github.com/folio/site-server-go/internal/metrics"
	"github.com/folio/site-server-go/internal/model"
	"github.com/folio/site-server-go/internal/repository"
)

// ReferralStore puts the primary database in front of the fallback file.
//
// The two backends are not synchronized. A page written to one is invisible
// to the other, so every operation reports which backend handled it and
// emits a StoreEvent.
type ReferralStore struct {
	primary   repository.ReferralPageRepository
	fallback  repository.ReferralPageRepository
	publisher events.Publisher
	now       func() time.Time
}

// NewReferralStore builds the store. primary may be nil when no database is
// configured.
func NewReferralStore(
	primary repository.ReferralPageRepository,
	fallback repository.ReferralPageRepository,
	publisher events.Publisher,
) *ReferralStore {
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	return &ReferralStore{
		primary:   primary,
		fallback:  fallback,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *ReferralStore) HasPrimary() bool {
	return s.primary != nil
}

// Get looks in the primary first. A primary error or miss falls through to
// the fallback file. Both missing yields (nil, "", nil).
func (s *ReferralStore) Get(ctx context.Context, slug string) (*model.ReferralPage, model.Backend, error) {
	if s.primary != nil {
		page, err := s.primary.FindBySlug(ctx, slug)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("slug", slug).Msg("primary referral store unavailable, reading fallback")
			s.emit(ctx, model.StoreOpGet, slug, model.BackendPrimary, model.StoreResultError, err)
		case page != nil:
			s.emit(ctx, model.StoreOpGet, slug, model.BackendPrimary, model.StoreResultHit, nil)
			return page, model.BackendPrimary, nil
		default:
			s.emit(ctx, model.StoreOpGet, slug, model.BackendPrimary, model.StoreResultMiss, nil)
		}
	}

	page, err := s.fallback.FindBySlug(ctx, slug)
	if err != nil {
		s.emit(ctx, model.StoreOpGet, slug, model.BackendFallback, model.StoreResultError, err)
		return nil, "", err
	}
	if page == nil {
		s.emit(ctx, model.StoreOpGet, slug, model.BackendFallback, model.StoreResultMiss, nil)
		return nil, "", nil
	}
	s.emit(ctx, model.StoreOpGet, slug, model.BackendFallback, model.StoreResultHit, nil)
	return page, model.BackendFallback, nil
}

// Insert writes to the primary when it is configured, and only there: a
// primary failure is returned, not redirected to the file. Without a primary
// the fallback file is the store of record.
func (s *ReferralStore) Insert(ctx context.Context, page *model.ReferralPage) (*model.ReferralPage, model.Backend, error) {
	backend := model.BackendFallback
	repo := s.fallback
	if s.primary != nil {
		backend = model.BackendPrimary
		repo = s.primary
	}

	stored, err := repo.Insert(ctx, page)
	if err != nil {
		s.emit(ctx, model.StoreOpInsert, page.Slug, backend, model.StoreResultError, err)
		return nil, backend, err
	}
	s.emit(ctx, model.StoreOpInsert, page.Slug, backend, model.StoreResultOK, nil)
	return stored, backend, nil
}

// Exists is true when either backend holds the slug. Primary errors count as
// "not there" so slug generation keeps working during an outage.
func (s *ReferralStore) Exists(ctx context.Context, slug string) (bool, error) {
	if s.primary != nil {
		exists, err := s.primary.Exists(ctx, slug)
		if err != nil {
			log.Warn().Err(err).Str("slug", slug).Msg("primary referral store unavailable during slug check")
			s.emit(ctx, model.StoreOpExists, slug, model.BackendPrimary, model.StoreResultError, err)
		} else if exists {
			s.emit(ctx, model.StoreOpExists, slug, model.BackendPrimary, model.StoreResultHit, nil)
			return true, nil
		}
	}

	exists, err := s.fallback.Exists(ctx, slug)
	if err != nil {
		s.emit(ctx, model.StoreOpExists, slug, model.BackendFallback, model.StoreResultError, err)
		return false, err
	}
	if exists {
		s.emit(ctx, model.StoreOpExists, slug, model.BackendFallback, model.StoreResultHit, nil)
	}
	return exists, nil
}

func (s *ReferralStore) emit(
	ctx context.Context,
	op model.StoreOp,
	slug string,
	backend model.Backend,
	result model.StoreResult,
	err error,
) {
	event := model.StoreEvent{
		Op:      op,
		Slug:    slug,
		Backend: backend,
		Result:  result,
		At:      s.now().UTC(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	metrics.ObserveStoreEvent(event)
	s.publisher.Publish(ctx, event)
}
