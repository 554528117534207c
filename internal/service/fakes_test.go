package service

import (
	"context"
	"errors"
	"sync"

	"github.com/folio/site-server-go/internal/model"
)

var errUnreachable = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

// memoryReferralRepo is an in-memory ReferralPageRepository. Setting err makes
// every call fail, which stands in for an unreachable database.
type memoryReferralRepo struct {
	mu    sync.Mutex
	pages map[string]model.ReferralPage
	err   error
}

func newMemoryReferralRepo(pages ...model.ReferralPage) *memoryReferralRepo {
	repo := &memoryReferralRepo{pages: make(map[string]model.ReferralPage)}
	for _, p := range pages {
		repo.pages[p.Slug] = p
	}
	return repo
}

func (r *memoryReferralRepo) FindBySlug(_ context.Context, slug string) (*model.ReferralPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	page, ok := r.pages[slug]
	if !ok {
		return nil, nil
	}
	return &page, nil
}

func (r *memoryReferralRepo) Insert(_ context.Context, page *model.ReferralPage) (*model.ReferralPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.pages[page.Slug] = *page
	stored := *page
	return &stored, nil
}

func (r *memoryReferralRepo) Exists(_ context.Context, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.pages[slug]
	return ok, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.StoreEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event model.StoreEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) recorded() []model.StoreEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.StoreEvent(nil), p.events...)
}

type fakeJobsFetcher struct {
	jobs       *model.CompanyJobs
	err        error
	lastOrigin string
	lastPipe   string
	calls      int
}

func (f *fakeJobsFetcher) FetchCompanyJobs(_ context.Context, origin string, _ int64, pipelineID string) (*model.CompanyJobs, error) {
	f.calls++
	f.lastOrigin = origin
	f.lastPipe = pipelineID
	if f.err != nil {
		return nil, f.err
	}
	return f.jobs, nil
}

func strPtr(s string) *string {
	return &s
}
