package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/folio/site-server-go/internal/model"
)

// fileReferralRepo keeps referral pages in a single JSON array file.
//
// Every insert rewrites the whole file and nothing locks it: two concurrent
// writers race and the last one wins. The new contents are written to a
// sibling temp file and renamed over the store, so readers always see either
// the old or the new array, never a partial one.
type fileReferralRepo struct {
	path string
	now  func() time.Time
}

func NewFileReferralRepository(path string) ReferralPageRepository {
	return &fileReferralRepo{path: path, now: time.Now}
}

func (r *fileReferralRepo) FindBySlug(_ context.Context, slug string) (*model.ReferralPage, error) {
	pages, err := r.readAll()
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if pages[i].Slug == slug {
			return &pages[i], nil
		}
	}
	return nil, nil
}

func (r *fileReferralRepo) Insert(_ context.Context, page *model.ReferralPage) (*model.ReferralPage, error) {
	pages, err := r.readAll()
	if err != nil {
		return nil, err
	}

	stored := *page
	now := r.now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	if stored.DealIDs == nil {
		stored.DealIDs = []int64{}
	}

	kept := pages[:0]
	for _, p := range pages {
		if p.Slug != stored.Slug {
			kept = append(kept, p)
		}
	}
	kept = append(kept, stored)

	if err := r.writeAll(kept); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *fileReferralRepo) Exists(ctx context.Context, slug string) (bool, error) {
	page, err := r.FindBySlug(ctx, slug)
	if err != nil {
		return false, err
	}
	return page != nil, nil
}

// readAll treats a missing or unparsable file as an empty store.
func (r *fileReferralRepo) readAll() ([]model.ReferralPage, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.ReferralPage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read fallback store: %w", err)
	}

	var pages []model.ReferralPage
	if err := json.Unmarshal(data, &pages); err != nil {
		log.Warn().Err(err).Str("path", r.path).Msg("fallback store is not a JSON array, treating as empty")
		return []model.ReferralPage{}, nil
	}
	return pages, nil
}

func (r *fileReferralRepo) writeAll(pages []model.ReferralPage) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o750); err != nil {
		return fmt.Errorf("create fallback store directory: %w", err)
	}

	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fallback store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), "."+filepath.Base(r.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create fallback store temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write fallback store: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write fallback store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write fallback store: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace fallback store: %w", err)
	}
	return nil
}
