package model

import (
	"time"

	"github.com/lib/pq"
)

// ReferralPage is the configuration behind one shareable referral page.
// JSON tags match the fallback store file format.
type ReferralPage struct {
	Slug        string         `db:"slug" json:"slug"`
	CompanyID   int64          `db:"company_id" json:"company_id"`
	CompanyName *string        `db:"company_name" json:"company_name,omitempty"`
	PipelineID  *string        `db:"pipeline_id" json:"pipeline_id,omitempty"`
	DealIDs     pq.Int64Array  `db:"deal_ids" json:"deal_ids"`
	Status      ReferralStatus `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// PipelineOr returns the record's pipeline, or fallback when it has none.
func (p *ReferralPage) PipelineOr(fallback string) string {
	if p.PipelineID != nil && *p.PipelineID != "" {
		return *p.PipelineID
	}
	return fallback
}

func (p *ReferralPage) StoredCompanyName() string {
	if p.CompanyName == nil {
		return ""
	}
	return *p.CompanyName
}

type CreateReferralPageParams struct {
	CompanyID   int64
	CompanyName string
	PipelineID  string
	DealIDs     []int64
}
