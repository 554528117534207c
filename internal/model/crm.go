package model

// Company is a row of the CRM company mirror.
type Company struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Deal is a job posting tracked as a CRM deal.
type Deal struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Stage      string `db:"stage" json:"stage"`
	PipelineID string `db:"pipeline_id" json:"pipelineId"`
}

// CompanyJobs is the body of the company jobs endpoint.
type CompanyJobs struct {
	Company    Company `json:"company"`
	PipelineID string  `json:"pipelineId"`
	Jobs       []Deal  `json:"jobs"`
	Count      int     `json:"count"`
}
