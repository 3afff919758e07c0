package reports

import "time"

// Snapshot is a pre-aggregated reporting row for one campaign and period.
// OwnerID mirrors the owning campaign's owner so row scoping works without a
// join at read time.
type Snapshot struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	CampaignID  int64     `json:"campaign_id"`
	Period      string    `json:"period"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	SpendCents  int64     `json:"spend_cents"`
	BuiltAt     time.Time `json:"built_at"`
}

// Summary aggregates the snapshots visible to one subject.
type Summary struct {
	Campaigns   int64   `json:"campaigns"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	SpendCents  int64   `json:"spend_cents"`
	CTR         float64 `json:"ctr"`
}

// RebuildInput names the campaign whose snapshot should be rebuilt.
type RebuildInput struct {
	CampaignID int64  `json:"campaign_id" validate:"required,gt=0"`
	Period     string `json:"period" validate:"omitempty,len=7"`
}
