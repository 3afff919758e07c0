package campaigns

import "time"

// Campaign statuses.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusPaused   = "paused"
	StatusArchived = "archived"
)

// Campaign represents an advertising campaign row. OwnerID is set at creation
// to the creating subject's user id and never changes afterwards.
type Campaign struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	BrandID     int64     `json:"brand_id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	BudgetCents int64     `json:"budget_cents"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CampaignInput carries caller-supplied fields for create/update.
type CampaignInput struct {
	BrandID     int64  `json:"brand_id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=200"`
	Status      string `json:"status" validate:"omitempty,oneof=draft active paused archived"`
	BudgetCents int64  `json:"budget_cents" validate:"gte=0"`
}
