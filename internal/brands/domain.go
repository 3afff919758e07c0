package brands

import "time"

// Brand represents an advertiser brand owned by the user who created it.
type Brand struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	Website   string    `json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BrandInput carries caller-supplied fields for create/update.
type BrandInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Website string `json:"website" validate:"omitempty,url,max=255"`
}
