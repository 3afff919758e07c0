package campaigns

import (
	"context"

	"github.com/advista/advista/internal/authz"
	"github.com/advista/advista/internal/shared"
)

// RepositoryPort defines data access methods for campaigns.
type RepositoryPort interface {
	ListCampaigns(ctx context.Context, scope authz.Predicate, limit, offset int) ([]Campaign, int, error)
	GetCampaign(ctx context.Context, id int64) (*Campaign, error)
	CreateCampaign(ctx context.Context, c Campaign) (*Campaign, error)
	UpdateCampaign(ctx context.Context, c Campaign) error
	DeleteCampaign(ctx context.Context, id int64) error
}

// Service handles campaign business logic. Every operation runs the
// module/action check first; reads then narrow rows through the scope
// predicate, and per-row mutations additionally pass the ownership guard.
type Service struct {
	repo   RepositoryPort
	engine *authz.Engine
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, engine *authz.Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

// List returns the campaigns the subject may see.
func (s *Service) List(ctx context.Context, subject authz.Subject, page, perPage int) ([]Campaign, shared.Pagination, error) {
	if err := s.engine.Check(ctx, subject, authz.ModuleCampaigns, authz.ActionRead).Err(); err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListCampaigns(ctx, authz.Scope(subject), p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// Get returns a single campaign if it is within the subject's scope. Rows
// outside the scope surface as not found so their existence does not leak.
func (s *Service) Get(ctx context.Context, subject authz.Subject, id int64) (*Campaign, error) {
	if err := s.engine.Check(ctx, subject, authz.ModuleCampaigns, authz.ActionRead).Err(); err != nil {
		return nil, err
	}
	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.Scope(subject).Match(campaign.OwnerID) {
		return nil, shared.ErrNotFound
	}
	return campaign, nil
}

// Create inserts a campaign owned by the subject.
func (s *Service) Create(ctx context.Context, subject authz.Subject, input CampaignInput) (*Campaign, error) {
	if err := s.engine.Check(ctx, subject, authz.ModuleCampaigns, authz.ActionCreate).Err(); err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = StatusDraft
	}
	return s.repo.CreateCampaign(ctx, Campaign{
		OwnerID:     subject.UserID,
		BrandID:     input.BrandID,
		Name:        input.Name,
		Status:      status,
		BudgetCents: input.BudgetCents,
	})
}

// Update mutates a campaign after both the module check and the ownership
// guard pass. A module-level update grant alone is not sufficient.
func (s *Service) Update(ctx context.Context, subject authz.Subject, id int64, input CampaignInput) (*Campaign, error) {
	if err := s.engine.Check(ctx, subject, authz.ModuleCampaigns, authz.ActionUpdate).Err(); err != nil {
		return nil, err
	}
	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.EnforceOwnership(subject, campaign.OwnerID).Err(); err != nil {
		return nil, err
	}
	campaign.BrandID = input.BrandID
	campaign.Name = input.Name
	if input.Status != "" {
		campaign.Status = input.Status
	}
	campaign.BudgetCents = input.BudgetCents
	if err := s.repo.UpdateCampaign(ctx, *campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// Delete removes a campaign after both the module check and the ownership
// guard pass.
func (s *Service) Delete(ctx context.Context, subject authz.Subject, id int64) error {
	if err := s.engine.Check(ctx, subject, authz.ModuleCampaigns, authz.ActionDelete).Err(); err != nil {
		return err
	}
	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.EnforceOwnership(subject, campaign.OwnerID).Err(); err != nil {
		return err
	}
	return s.repo.DeleteCampaign(ctx, id)
}
