package brands

import (
	"context"

	"github.com/advista/advista/internal/authz"
	"github.com/advista/advista/internal/shared"
)

// RepositoryPort defines data access methods for brands.
type RepositoryPort interface {
	ListBrands(ctx context.Context, scope authz.Predicate, limit, offset int) ([]Brand, int, error)
	GetBrand(ctx context.Context, id int64) (*Brand, error)
	CreateBrand(ctx context.Context, b Brand) (*Brand, error)
	UpdateBrand(ctx context.Context, b Brand) error
	DeleteBrand(ctx context.Context, id int64) error
}

// Service handles brand business logic with the same check/scope/ownership
// layering as campaigns.
type Service struct {
	repo   RepositoryPort
	engine *authz.Engine
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, engine *authz.Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

// List returns the brands the subject may see.
func (s *Service) List(ctx context.Context, subject authz.Subject, page, perPage int) ([]Brand, shared.Pagination, error) {
	if err := s.engine.Check(ctx, subject, authz.ModuleBrands, authz.ActionRead).Err(); err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListBrands(ctx, authz.Scope(subject), p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// Get returns a single brand if it is within the subject's scope.
func (s *Service) Get(ctx context.Context, subject authz.Subject, id int64) (*Brand, error) {
	if err := s.engine.Check(ctx, subject, authz.ModuleBrands, authz.ActionRead).Err(); err != nil {
		return nil, err
	}
	brand, err := s.repo.GetBrand(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.Scope(subject).Match(brand.OwnerID) {
		return nil, shared.ErrNotFound
	}
	return brand, nil
}

// Create inserts a brand owned by the subject.
func (s *Service) Create(ctx context.Context, subject authz.Subject, input BrandInput) (*Brand, error) {
	if err := s.engine.Check(ctx, subject, authz.ModuleBrands, authz.ActionCreate).Err(); err != nil {
		return nil, err
	}
	return s.repo.CreateBrand(ctx, Brand{
		OwnerID: subject.UserID,
		Name:    input.Name,
		Website: input.Website,
	})
}

// Update mutates a brand after the module check and the ownership guard pass.
func (s *Service) Update(ctx context.Context, subject authz.Subject, id int64, input BrandInput) (*Brand, error) {
	if err := s.engine.Check(ctx, subject, authz.ModuleBrands, authz.ActionUpdate).Err(); err != nil {
		return nil, err
	}
	brand, err := s.repo.GetBrand(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.EnforceOwnership(subject, brand.OwnerID).Err(); err != nil {
		return nil, err
	}
	brand.Name = input.Name
	brand.Website = input.Website
	if err := s.repo.UpdateBrand(ctx, *brand); err != nil {
		return nil, err
	}
	return brand, nil
}

// Delete removes a brand after the module check and the ownership guard pass.
func (s *Service) Delete(ctx context.Context, subject authz.Subject, id int64) error {
	if err := s.engine.Check(ctx, subject, authz.ModuleBrands, authz.ActionDelete).Err(); err != nil {
		return err
	}
	brand, err := s.repo.GetBrand(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.EnforceOwnership(subject, brand.OwnerID).Err(); err != nil {
		return err
	}
	return s.repo.DeleteBrand(ctx, id)
}
