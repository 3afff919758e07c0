package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/advista/advista/internal/authz"
	"github.com/advista/advista/internal/shared"
)

// RepositoryPort defines data access methods for report snapshots.
type RepositoryPort interface {
	ListSnapshots(ctx context.Context, scope authz.Predicate, limit, offset int) ([]Snapshot, int, error)
	GetSnapshot(ctx context.Context, id int64) (*Snapshot, error)
	Summarize(ctx context.Context, scope authz.Predicate) (*Summary, error)
	CampaignOwner(ctx context.Context, campaignID int64) (int64, error)
}

// Enqueuer submits snapshot rebuild jobs to the background worker.
type Enqueuer interface {
	EnqueueReportSnapshot(ctx context.Context, campaignID int64, period string) error
}

// Service handles report business logic. Summary reads collapse concurrent
// identical requests through singleflight because the dashboard fires them on
// every page load.
type Service struct {
	repo     RepositoryPort
	engine   *authz.Engine
	enqueuer Enqueuer
	group    singleflight.Group
}

// NewService builds a Service instance. enqueuer may be nil when the worker is
// not deployed; rebuild requests then fail with ErrUnavailable.
func NewService(repo RepositoryPort, engine *authz.Engine, enqueuer Enqueuer) *Service {
	return &Service{repo: repo, engine: engine, enqueuer: enqueuer}
}

// List returns the snapshots the subject may see.
func (s *Service) List(ctx context.Context, subject authz.Subject, page, perPage int) ([]Snapshot, shared.Pagination, error) {
	if err := s.engine.Check(ctx, subject, authz.ModuleReports, authz.ActionRead).Err(); err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListSnapshots(ctx, authz.Scope(subject), p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// Get returns a single snapshot if it is within the subject's scope.
func (s *Service) Get(ctx context.Context, subject authz.Subject, id int64) (*Snapshot, error) {
	if err := s.engine.Check(ctx, subject, authz.ModuleReports, authz.ActionRead).Err(); err != nil {
		return nil, err
	}
	snapshot, err := s.repo.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.Scope(subject).Match(snapshot.OwnerID) {
		return nil, shared.ErrNotFound
	}
	return snapshot, nil
}

// Summary aggregates the subject's visible snapshots. Concurrent calls that
// resolve to the same scope share one database round trip.
func (s *Service) Summary(ctx context.Context, subject authz.Subject) (*Summary, error) {
	if err := s.engine.Check(ctx, subject, authz.ModuleReports, authz.ActionRead).Err(); err != nil {
		return nil, err
	}
	scope := authz.Scope(subject)
	key := "all"
	if !scope.IsUnrestricted() {
		key = fmt.Sprintf("owner:%d", subject.UserID)
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.repo.Summarize(ctx, scope)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Summary), nil
}

// Export returns every snapshot in the subject's scope for CSV download. It
// requires the export grant on top of read.
func (s *Service) Export(ctx context.Context, subject authz.Subject) ([]Snapshot, error) {
	if err := s.engine.Check(ctx, subject, authz.ModuleReports, authz.ActionExport).Err(); err != nil {
		return nil, err
	}
	items, _, err := s.repo.ListSnapshots(ctx, authz.Scope(subject), exportBatchLimit, 0)
	return items, err
}

// exportBatchLimit caps a single CSV export.
const exportBatchLimit = 10_000

// RequestRebuild enqueues a snapshot rebuild for one campaign. The caller must
// hold the update grant and own the campaign.
func (s *Service) RequestRebuild(ctx context.Context, subject authz.Subject, input RebuildInput) (string, error) {
	if err := s.engine.Check(ctx, subject, authz.ModuleReports, authz.ActionUpdate).Err(); err != nil {
		return "", err
	}
	ownerID, err := s.repo.CampaignOwner(ctx, input.CampaignID)
	if err != nil {
		return "", err
	}
	if err := authz.EnforceOwnership(subject, ownerID).Err(); err != nil {
		return "", err
	}
	if s.enqueuer == nil {
		return "", shared.ErrUnavailable
	}
	period := input.Period
	if period == "" {
		period = time.Now().UTC().Format("2006-01")
	}
	if err := s.enqueuer.EnqueueReportSnapshot(ctx, input.CampaignID, period); err != nil {
		return "", fmt.Errorf("reports: enqueue rebuild: %w", err)
	}
	return period, nil
}
