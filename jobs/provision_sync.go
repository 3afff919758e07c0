package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advista/advista/internal/authz"
)

// NewProvisionSyncTask constructs the catalog sync task. It carries no payload.
func NewProvisionSyncTask() *asynq.Task {
	return asynq.NewTask(TaskProvisionSync, nil, asynq.Queue(QueueDefault))
}

// NewProvisionSyncHandler re-registers the shipped permission definitions.
// Registration is idempotent, so running this on every deploy or cron tick is
// harmless.
func NewProvisionSyncHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	repo := authz.NewRepository(pool)
	provisioner := authz.NewProvisioner(repo, repo)
	return func(ctx context.Context, t *asynq.Task) error {
		defs := authz.DefaultDefinitions()
		if err := provisioner.EnsureCatalog(ctx, defs); err != nil {
			logger.Error("provision sync", slog.Any("error", err))
			return err
		}
		logger.Info("permission catalog synced", slog.Int("definitions", len(defs)))
		return nil
	}
}
