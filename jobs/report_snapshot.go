package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advista/advista/internal/reports"
)

// ReportSnapshotPayload identifies the campaign and period to rebuild. A zero
// CampaignID means rebuild every active campaign, which is what the nightly
// cron sends.
type ReportSnapshotPayload struct {
	CampaignID int64  `json:"campaign_id"`
	Period     string `json:"period"`
}

// NewReportSnapshotTask constructs an Asynq task for a snapshot rebuild.
func NewReportSnapshotTask(payload ReportSnapshotPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportSnapshot, body, asynq.Queue(QueueDefault)), nil
}

// NewReportSnapshotHandler builds the handler that aggregates raw delivery
// stats into report_snapshots rows.
func NewReportSnapshotHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	repo := reports.NewRepository(pool)
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReportSnapshotPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.Period == "" {
			payload.Period = time.Now().UTC().Format("2006-01")
		}

		ids := []int64{payload.CampaignID}
		if payload.CampaignID == 0 {
			var err error
			ids, err = activeCampaignIDs(ctx, pool)
			if err != nil {
				return err
			}
		}

		for _, id := range ids {
			snapshot, err := aggregateCampaign(ctx, pool, id, payload.Period)
			if err != nil {
				logger.Error("aggregate campaign",
					slog.Int64("campaign_id", id),
					slog.String("period", payload.Period),
					slog.Any("error", err))
				return err
			}
			if err := repo.UpsertSnapshot(ctx, *snapshot); err != nil {
				return err
			}
		}
		logger.Info("report snapshots rebuilt",
			slog.Int("campaigns", len(ids)),
			slog.String("period", payload.Period))
		return nil
	}
}

func activeCampaignIDs(ctx context.Context, pool *pgxpool.Pool) ([]int64, error) {
	rows, err := pool.Query(ctx, `SELECT id FROM campaigns WHERE status = 'active' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func aggregateCampaign(ctx context.Context, pool *pgxpool.Pool, campaignID int64, period string) (*reports.Snapshot, error) {
	s := reports.Snapshot{CampaignID: campaignID, Period: period}
	err := pool.QueryRow(ctx, `
		SELECT c.owner_id,
		       COALESCE(SUM(d.impressions), 0),
		       COALESCE(SUM(d.clicks), 0),
		       COALESCE(SUM(d.spend_cents), 0)
		FROM campaigns c
		LEFT JOIN delivery_stats d
		  ON d.campaign_id = c.id AND to_char(d.stat_date, 'YYYY-MM') = $2
		WHERE c.id = $1
		GROUP BY c.owner_id`, campaignID, period).
		Scan(&s.OwnerID, &s.Impressions, &s.Clicks, &s.SpendCents)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
