package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"mediahub/internal/domain"
	"mediahub/internal/infra"
	"mediahub/internal/sqlinline"
)

// UsageRepositoryPG implements domain.UsageRepository on the download_usage table.
type UsageRepositoryPG struct {
	db infra.SQLExecutor
}

// NewUsageRepository creates a new UsageRepositoryPG.
func NewUsageRepository(db infra.SQLExecutor) *UsageRepositoryPG {
	return &UsageRepositoryPG{db: db}
}

// UsedToday returns today's download count for the user.
func (r *UsageRepositoryPG) UsedToday(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, domain.ErrUnauthorized
	}
	var used int
	if err := r.db.QueryRow(ctx, sqlinline.QSelectUsageToday, userID).Scan(&used); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("usage: select today: %w", err)
	}
	return used, nil
}

// Reserve records one download. The limit check and the increment run in a
// single statement, so concurrent requests cannot overshoot the limit.
func (r *UsageRepositoryPG) Reserve(ctx context.Context, userID string, limit domain.DailyLimit) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, domain.ErrUnauthorized
	}
	if !limit.IsUnlimited() && limit == 0 {
		return 0, domain.ErrQuotaExceeded
	}
	var used int
	err := r.db.QueryRow(ctx, sqlinline.QReserveDownload, userID, int(limit)).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrQuotaExceeded
	}
	if err != nil {
		return 0, fmt.Errorf("usage: reserve: %w", err)
	}
	return used, nil
}

// History lists up to days recent usage rows, newest first.
func (r *UsageRepositoryPG) History(ctx context.Context, userID string, days int) ([]domain.UsageDay, error) {
	if days <= 0 {
		days = 7
	}
	rows, err := r.db.Query(ctx, sqlinline.QSelectUsageHistory, userID, days)
	if err != nil {
		return nil, fmt.Errorf("usage: history: %w", err)
	}
	defer rows.Close()

	out := make([]domain.UsageDay, 0, days)
	for rows.Next() {
		var d domain.UsageDay
		if err := rows.Scan(&d.Day, &d.Used); err != nil {
			return nil, fmt.Errorf("usage: scan history: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("usage: history rows: %w", err)
	}
	return out, nil
}

// SummaryToday aggregates today's usage across all users.
func (r *UsageRepositoryPG) SummaryToday(ctx context.Context) (domain.UsageSummary, error) {
	var s domain.UsageSummary
	if err := r.db.QueryRow(ctx, sqlinline.QSelectUsageSummaryToday).Scan(&s.ActiveUsers, &s.Downloads); err != nil {
		return domain.UsageSummary{}, fmt.Errorf("usage: summary: %w", err)
	}
	return s, nil
}

// Ping checks that the store answers a trivial query.
func (r *UsageRepositoryPG) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRow(ctx, sqlinline.QPingUsageStore).Scan(&one); err != nil {
		return fmt.Errorf("usage: ping: %w", err)
	}
	return nil
}

var _ domain.UsageRepository = (*UsageRepositoryPG)(nil)
