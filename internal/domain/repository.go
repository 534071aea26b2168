package domain

import (
	"context"
	"time"
)

// UsageRepository meters daily downloads per user.
type UsageRepository interface {
	// UsedToday returns the number of downloads recorded for the current UTC day.
	UsedToday(ctx context.Context, userID string) (int, error)
	// Reserve records one download unless limit is already reached, in which
	// case it returns ErrQuotaExceeded. It returns the new count.
	Reserve(ctx context.Context, userID string, limit DailyLimit) (int, error)
	// History lists the most recent usage days for a user, newest first.
	History(ctx context.Context, userID string, days int) ([]UsageDay, error)
	// SummaryToday aggregates the current day across all users.
	SummaryToday(ctx context.Context) (UsageSummary, error)
}

// UsageDay is one row of daily usage.
type UsageDay struct {
	Day  time.Time `json:"day"`
	Used int       `json:"used"`
}

// UsageSummary is today's aggregate usage across all users.
type UsageSummary struct {
	ActiveUsers int `json:"activeUsers"`
	Downloads   int `json:"downloads"`
}
