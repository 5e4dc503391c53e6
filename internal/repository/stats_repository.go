package repository

import (
	"context"
	"database/sql"
)

// Stats aggregates the dashboard numbers in one pass. Revenue sums exclude
// cancelled bookings everywhere; this query is the only source of truth for
// the dashboard, clients must not recompute these figures.
type Stats struct {
	TotalBookings     int `json:"totalBookings"`
	PendingBookings   int `json:"pendingBookings"`
	ConfirmedBookings int `json:"confirmedBookings"`
	CancelledBookings int `json:"cancelledBookings"`
	TotalRevenue      int `json:"totalRevenue"`
	MonthBookings     int `json:"monthBookings"`
	MonthRevenue      int `json:"monthRevenue"`
	TotalUsers        int `json:"totalUsers"`
}

// StatsRepo runs read-only aggregation over bookings and users for the
// admin dashboard. No mutation.
type StatsRepo struct{ DB *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{DB: db} }

// Load computes all dashboard statistics. "Month" means the current
// calendar month in UTC, matched by date truncation on created_at.
func (r *StatsRepo) Load(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(status='pending'),0),
			COALESCE(SUM(status='confirmed'),0),
			COALESCE(SUM(status='cancelled'),0),
			COALESCE(SUM(CASE WHEN status <> 'cancelled' THEN total_cost ELSE 0 END),0),
			COALESCE(SUM(DATE_FORMAT(created_at,'%Y-%m') = DATE_FORMAT(UTC_TIMESTAMP(),'%Y-%m')),0),
			COALESCE(SUM(CASE WHEN status <> 'cancelled'
				AND DATE_FORMAT(created_at,'%Y-%m') = DATE_FORMAT(UTC_TIMESTAMP(),'%Y-%m')
				THEN total_cost ELSE 0 END),0)
		FROM bookings`).Scan(
		&s.TotalBookings, &s.PendingBookings, &s.ConfirmedBookings, &s.CancelledBookings,
		&s.TotalRevenue, &s.MonthBookings, &s.MonthRevenue)
	if err != nil {
		return Stats{}, err
	}
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&s.TotalUsers); err != nil {
		return Stats{}, err
	}
	return s, nil
}
