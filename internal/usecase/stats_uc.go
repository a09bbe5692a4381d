package usecase

import (
	"context"
	"time"

	"akram-coaching-backend/internal/domain/model"
	"akram-coaching-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
}

// DashboardStats backs the admin panel overview. Revenue windows count only
// delivered payment notifications, in DZD minor units.
type DashboardStats struct {
	TotalSubmissions   int                          `json:"total_submissions"`
	PendingSubmissions int                          `json:"pending_submissions"`
	ByType             map[model.SubmissionType]int `json:"by_type"`
	RevenueWeekDZD     int64                        `json:"revenue_week_dzd"`
	RevenueMonthDZD    int64                        `json:"revenue_month_dzd"`
	RevenueYearDZD     int64                        `json:"revenue_year_dzd"`
	RevenueTotalDZD    int64                        `json:"revenue_total_dzd"`
}

type statsUC struct {
	submissions   repository.SubmissionRepository
	notifications repository.NotificationLogRepository
}

func NewStatsUseCase(submissions repository.SubmissionRepository, notifications repository.NotificationLogRepository) *statsUC {
	return &statsUC{submissions: submissions, notifications: notifications}
}

func (u *statsUC) Dashboard(ctx context.Context) (*DashboardStats, error) {
	total, err := u.submissions.Count(ctx, "")
	if err != nil {
		return nil, err
	}
	pending, err := u.submissions.Count(ctx, model.SubmissionStatusPending)
	if err != nil {
		return nil, err
	}
	byType, err := u.submissions.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	week, err := u.notifications.SumDeliveredSince(ctx, "dzd", now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	month, err := u.notifications.SumDeliveredSince(ctx, "dzd", now.AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	year, err := u.notifications.SumDeliveredSince(ctx, "dzd", now.AddDate(-1, 0, 0))
	if err != nil {
		return nil, err
	}
	allTime, err := u.notifications.SumDeliveredSince(ctx, "dzd", time.Time{})
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		TotalSubmissions:   total,
		PendingSubmissions: pending,
		ByType:             byType,
		RevenueWeekDZD:     week,
		RevenueMonthDZD:    month,
		RevenueYearDZD:     year,
		RevenueTotalDZD:    allTime,
	}, nil
}
