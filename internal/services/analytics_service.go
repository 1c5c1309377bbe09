package services

import (
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultReportDateLayout = "2006-01-02"
	DefaultDailyRange       = 7
	MaxDailyRange           = 366
	DefaultBestSellers      = 5
	MaxBestSellers          = 100
)

// AnalyticsService reports sales over finalized orders.
type AnalyticsService interface {
	GetSummary() (*models.SalesSummary, error)
	GetDailyTotals(days int) ([]models.DailyTotal, error)
	GetBestSellers(limit int) ([]models.BestSeller, error)
	GetTotalByDate(date string) (*models.DailyTotal, error)
	GetHighestSalesDay() (*models.HighestSalesDay, error)
}

type analyticsService struct {
	repo repositories.AnalyticsRepository
	now  func() time.Time
}

// NewAnalyticsService creates a new instance of AnalyticsService.
func NewAnalyticsService(repo repositories.AnalyticsRepository) AnalyticsService {
	return &analyticsService{repo: repo, now: time.Now}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// GetSummary returns today's, this week's (from Monday) and this month's totals.
func (s *analyticsService) GetSummary() (*models.SalesSummary, error) {
	now := s.now()
	today := startOfDay(now)
	startOfWeek := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var summary models.SalesSummary
	var g errgroup.Group
	g.Go(func() (err error) {
		if summary.Today, err = s.repo.SumNetTotal(today, today.AddDate(0, 0, 1)); err != nil {
			return fmt.Errorf("failed to get today's sales: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if summary.Week, err = s.repo.SumNetTotal(startOfWeek, startOfWeek.AddDate(0, 0, 7)); err != nil {
			return fmt.Errorf("failed to get this week's sales: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if summary.Month, err = s.repo.SumNetTotal(startOfMonth, startOfMonth.AddDate(0, 1, 0)); err != nil {
			return fmt.Errorf("failed to get this month's sales: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetDailyTotals returns one entry per day for the last days days, today
// included, oldest first. Days without sales are reported as 0.
func (s *analyticsService) GetDailyTotals(days int) ([]models.DailyTotal, error) {
	if days <= 0 {
		days = DefaultDailyRange
	}
	if days > MaxDailyRange {
		return nil, fmt.Errorf("%w: range cannot exceed %d days", ErrValidation, MaxDailyRange)
	}
	today := startOfDay(s.now())
	from := today.AddDate(0, 0, -(days - 1))

	rows, err := s.repo.DailyTotals(from, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to get daily totals: %w", err)
	}
	byDate := make(map[string]int64, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r.Total
	}

	out := make([]models.DailyTotal, 0, days)
	for d := from; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(DefaultReportDateLayout)
		out = append(out, models.DailyTotal{Date: key, Total: byDate[key]})
	}
	return out, nil
}

func (s *analyticsService) GetBestSellers(limit int) ([]models.BestSeller, error) {
	if limit <= 0 {
		limit = DefaultBestSellers
	}
	if limit > MaxBestSellers {
		limit = MaxBestSellers
	}
	sellers, err := s.repo.BestSellers(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get best sellers: %w", err)
	}
	return sellers, nil
}

func (s *analyticsService) GetTotalByDate(date string) (*models.DailyTotal, error) {
	day, err := time.ParseInLocation(DefaultReportDateLayout, date, s.now().Location())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, date)
	}
	total, err := s.repo.SumNetTotal(day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to get total for %s: %w", date, err)
	}
	return &models.DailyTotal{Date: date, Total: total}, nil
}

func (s *analyticsService) GetHighestSalesDay() (*models.HighestSalesDay, error) {
	day, err := s.repo.HighestSalesDay()
	if err != nil {
		return nil, fmt.Errorf("failed to get highest sales day: %w", err)
	}
	return day, nil
}
