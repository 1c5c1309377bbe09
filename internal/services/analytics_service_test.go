package services

import (
	"errors"
	"sort"
	"testing"
	"time"

	"restaurant_pos_backend/internal/models"
)

func newAnalytics(repo *fakeAnalyticsRepo, now time.Time) *analyticsService {
	svc := NewAnalyticsService(repo).(*analyticsService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestGetDailyTotalsZeroFills(t *testing.T) {
	repo := &fakeAnalyticsRepo{daily: []models.DailyTotal{
		{Date: "2024-03-10", Total: 500},
		{Date: "2024-03-14", Total: 1200},
	}}
	svc := newAnalytics(repo, fixedNow) // Thursday 2024-03-14

	got, err := svc.GetDailyTotals(0)
	if err != nil {
		t.Fatalf("GetDailyTotals() error = %v", err)
	}
	want := []models.DailyTotal{
		{Date: "2024-03-08", Total: 0},
		{Date: "2024-03-09", Total: 0},
		{Date: "2024-03-10", Total: 500},
		{Date: "2024-03-11", Total: 0},
		{Date: "2024-03-12", Total: 0},
		{Date: "2024-03-13", Total: 0},
		{Date: "2024-03-14", Total: 1200},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d days, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if _, err := svc.GetDailyTotals(MaxDailyRange + 1); !errors.Is(err, ErrValidation) {
		t.Errorf("range too long: error = %v, want ErrValidation", err)
	}
}

func TestGetSummaryPeriods(t *testing.T) {
	repo := &fakeAnalyticsRepo{sum: 42}
	svc := newAnalytics(repo, fixedNow)

	got, err := svc.GetSummary()
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if got.Today != 42 || got.Week != 42 || got.Month != 42 {
		t.Errorf("summary = %+v, want 42 everywhere", got)
	}

	sort.Slice(repo.sums, func(i, j int) bool { return repo.sums[i].Before(repo.sums[j]) })
	want := []time.Time{
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),  // month
		time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), // week starts Monday
		time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), // today
	}
	for i := range want {
		if !repo.sums[i].Equal(want[i]) {
			t.Errorf("period start %d = %v, want %v", i, repo.sums[i], want[i])
		}
	}
}

func TestGetBestSellersLimit(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	svc := newAnalytics(repo, fixedNow)

	if _, err := svc.GetBestSellers(0); err != nil || repo.limit != DefaultBestSellers {
		t.Errorf("default limit = %d (%v), want %d", repo.limit, err, DefaultBestSellers)
	}
	if _, err := svc.GetBestSellers(5000); err != nil || repo.limit != MaxBestSellers {
		t.Errorf("capped limit = %d (%v), want %d", repo.limit, err, MaxBestSellers)
	}
}

func TestGetTotalByDate(t *testing.T) {
	repo := &fakeAnalyticsRepo{sum: 900}
	svc := newAnalytics(repo, fixedNow)

	got, err := svc.GetTotalByDate("2024-02-29")
	if err != nil {
		t.Fatalf("GetTotalByDate() error = %v", err)
	}
	if got.Total != 900 || got.Date != "2024-02-29" {
		t.Errorf("got %+v", got)
	}
	if _, err := svc.GetTotalByDate("29/02/2024"); !errors.Is(err, ErrValidation) {
		t.Errorf("bad date: error = %v, want ErrValidation", err)
	}
}
