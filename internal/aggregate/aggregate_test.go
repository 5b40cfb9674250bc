package aggregate

import (
	"testing"
	"time"

	"fundwatch/internal/models"
)

func day(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	t = t.Add(13 * time.Hour) // mid-day settlement, must still bucket by date
	return &t
}

func TestAggregate_Totals(t *testing.T) {
	records := []models.Campaign{
		{ID: "a", Status: models.StatusSettled, RaisedAmount: 100, TargetAmount: 1000, SettledAt: day("2024-06-01"), SourceTag: models.SourceIngested},
		{ID: "b", Status: models.StatusSettled, RaisedAmount: 200, TargetAmount: 500, SettledAt: day("2024-06-01"), SourceTag: models.SourceIngested},
		{ID: "c", Status: models.StatusSettled, RaisedAmount: 300, TargetAmount: 300, SettledAt: day("2024-06-01"), SourceTag: models.SourceLive},
	}
	snap := Aggregate(records, nil)
	if snap.TotalRaised != 600 {
		t.Fatalf("TotalRaised=%d want 600", snap.TotalRaised)
	}
	if snap.TotalTarget != 1800 {
		t.Fatalf("TotalTarget=%d want 1800", snap.TotalTarget)
	}
	if snap.AverageContribution != 200 {
		t.Fatalf("AverageContribution=%d want 200", snap.AverageContribution)
	}
	if snap.RecordCount != 3 {
		t.Fatalf("RecordCount=%d want 3", snap.RecordCount)
	}
	if len(snap.DailyTotals) != 1 || snap.DailyTotals[0].Date != "2024-06-01" || snap.DailyTotals[0].Amount != 600 {
		t.Fatalf("DailyTotals=%v want single 2024-06-01/600 bucket", snap.DailyTotals)
	}
}

func TestAggregate_StatusCountsIncludeZero(t *testing.T) {
	snap := Aggregate([]models.Campaign{{ID: "a", Status: models.StatusNew}}, nil)
	if len(snap.StatusCounts) != len(models.AllStatuses()) {
		t.Fatalf("StatusCounts has %d keys want %d", len(snap.StatusCounts), len(models.AllStatuses()))
	}
	if snap.StatusCounts[models.StatusNew] != 1 {
		t.Fatalf("New=%d want 1", snap.StatusCounts[models.StatusNew])
	}
	if got, ok := snap.StatusCounts[models.StatusExpired]; !ok || got != 0 {
		t.Fatalf("Expired=%d ok=%v want explicit zero", got, ok)
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	snap := Aggregate(nil, nil)
	if snap.TotalRaised != 0 || snap.AverageContribution != 0 || snap.RecordCount != 0 {
		t.Fatalf("snapshot not zeroed: %+v", snap)
	}
	if len(snap.DailyTotals) != 0 {
		t.Fatalf("DailyTotals=%v want empty", snap.DailyTotals)
	}
}

func TestAggregate_WindowZeroFills(t *testing.T) {
	records := []models.Campaign{
		{ID: "a", Status: models.StatusSettled, RaisedAmount: 50, SettledAt: day("2024-06-01")},
		{ID: "b", Status: models.StatusSettled, RaisedAmount: 70, SettledAt: day("2024-06-03")},
	}
	window := &Window{
		From: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
	}
	snap := Aggregate(records, window)
	if len(snap.DailyTotals) != 4 {
		t.Fatalf("len(DailyTotals)=%d want 4", len(snap.DailyTotals))
	}
	want := []DailyTotal{
		{Date: "2024-06-01", Amount: 50},
		{Date: "2024-06-02", Amount: 0},
		{Date: "2024-06-03", Amount: 70},
		{Date: "2024-06-04", Amount: 0},
	}
	for i, w := range want {
		if snap.DailyTotals[i] != w {
			t.Fatalf("DailyTotals[%d]=%v want %v", i, snap.DailyTotals[i], w)
		}
	}
}

func TestAggregate_WindowExcludesOutsideSeriesOnly(t *testing.T) {
	records := []models.Campaign{
		{ID: "a", Status: models.StatusSettled, RaisedAmount: 50, SettledAt: day("2024-05-20")},
		{ID: "b", Status: models.StatusSettled, RaisedAmount: 70, SettledAt: day("2024-06-02")},
	}
	window := &Window{
		From: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	snap := Aggregate(records, window)
	if snap.TotalRaised != 120 {
		t.Fatalf("TotalRaised=%d want 120 (totals ignore the window)", snap.TotalRaised)
	}
	var seriesSum int64
	for _, d := range snap.DailyTotals {
		seriesSum += d.Amount
	}
	if seriesSum != 70 {
		t.Fatalf("series sum=%d want 70 (out-of-window settlement dropped)", seriesSum)
	}
}

func TestAggregate_UnsettledExcludedFromSeries(t *testing.T) {
	records := []models.Campaign{
		{ID: "a", Status: models.StatusProcessing, RaisedAmount: 40},
		{ID: "b", Status: models.StatusSettled, RaisedAmount: 60, SettledAt: day("2024-06-01")},
	}
	snap := Aggregate(records, nil)
	if snap.TotalRaised != 100 {
		t.Fatalf("TotalRaised=%d want 100", snap.TotalRaised)
	}
	if len(snap.DailyTotals) != 1 || snap.DailyTotals[0].Amount != 60 {
		t.Fatalf("DailyTotals=%v want single bucket of 60", snap.DailyTotals)
	}
}

func TestAggregate_SourceBreakdown(t *testing.T) {
	records := []models.Campaign{
		{ID: "a", Status: models.StatusNew, RaisedAmount: 10, SourceTag: models.SourceLive},
		{ID: "b", Status: models.StatusNew, RaisedAmount: 20, SourceTag: models.SourceLive},
		{ID: "c", Status: models.StatusNew, RaisedAmount: 5, SourceTag: models.SourceIngested},
	}
	snap := Aggregate(records, nil)
	if len(snap.SourceBreakdown) != 2 {
		t.Fatalf("len(SourceBreakdown)=%d want 2", len(snap.SourceBreakdown))
	}
	// sorted by tag: ingested before live
	if snap.SourceBreakdown[0].Tag != models.SourceIngested || snap.SourceBreakdown[0].Raised != 5 {
		t.Fatalf("breakdown[0]=%+v want ingested/5", snap.SourceBreakdown[0])
	}
	if snap.SourceBreakdown[1].Tag != models.SourceLive || snap.SourceBreakdown[1].Count != 2 || snap.SourceBreakdown[1].Raised != 30 {
		t.Fatalf("breakdown[1]=%+v want live/2/30", snap.SourceBreakdown[1])
	}
}

func TestCompletionPercent_Uncapped(t *testing.T) {
	c := models.Campaign{RaisedAmount: 61_250_000, TargetAmount: 50_000_000}
	if got := CompletionPercent(c).String(); got != "122.5" {
		t.Fatalf("percent=%s want 122.5", got)
	}
}

func TestCompletionPercent_ZeroTarget(t *testing.T) {
	c := models.Campaign{RaisedAmount: 500, TargetAmount: 0}
	if !CompletionPercent(c).IsZero() {
		t.Fatalf("percent=%s want 0", CompletionPercent(c).String())
	}
}

func TestTopFunded_OrderAndLimit(t *testing.T) {
	records := []models.Campaign{
		{ID: "low", RaisedAmount: 10, TargetAmount: 100},
		{ID: "high", RaisedAmount: 90, TargetAmount: 100},
		{ID: "mid-b", RaisedAmount: 50, TargetAmount: 100},
		{ID: "mid-a", RaisedAmount: 50, TargetAmount: 100},
	}
	top := TopFunded(records, 3)
	if len(top) != 3 {
		t.Fatalf("len=%d want 3", len(top))
	}
	if top[0].ID != "high" {
		t.Fatalf("top[0]=%s want high", top[0].ID)
	}
	if top[1].ID != "mid-a" || top[2].ID != "mid-b" {
		t.Fatalf("tie order=%s,%s want mid-a,mid-b", top[1].ID, top[2].ID)
	}
	if top[0].CompletionPercent.String() != "90" {
		t.Fatalf("percent=%s want 90", top[0].CompletionPercent.String())
	}
}
