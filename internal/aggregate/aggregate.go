package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fundwatch/internal/models"
)

const dayFormat = "2006-01-02"

// Window bounds the daily series. From and To are inclusive and interpreted
// as UTC dates; time-of-day components are ignored.
type Window struct {
	From time.Time
	To   time.Time
}

type DailyTotal struct {
	Date   string
	Amount int64
}

type SourceStats struct {
	Tag    string
	Count  int
	Raised int64
}

type CampaignDigest struct {
	ID                string
	Title             string
	Status            string
	RaisedAmount      int64
	TargetAmount      int64
	CompletionPercent decimal.Decimal
}

type Snapshot struct {
	TotalRaised         int64
	TotalTarget         int64
	RecordCount         int
	AverageContribution int64
	StatusCounts        map[string]int
	DailyTotals         []DailyTotal
	SourceBreakdown     []SourceStats
}

// Aggregate computes a snapshot over the given records. Pure, no I/O;
// concurrent callers may share inputs. Money fields are satoshis throughout.
// The window applies to the daily series only: settled amounts outside it are
// dropped from the series and gaps inside it are zero-filled. Without a
// window only days with activity appear.
func Aggregate(records []models.Campaign, window *Window) Snapshot {
	snap := Snapshot{StatusCounts: map[string]int{}}
	for _, status := range models.AllStatuses() {
		snap.StatusCounts[status] = 0
	}

	var fromKey, toKey string
	if window != nil {
		fromKey = window.From.UTC().Format(dayFormat)
		toKey = window.To.UTC().Format(dayFormat)
	}

	daily := map[string]int64{}
	bySource := map[string]*SourceStats{}
	for _, rec := range records {
		snap.TotalRaised += rec.RaisedAmount
		snap.TotalTarget += rec.TargetAmount
		snap.RecordCount++
		snap.StatusCounts[rec.Status]++

		stats, ok := bySource[rec.SourceTag]
		if !ok {
			stats = &SourceStats{Tag: rec.SourceTag}
			bySource[rec.SourceTag] = stats
		}
		stats.Count++
		stats.Raised += rec.RaisedAmount

		if rec.SettledAt == nil {
			continue
		}
		key := rec.SettledAt.UTC().Format(dayFormat)
		if window != nil && (key < fromKey || key > toKey) {
			continue
		}
		daily[key] += rec.RaisedAmount
	}

	if snap.RecordCount > 0 {
		snap.AverageContribution = snap.TotalRaised / int64(snap.RecordCount)
	}
	snap.DailyTotals = dailySeries(daily, window)
	snap.SourceBreakdown = sourceBreakdown(bySource)
	return snap
}

// CompletionPercent is raised*100/target, uncapped, rounded to two places.
// Zero when the campaign has no target.
func CompletionPercent(c models.Campaign) decimal.Decimal {
	if c.TargetAmount <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(c.RaisedAmount).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(c.TargetAmount)).
		Round(2)
}

// TopFunded returns up to n campaigns by raised amount, descending, with ID
// as tiebreak so the order is stable across calls.
func TopFunded(records []models.Campaign, n int) []CampaignDigest {
	if n <= 0 || len(records) == 0 {
		return []CampaignDigest{}
	}
	sorted := make([]models.Campaign, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].RaisedAmount != sorted[j].RaisedAmount {
			return sorted[i].RaisedAmount > sorted[j].RaisedAmount
		}
		return sorted[i].ID < sorted[j].ID
	})
	if n > len(sorted) {
		n = len(sorted)
	}

	out := make([]CampaignDigest, 0, n)
	for _, rec := range sorted[:n] {
		out = append(out, CampaignDigest{
			ID:                rec.ID,
			Title:             rec.Title,
			Status:            rec.Status,
			RaisedAmount:      rec.RaisedAmount,
			TargetAmount:      rec.TargetAmount,
			CompletionPercent: CompletionPercent(rec),
		})
	}
	return out
}

func dailySeries(daily map[string]int64, window *Window) []DailyTotal {
	if window != nil {
		out := []DailyTotal{}
		from := dateOnly(window.From)
		to := dateOnly(window.To)
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			key := day.Format(dayFormat)
			out = append(out, DailyTotal{Date: key, Amount: daily[key]})
		}
		return out
	}

	keys := make([]string, 0, len(daily))
	for key := range daily {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]DailyTotal, 0, len(keys))
	for _, key := range keys {
		out = append(out, DailyTotal{Date: key, Amount: daily[key]})
	}
	return out
}

func sourceBreakdown(bySource map[string]*SourceStats) []SourceStats {
	out := make([]SourceStats, 0, len(bySource))
	for _, stats := range bySource {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
