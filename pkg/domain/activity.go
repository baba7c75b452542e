package domain

import (
	"sort"
	"time"
)

// DefaultLookback is how far back daily activity is derived.
const DefaultLookback = 30 * 24 * time.Hour

// DeriveDailyActivity buckets contributions by UTC calendar day within the
// lookback window ending at now. Days without contributions are omitted.
// BytesAdded only counts non-negative diffs; removals do not subtract.
func DeriveDailyActivity(contributions []Contribution, lookback time.Duration, now time.Time) []DailyActivity {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	cutoff := now.Add(-lookback)

	buckets := make(map[string]*DailyActivity)
	for _, c := range contributions {
		if c.Timestamp.Before(cutoff) || c.Timestamp.After(now) {
			continue
		}

		day := c.Timestamp.UTC().Format("2006-01-02")
		activity, ok := buckets[day]
		if !ok {
			activity = &DailyActivity{Date: day}
			buckets[day] = activity
		}

		activity.EditCount++
		if c.ByteDiff > 0 {
			activity.BytesAdded += c.ByteDiff
		}
	}

	days := make([]DailyActivity, 0, len(buckets))
	for _, activity := range buckets {
		days = append(days, *activity)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	return days
}

// TallyContributions counts classified contributions into stats counters.
// TotalEdits is owned by the statistics API and left untouched here.
func TallyContributions(stats *EditorStats, contributions []Contribution) {
	for _, c := range contributions {
		switch c.Type {
		case TypeNewArticle:
			stats.ArticlesCreated++
		case TypeMajorExpansion:
			stats.MajorExpansions++
		case TypeMinorEdit:
			stats.MinorEdits++
		case TypeTalkPage:
			stats.TalkPagePosts++
		}
	}
}
