package skills

import (
	"fmt"
	"math"
	"sort"
	"time"

	"wallet-strategy-lab/internal/domain"
)

// Timing signal keys.
const (
	SigOffHoursPct     = "off_hours_pct"
	SigWeekendPct      = "weekend_pct"
	SigAvgDaysBetween  = "avg_days_between_trades"
	SigBurstEpisodes   = "burst_episodes"
	SigActiveDays      = "active_days"
	SigSpanDays        = "span_days"
	SigDailyConsist    = "daily_consistency"
	SigHourEntropy     = "hour_entropy"
	SigPeakHour        = "peak_hour"
	SigHighFrequency   = "high_frequency"
	SigHighlyConsist   = "highly_consistent"
	SigSporadic        = "sporadic"
)

// AnalyzeTiming derives time-of-day, weekday, and cadence signals. Off-hours
// means outside 08:00-22:00 UTC; a burst episode is more than 5 trades in one
// calendar hour.
func AnalyzeTiming(events []domain.TradeEvent, opts Options) *domain.SkillSignalBundle {
	b := newBundle(domain.SkillTiming, len(events))

	times := make([]time.Time, 0, len(events))
	for _, e := range events {
		if e.Timestamp > 0 {
			times = append(times, time.Unix(e.Timestamp, 0).UTC())
		}
	}
	if len(times) == 0 || len(events) < opts.MinTrades {
		markInsufficient(b,
			SigOffHoursPct, SigWeekendPct, SigAvgDaysBetween, SigBurstEpisodes,
			SigActiveDays, SigSpanDays, SigDailyConsist, SigHourEntropy, SigPeakHour)
		return b
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	n := float64(len(times))

	// Hour-of-day distribution, peak hour, and normalized Shannon entropy.
	var hourCounts [24]int
	offHours := 0
	weekend := 0
	for _, t := range times {
		hourCounts[t.Hour()]++
		if t.Hour() < 8 || t.Hour() >= 22 {
			offHours++
		}
		if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend++
		}
	}
	peakHour, entropy := 0, 0.0
	for h, c := range hourCounts {
		if c > hourCounts[peakHour] {
			peakHour = h
		}
		if c > 0 {
			p := float64(c) / n
			entropy -= p * math.Log2(p)
		}
	}
	entropy /= math.Log2(24) // normalize to [0,1]

	b.Signals[SigOffHoursPct] = domain.Number(float64(offHours) / n)
	b.Signals[SigWeekendPct] = domain.Number(float64(weekend) / n)
	b.Signals[SigPeakHour] = domain.Integer(int64(peakHour))
	b.Signals[SigHourEntropy] = domain.Number(entropy)

	// Active-day consistency over the traded span.
	activeDays := map[string]struct{}{}
	for _, t := range times {
		activeDays[t.Format("2006-01-02")] = struct{}{}
	}
	spanDays := 1
	if len(times) >= 2 {
		if d := int(times[len(times)-1].Sub(times[0]).Hours() / 24); d > 1 {
			spanDays = d
		}
	}
	consistency := float64(len(activeDays)) / float64(spanDays)
	b.Signals[SigActiveDays] = domain.Integer(int64(len(activeDays)))
	b.Signals[SigSpanDays] = domain.Integer(int64(spanDays))
	b.Signals[SigDailyConsist] = domain.Number(consistency)

	// Mean gap between consecutive trades, in days.
	avgGap := 0.0
	if len(times) >= 2 {
		total := times[len(times)-1].Sub(times[0])
		avgGap = total.Hours() / 24 / float64(len(times)-1)
	}
	b.Signals[SigAvgDaysBetween] = domain.Number(avgGap)

	// Burst episodes: calendar-hour buckets holding more than 5 trades.
	hourBuckets := map[string]int{}
	for _, t := range times {
		hourBuckets[t.Format("2006-01-02T15")]++
	}
	bursts := 0
	for _, c := range hourBuckets {
		if c > 5 {
			bursts++
		}
	}
	b.Signals[SigBurstEpisodes] = domain.Integer(int64(bursts))

	// Flags and notes.
	if consistency > 0.8 {
		b.Signals[SigHighlyConsist] = domain.Flag(true)
		b.Notes = append(b.Notes, "HIGHLY_CONSISTENT: trades almost every day, suggests automated/systematic")
	} else if consistency < 0.1 {
		b.Signals[SigSporadic] = domain.Flag(true)
		b.Notes = append(b.Notes, "SPORADIC: very few active days, suggests event-driven or opportunistic")
	}
	if float64(offHours)/n > 0.4 {
		b.Notes = append(b.Notes, "OFF_HOURS_HEAVY: >40% trades outside business hours, bot or non-US timezone")
	}
	if bursts > 10 {
		b.Notes = append(b.Notes, fmt.Sprintf("BURST_TRADER: %d episodes of rapid-fire trading", bursts))
	}
	if float64(weekend)/n > 0.35 {
		b.Notes = append(b.Notes, "WEEKEND_ACTIVE: significant weekend trading")
	} else if float64(weekend)/n < 0.05 && len(times) > 50 {
		b.Notes = append(b.Notes, "WEEKDAY_ONLY: almost no weekend trades, may follow business/sports schedule")
	}
	if avgGap < 0.1 && len(times) > 100 {
		b.Signals[SigHighFrequency] = domain.Flag(true)
		b.Notes = append(b.Notes, "HIGH_FREQUENCY: trades multiple times per day on average")
	}

	return b
}

// markInsufficient sets the sentinel for each named signal.
func markInsufficient(b *domain.SkillSignalBundle, keys ...string) {
	for _, k := range keys {
		b.Signals[k] = domain.InsufficientData()
	}
}
