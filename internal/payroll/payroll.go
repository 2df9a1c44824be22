// Package payroll derives pay figures from a user's profile and time
// records. Everything here is pure arithmetic over minor currency units;
// input validation happens at write time, presentation at render time.
package payroll

import (
	"math"

	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
)

// Breakdown is the derived figures for a single day. Money fields are
// minor units of the user's currency.
type Breakdown struct {
	Date           string
	Minutes        int
	Hours          float64
	Gross          int64
	SocialSecurity int64
	IncomeTax      int64
	Advance        int64
	Net            int64
}

// Summary is the sum of independent per-record breakdowns over a range.
// Each record rounds on its own; no rounding carries between records.
type Summary struct {
	Days           int
	AbsentDays     int
	Minutes        int
	Hours          float64
	Gross          int64
	SocialSecurity int64
	IncomeTax      int64
	Advances       int64
	Net            int64
}

// MinutesWorked returns the worked minutes for one record: elapsed time
// between start and end minus the lunch break, floored at zero. Absent
// days are zero regardless of the clock fields. End at or before start
// yields zero; there is no day-rollover rule for overnight shifts.
func MinutesWorked(rec domain.TimeRecord) int {
	if rec.IsAbsent {
		return 0
	}
	start, ok := parseClock(rec.StartTime)
	if !ok {
		return 0
	}
	end, ok := parseClock(rec.EndTime)
	if !ok {
		return 0
	}
	worked := end - start - rec.LunchDuration
	if worked < 0 {
		return 0
	}
	return worked
}

// Hours is MinutesWorked expressed as a real number of hours.
func Hours(rec domain.TimeRecord) float64 {
	return float64(MinutesWorked(rec)) / 60
}

// Gross returns the day's pay before deductions: minutes x rate / 60,
// rounded half-up to a minor unit.
func Gross(hourlyRate int64, rec domain.TimeRecord) int64 {
	minutes := int64(MinutesWorked(rec))
	if minutes == 0 || hourlyRate <= 0 {
		return 0
	}
	return (minutes*hourlyRate + 30) / 60
}

// DeductionAmount applies a rule to a gross figure. Percentage rules take
// value% of gross; fixed rules take the flat value. The result never
// exceeds gross and never goes below zero.
func DeductionAmount(rule *domain.DeductionRule, gross int64) int64 {
	if rule == nil || gross <= 0 {
		return 0
	}
	var amount int64
	switch rule.Type {
	case domain.DeductionPercentage:
		amount = int64(math.Round(float64(gross) * rule.Value / 100))
	case domain.DeductionFixed:
		amount = int64(math.Round(rule.Value))
	default:
		return 0
	}
	return clamp(amount, 0, gross)
}

// Compute derives the full breakdown for one record. The record's manual
// social-security entry, when present, replaces the profile rule for that
// day. Net pay is floored at zero.
func Compute(user domain.User, rec domain.TimeRecord) Breakdown {
	gross := Gross(user.HourlyRate, rec)

	var ss int64
	if rec.ManualSocialSecurity != nil {
		ss = clamp(*rec.ManualSocialSecurity, 0, gross)
	} else {
		ss = DeductionAmount(user.SocialSecurity, gross)
	}
	tax := DeductionAmount(user.IncomeTax, gross)

	net := gross - ss - tax - rec.Advance
	if net < 0 {
		net = 0
	}
	return Breakdown{
		Date:           rec.Date,
		Minutes:        MinutesWorked(rec),
		Hours:          Hours(rec),
		Gross:          gross,
		SocialSecurity: ss,
		IncomeTax:      tax,
		Advance:        rec.Advance,
		Net:            net,
	}
}

// Summarize sums per-record breakdowns. Records do not interact.
func Summarize(user domain.User, recs []domain.TimeRecord) Summary {
	var s Summary
	for _, rec := range recs {
		b := Compute(user, rec)
		s.Days++
		if rec.IsAbsent {
			s.AbsentDays++
		}
		s.Minutes += b.Minutes
		s.Gross += b.Gross
		s.SocialSecurity += b.SocialSecurity
		s.IncomeTax += b.IncomeTax
		s.Advances += b.Advance
		s.Net += b.Net
	}
	s.Hours = float64(s.Minutes) / 60
	return s
}

// parseClock reads HH:mm into minutes since midnight.
func parseClock(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	h, ok := parseTwoDigits(s[:2])
	if !ok || h > 23 {
		return 0, false
	}
	m, ok := parseTwoDigits(s[3:])
	if !ok || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func parseTwoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
