package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// frenchMonths maps time.Month to the French month name used in period
// labels and in the rendered receipt.
var frenchMonths = [12]string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

// FrenchMonth returns the capitalized French name of m.
func FrenchMonth(m time.Month) string {
	return frenchMonths[m-1]
}

// Period identifies the billing cycle a receipt covers.
type Period struct {
	Month time.Month
	Year  int
}

// ParsePeriod parses a human period label. Both "Janvier 2026" and
// "08 Janvier 2026" are accepted: the last two tokens are taken as
// month and year. Month matching ignores case.
func ParsePeriod(label string) (Period, error) {
	fields := strings.Fields(label)
	if len(fields) < 2 {
		return Period{}, fmt.Errorf("period %q: want \"Mois Année\"", label)
	}

	monthName := fields[len(fields)-2]
	yearStr := fields[len(fields)-1]

	var month time.Month
	for i, name := range frenchMonths {
		if strings.EqualFold(name, monthName) {
			month = time.Month(i + 1)
			break
		}
	}
	if month == 0 {
		return Period{}, fmt.Errorf("period %q: unknown month %q", label, monthName)
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1 || year > 9999 {
		return Period{}, fmt.Errorf("period %q: invalid year %q", label, yearStr)
	}

	return Period{Month: month, Year: year}, nil
}

// Bounds returns the first and last calendar day of the period.
// time.Date normalizes day 0 of the next month to the last day of this
// one, which handles leap years including century rules.
func (p Period) Bounds() (first, last time.Time) {
	first = time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	last = time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC)
	return first, last
}

// RangeLabel renders the period as "du 01/MM/YYYY au DD/MM/YYYY".
func (p Period) RangeLabel() string {
	first, last := p.Bounds()
	return fmt.Sprintf("du %s au %s", first.Format("02/01/2006"), last.Format("02/01/2006"))
}

// LongLabel renders the period as "du 1er au DD mois yyyy" for the
// attestation paragraph.
func (p Period) LongLabel() string {
	_, last := p.Bounds()
	return fmt.Sprintf("du 1er au %d %s %d", last.Day(), strings.ToLower(FrenchMonth(p.Month)), p.Year)
}

// CurrentLabel is the canonical label the scheduled path stamps on the
// receipt it issues for t, e.g. "08 Janvier 2026".
func CurrentLabel(t time.Time) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), FrenchMonth(t.Month()), t.Year())
}

// MonthLabel is the month-granularity label, e.g. "Janvier 2026".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", FrenchMonth(t.Month()), t.Year())
}
