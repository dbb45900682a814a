// Package render turns transactions into display strings for the dashboard,
// the CLI and the spreadsheet export.
package render

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"txdash/internal/core"
)

const currencyPrefix = "Rp"

var (
	monthsID = [12]string{
		"Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember",
	}
	monthsEN = [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
)

// Locale formats amounts, dates and labels for one language.
type Locale struct {
	Code       string
	tag        language.Tag
	printer    *message.Printer
	months     [12]string
	decimalSep string
	groupSep   string
	location   *time.Location
	labels     labels
}

// ParseLocale accepts "id" or "en". An empty code means "id".
func ParseLocale(code string, loc *time.Location) (*Locale, error) {
	if loc == nil {
		loc = time.Local
	}
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "", "id":
		return &Locale{
			Code:       "id",
			tag:        language.Indonesian,
			printer:    message.NewPrinter(language.Indonesian),
			months:     monthsID,
			decimalSep: ",",
			groupSep:   ".",
			location:   loc,
			labels:     labelsID,
		}, nil
	case "en":
		return &Locale{
			Code:       "en",
			tag:        language.English,
			printer:    message.NewPrinter(language.English),
			months:     monthsEN,
			decimalSep: ".",
			groupSep:   ",",
			location:   loc,
			labels:     labelsEN,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported locale %q", code)
	}
}

// MustLocale is ParseLocale for known codes.
func MustLocale(code string, loc *time.Location) *Locale {
	l, err := ParseLocale(code, loc)
	if err != nil {
		panic(err)
	}
	return l
}

func (l *Locale) Location() *time.Location { return l.location }

func (l *Locale) Tag() language.Tag { return l.tag }

func (l *Locale) MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return m.String()
	}
	return l.months[m-1]
}

// Amount renders "Rp 150.000" (id) or "Rp 150,000" (en). A non-zero
// fraction is kept as stored. Integer parts beyond int64 are grouped by
// hand so no digit is lost.
func (l *Locale) Amount(a core.Amount) string {
	_, frac, _ := strings.Cut(a.Text(), ".")
	var out string
	if whole := a.Truncate(0).BigInt(); whole.IsInt64() {
		out = l.printer.Sprintf("%d", whole.Int64())
	} else {
		out = groupDigits(whole.String(), l.groupSep)
	}
	if frac != "" {
		out += l.decimalSep + frac
	}
	return currencyPrefix + " " + out
}

// groupDigits inserts sep every three digits from the right.
func groupDigits(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Date renders the calendar date only.
func (l *Locale) Date(t time.Time) string {
	t = t.In(l.location)
	if l.Code == "en" {
		return fmt.Sprintf("%s %d, %d", l.MonthName(t.Month()), t.Day(), t.Year())
	}
	return fmt.Sprintf("%d %s %d", t.Day(), l.MonthName(t.Month()), t.Year())
}

// DateTime renders "1 Mei 2024 pukul 14.30" (id) or "May 1, 2024 at 2:30 PM" (en).
func (l *Locale) DateTime(t time.Time) string {
	t = t.In(l.location)
	if l.Code == "en" {
		return l.Date(t) + " at " + t.Format("3:04 PM")
	}
	return fmt.Sprintf("%s pukul %02d.%02d", l.Date(t), t.Hour(), t.Minute())
}

// StatusTone picks the badge colour: code 0 is settled, anything else is
// outstanding.
func StatusTone(code int) string {
	if code == 0 {
		return "positive"
	}
	return "negative"
}
