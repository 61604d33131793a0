// textparse turns the free-text fields found in artemis.bm tables into
// typed values. every function here is total: malformed input maps to a
// missing result, never an error.
package textparse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	millionsRegex = regexp.MustCompile(`(?i)(?:\$|usd\s?)([0-9.]+)\s*m`)
	billionsRegex = regexp.MustCompile(`(?i)(?:\$|usd\s?)([0-9.]+)\s*b`)
	nonNumeric    = regexp.MustCompile(`[^0-9.]`)
	yearRegex     = regexp.MustCompile(`20\d\d`)
	yearPairRegex = regexp.MustCompile(`(20\d\d)\s*/\s*(20\d\d)`)
)

// MoneyMillions parses size strings like "$300m", "$1.2b" or "USD 1.2B"
// into a value denominated in millions of USD. the USD form makes our own
// FormatCurrencyMillions output re-parse into the same bucket. strings
// without a recognized m/b suffix fall back to a bare numeric parse of
// whatever digits remain.
func MoneyMillions(text string) (float64, bool) {
	if m := millionsRegex.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	if m := billionsRegex.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		return v * 1000, true
	}

	stripped := nonNumeric.ReplaceAllString(text, "")
	if stripped == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// MonthYear parses "<Month> <Year>" strings like "Oct 2025" by assuming
// the first day of the month.
func MonthYear(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range []string{"02 Jan 2006", "02 January 2006"} {
		t, err := time.Parse(layout, "01 "+text)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Year extracts the first plausible 4-digit year from text. risk-period
// strings like "2024 / 2025" yield the later year.
func Year(text string) (int, bool) {
	if m := yearPairRegex.FindStringSubmatch(text); m != nil {
		y, err := strconv.Atoi(m[2])
		if err == nil {
			return y, true
		}
	}
	m := yearRegex.FindString(text)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return y, true
}

// EventType is the peril category assigned to a loss event.
type EventType string

const (
	EventHurricane   EventType = "Hurricane"
	EventEarthquake  EventType = "Earthquake"
	EventWildfire    EventType = "Wildfire"
	EventFlood       EventType = "Flood"
	EventStorm       EventType = "Storm"
	EventWinterStorm EventType = "Winter Storm"
	EventOther       EventType = "Other"
)

// ordered by priority. "winter storm" must be probed before "storm" so the
// two-word peril does not get swallowed by the one-word one.
var eventKeywords = []struct {
	keyword string
	typ     EventType
}{
	{"hurricane", EventHurricane},
	{"earthquake", EventEarthquake},
	{"wildfire", EventWildfire},
	{"flood", EventFlood},
	{"winter storm", EventWinterStorm},
	{"storm", EventStorm},
}

// ClassifyEvent maps a cause-of-loss description to a peril category by
// first matching keyword. unknown causes are "Other".
func ClassifyEvent(text string) EventType {
	lowered := strings.ToLower(text)
	for _, k := range eventKeywords {
		if strings.Contains(lowered, k.keyword) {
			return k.typ
		}
	}
	return EventOther
}

var lossKeywords = []string{"principal", "loss", "reduced", "zero", "affected"}

// HasLossKeyword reports whether a loss-amount description indicates that
// the bond actually took a loss. best-effort keyword inference.
func HasLossKeyword(text string) bool {
	lowered := strings.ToLower(text)
	for _, k := range lossKeywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}

// FormatCurrencyMillions renders a value in millions as a display string,
// switching to billions at 1000. missing values render as "USD 0M".
func FormatCurrencyMillions(v float64, ok bool) string {
	if !ok || math.IsNaN(v) {
		return "USD 0M"
	}
	if v >= 1000 {
		return fmt.Sprintf("USD %.1fB", v/1000)
	}
	return fmt.Sprintf("USD %.0fM", v)
}
