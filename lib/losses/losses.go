// Package losses normalizes scraped cat-bond loss-event rows and rolls
// them up into yearly event and loss-by-peril series.
package losses

import (
	"sort"
	"time"

	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/htmlutil"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/textparse"
)

// Event is a normalized loss event. a missing original size is tolerated
// (SizeKnown false), a missing event year is not.
type Event struct {
	EventName string              `json:"event_name"`
	Sponsor   string              `json:"sponsor"`
	EventYear int                 `json:"event_year"`
	EventType textparse.EventType `json:"event_type"`
	HasLoss   bool                `json:"has_loss"`

	OrigSizeMillions float64 `json:"orig_size_millions"`
	SizeKnown        bool    `json:"size_known"`
}

type YearEvents struct {
	Year        int     `json:"year"`
	EventCount  int     `json:"event_count"`
	BondsAtRisk int     `json:"bonds_at_risk"`
	TotalSize   float64 `json:"total_size"`
}

type YearTypeLosses struct {
	Year       int                 `json:"year"`
	EventType  textparse.EventType `json:"event_type"`
	EventCount int                 `json:"event_count"`
	TotalSize  float64             `json:"total_size"`
}

type Summary struct {
	EventCount    int     `json:"event_count"`
	DistinctBonds int     `json:"distinct_bonds"`
	TotalSize     float64 `json:"total_size"`
	MeanSize      float64 `json:"mean_size"`
	MinEventYear  int     `json:"min_event_year"`
	MaxEventYear  int     `json:"max_event_year"`
}

type Result struct {
	YearlyEvents []YearEvents     `json:"yearly_events"`
	YearlyByType []YearTypeLosses `json:"yearly_by_type"`
	Summary      Summary          `json:"summary_stats"`
	Events       []Event          `json:"raw_data"`
}

// events earlier than this are not credible cat-bond losses, the market
// barely existed before it.
const minEventYear = 2000

func normalize(rows []htmlutil.RawRow, now time.Time) []Event {
	maxYear := now.Year() + 5

	var out []Event
	for _, row := range rows {
		year, ok := textparse.Year(row["date_of_loss"])
		if !ok || year < minEventYear || year > maxYear {
			continue
		}

		e := Event{
			EventName: row["cat_bond"],
			Sponsor:   row["sponsor"],
			EventYear: year,
			EventType: textparse.ClassifyEvent(row["cause_of_loss"]),
			HasLoss:   textparse.HasLossKeyword(row["loss_amount"]),
		}
		e.OrigSizeMillions, e.SizeKnown = textparse.MoneyMillions(row["orig_size"])
		out = append(out, e)
	}
	return out
}

// Aggregate normalizes raw loss-event rows and computes the yearly
// rollups. an empty input yields a zero-valued Result, never an error.
func Aggregate(rows []htmlutil.RawRow, now time.Time) Result {
	surviving := normalize(rows, now)
	if len(surviving) == 0 {
		return Result{}
	}

	type yearAgg struct {
		bucket YearEvents
		names  map[string]struct{}
	}
	years := map[int]*yearAgg{}
	type typeKey struct {
		year int
		typ  textparse.EventType
	}
	byType := map[typeKey]*YearTypeLosses{}

	allNames := map[string]struct{}{}
	var totalSize float64
	var sizeCount int
	minYear, maxYear := surviving[0].EventYear, surviving[0].EventYear

	for _, e := range surviving {
		y := years[e.EventYear]
		if y == nil {
			y = &yearAgg{
				bucket: YearEvents{Year: e.EventYear},
				names:  map[string]struct{}{},
			}
			years[e.EventYear] = y
		}
		y.bucket.EventCount++
		y.names[e.EventName] = struct{}{}
		if e.SizeKnown {
			y.bucket.TotalSize += e.OrigSizeMillions
			totalSize += e.OrigSizeMillions
			sizeCount++
		}

		k := typeKey{e.EventYear, e.EventType}
		tb := byType[k]
		if tb == nil {
			tb = &YearTypeLosses{Year: e.EventYear, EventType: e.EventType}
			byType[k] = tb
		}
		tb.EventCount++
		if e.SizeKnown {
			tb.TotalSize += e.OrigSizeMillions
		}

		allNames[e.EventName] = struct{}{}
		if e.EventYear < minYear {
			minYear = e.EventYear
		}
		if e.EventYear > maxYear {
			maxYear = e.EventYear
		}
	}

	var yearlyEvents []YearEvents
	for _, y := range years {
		y.bucket.BondsAtRisk = len(y.names)
		yearlyEvents = append(yearlyEvents, y.bucket)
	}
	sort.Slice(yearlyEvents, func(i, j int) bool {
		return yearlyEvents[i].Year < yearlyEvents[j].Year
	})

	var yearlyByType []YearTypeLosses
	for _, tb := range byType {
		yearlyByType = append(yearlyByType, *tb)
	}
	sort.Slice(yearlyByType, func(i, j int) bool {
		a, b := yearlyByType[i], yearlyByType[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.EventType < b.EventType
	})

	var meanSize float64
	if sizeCount > 0 {
		meanSize = totalSize / float64(sizeCount)
	}

	return Result{
		YearlyEvents: yearlyEvents,
		YearlyByType: yearlyByType,
		Summary: Summary{
			EventCount:    len(surviving),
			DistinctBonds: len(allNames),
			TotalSize:     totalSize,
			MeanSize:      meanSize,
			MinEventYear:  minYear,
			MaxEventYear:  maxYear,
		},
		Events: surviving,
	}
}
