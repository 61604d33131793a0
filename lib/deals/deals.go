// Package deals normalizes scraped cat-bond deal rows into typed records
// and rolls them up into yearly issuance and in-force series.
package deals

import (
	"sort"
	"strconv"
	"time"

	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/htmlutil"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/textparse"
)

// Deal is a fully normalized deal record. only rows with a parseable issue
// date and a positive volume make it this far.
type Deal struct {
	Issuer             string    `json:"issuer"`
	Cedent             string    `json:"cedent"`
	RisksPerilsCovered string    `json:"risks_perils_covered"`
	IssueDate          time.Time `json:"issue_date"`
	MaturityDate       time.Time `json:"maturity_date"`
	VolumeUSD          float64   `json:"volume_usd"`

	IssueYear      int     `json:"issue_year"`
	MaturityYear   int     `json:"maturity_year"`
	VolumeMillions float64 `json:"volume_millions"`
}

type YearIssued struct {
	Year        int     `json:"year"`
	TotalVolume float64 `json:"total_volume"`
	DealCount   int     `json:"deal_count"`
}

type YearInForce struct {
	Year        int     `json:"year"`
	TotalVolume float64 `json:"total_volume"`
	DealCount   int     `json:"deal_count"`
}

type Summary struct {
	DealCount    int     `json:"deal_count"`
	TotalVolume  float64 `json:"total_volume"`
	MeanVolume   float64 `json:"mean_volume"`
	MinIssueYear int     `json:"min_issue_year"`
	MaxIssueYear int     `json:"max_issue_year"`
}

type Result struct {
	YearlyIssued  []YearIssued  `json:"yearly_issued"`
	YearlyInForce []YearInForce `json:"yearly_inforce"`
	Summary       Summary       `json:"summary_stats"`
	Deals         []Deal        `json:"raw_data"`
}

// deals may arrive either freshly scraped (free-text date and size) or
// pre-typed from a non-scraped source. the shape is resolved once by
// probing columns, not per field.
type inputShape int

const (
	shapeUnknown inputShape = iota
	shapeRawScraped
	shapeTyped
)

func detectShape(rows []htmlutil.RawRow) inputShape {
	if len(rows) == 0 {
		return shapeUnknown
	}
	first := rows[0]
	if _, ok := first["issue_date"]; ok {
		if _, ok := first["volume_usd"]; ok {
			return shapeTyped
		}
	}
	if _, ok := first["date"]; ok {
		if _, ok := first["size"]; ok {
			return shapeRawScraped
		}
	}
	return shapeUnknown
}

// defaultTenor is assumed when the source carries no maturity information.
const defaultTenorYears = 3

func typedDate(text string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		t, err := time.Parse(layout, text)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalize(rows []htmlutil.RawRow) []Deal {
	shape := detectShape(rows)
	if shape == shapeUnknown {
		return nil
	}

	var out []Deal
	for _, row := range rows {
		var d Deal
		var ok bool

		switch shape {
		case shapeTyped:
			d.IssueDate, ok = typedDate(row["issue_date"])
			if !ok {
				continue
			}
			d.VolumeUSD, _ = strconv.ParseFloat(row["volume_usd"], 64)
			if mat, matOk := typedDate(row["maturity_date"]); matOk && !mat.Before(d.IssueDate) {
				d.MaturityDate = mat
			} else {
				d.MaturityDate = d.IssueDate.AddDate(defaultTenorYears, 0, 0)
			}
		case shapeRawScraped:
			d.IssueDate, ok = textparse.MonthYear(row["date"])
			if !ok {
				continue
			}
			millions, sizeOk := textparse.MoneyMillions(row["size"])
			if !sizeOk {
				continue
			}
			d.VolumeUSD = millions * 1e6
			d.MaturityDate = d.IssueDate.AddDate(defaultTenorYears, 0, 0)
		}

		if d.VolumeUSD <= 0 {
			continue
		}

		d.Issuer = row["issuer"]
		d.Cedent = row["cedent"]
		d.RisksPerilsCovered = row["risks_perils_covered"]
		d.IssueYear = d.IssueDate.Year()
		d.MaturityYear = d.MaturityDate.Year()
		d.VolumeMillions = d.VolumeUSD / 1e6
		out = append(out, d)
	}
	return out
}

// Aggregate normalizes raw table rows and computes the yearly series. an
// empty or unrecognized input yields a zero-valued Result, never an error.
func Aggregate(rows []htmlutil.RawRow, now time.Time) Result {
	surviving := normalize(rows)
	if len(surviving) == 0 {
		return Result{}
	}

	issued := map[int]*YearIssued{}
	for _, d := range surviving {
		b := issued[d.IssueYear]
		if b == nil {
			b = &YearIssued{Year: d.IssueYear}
			issued[d.IssueYear] = b
		}
		b.TotalVolume += d.VolumeMillions
		b.DealCount++
	}

	var yearlyIssued []YearIssued
	minYear, maxYear := surviving[0].IssueYear, surviving[0].IssueYear
	for year, b := range issued {
		yearlyIssued = append(yearlyIssued, *b)
		if year < minYear {
			minYear = year
		}
		if year > maxYear {
			maxYear = year
		}
	}
	sort.Slice(yearlyIssued, func(i, j int) bool {
		return yearlyIssued[i].Year < yearlyIssued[j].Year
	})

	// a deal is in force in year y if it has been issued by y and has not
	// yet matured: issueYear <= y < maturityYear. the range runs through
	// the current calendar year even for years with no issuance.
	var yearlyInForce []YearInForce
	for year := minYear; year <= now.Year(); year++ {
		bucket := YearInForce{Year: year}
		for _, d := range surviving {
			if d.IssueYear <= year && year < d.MaturityYear {
				bucket.TotalVolume += d.VolumeMillions
				bucket.DealCount++
			}
		}
		yearlyInForce = append(yearlyInForce, bucket)
	}

	var total float64
	for _, d := range surviving {
		total += d.VolumeMillions
	}

	return Result{
		YearlyIssued:  yearlyIssued,
		YearlyInForce: yearlyInForce,
		Summary: Summary{
			DealCount:    len(surviving),
			TotalVolume:  total,
			MeanVolume:   total / float64(len(surviving)),
			MinIssueYear: minYear,
			MaxIssueYear: maxYear,
		},
		Deals: surviving,
	}
}
