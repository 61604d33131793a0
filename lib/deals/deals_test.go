package deals

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/htmlutil"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestAggregateScraped(t *testing.T) {
	rows := []htmlutil.RawRow{
		{"date": "Oct 2025", "size": "$300m", "issuer": "A", "cedent": "ceda", "risks_perils_covered": "US wind"},
		{"date": "Jan 2020", "size": "$1.2b", "issuer": "B", "cedent": "cedb", "risks_perils_covered": "Japan quake"},
	}

	res := Aggregate(rows, now)
	require.Len(t, res.Deals, 2)

	wantIssued := []YearIssued{
		{Year: 2020, TotalVolume: 1200, DealCount: 1},
		{Year: 2025, TotalVolume: 300, DealCount: 1},
	}
	if diff := cmp.Diff(wantIssued, res.YearlyIssued); diff != "" {
		t.Fatalf("yearly issued mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, 2, res.Summary.DealCount)
	require.InDelta(t, 1500, res.Summary.TotalVolume, 1e-9)
	require.InDelta(t, 750, res.Summary.MeanVolume, 1e-9)
	require.Equal(t, 2020, res.Summary.MinIssueYear)
	require.Equal(t, 2025, res.Summary.MaxIssueYear)

	// 2020 deal matures 2023, so by the current year only the 2025 deal
	// remains in force
	require.Len(t, res.YearlyInForce, 6)
	require.Equal(t, YearInForce{Year: 2020, TotalVolume: 1200, DealCount: 1}, res.YearlyInForce[0])
	require.Equal(t, YearInForce{Year: 2023, TotalVolume: 0, DealCount: 0}, res.YearlyInForce[3])
	require.Equal(t, YearInForce{Year: 2025, TotalVolume: 300, DealCount: 1}, res.YearlyInForce[5])
}

func TestAggregateDropsBadRows(t *testing.T) {
	rows := []htmlutil.RawRow{
		{"date": "Oct 2025", "size": "$300m", "issuer": "good"},
		{"date": "sometime", "size": "$300m", "issuer": "bad date"},
		{"date": "Oct 2025", "size": "unknown", "issuer": "bad size"},
		{"date": "Oct 2025", "size": "", "issuer": "empty size"},
	}

	res := Aggregate(rows, now)
	require.Len(t, res.Deals, 1)
	require.Equal(t, "good", res.Deals[0].Issuer)
	require.Equal(t, 1, res.Summary.DealCount)
}

func TestAggregateTypedShape(t *testing.T) {
	rows := []htmlutil.RawRow{
		{"issue_date": "2021-04-01", "volume_usd": "250000000", "maturity_date": "2025-04-01", "issuer": "T1"},
		{"issue_date": "2022-06-15", "volume_usd": "100000000", "issuer": "T2"},
		{"issue_date": "not a date", "volume_usd": "100000000", "issuer": "dropped"},
		{"issue_date": "2022-06-15", "volume_usd": "0", "issuer": "zero volume"},
	}

	res := Aggregate(rows, now)
	require.Len(t, res.Deals, 2)

	require.Equal(t, 2021, res.Deals[0].IssueYear)
	require.Equal(t, 2025, res.Deals[0].MaturityYear)
	require.InDelta(t, 250, res.Deals[0].VolumeMillions, 1e-9)

	// missing maturity defaults to issue + 3 years
	require.Equal(t, 2025, res.Deals[1].MaturityYear)
}

func TestAggregateEmpty(t *testing.T) {
	res := Aggregate(nil, now)
	require.Empty(t, res.Deals)
	require.Empty(t, res.YearlyIssued)
	require.Empty(t, res.YearlyInForce)
	require.Equal(t, Summary{}, res.Summary)

	res = Aggregate([]htmlutil.RawRow{{"unrelated": "columns"}}, now)
	require.Empty(t, res.Deals)
}

func TestSurvivorInvariants(t *testing.T) {
	res := Aggregate(randomRows(t, 200), now)
	require.NotEmpty(t, res.Deals)
	for _, d := range res.Deals {
		require.LessOrEqual(t, d.IssueYear, d.MaturityYear)
		require.Greater(t, d.VolumeMillions, 0.0)
	}
}

// the in-force series must match a direct rescan of the surviving deals
// for every year in range, and the range must start at the minimum issue
// year.
func TestInForceMatchesRescan(t *testing.T) {
	res := Aggregate(randomRows(t, 300), now)
	require.NotEmpty(t, res.YearlyInForce)
	require.Equal(t, res.Summary.MinIssueYear, res.YearlyInForce[0].Year)
	require.Equal(t, now.Year(), res.YearlyInForce[len(res.YearlyInForce)-1].Year)

	for _, bucket := range res.YearlyInForce {
		count := 0
		volume := 0.0
		for _, d := range res.Deals {
			if d.IssueYear <= bucket.Year && bucket.Year < d.MaturityYear {
				count++
				volume += d.VolumeMillions
			}
		}
		require.Equal(t, count, bucket.DealCount, "year %d", bucket.Year)
		require.InDelta(t, volume, bucket.TotalVolume, 1e-6, "year %d", bucket.Year)
	}
}

func randomRows(t *testing.T, n int) []htmlutil.RawRow {
	rndm := rand.New(rand.NewSource(42))
	months := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	sizeKind := testutil.RandomSwitch(6, 2, 1, 1)

	rows := make([]htmlutil.RawRow, n)
	for i := range rows {
		var size string
		switch sizeKind(rndm) {
		case 0:
			size = fmt.Sprintf("$%dm", 50+rndm.Intn(950))
		case 1:
			size = fmt.Sprintf("$%.1fb", 1+rndm.Float64()*2)
		case 2:
			size = "unknown" // dropped
		case 3:
			size = fmt.Sprintf("%d", 100+rndm.Intn(400))
		}
		rows[i] = htmlutil.RawRow{
			"issuer": testutil.RandomString(rndm, 8),
			"cedent": testutil.RandomString(rndm, 8),
			"date":   fmt.Sprintf("%s %d", months[rndm.Intn(12)], 2010+rndm.Intn(15)),
			"size":   size,
		}
	}
	return rows
}
