package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/configutil"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/deals"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/htmlutil"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/losses"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/scrapers/artemis"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/serviceutil"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/snapstore"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/textparse"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

type fetcher interface {
	FetchDealTable(ctx context.Context) ([]htmlutil.RawRow, error)
	FetchLossTable(ctx context.Context) ([]htmlutil.RawRow, error)
}

// runScrape fetches both tables sequentially, aggregates and persists
// them. a source that fails or comes back empty is skipped rather than
// persisted: an empty snapshot must never silently replace good data.
// the error is non-nil only when both sources are skipped.
func runScrape(ctx context.Context, client fetcher, store snapstore.Store, now time.Time) (deals.Result, losses.Result, error) {
	var dealResult deals.Result
	var lossResult losses.Result
	meta := snapstore.Metadata{ScrapedAt: now}

	dealRows, err := client.FetchDealTable(ctx)
	if err == nil && len(dealRows) == 0 {
		err = errors.New("deal table came back empty")
	}
	dealsOk := err == nil
	if dealsOk {
		dealResult = deals.Aggregate(dealRows, now)
		meta.DealRows = len(dealRows)
		if err := store.Save(ctx, snapstore.KeyDeals, dealResult); err != nil {
			return dealResult, lossResult, err
		}
	} else {
		slog.WarnContext(ctx, "skipping deal snapshot", "err", err)
	}

	lossRows, err := client.FetchLossTable(ctx)
	if err == nil && len(lossRows) == 0 {
		err = errors.New("loss table came back empty")
	}
	lossesOk := err == nil
	if lossesOk {
		lossResult = losses.Aggregate(lossRows, now)
		meta.LossRows = len(lossRows)
		if err := store.Save(ctx, snapstore.KeyLosses, lossResult); err != nil {
			return dealResult, lossResult, err
		}
	} else {
		slog.WarnContext(ctx, "skipping loss snapshot", "err", err)
	}

	if !dealsOk && !lossesOk {
		return dealResult, lossResult, errors.New("both sources failed, snapshot left untouched")
	}

	if err := store.Save(ctx, snapstore.KeyMetadata, meta); err != nil {
		return dealResult, lossResult, err
	}
	return dealResult, lossResult, nil
}

func printSummary(dealResult deals.Result, lossResult losses.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"dataset", "records", "total", "years"})
	t.AppendRow(table.Row{
		"deals",
		dealResult.Summary.DealCount,
		textparse.FormatCurrencyMillions(dealResult.Summary.TotalVolume, dealResult.Summary.DealCount > 0),
		fmt.Sprintf("%d-%d", dealResult.Summary.MinIssueYear, dealResult.Summary.MaxIssueYear),
	})
	t.AppendRow(table.Row{
		"losses",
		lossResult.Summary.EventCount,
		textparse.FormatCurrencyMillions(lossResult.Summary.TotalSize, lossResult.Summary.EventCount > 0),
		fmt.Sprintf("%d-%d", lossResult.Summary.MinEventYear, lossResult.Summary.MaxEventYear),
	})
	t.Render()
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetches the deal and loss tables once and persists the processed snapshot.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("read config", err)
		}

		store, err := snapstore.Open(cfg.Db)
		if err != nil {
			serviceutil.Fatal("open snapshot db", err)
		}
		defer store.Close()

		client := artemis.NewClient(cfg.Artemis)

		t1 := time.Now()
		dealResult, lossResult, err := runScrape(cmd.Context(), client, store, timezone.Now())
		if err != nil {
			serviceutil.Fatal("scrape", err)
		}
		slog.Info("scrape finished", "seconds", time.Since(t1).Seconds())

		printSummary(dealResult, lossResult)
	},
}
