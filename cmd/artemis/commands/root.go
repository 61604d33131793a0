package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/scrapers/artemis"
	"github.com/spf13/cobra"
)

type Config struct {
	Artemis artemis.Config `json:"artemis"`
	Db      string         `json:"db"`
	Port    int            `json:"port"`
}

var rootCmd = &cobra.Command{
	Use:   "artemis",
	Short: "artemis scrapes cat-bond market data and serves the processed snapshot.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
