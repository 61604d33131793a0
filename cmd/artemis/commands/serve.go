package commands

import (
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/configutil"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/dashboard"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/serviceutil"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/snapstore"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the persisted snapshot over a read-only JSON API.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("read config", err)
		}
		port := cfg.Port
		if port == 0 {
			port = 8000
		}

		store, err := snapstore.Open(cfg.Db)
		if err != nil {
			serviceutil.Fatal("open snapshot db", err)
		}
		defer store.Close()

		snap, err := dashboard.Load(cmd.Context(), store)
		if err != nil {
			serviceutil.Fatal("load snapshot", err)
		}

		go serviceutil.StartHttpServer(port, dashboard.Handler(snap))
		<-cmd.Context().Done()
	},
}
