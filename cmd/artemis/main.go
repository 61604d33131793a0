package main

import (
	"github.com/NikolaiVogl/artemis.bm-scraper-public/cmd/artemis/commands"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/serviceutil"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)

	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "artemis")
	commands.ExecuteContext(ctx)
}
