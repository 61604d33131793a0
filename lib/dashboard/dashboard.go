// Package dashboard is the read side of the pipeline: it loads the
// persisted snapshot once at startup into an immutable struct and serves
// it over a small JSON API. nothing here ever mutates the snapshot or
// reaches back into fetching.
package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/deals"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/losses"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/snapstore"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/textparse"
)

const (
	StatusOk     = "ok"
	StatusNoData = "no data"
)

// Snapshot is the immutable startup view of the persisted data. absent
// blobs load as zero-valued aggregates, never nil. Status is "ok" only
// when both sources loaded; the per-source statuses let a consumer tell
// a partial snapshot apart from a truly empty one.
type Snapshot struct {
	Deals        deals.Result
	Losses       losses.Result
	Meta         snapstore.Metadata
	Status       string
	DealsStatus  string
	LossesStatus string
}

// Load reads the three snapshot blobs. missing blobs are tolerated: the
// dashboard renders a "no data" state instead of failing to start.
func Load(ctx context.Context, store snapstore.Store) (Snapshot, error) {
	var snap Snapshot

	foundDeals, err := store.Load(ctx, snapstore.KeyDeals, &snap.Deals)
	if err != nil {
		return Snapshot{}, err
	}
	foundLosses, err := store.Load(ctx, snapstore.KeyLosses, &snap.Losses)
	if err != nil {
		return Snapshot{}, err
	}
	if _, err := store.Load(ctx, snapstore.KeyMetadata, &snap.Meta); err != nil {
		return Snapshot{}, err
	}

	if !foundDeals {
		slog.WarnContext(ctx, "no deal snapshot found, serving empty aggregates")
	}
	if !foundLosses {
		slog.WarnContext(ctx, "no loss snapshot found, serving empty aggregates")
	}

	snap.DealsStatus = statusFor(foundDeals)
	snap.LossesStatus = statusFor(foundLosses)
	snap.Status = statusFor(foundDeals && foundLosses)
	return snap, nil
}

func statusFor(found bool) string {
	if found {
		return StatusOk
	}
	return StatusNoData
}

type metaResponse struct {
	Status       string             `json:"status"`
	DealsStatus  string             `json:"deals_status"`
	LossesStatus string             `json:"losses_status"`
	Meta         snapstore.Metadata `json:"scrape_metadata"`
	TotalIssued  string             `json:"total_issued"`
	TotalLosses  string             `json:"total_losses"`
}

// Handler serves the snapshot. the snapshot is written before any reader
// exists and never mutated, so the handlers need no locking.
func Handler(snap Snapshot) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/deals", func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, r, snap.Deals)
	})
	mux.HandleFunc("GET /api/losses", func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, r, snap.Losses)
	})
	mux.HandleFunc("GET /api/meta", func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, r, metaResponse{
			Status:       snap.Status,
			DealsStatus:  snap.DealsStatus,
			LossesStatus: snap.LossesStatus,
			Meta:         snap.Meta,
			TotalIssued:  textparse.FormatCurrencyMillions(snap.Deals.Summary.TotalVolume, snap.Deals.Summary.DealCount > 0),
			TotalLosses:  textparse.FormatCurrencyMillions(snap.Losses.Summary.TotalSize, snap.Losses.Summary.EventCount > 0),
		})
	})
	return mux
}

func writeJson(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "encode response", "err", err)
	}
}
