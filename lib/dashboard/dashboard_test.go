package dashboard

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/deals"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/losses"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/snapstore"
	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestLoadAndServe(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:dashboard")
	defer cleanup()

	store, err := snapstore.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	savedDeals := deals.Result{
		YearlyIssued: []deals.YearIssued{{Year: 2020, TotalVolume: 1200, DealCount: 1}},
		Summary:      deals.Summary{DealCount: 1, TotalVolume: 1200, MeanVolume: 1200, MinIssueYear: 2020, MaxIssueYear: 2020},
	}
	savedLosses := losses.Result{
		YearlyEvents: []losses.YearEvents{{Year: 2022, EventCount: 1, BondsAtRisk: 1, TotalSize: 50}},
		Summary:      losses.Summary{EventCount: 1, DistinctBonds: 1, TotalSize: 50, MeanSize: 50, MinEventYear: 2022, MaxEventYear: 2022},
	}
	require.NoError(t, store.Save(ctx, snapstore.KeyDeals, savedDeals))
	require.NoError(t, store.Save(ctx, snapstore.KeyLosses, savedLosses))
	require.NoError(t, store.Save(ctx, snapstore.KeyMetadata, snapstore.Metadata{
		ScrapedAt: time.Now(),
		DealRows:  1,
		LossRows:  1,
	}))

	snap, err := Load(ctx, store)
	require.NoError(t, err)
	require.Equal(t, StatusOk, snap.Status)
	require.Equal(t, StatusOk, snap.DealsStatus)
	require.Equal(t, StatusOk, snap.LossesStatus)
	require.Equal(t, savedDeals, snap.Deals)
	require.Equal(t, savedLosses, snap.Losses)

	handler := Handler(snap)

	{
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/deals", nil))
		require.Equal(t, 200, rec.Code)

		var got deals.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, savedDeals, got)
	}
	{
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/meta", nil))
		require.Equal(t, 200, rec.Code)

		var got metaResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, StatusOk, got.Status)
		require.Equal(t, 1, got.Meta.DealRows)
		require.Equal(t, "USD 1.2B", got.TotalIssued)
		require.Equal(t, "USD 50M", got.TotalLosses)
	}
}

// a snapshot with one source missing must not claim to be fully ok: the
// consumer gets per-source statuses, and the overall status degrades.
func TestLoadPartialSnapshot(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:dashboard")
	defer cleanup()

	store, err := snapstore.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	savedDeals := deals.Result{
		YearlyIssued: []deals.YearIssued{{Year: 2021, TotalVolume: 500, DealCount: 2}},
		Summary:      deals.Summary{DealCount: 2, TotalVolume: 500, MeanVolume: 250, MinIssueYear: 2021, MaxIssueYear: 2021},
	}
	require.NoError(t, store.Save(ctx, snapstore.KeyDeals, savedDeals))
	require.NoError(t, store.Save(ctx, snapstore.KeyMetadata, snapstore.Metadata{
		ScrapedAt: time.Now(),
		DealRows:  2,
	}))

	snap, err := Load(ctx, store)
	require.NoError(t, err)
	require.Equal(t, StatusNoData, snap.Status)
	require.Equal(t, StatusOk, snap.DealsStatus)
	require.Equal(t, StatusNoData, snap.LossesStatus)
	require.Equal(t, savedDeals, snap.Deals)
	require.Empty(t, snap.Losses.YearlyEvents)

	// the present source still serves its real data
	handler := Handler(snap)
	{
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/deals", nil))
		require.Equal(t, 200, rec.Code)

		var got deals.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, savedDeals, got)
	}
	{
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/meta", nil))
		require.Equal(t, 200, rec.Code)

		var got metaResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, StatusNoData, got.Status)
		require.Equal(t, StatusOk, got.DealsStatus)
		require.Equal(t, StatusNoData, got.LossesStatus)
		require.Equal(t, "USD 500M", got.TotalIssued)
		require.Equal(t, "USD 0M", got.TotalLosses)
	}
}

func TestLoadEmptyStore(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:dashboard")
	defer cleanup()

	store, err := snapstore.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	snap, err := Load(ctx, store)
	require.NoError(t, err)
	require.Equal(t, StatusNoData, snap.Status)
	require.Equal(t, StatusNoData, snap.DealsStatus)
	require.Equal(t, StatusNoData, snap.LossesStatus)
	require.Empty(t, snap.Deals.YearlyIssued)
	require.Empty(t, snap.Losses.YearlyEvents)

	// empty aggregates still serve without error
	handler := Handler(snap)
	for _, path := range []string{"/api/deals", "/api/losses", "/api/meta"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		require.Equal(t, 200, rec.Code, path)
	}
}
