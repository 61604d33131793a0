package artemis

import (
	"bytes"
	"context"
	"fmt"

	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// FetchLossTable retrieves the cat-bond loss-event table, which is served
// as a plain tablepress table on the losses page.
func (c *Client) FetchLossTable(ctx context.Context) ([]htmlutil.RawRow, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get("/cat-bond-losses/")
	if err != nil {
		return nil, fmt.Errorf("fetch loss table: %w", err)
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("fetch loss table: unexpected status %d", res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("fetch loss table: parse html: %w", err)
	}
	table := doc.Find("table#tablepress-2").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("fetch loss table: no table#tablepress-2 on page")
	}

	return htmlutil.ExtractTable(table), nil
}
