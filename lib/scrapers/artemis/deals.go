package artemis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// the deal directory is rendered client-side by a search-filter plugin:
// posting the form back returns JSON whose "results" field holds the
// table HTML.
type dealResponse struct {
	Results string `json:"results"`
}

// FetchDealTable retrieves the cat-bond deal directory. one attempt, no
// retries: the caller decides whether a failure aborts the run.
func (c *Client) FetchDealTable(ctx context.Context) ([]htmlutil.RawRow, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"sfid":      c.sfid,
			"sf_action": "get_data",
			"sf_data":   "results",
		}).
		SetFormData(map[string]string{"sf_data": "results"}).
		Post("/")
	if err != nil {
		return nil, fmt.Errorf("fetch deal table: %w", err)
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("fetch deal table: unexpected status %d", res.StatusCode())
	}

	var body dealResponse
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return nil, fmt.Errorf("fetch deal table: decode response: %w", err)
	}
	if body.Results == "" {
		return nil, fmt.Errorf("fetch deal table: response has no results field")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body.Results))
	if err != nil {
		return nil, fmt.Errorf("fetch deal table: parse results html: %w", err)
	}
	table := doc.Find("table#table-deal").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("fetch deal table: no table#table-deal in results")
	}

	return htmlutil.ExtractTable(table), nil
}
