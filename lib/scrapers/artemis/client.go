// Package artemis scrapes the deal directory and loss-event tables from
// artemis.bm. the site sits behind Cloudflare and serves its tables either
// as plain page HTML or embedded inside a search-filter AJAX response.
package artemis

import (
	"time"

	"github.com/NikolaiVogl/artemis.bm-scraper-public/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const defaultBaseUrl = "https://www.artemis.bm"

type Config struct {
	BaseUrl string `json:"base_url"`
	// search-filter form id used by the deal directory AJAX endpoint
	Sfid           string `json:"sfid"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type Client struct {
	http *resty.Client
	sfid string
}

func NewClient(cfg Config) *Client {
	baseUrl := cfg.BaseUrl
	if baseUrl == "" {
		baseUrl = defaultBaseUrl
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Second * 30
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl)
	httpClient.SetTimeout(timeout)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetHeader("referer", baseUrl+"/deal-directory/")

	// 2 requests max per second, burst >= 2 just means no request is
	// ever dropped
	rateLimiter := rate.NewLimiter(2, 2)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, "lib/scrapers/artemis")

	return &Client{
		http: httpClient,
		sfid: cfg.Sfid,
	}
}
