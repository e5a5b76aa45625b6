package ratesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/warp/charge-rate-engine/generic"
)

// MaxRemoteTimeout bounds every remote call. Anything slower is a failure.
const MaxRemoteTimeout = 15 * time.Second

// =============================================================================
// CLASSIFICATIONS
// =============================================================================

// Classification is one pay rate row published for an award.
type Classification struct {
	Name          string          `json:"classification"`
	YearLevel     int             `json:"apprentice_year"`
	Adult         bool            `json:"adult"`
	Year12        bool            `json:"year12"`
	Sector        string          `json:"sector,omitempty"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
	OperativeFrom string          `json:"operative_from,omitempty"`
}

// SelectClassification picks the most specific classification compatible
// with attrs. Flags on a classification are requirements: an adult rate is
// only for adults, a sector rate only for that sector. Rows without a
// positive rate are ignored.
func SelectClassification(cands []Classification, attrs Attributes) (Classification, bool) {
	sector := normalizeSector(attrs.Sector)
	best, bestScore := Classification{}, -1
	for _, c := range cands {
		if c.YearLevel != attrs.YearLevel || !c.HourlyRate.IsPositive() {
			continue
		}
		if (c.Adult && !attrs.IsAdult) || (c.Year12 && !attrs.HasCompletedYear12) {
			continue
		}
		cs := normalizeSector(c.Sector)
		if cs != "" && cs != sector {
			continue
		}
		score := 0
		if c.Adult {
			score++
		}
		if c.Year12 {
			score++
		}
		if cs != "" {
			score++
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, bestScore >= 0
}

// =============================================================================
// REMOTE SOURCE
// =============================================================================

// RemoteSource is the live, authoritative source of award rates.
type RemoteSource interface {
	// Endpoint names the resource queried for an award; it is half of the
	// cache key.
	Endpoint(awardCode string) string
	FetchRates(ctx context.Context, awardCode string, fy generic.FinancialYear) ([]Classification, error)
}

// CredentialProvider hands out the access key for the remote source.
type CredentialProvider interface {
	Credential(ctx context.Context) (string, error)
}

// StaticCredential is a fixed key. An empty key is treated as unavailable.
type StaticCredential string

func (s StaticCredential) Credential(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", errors.New("no subscription key configured")
	}
	return string(s), nil
}

// SubscriptionKeyHeader carries the credential on every request.
const SubscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

// HTTPSource queries {BaseURL}/awards/{code}/pay-rates.
type HTTPSource struct {
	BaseURL     string
	Credentials CredentialProvider
	Client      *http.Client
}

// NewHTTPSource builds a source with its own client. The client timeout is a
// backstop; the resolver also bounds each call with a context deadline.
func NewHTTPSource(baseURL string, creds CredentialProvider, timeout time.Duration) *HTTPSource {
	if timeout <= 0 || timeout > MaxRemoteTimeout {
		timeout = MaxRemoteTimeout
	}
	return &HTTPSource{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Credentials: creds,
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (s *HTTPSource) Endpoint(awardCode string) string {
	return s.BaseURL + "/awards/" + url.PathEscape(awardCode) + "/pay-rates"
}

type payRatesResponse struct {
	Results []Classification `json:"results"`
}

// FetchRates returns every classification published for the financial year.
// All failures are *generic.UpstreamError.
func (s *HTTPSource) FetchRates(ctx context.Context, awardCode string, fy generic.FinancialYear) ([]Classification, error) {
	if s.Credentials == nil {
		return nil, &generic.UpstreamError{Stage: "credential", Err: errors.New("no credential provider")}
	}
	key, err := s.Credentials.Credential(ctx)
	if err != nil {
		return nil, &generic.UpstreamError{Stage: "credential", Err: err}
	}

	q := url.Values{}
	q.Set("operative_from", generic.FinancialYearStart(fy).Format("2006-01-02"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Endpoint(awardCode)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &generic.UpstreamError{Stage: "request", Err: err}
	}
	req.Header.Set(SubscriptionKeyHeader, key)
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &generic.UpstreamError{Stage: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &generic.UpstreamError{Stage: "status", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var body payRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &generic.UpstreamError{Stage: "decode", Err: err}
	}
	return body.Results, nil
}
