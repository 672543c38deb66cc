package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"exercises-server/apperrors"
)

// DateLayout is the upstream format for historical rate dates.
const DateLayout = "2006-01-02"

// Currency is one entry of the upstream currency list.
type Currency struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// RateCache holds recent "latest" rates. Implementations may be remote; a miss is (0, false, nil).
type RateCache interface {
	GetRate(ctx context.Context, from, to string) (float64, bool, error)
	SetRate(ctx context.Context, from, to string, rate float64) error
}

// RateHistory stores rates for past calendar days, which never change once published.
type RateHistory interface {
	LoadRate(ctx context.Context, day time.Time, from, to string) (float64, bool, error)
	SaveRate(ctx context.Context, day time.Time, from, to string, rate float64) error
}

// ratesResponse is the upstream body of /latest and /YYYY-MM-DD.
type ratesResponse struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
}

// Client talks to a Frankfurter-compatible exchange-rate API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Cache   RateCache
	History RateHistory

	limiter *rate.Limiter
	group   singleflight.Group
	now     func() time.Time
}

// NewClient returns a client for baseURL that issues at most requestsPerSecond upstream calls.
func NewClient(baseURL string, timeout time.Duration, requestsPerSecond float64) *Client {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		now:     time.Now,
	}
}

// Currencies returns every supported currency, sorted by code.
// Concurrent callers share one upstream request.
func (c *Client) Currencies(ctx context.Context) ([]Currency, error) {
	v, err, _ := c.group.Do("currencies", func() (any, error) {
		var names map[string]string
		if err := c.getJSON(ctx, "/currencies", nil, &names); err != nil {
			return nil, err
		}
		list := make([]Currency, 0, len(names))
		for code, name := range names {
			list = append(list, Currency{Code: code, Name: name})
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	out := append([]Currency(nil), v.([]Currency)...)
	return out, nil
}

// Convert returns amount expressed in the to currency at the latest rate.
// Converting a currency to itself returns amount without contacting the service.
func (c *Client) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	from, to = normalize(from), normalize(to)
	if from == to {
		return amount, nil
	}
	r, err := c.LatestRate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return r * amount, nil
}

// LatestRate returns the price of one unit of from in to.
func (c *Client) LatestRate(ctx context.Context, from, to string) (float64, error) {
	from, to = normalize(from), normalize(to)
	if from == to {
		return 1, nil
	}
	if c.Cache != nil {
		r, ok, err := c.Cache.GetRate(ctx, from, to)
		if err != nil {
			slog.Warn("rate cache read failed", "tag", "exchange", "from", from, "to", to, "err", err)
		} else if ok {
			return r, nil
		}
	}

	r, err := c.fetchRate(ctx, "/latest", from, to)
	if err != nil {
		return 0, err
	}
	if c.Cache != nil {
		if err := c.Cache.SetRate(ctx, from, to, r); err != nil {
			slog.Warn("rate cache write failed", "tag", "exchange", "from", from, "to", to, "err", err)
		}
	}
	return r, nil
}

// RateOn returns the rate published for day.
func (c *Client) RateOn(ctx context.Context, day time.Time, from, to string) (float64, error) {
	from, to = normalize(from), normalize(to)
	if from == to {
		return 1, nil
	}
	if c.History != nil {
		r, ok, err := c.History.LoadRate(ctx, day, from, to)
		if err != nil {
			slog.Warn("rate history read failed", "tag", "exchange", "day", day.Format(DateLayout), "err", err)
		} else if ok {
			return r, nil
		}
	}

	r, err := c.fetchRate(ctx, "/"+day.Format(DateLayout), from, to)
	if err != nil {
		return 0, err
	}
	if c.History != nil {
		if err := c.History.SaveRate(ctx, day, from, to, r); err != nil {
			slog.Warn("rate history write failed", "tag", "exchange", "day", day.Format(DateLayout), "err", err)
		}
	}
	return r, nil
}

// RateDifference returns today's rate minus yesterday's for the pair.
func (c *Client) RateDifference(ctx context.Context, from, to string) (float64, error) {
	today, err := c.LatestRate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	yesterday, err := c.RateOn(ctx, Yesterday(c.now()), from, to)
	if err != nil {
		return 0, err
	}
	return today - yesterday, nil
}

// Yesterday returns midnight UTC of the calendar day before t.
func Yesterday(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, time.UTC)
}

func (c *Client) fetchRate(ctx context.Context, path, from, to string) (float64, error) {
	var body ratesResponse
	q := url.Values{"from": {from}, "to": {to}}
	if err := c.getJSON(ctx, path, q, &body); err != nil {
		return 0, err
	}
	r, ok := body.Rates[to]
	if !ok || r <= 0 {
		return 0, fmt.Errorf("%s to %s on %s: %w", from, to, path, apperrors.ErrRateUnavailable)
	}
	return r, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w: %w", path, apperrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity:
		// The service answers unknown currency codes with 404 / 422.
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s: %w", path, apperrors.ErrUnknownCurrency)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s: status %d: %w", path, resp.StatusCode, apperrors.ErrUpstream)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decoding body: %w: %w", path, apperrors.ErrUpstream, err)
	}
	return nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsClientError reports whether err was caused by the caller's input rather than the service.
func IsClientError(err error) bool {
	return errors.Is(err, apperrors.ErrUnknownCurrency)
}
