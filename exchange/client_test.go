package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exercises-server/apperrors"
)

// fakeAPI serves a tiny Frankfurter-like API with fixed rates.
type fakeAPI struct {
	latest    map[string]float64
	byDate    map[string]map[string]float64
	calls     atomic.Int32
	lastQuery atomic.Value
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/currencies", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{
			"USD": "United States Dollar",
			"EUR": "Euro",
			"ARS": "Argentine Peso",
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		f.lastQuery.Store(r.URL.RawQuery)
		rates := f.latest
		if r.URL.Path != "/latest" {
			var ok bool
			rates, ok = f.byDate[r.URL.Path[1:]]
			if !ok {
				http.NotFound(w, r)
				return
			}
		}
		to := r.URL.Query().Get("to")
		rate, ok := rates[to]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "not found"})
			return
		}
		json.NewEncoder(w).Encode(ratesResponse{
			Amount: 1,
			Base:   r.URL.Query().Get("from"),
			Rates:  map[string]float64{to: rate},
		})
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, 5*time.Second, 1000)
	c.now = func() time.Time { return time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC) }
	return c
}

type memoryCache struct {
	mu    sync.Mutex
	rates map[string]float64
}

func (m *memoryCache) GetRate(_ context.Context, from, to string) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rates[from+to]
	return r, ok, nil
}

func (m *memoryCache) SetRate(_ context.Context, from, to string, rate float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rates == nil {
		m.rates = make(map[string]float64)
	}
	m.rates[from+to] = rate
	return nil
}

type memoryHistory struct {
	memoryCache
	saved int
}

func (m *memoryHistory) LoadRate(ctx context.Context, day time.Time, from, to string) (float64, bool, error) {
	return m.GetRate(ctx, day.Format(DateLayout)+from, to)
}

func (m *memoryHistory) SaveRate(ctx context.Context, day time.Time, from, to string, rate float64) error {
	m.saved++
	return m.SetRate(ctx, day.Format(DateLayout)+from, to, rate)
}

func TestCurrenciesSortedByCode(t *testing.T) {
	c := newTestClient(t, &fakeAPI{})

	list, err := c.Currencies(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, Currency{Code: "ARS", Name: "Argentine Peso"}, list[0])
	assert.Equal(t, "EUR", list[1].Code)
	assert.Equal(t, "USD", list[2].Code)
}

func TestConvertMultipliesLatestRate(t *testing.T) {
	api := &fakeAPI{latest: map[string]float64{"EUR": 0.9}}
	c := newTestClient(t, api)

	got, err := c.Convert(context.Background(), 250, "usd", "EUR")

	require.NoError(t, err)
	assert.InDelta(t, 225.0, got, 1e-9)
	assert.Equal(t, "from=USD&to=EUR", api.lastQuery.Load())
}

func TestConvertSameCurrencySkipsService(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	got, err := c.Convert(context.Background(), 42.5, "EUR", "eur")

	require.NoError(t, err)
	assert.Equal(t, 42.5, got)
	assert.Equal(t, int32(0), api.calls.Load())
}

func TestConvertUnknownCurrency(t *testing.T) {
	c := newTestClient(t, &fakeAPI{latest: map[string]float64{}})

	_, err := c.Convert(context.Background(), 1, "USD", "XXX")

	require.ErrorIs(t, err, apperrors.ErrUnknownCurrency)
	assert.True(t, IsClientError(err))
}

func TestUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second, 100)

	_, err := c.Currencies(context.Background())

	require.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.False(t, IsClientError(err))
}

func TestLatestRateUsesCache(t *testing.T) {
	api := &fakeAPI{latest: map[string]float64{"EUR": 0.9}}
	c := newTestClient(t, api)
	c.Cache = &memoryCache{}

	for i := 0; i < 3; i++ {
		r, err := c.LatestRate(context.Background(), "USD", "EUR")
		require.NoError(t, err)
		assert.InDelta(t, 0.9, r, 1e-9)
	}
	assert.Equal(t, int32(1), api.calls.Load())
}

func TestRateDifference(t *testing.T) {
	api := &fakeAPI{
		latest: map[string]float64{"EUR": 0.92},
		byDate: map[string]map[string]float64{"2024-02-29": {"EUR": 0.90}},
	}
	c := newTestClient(t, api)
	history := &memoryHistory{}
	c.History = history

	diff, err := c.RateDifference(context.Background(), "USD", "EUR")

	require.NoError(t, err)
	assert.InDelta(t, 0.02, diff, 1e-9)
	assert.Equal(t, 1, history.saved)

	// The historical rate now comes from the store.
	_, err = c.RateDifference(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, int32(3), api.calls.Load())
}

func TestYesterday(t *testing.T) {
	got := Yesterday(time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-29", got.Format(DateLayout))

	got = Yesterday(time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-12-31", got.Format(DateLayout))
}
