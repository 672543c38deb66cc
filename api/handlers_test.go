package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exercises-server/apperrors"
	"exercises-server/exchange"
	"exercises-server/storage"
)

type fakeRates struct {
	rates map[string]float64
	diff  float64
	err   error
}

func (f *fakeRates) Currencies(context.Context) ([]exchange.Currency, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []exchange.Currency{{Code: "EUR", Name: "Euro"}, {Code: "USD", Name: "United States Dollar"}}, nil
}

func (f *fakeRates) LatestRate(_ context.Context, from, to string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	r, ok := f.rates[from+to]
	if !ok {
		return 0, fmt.Errorf("%s/%s: %w", from, to, apperrors.ErrUnknownCurrency)
	}
	return r, nil
}

func (f *fakeRates) RateDifference(context.Context, string, string) (float64, error) {
	return f.diff, f.err
}

type fakeHistory struct {
	gotLimit int
}

func (f *fakeHistory) ListRates(_ context.Context, from, to string, limit int) ([]storage.RateRecord, error) {
	f.gotLimit = limit
	return []storage.RateRecord{{Date: "2024-02-29", From: from, To: to, Rate: 0.9}}, nil
}

func serve(t *testing.T, h *Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	NewRouter(h, nil).ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestHealth(t *testing.T) {
	rec := serve(t, NewHandler(&fakeRates{}, nil), http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPreflight(t *testing.T) {
	rec := serve(t, NewHandler(&fakeRates{}, nil), http.MethodOptions, "/api/convert")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")
}

func TestCurrencies(t *testing.T) {
	rec := serve(t, NewHandler(&fakeRates{}, nil), http.MethodGet, "/api/currencies")

	require.Equal(t, http.StatusOK, rec.Code)
	var list []exchange.Currency
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list, 2)
	assert.Equal(t, "EUR", list[0].Code)
}

func TestConvert(t *testing.T) {
	h := NewHandler(&fakeRates{rates: map[string]float64{"USDEUR": 0.9}}, nil)

	rec := serve(t, h, http.MethodGet, "/api/convert?amount=100&from=usd&to=EUR")

	require.Equal(t, http.StatusOK, rec.Code)
	var body ConvertResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "USD", body.From)
	assert.InDelta(t, 90.0, body.Result, 1e-9)
	assert.Equal(t, "100 USD = 90.00 EUR", body.Text)
}

func TestConvertSameCurrency(t *testing.T) {
	h := NewHandler(&fakeRates{err: apperrors.ErrUpstream}, nil)

	rec := serve(t, h, http.MethodGet, "/api/convert?amount=12.5&from=EUR&to=EUR")

	require.Equal(t, http.StatusOK, rec.Code)
	var body ConvertResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 12.5, body.Result)
	assert.Equal(t, 1.0, body.Rate)
}

func TestConvertRejectsBadInput(t *testing.T) {
	h := NewHandler(&fakeRates{}, nil)
	tests := []struct {
		query    string
		expected string
	}{
		{"amount=abc&from=USD&to=EUR", "amount must be a number"},
		{"from=USD&to=EUR", "amount must be a number"},
		{"amount=-1&from=USD&to=EUR", "amount must be greater than 0"},
		{"amount=1&to=EUR", "from is required"},
		{"amount=1&from=US&to=EUR", "from must be a three-letter currency code"},
		{"amount=1&from=USD&to=E1R", "to must be a three-letter currency code"},
	}
	for _, test := range tests {
		rec := serve(t, h, http.MethodGet, "/api/convert?"+test.query)
		assert.Equal(t, http.StatusBadRequest, rec.Code, test.query)
		assert.Equal(t, test.expected, decodeError(t, rec), test.query)
	}
}

func TestConvertErrorsMapToStatus(t *testing.T) {
	rec := serve(t, NewHandler(&fakeRates{}, nil), http.MethodGet, "/api/convert?amount=1&from=USD&to=XXX")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown currency", decodeError(t, rec))

	rec = serve(t, NewHandler(&fakeRates{err: apperrors.ErrUpstream}, nil), http.MethodGet, "/api/convert?amount=1&from=USD&to=EUR")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "exchange service unavailable", decodeError(t, rec))
}

func TestDifference(t *testing.T) {
	rec := serve(t, NewHandler(&fakeRates{diff: -0.0125}, nil), http.MethodGet, "/api/rates/difference?from=USD&to=EUR")

	require.Equal(t, http.StatusOK, rec.Code)
	var body DifferenceResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, -0.0125, body.Difference)
	assert.Equal(t, "The difference between USD and EUR since yesterday is -0.0125", body.Text)
}

func TestHistory(t *testing.T) {
	history := &fakeHistory{}
	h := NewHandler(&fakeRates{}, history)

	require.Same(t, history, h.Store)

	rec := serve(t, h, http.MethodGet, "/api/rates/history?from=USD&to=EUR&limit=7")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, history.gotLimit)
	var list []storage.RateRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "2024-02-29", list[0].Date)

	rec = serve(t, h, http.MethodGet, "/api/rates/history?from=USD&to=EUR&limit=1000")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryWithoutStore(t *testing.T) {
	rec := serve(t, NewHandler(&fakeRates{}, nil), http.MethodGet, "/api/rates/history?from=USD&to=EUR")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
