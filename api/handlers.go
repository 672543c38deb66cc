package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"exercises-server/exchange"
	"exercises-server/storage"
)

// Rates is what the handlers need from the exchange client.
type Rates interface {
	Currencies(ctx context.Context) ([]exchange.Currency, error)
	LatestRate(ctx context.Context, from, to string) (float64, error)
	RateDifference(ctx context.Context, from, to string) (float64, error)
}

// RateLister lists stored daily rates.
type RateLister interface {
	ListRates(ctx context.Context, from, to string, limit int) ([]storage.RateRecord, error)
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Rates Rates
	Store RateLister // optional
}

// NewHandler creates a new API handler with the given dependencies. history may be nil.
func NewHandler(rates Rates, history RateLister) *Handler {
	return &Handler{Rates: rates, Store: history}
}

var validate = validator.New()

// PairQuery selects a currency pair.
type PairQuery struct {
	From string `validate:"required,len=3,alpha"`
	To   string `validate:"required,len=3,alpha"`
}

// ConvertQuery is the query string of /api/convert.
type ConvertQuery struct {
	Amount float64 `validate:"gt=0"`
	PairQuery
}

// HistoryQuery is the query string of /api/rates/history.
type HistoryQuery struct {
	Limit int `validate:"gte=0,lte=365"`
	PairQuery
}

// ConvertResponse is the body of /api/convert.
type ConvertResponse struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Rate   float64 `json:"rate"`
	Result float64 `json:"result"`
	Text   string  `json:"text"`
}

// DifferenceResponse is the body of /api/rates/difference.
type DifferenceResponse struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Difference float64 `json:"difference"`
	Text       string  `json:"text"`
}

// Health reports that the server is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Currencies lists every supported currency.
func (h *Handler) Currencies(w http.ResponseWriter, r *http.Request) {
	list, err := h.Rates.Currencies(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, list)
}

// Convert converts amount between two currencies at the latest rate.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("amount")
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "amount must be a number")
		return
	}
	q := ConvertQuery{Amount: amount, PairQuery: pairFromRequest(r)}
	if err := validate.Struct(q); err != nil {
		respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	rate := 1.0
	if q.From != q.To {
		rate, err = h.Rates.LatestRate(r.Context(), q.From, q.To)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
	}
	result := rate * q.Amount
	respondJSON(w, r, http.StatusOK, ConvertResponse{
		Amount: q.Amount,
		From:   q.From,
		To:     q.To,
		Rate:   rate,
		Result: result,
		Text:   fmt.Sprintf("%s %s = %.2f %s", strconv.FormatFloat(q.Amount, 'f', -1, 64), q.From, result, q.To),
	})
}

// Difference reports today's rate minus yesterday's for a pair.
func (h *Handler) Difference(w http.ResponseWriter, r *http.Request) {
	q := pairFromRequest(r)
	if err := validate.Struct(q); err != nil {
		respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}
	diff, err := h.Rates.RateDifference(r.Context(), q.From, q.To)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, DifferenceResponse{
		From:       q.From,
		To:         q.To,
		Difference: diff,
		Text:       FormatDifference(q.From, q.To, diff),
	})
}

// History lists the stored daily rates of a pair, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := HistoryQuery{PairQuery: pairFromRequest(r)}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "limit must be an integer")
			return
		}
		q.Limit = n
	}
	if err := validate.Struct(q); err != nil {
		respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	list := []storage.RateRecord{}
	if h.Store != nil {
		var err error
		list, err = h.Store.ListRates(r.Context(), q.From, q.To, q.Limit)
		if err != nil {
			slog.Error("listing rates", "tag", "api", "from", q.From, "to", q.To, "err", err)
			respondError(w, r, http.StatusInternalServerError, "failed to load history")
			return
		}
	}
	respondJSON(w, r, http.StatusOK, list)
}

// FormatDifference renders a rate difference the way the converter page shows it.
func FormatDifference(from, to string, diff float64) string {
	return fmt.Sprintf("The difference between %s and %s since yesterday is %.4f", from, to, diff)
}

func pairFromRequest(r *http.Request) PairQuery {
	return PairQuery{
		From: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("from"))),
		To:   strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("to"))),
	}
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "len", "alpha":
		return field + " must be a three-letter currency code"
	case "gt":
		return field + " must be greater than " + fe.Param()
	default:
		return field + " is out of range"
	}
}
