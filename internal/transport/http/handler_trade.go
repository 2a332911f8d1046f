package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apptrade "questforge/internal/app/trade"
	"questforge/internal/store"
)

// Trader is the trade surface the handlers drive.
type Trader interface {
	Buy(ctx context.Context, characterID, merchantName, item string, qty int) (*apptrade.Receipt, error)
	Sell(ctx context.Context, characterID, merchantName, item string, qty int) (*apptrade.Receipt, error)
}

type TradeHandlers struct {
	svc Trader
}

func NewTradeHandlers(svc Trader) *TradeHandlers {
	return &TradeHandlers{svc: svc}
}

type tradeRequest struct {
	CharacterID string `json:"character_id"`
	Merchant    string `json:"merchant"`
	Item        string `json:"item"`
	Quantity    int    `json:"quantity"`
}

func (h *TradeHandlers) Buy() http.HandlerFunc {
	return h.trade(func(ctx context.Context, req tradeRequest) (*apptrade.Receipt, error) {
		return h.svc.Buy(ctx, req.CharacterID, req.Merchant, req.Item, req.Quantity)
	})
}

func (h *TradeHandlers) Sell() http.HandlerFunc {
	return h.trade(func(ctx context.Context, req tradeRequest) (*apptrade.Receipt, error) {
		return h.svc.Sell(ctx, req.CharacterID, req.Merchant, req.Item, req.Quantity)
	})
}

func (h *TradeHandlers) trade(exec func(context.Context, tradeRequest) (*apptrade.Receipt, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricTradeTotal.Add(1)
		var req tradeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			metricTradeErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		receipt, err := exec(r.Context(), req)
		if err != nil {
			metricTradeErrors.Add(1)
			writeTradeError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(receipt)
	}
}

func writeTradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apptrade.ErrInvalidRequest):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, apptrade.ErrMerchantNotFound):
		WriteHTTPError(w, http.StatusNotFound, "merchant_not_found")
	case errors.Is(err, apptrade.ErrItemNotStocked):
		WriteHTTPError(w, http.StatusConflict, "item_not_stocked")
	case errors.Is(err, store.ErrInsufficientFunds):
		WriteHTTPError(w, http.StatusConflict, "insufficient_funds")
	case errors.Is(err, store.ErrInsufficientStock):
		WriteHTTPError(w, http.StatusConflict, "insufficient_stock")
	case errors.Is(err, store.ErrNotFound):
		WriteHTTPError(w, http.StatusNotFound, "not_found")
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}
