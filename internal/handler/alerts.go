package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/price-alert/internal/alert"
)

type AlertLister interface {
	ListByUser(ctx context.Context, userID string) ([]alert.Alert, error)
}

type AlertCreator interface {
	Create(ctx context.Context, a alert.Alert) (alert.Alert, error)
}

func ListAlerts(s AlertLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if userID == "" {
			http.Error(w, `{"error":"user_id required"}`, http.StatusBadRequest)
			return
		}

		alerts, err := s.ListByUser(r.Context(), userID)
		if err != nil {
			http.Error(w, `{"error":"failed to list alerts"}`, http.StatusInternalServerError)
			return
		}
		if alerts == nil {
			alerts = []alert.Alert{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(alerts)
	}
}

// CreateAlert registers an alert from a JSON body. target_price may be a
// JSON number or a decimal string.
func CreateAlert(c AlertCreator) http.HandlerFunc {
	type request struct {
		UserID      string           `json:"user_id"`
		Asset       string           `json:"asset"`
		TargetPrice *decimal.Decimal `json:"target_price"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		userID := strings.TrimSpace(req.UserID)
		if userID == "" {
			http.Error(w, `{"error":"user_id required"}`, http.StatusBadRequest)
			return
		}
		asset, ok := alert.ParseAsset(req.Asset)
		if !ok {
			http.Error(w, `{"error":"unsupported asset, use one of `+alert.SymbolList()+`"}`, http.StatusBadRequest)
			return
		}
		if req.TargetPrice == nil {
			http.Error(w, `{"error":"target_price must be a positive number"}`, http.StatusBadRequest)
			return
		}
		target, ok := alert.TargetValue(*req.TargetPrice)
		if !ok {
			http.Error(w, `{"error":"target_price must be a positive number"}`, http.StatusBadRequest)
			return
		}

		created, err := c.Create(r.Context(), alert.Alert{
			UserID:      userID,
			Asset:       asset,
			TargetPrice: target,
		})
		if err != nil {
			http.Error(w, `{"error":"failed to create alert"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	}
}
