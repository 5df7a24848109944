package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/web3-frozen/price-alert/internal/monitor"
)

// Evaluator is the part of the engine exposed over HTTP.
type Evaluator interface {
	LastQuotes() []monitor.Quote
	RunCycle(ctx context.Context) monitor.CycleReport
}

func Prices(e Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		quotes := e.LastQuotes()
		if quotes == nil {
			quotes = []monitor.Quote{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(quotes)
	}
}

// Evaluate runs one cycle and returns its report. The cycle is detached from
// the request so a client disconnect does not abort it halfway.
func Evaluate(e Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := e.RunCycle(context.WithoutCancel(r.Context()))
		if report.Skipped {
			http.Error(w, `{"error":"evaluation already running"}`, http.StatusConflict)
			return
		}
		if report.Err != nil {
			http.Error(w, `{"error":"evaluation failed"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}
