package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/web3-frozen/price-alert/internal/alert"
	"github.com/web3-frozen/price-alert/internal/monitor"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeAlerts struct {
	alerts  []alert.Alert
	err     error
	created []alert.Alert
}

func (f *fakeAlerts) ListByUser(_ context.Context, userID string) ([]alert.Alert, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []alert.Alert
	for _, a := range f.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlerts) Create(_ context.Context, a alert.Alert) (alert.Alert, error) {
	if f.err != nil {
		return alert.Alert{}, f.err
	}
	a.ID = int64(len(f.created) + 1)
	f.created = append(f.created, a)
	return a, nil
}

type fakeEvaluator struct {
	quotes []monitor.Quote
	report monitor.CycleReport
	calls  int
}

func (f *fakeEvaluator) LastQuotes() []monitor.Quote { return f.quotes }

func (f *fakeEvaluator) RunCycle(context.Context) monitor.CycleReport {
	f.calls++
	return f.report
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestReady(t *testing.T) {
	rec := httptest.NewRecorder()
	Ready(fakePinger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready: status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	Ready(fakePinger{err: errors.New("down")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("not ready: status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestListAlerts(t *testing.T) {
	s := &fakeAlerts{alerts: []alert.Alert{
		{ID: 1, UserID: "U1", Asset: alert.BTC, TargetPrice: 5000000},
		{ID: 2, UserID: "U2", Asset: alert.ETH, TargetPrice: 300000},
	}}

	rec := httptest.NewRecorder()
	ListAlerts(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts?user_id=U1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got []alert.Alert
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("alerts = %+v, want only id 1", got)
	}

	rec = httptest.NewRecorder()
	ListAlerts(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts?user_id=nobody", nil))
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("empty list body = %q, want []", body)
	}
}

func TestListAlertsErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	ListAlerts(&fakeAlerts{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing user_id: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = httptest.NewRecorder()
	ListAlerts(&fakeAlerts{err: alert.ErrStorage}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts?user_id=U1", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("store error: status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestCreateAlertValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"invalid JSON", `{invalid`, http.StatusBadRequest},
		{"missing user_id", `{"asset":"BTC","target_price":100}`, http.StatusBadRequest},
		{"unsupported asset", `{"user_id":"U1","asset":"DOGE","target_price":100}`, http.StatusBadRequest},
		{"missing price", `{"user_id":"U1","asset":"BTC"}`, http.StatusBadRequest},
		{"zero price", `{"user_id":"U1","asset":"BTC","target_price":0}`, http.StatusBadRequest},
		{"negative price", `{"user_id":"U1","asset":"BTC","target_price":-5}`, http.StatusBadRequest},
		{"underflows to zero", `{"user_id":"U1","asset":"BTC","target_price":"1e-400"}`, http.StatusBadRequest},
		{"overflows to infinity", `{"user_id":"U1","asset":"BTC","target_price":"1e400"}`, http.StatusBadRequest},
		{"non numeric string", `{"user_id":"U1","asset":"BTC","target_price":"abc"}`, http.StatusBadRequest},
		{"number", `{"user_id":"U1","asset":"BTC","target_price":5000000}`, http.StatusCreated},
		{"decimal string lower case asset", `{"user_id":"U1","asset":"xrp","target_price":"80.5"}`, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			CreateAlert(&fakeAlerts{}).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestCreateAlertStoresParsedValues(t *testing.T) {
	s := &fakeAlerts{}
	req := httptest.NewRequest(http.MethodPost, "/api/alerts",
		strings.NewReader(`{"user_id":" U1 ","asset":"xrp","target_price":"80.5"}`))
	rec := httptest.NewRecorder()

	CreateAlert(s).ServeHTTP(rec, req)

	if len(s.created) != 1 {
		t.Fatalf("created %d alerts, want 1", len(s.created))
	}
	got := s.created[0]
	if got.UserID != "U1" || got.Asset != alert.XRP || got.TargetPrice != 80.5 {
		t.Errorf("created = %+v", got)
	}
}

func TestCreateAlertStoreFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/alerts",
		strings.NewReader(`{"user_id":"U1","asset":"BTC","target_price":1}`))
	rec := httptest.NewRecorder()

	CreateAlert(&fakeAlerts{err: alert.ErrStorage}).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestPrices(t *testing.T) {
	rec := httptest.NewRecorder()
	Prices(&fakeEvaluator{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/prices", nil))
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("no quotes body = %q, want []", body)
	}

	e := &fakeEvaluator{quotes: []monitor.Quote{{Asset: alert.BTC, Price: 6000000, Source: "bitbank"}}}
	rec = httptest.NewRecorder()
	Prices(e).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/prices", nil))

	var got []monitor.Quote
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Asset != alert.BTC || got[0].Price != 6000000 {
		t.Errorf("quotes = %+v", got)
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		report     monitor.CycleReport
		wantStatus int
	}{
		{"ok", monitor.CycleReport{Scanned: 3, Notified: 1, Deleted: 1}, http.StatusOK},
		{"already running", monitor.CycleReport{Skipped: true}, http.StatusConflict},
		{"scan failed", monitor.CycleReport{Err: alert.ErrStorage}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &fakeEvaluator{report: tt.report}
			rec := httptest.NewRecorder()

			Evaluate(e).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/evaluate", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if e.calls != 1 {
				t.Errorf("RunCycle calls = %d, want 1", e.calls)
			}
		})
	}
}

func TestEvaluateReportBody(t *testing.T) {
	e := &fakeEvaluator{report: monitor.CycleReport{Scanned: 3, Satisfied: 2, Notified: 2, Deleted: 2}}
	rec := httptest.NewRecorder()

	Evaluate(e).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/evaluate", nil))

	var got monitor.CycleReport
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Scanned != 3 || got.Satisfied != 2 || got.Deleted != 2 {
		t.Errorf("report = %+v", got)
	}
}
