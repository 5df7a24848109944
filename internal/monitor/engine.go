package monitor

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/web3-frozen/price-alert/internal/alert"
	"github.com/web3-frozen/price-alert/internal/metrics"
)

const (
	defaultInterval      = 60 * time.Second
	defaultNotifyTimeout = 10 * time.Second
	deleteTimeout        = 5 * time.Second
	maxConcurrentFetches = 4
)

// Options tunes an Engine. Zero values select the defaults.
type Options struct {
	Interval      time.Duration
	NotifyTimeout time.Duration
	Locale        string
	// Dedup is optional; leave nil to run without delivery markers.
	Dedup Deduplicator
}

// CycleReport summarizes one evaluation cycle.
type CycleReport struct {
	Scanned      int           `json:"scanned"`
	Assets       int           `json:"assets"`
	PriceMisses  int           `json:"price_misses"`
	Satisfied    int           `json:"satisfied"`
	Notified     int           `json:"notified"`
	NotifyFailed int           `json:"notify_failed"`
	Deduplicated int           `json:"deduplicated"`
	Deleted      int           `json:"deleted"`
	DeleteFailed int           `json:"delete_failed"`
	Skipped      bool          `json:"skipped"`
	Duration     time.Duration `json:"duration_ns"`
	Err          error         `json:"-"`
}

// Engine periodically evaluates every pending alert against current prices.
// It carries no alert state between cycles: each cycle reloads the store,
// and a row is deleted only after its notification was sent.
type Engine struct {
	store    AlertStore
	source   PriceSource
	notifier Notifier
	dedup    Deduplicator
	logger   *slog.Logger

	interval      time.Duration
	notifyTimeout time.Duration
	locale        string

	cycleMu sync.Mutex

	mu         sync.RWMutex
	lastQuotes map[alert.Asset]Quote

	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewEngine(s AlertStore, src PriceSource, n Notifier, logger *slog.Logger, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = defaultNotifyTimeout
	}
	if !SupportedLocale(opts.Locale) {
		opts.Locale = defaultLocale
	}
	return &Engine{
		store:         s,
		source:        src,
		notifier:      n,
		dedup:         opts.Dedup,
		logger:        logger,
		interval:      opts.Interval,
		notifyTimeout: opts.NotifyTimeout,
		locale:        opts.Locale,
		lastQuotes:    make(map[alert.Asset]Quote),
	}
}

// Interval returns the evaluation interval.
func (e *Engine) Interval() time.Duration { return e.interval }

// LastQuotes returns the most recent price seen for each asset. The values
// are informational and are never used to evaluate alerts.
func (e *Engine) LastQuotes() []Quote {
	e.mu.RLock()
	defer e.mu.RUnlock()
	quotes := make([]Quote, 0, len(e.lastQuotes))
	for _, asset := range alert.SupportedAssets {
		if quote, ok := e.lastQuotes[asset]; ok {
			quotes = append(quotes, quote)
		}
	}
	return quotes
}

// Start runs the engine in a background goroutine until Stop is called or
// ctx is cancelled. Calling Start on a running engine is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done

	go func() {
		defer close(done)
		e.Run(ctx)
	}()
}

// Stop cancels the background loop and waits for the in-flight cycle.
func (e *Engine) Stop() {
	e.lifeMu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.lifeMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	e.logger.Info("engine stopped")
}

// Run evaluates once immediately and then on every tick until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("engine started", "interval", e.interval.String(), "source", e.source.Name())
	e.RunCycle(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.RunCycle(ctx)
		}
	}
}

// RunCycle performs one scan-fetch-compare-notify-delete pass. If another
// cycle is already running it returns immediately with Skipped set.
func (e *Engine) RunCycle(ctx context.Context) CycleReport {
	if !e.cycleMu.TryLock() {
		e.logger.Warn("evaluation cycle already running, skipping")
		metrics.CyclesTotal.WithLabelValues("skipped").Inc()
		return CycleReport{Skipped: true}
	}
	defer e.cycleMu.Unlock()

	start := time.Now()
	report := e.evaluate(ctx)
	report.Duration = time.Since(start)
	metrics.CycleDuration.Observe(report.Duration.Seconds())

	status := "ok"
	if report.Err != nil {
		status = "error"
	}
	metrics.CyclesTotal.WithLabelValues(status).Inc()

	if report.Scanned > 0 {
		e.logger.Info("evaluation cycle",
			"scanned", report.Scanned,
			"assets", report.Assets,
			"price_misses", report.PriceMisses,
			"satisfied", report.Satisfied,
			"notified", report.Notified,
			"notify_failed", report.NotifyFailed,
			"deleted", report.Deleted,
			"duration", report.Duration.String(),
		)
	}
	return report
}

func (e *Engine) evaluate(ctx context.Context) CycleReport {
	var report CycleReport

	alerts, err := e.store.ScanAll(ctx)
	if err != nil {
		e.logger.Error("scan alerts failed", "error", err)
		report.Err = err
		return report
	}
	report.Scanned = len(alerts)
	metrics.AlertsPending.Set(float64(len(alerts)))
	if len(alerts) == 0 {
		return report
	}

	byAsset := groupByAsset(alerts)
	report.Assets = len(byAsset)
	prices := e.fetchPrices(ctx, byAsset)

	for asset, group := range byAsset {
		price, ok := prices[asset]
		if !ok {
			report.PriceMisses++
			continue
		}
		for _, a := range group {
			if !a.SatisfiedBy(price) {
				continue
			}
			report.Satisfied++
			metrics.AlertsSatisfiedTotal.WithLabelValues(string(asset)).Inc()
			e.deliver(ctx, a, price, &report)
		}
	}
	return report
}

// fetchPrices queries each distinct asset once. Assets whose fetch failed
// are absent from the result.
func (e *Engine) fetchPrices(ctx context.Context, byAsset map[alert.Asset][]alert.Alert) map[alert.Asset]float64 {
	var (
		mu     sync.Mutex
		prices = make(map[alert.Asset]float64, len(byAsset))
		g      errgroup.Group
	)
	g.SetLimit(maxConcurrentFetches)

	for asset := range byAsset {
		g.Go(func() error {
			price, err := e.source.FetchPrice(ctx, asset)
			if err == nil && (math.IsNaN(price) || math.IsInf(price, 0)) {
				err = alert.ErrPriceUnavailable
			}
			if err != nil {
				metrics.PriceFetchTotal.WithLabelValues(e.source.Name(), "error").Inc()
				e.logger.Warn("price unavailable, skipping asset this cycle",
					"asset", asset, "source", e.source.Name(), "error", err)
				return nil
			}
			metrics.PriceFetchTotal.WithLabelValues(e.source.Name(), "success").Inc()
			metrics.PriceLast.WithLabelValues(string(asset)).Set(price)

			mu.Lock()
			prices[asset] = price
			mu.Unlock()

			e.mu.Lock()
			e.lastQuotes[asset] = Quote{Asset: asset, Price: price, Source: e.source.Name(), FetchedAt: time.Now()}
			e.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return prices
}

// deliver sends the notification for a satisfied alert and deletes its row
// only when the send succeeded. A failed send leaves the row for the next cycle.
func (e *Engine) deliver(ctx context.Context, a alert.Alert, price float64, report *CycleReport) {
	log := e.logger.With("alert_id", a.ID, "user_id", a.UserID, "asset", a.Asset)

	if e.dedup != nil && e.dedup.AlreadySent(ctx, a) {
		report.Deduplicated++
		metrics.AlertsDeduplicatedTotal.Inc()
		log.Info("alert already delivered, retrying delete")
	} else {
		sendCtx, cancel := context.WithTimeout(ctx, e.notifyTimeout)
		err := e.notifier.Send(sendCtx, a.UserID, formatSatisfied(e.locale, a, price))
		cancel()
		if err != nil {
			report.NotifyFailed++
			metrics.NotificationsFailedTotal.Inc()
			log.Error("send notification failed, alert kept for retry", "error", err)
			return
		}
		report.Notified++
		metrics.NotificationsSentTotal.Inc()

		if e.dedup != nil {
			if err := e.dedup.Record(ctx, a); err != nil {
				log.Warn("record delivery marker failed", "error", err)
			}
		}
	}

	// The send already happened; finish the delete even during shutdown.
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()
	deleted, err := e.store.Delete(delCtx, a.ID)
	if err != nil {
		report.DeleteFailed++
		log.Error("delete delivered alert failed", "error", err)
		return
	}
	if deleted {
		report.Deleted++
	}
	if e.dedup != nil {
		e.dedup.Clear(delCtx, a)
	}
	log.Info("alert delivered", "target_price", a.TargetPrice, "price", price)
}

func groupByAsset(alerts []alert.Alert) map[alert.Asset][]alert.Alert {
	groups := make(map[alert.Asset][]alert.Alert)
	for _, a := range alerts {
		groups[a.Asset] = append(groups[a.Asset], a)
	}
	return groups
}
