// Package executors hosts the long-running loops: the quote refresher and
// the order sync loop.
package executors

import (
	"context"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"spotengine/src/connectors"
	"spotengine/src/model"
)

// QuoteProvider is the slice of the hub connector the loop needs.
type QuoteProvider interface {
	GetQuote(ctx context.Context, req connectors.QuoteRequest) (*model.Quote, error)
}

// ExecutionGate reports whether a swap attempt currently owns the quote.
type ExecutionGate interface {
	QuotePaused() bool
}

// QuoteLoop keeps one quote request fresh on a fixed period. Transient
// failures are retried on the next tick; sticky failures stop the loop
// because re-asking the same pair cannot recover.
type QuoteLoop struct {
	hub  QuoteProvider
	gate ExecutionGate

	// OnQuote fires on every successful refresh.
	OnQuote func(*model.Quote)

	mu      sync.Mutex
	latest  *model.Quote
	lastErr error
}

func NewQuoteLoop(hub QuoteProvider, gate ExecutionGate) *QuoteLoop {
	return &QuoteLoop{hub: hub, gate: gate}
}

// Latest returns the most recent quote and the most recent failure; both
// can be set when a refresh failed after a previous success.
func (l *QuoteLoop) Latest() (*model.Quote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest, l.lastErr
}

// Run refreshes the quote until the context ends or the failure is sticky.
// The first fetch happens immediately, before the first tick.
func (l *QuoteLoop) Run(ctx context.Context, req connectors.QuoteRequest) error {
	config := GetConfig()

	ticker := time.NewTicker(config.QuotePeriod)
	defer ticker.Stop()

	if err := l.refresh(ctx, req); err != nil && connectors.IsStickyQuoteError(err) {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("quote loop stopped")
			return nil

		case <-ticker.C:
			if l.gate != nil && l.gate.QuotePaused() {
				logger.Debug("quote refresh skipped, swap in flight")
				continue
			}
			if err := l.refresh(ctx, req); err != nil && connectors.IsStickyQuoteError(err) {
				logger.WithError(err).Warn("sticky quote error, stopping loop for this pair")
				return err
			}
		}
	}
}

func (l *QuoteLoop) refresh(ctx context.Context, req connectors.QuoteRequest) error {
	quote, err := l.hub.GetQuote(ctx, req)

	l.mu.Lock()
	l.lastErr = err
	if err == nil {
		l.latest = quote
	}
	l.mu.Unlock()

	if err != nil {
		logger.WithError(err).Debug("quote refresh failed")
		return err
	}
	if l.OnQuote != nil {
		l.OnQuote(quote)
	}
	return nil
}
