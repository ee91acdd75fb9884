package executors

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spotengine/src/connectors"
	"spotengine/src/model"
)

type scriptedQuoter struct {
	mu      sync.Mutex
	results []error
	calls   int
}

func (q *scriptedQuoter) GetQuote(ctx context.Context, req connectors.QuoteRequest) (*model.Quote, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var err error
	if q.calls < len(q.results) {
		err = q.results[q.calls]
	}
	q.calls++
	if err != nil {
		return nil, err
	}
	return &model.Quote{OutAmount: "500", Timestamp: time.Now()}, nil
}

func (q *scriptedQuoter) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

type stubGate struct {
	mu     sync.Mutex
	paused bool
}

func (g *stubGate) QuotePaused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

func (g *stubGate) setPaused(paused bool) {
	g.mu.Lock()
	g.paused = paused
	g.mu.Unlock()
}

func TestQuoteLoopStopsOnStickyError(t *testing.T) {
	t.Setenv("QUOTE_PERIOD", "10ms")

	quoter := &scriptedQuoter{results: []error{
		nil,
		errors.New("transient backend hiccup"),
		errors.New("token not supported"),
	}}
	loop := NewQuoteLoop(quoter, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := loop.Run(ctx, connectors.QuoteRequest{FromToken: "0xa", ToToken: "0xb", InAmount: "1"})
	if !connectors.IsStickyQuoteError(err) {
		t.Fatalf("expected a sticky error to stop the loop, got %v", err)
	}
	if quoter.callCount() != 3 {
		t.Fatalf("expected the transient failure to be retried, got %d calls", quoter.callCount())
	}

	quote, lastErr := loop.Latest()
	if quote == nil {
		t.Fatal("the successful quote should still be held")
	}
	if lastErr == nil {
		t.Fatal("the last failure should be reported alongside the held quote")
	}
}

func TestQuoteLoopSkipsWhilePaused(t *testing.T) {
	t.Setenv("QUOTE_PERIOD", "10ms")

	quoter := &scriptedQuoter{}
	gate := &stubGate{}
	gate.setPaused(true)
	loop := NewQuoteLoop(quoter, gate)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := loop.Run(ctx, connectors.QuoteRequest{FromToken: "0xa", ToToken: "0xb", InAmount: "1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// only the immediate first fetch runs; every tick is gated
	if quoter.callCount() != 1 {
		t.Fatalf("expected refreshes to pause during execution, got %d calls", quoter.callCount())
	}
}

func TestQuoteLoopPublishesQuotes(t *testing.T) {
	t.Setenv("QUOTE_PERIOD", "10ms")

	quoter := &scriptedQuoter{}
	loop := NewQuoteLoop(quoter, nil)

	var mu sync.Mutex
	published := 0
	loop.OnQuote = func(q *model.Quote) {
		mu.Lock()
		published++
		mu.Unlock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := loop.Run(ctx, connectors.QuoteRequest{FromToken: "0xa", ToToken: "0xb", InAmount: "1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if published < 2 {
		t.Fatalf("expected several published quotes, got %d", published)
	}
}

func TestSyncLoopNudgeCoalesces(t *testing.T) {
	loop := NewSyncLoop(nil, "0xmaker", 137)
	loop.Nudge()
	loop.Nudge()
	loop.Nudge()

	select {
	case <-loop.nudge:
	default:
		t.Fatal("expected a pending nudge")
	}
	select {
	case <-loop.nudge:
		t.Fatal("nudges must coalesce into one pending signal")
	default:
	}
}
