package reconciler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spotengine/src/model"
)

type fakeSource struct {
	name   string
	orders []model.Order
	err    error
	calls  int
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) GetOrders(ctx context.Context, account string, chainID uint64) ([]model.Order, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.orders, nil
}

type fakeCache struct {
	mu       sync.Mutex
	snapshot []model.Order
	replaces int
	upserts  []model.Order
}

func (c *fakeCache) FindByScope(ctx context.Context, account string, chainID uint64, exchange string) ([]model.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Order(nil), c.snapshot...), nil
}

func (c *fakeCache) Replace(ctx context.Context, account string, chainID uint64, exchange string, orders []model.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = append([]model.Order(nil), orders...)
	c.replaces++
	return nil
}

func (c *fakeCache) Upsert(ctx context.Context, order *model.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upserts = append(c.upserts, *order)
	return nil
}

func orderAt(id string, createdAt time.Time, fills int) model.Order {
	order := model.Order{
		ID:        id,
		Status:    model.OrderStatusOpen,
		CreatedAt: createdAt,
	}
	for i := 0; i < fills; i++ {
		order.Fills = append(order.Fills, model.OrderFill{OrderID: id, InAmount: "10", OutAmount: "5"})
	}
	return order
}

func TestSyncMergesAndSortsNewestFirst(t *testing.T) {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	v1 := &fakeSource{name: "v1", orders: []model.Order{orderAt("1", base, 0)}}
	v2 := &fakeSource{name: "v2", orders: []model.Order{
		orderAt("0xold", base.Add(-time.Hour), 0),
		orderAt("0xnew", base.Add(time.Hour), 0),
	}}
	cache := &fakeCache{}
	r := New(cache, "0xAdapter", Signals{}, v1, v2)

	merged, err := r.Sync(context.Background(), "0xMaker", 137)
	if err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged orders, got %d", len(merged))
	}
	if merged[0].ID != "0xnew" || merged[2].ID != "0xold" {
		t.Fatalf("orders not sorted newest first: %v %v %v", merged[0].ID, merged[1].ID, merged[2].ID)
	}
	for _, order := range merged {
		if order.Account != "0xmaker" || order.Exchange != "0xadapter" {
			t.Fatalf("scope not normalized to lowercase: %+v", order)
		}
		if order.ChainID != 137 {
			t.Fatalf("chain id not stamped: %+v", order)
		}
	}
	if cache.replaces != 1 {
		t.Fatalf("expected one cache replace, got %d", cache.replaces)
	}
}

func TestSyncIsAtomicWhenOneSourceFails(t *testing.T) {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	healthy := &fakeSource{name: "v2", orders: []model.Order{orderAt("0xaaa", base, 0)}}
	broken := &fakeSource{name: "v1", err: errors.New("indexer down")}
	cache := &fakeCache{snapshot: []model.Order{orderAt("0xprev", base, 1)}}
	r := New(cache, "0xadapter", Signals{}, healthy, broken)

	if _, err := r.Sync(context.Background(), "0xmaker", 137); err == nil {
		t.Fatal("expected sync to fail when a source fails")
	}
	if cache.replaces != 0 {
		t.Fatalf("cache must stay untouched on partial failure, got %d replaces", cache.replaces)
	}
	if healthy.calls != 1 || broken.calls != 1 {
		t.Fatalf("both sources should have been queried, got %d and %d", healthy.calls, broken.calls)
	}
}

func TestSyncEmitsFillSignals(t *testing.T) {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	cache := &fakeCache{snapshot: []model.Order{orderAt("0xaaa", base, 1)}}
	source := &fakeSource{name: "v2", orders: []model.Order{orderAt("0xaaa", base, 3)}}

	var filled []model.OrderFill
	balanceRefreshes := 0
	r := New(cache, "0xadapter", Signals{
		OnOrderFilled:   func(order model.Order, fill model.OrderFill) { filled = append(filled, fill) },
		OnBalancesStale: func() { balanceRefreshes++ },
	}, source)

	if _, err := r.Sync(context.Background(), "0xmaker", 137); err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if len(filled) != 2 {
		t.Fatalf("expected 2 new fill signals, got %d", len(filled))
	}
	if balanceRefreshes != 1 {
		t.Fatalf("expected a single balance refresh per sync, got %d", balanceRefreshes)
	}
}

func TestSyncEmitsStatusChange(t *testing.T) {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	prev := orderAt("0xaaa", base, 0)
	next := orderAt("0xaaa", base, 0)
	next.Status = model.OrderStatusCompleted

	cache := &fakeCache{snapshot: []model.Order{prev}}
	source := &fakeSource{name: "v2", orders: []model.Order{next}}

	var fromStatus model.OrderStatus
	refreshed := false
	r := New(cache, "0xadapter", Signals{
		OnOrderStatusChanged: func(order model.Order, previous model.OrderStatus) { fromStatus = previous },
		OnBalancesStale:      func() { refreshed = true },
	}, source)

	if _, err := r.Sync(context.Background(), "0xmaker", 137); err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if fromStatus != model.OrderStatusOpen {
		t.Fatalf("expected transition from open, got %s", fromStatus)
	}
	if !refreshed {
		t.Fatal("completion should mark balances stale")
	}
}

func TestInsertOptimisticDefaultsToOpen(t *testing.T) {
	cache := &fakeCache{}
	r := New(cache, "0xadapter", Signals{})

	err := r.InsertOptimistic(context.Background(), model.Order{ID: "0xabc", Account: "0xMaker"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(cache.upserts))
	}
	inserted := cache.upserts[0]
	if inserted.Status != model.OrderStatusOpen {
		t.Fatalf("expected open status, got %s", inserted.Status)
	}
	if inserted.Account != "0xmaker" {
		t.Fatalf("account not lowercased: %s", inserted.Account)
	}
}
