package reconciler

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"spotengine/src/analytics"
	"spotengine/src/model"
)

type fakeWallet struct {
	mu          sync.Mutex
	v1Cancels   []uint64
	v2Batches   [][]string
	v2Contracts []string
}

func (w *fakeWallet) Address() string { return "0xmaker" }

func (w *fakeWallet) SignTypedData(typedData apitypes.TypedData) (string, error) {
	return "0xsig", nil
}

func (w *fakeWallet) Allowance(ctx context.Context, token, spender string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (w *fakeWallet) Approve(ctx context.Context, token, spender string, amount *big.Int) (string, error) {
	return "0xapprove", nil
}

func (w *fakeWallet) WrapNative(ctx context.Context, wrappedToken string, amount *big.Int) (string, error) {
	return "0xwrap", nil
}

func (w *fakeWallet) CancelOrderV1(ctx context.Context, twapAddress string, orderID uint64) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.v1Cancels = append(w.v1Cancels, orderID)
	return "0xcancel1", nil
}

func (w *fakeWallet) CancelOrdersV2(ctx context.Context, repermitAddress string, hashes []string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.v2Batches = append(w.v2Batches, hashes)
	w.v2Contracts = append(w.v2Contracts, repermitAddress)
	return "0xcancel2", nil
}

// flipSource serves open orders until cancellations were submitted, then
// reports them canceled, imitating the sources catching up with the chain.
type flipSource struct {
	wallet *fakeWallet
	orders []model.Order
}

func (s *flipSource) Name() string { return "flip" }

func (s *flipSource) GetOrders(ctx context.Context, account string, chainID uint64) ([]model.Order, error) {
	s.wallet.mu.Lock()
	done := len(s.wallet.v1Cancels) > 0 && len(s.wallet.v2Batches) > 0
	s.wallet.mu.Unlock()

	out := make([]model.Order, len(s.orders))
	copy(out, s.orders)
	if done {
		for i := range out {
			out[i].Status = model.OrderStatusCanceled
		}
	}
	return out, nil
}

func TestCancelOrdersAcrossVersions(t *testing.T) {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	orders := []model.Order{
		{ID: "7", Version: 1, TwapAddress: "0xtwap", Status: model.OrderStatusOpen, CreatedAt: base},
		{ID: "0xh1", Hash: "0xh1", Version: 2, Status: model.OrderStatusOpen, CreatedAt: base},
		{ID: "0xh2", Hash: "0xh2", Version: 2, Status: model.OrderStatusOpen, CreatedAt: base},
	}

	wallet := &fakeWallet{}
	cache := &fakeCache{}
	r := New(cache, "0xadapter", Signals{}, &flipSource{wallet: wallet, orders: orders})
	recorder := analytics.NewRecorder(137, "test", true)
	canceler := NewCanceler(wallet, r, "0xrepermit", recorder)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := canceler.CancelOrders(ctx, "0xmaker", 137, orders); err != nil {
		t.Fatalf("unexpected cancel error: %v", err)
	}

	if len(wallet.v1Cancels) != 1 || wallet.v1Cancels[0] != 7 {
		t.Fatalf("expected one legacy cancel for order 7, got %v", wallet.v1Cancels)
	}
	if len(wallet.v2Batches) != 1 {
		t.Fatalf("expected a single batched cancel, got %d", len(wallet.v2Batches))
	}
	if len(wallet.v2Batches[0]) != 2 {
		t.Fatalf("expected both hashes in one batch, got %v", wallet.v2Batches[0])
	}
	if wallet.v2Contracts[0] != "0xrepermit" {
		t.Fatalf("batch sent to wrong contract: %s", wallet.v2Contracts[0])
	}
}

// lagSource reports the order completed on the first poll after submission
// and canceled only afterwards, imitating a source that catches up late.
type lagSource struct {
	mu    sync.Mutex
	polls int
	order model.Order
}

func (s *lagSource) Name() string { return "lag" }

func (s *lagSource) GetOrders(ctx context.Context, account string, chainID uint64) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++

	out := s.order
	if s.polls == 1 {
		out.Status = model.OrderStatusCompleted
	} else {
		out.Status = model.OrderStatusCanceled
	}
	return []model.Order{out}, nil
}

func TestCancelOrdersWaitsForCanceledReading(t *testing.T) {
	restore := cancelPollInterval
	cancelPollInterval = 5 * time.Millisecond
	defer func() { cancelPollInterval = restore }()

	order := model.Order{
		ID:      "0xh1",
		Hash:    "0xh1",
		Version: 2,
		Status:  model.OrderStatusOpen,
	}
	source := &lagSource{order: order}
	r := New(&fakeCache{}, "0xadapter", Signals{}, source)
	recorder := analytics.NewRecorder(137, "test", true)
	canceler := NewCanceler(&fakeWallet{}, r, "0xrepermit", recorder)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := canceler.CancelOrders(ctx, "0xmaker", 137, []model.Order{order}); err != nil {
		t.Fatalf("unexpected cancel error: %v", err)
	}

	source.mu.Lock()
	polls := source.polls
	source.mu.Unlock()
	if polls < 2 {
		t.Fatalf("a completed reading must not satisfy the wait, returned after %d poll(s)", polls)
	}
}

func TestCancelOrdersNoopOnEmpty(t *testing.T) {
	wallet := &fakeWallet{}
	cache := &fakeCache{}
	r := New(cache, "0xadapter", Signals{})
	recorder := analytics.NewRecorder(137, "test", true)
	canceler := NewCanceler(wallet, r, "0xrepermit", recorder)

	if err := canceler.CancelOrders(context.Background(), "0xmaker", 137, nil); err != nil {
		t.Fatalf("expected noop, got %v", err)
	}
	if len(wallet.v1Cancels) != 0 || len(wallet.v2Batches) != 0 {
		t.Fatal("no cancellations should have been submitted")
	}
}
