package reconciler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"

	"spotengine/src/model"
)

// OrderCache is the slice of the repository the reconciler needs.
type OrderCache interface {
	FindByScope(ctx context.Context, account string, chainID uint64, exchange string) ([]model.Order, error)
	Replace(ctx context.Context, account string, chainID uint64, exchange string, orders []model.Order) error
	Upsert(ctx context.Context, order *model.Order) error
}

// Signals are the callbacks fired when consecutive snapshots differ. All
// are optional.
type Signals struct {
	// OnOrderFilled fires once per newly observed fill.
	OnOrderFilled func(order model.Order, fill model.OrderFill)
	// OnOrderStatusChanged fires when an order moves to a new status.
	OnOrderStatusChanged func(order model.Order, previous model.OrderStatus)
	// OnBalancesStale fires at most once per sync, after any fill or
	// terminal transition that moved funds.
	OnBalancesStale func()
}

type Reconciler struct {
	sources  []OrderSource
	cache    OrderCache
	exchange string
	signals  Signals
}

func New(cache OrderCache, exchange string, signals Signals, sources ...OrderSource) *Reconciler {
	return &Reconciler{
		sources:  sources,
		cache:    cache,
		exchange: strings.ToLower(exchange),
		signals:  signals,
	}
}

// Sync fetches every source concurrently, merges the results into one
// snapshot and replaces the cache. The merge is atomic: if any source
// fails, the previous snapshot stays untouched and the error is returned.
func (r *Reconciler) Sync(ctx context.Context, account string, chainID uint64) ([]model.Order, error) {
	account = strings.ToLower(account)

	results := make([][]model.Order, len(r.sources))
	errs := make([]error, len(r.sources))

	var wg sync.WaitGroup
	for i, source := range r.sources {
		wg.Add(1)
		go func(i int, source OrderSource) {
			defer wg.Done()
			orders, err := source.GetOrders(ctx, account, chainID)
			if err != nil {
				errs[i] = fmt.Errorf("source %s: %w", source.Name(), err)
				return
			}
			results[i] = orders
		}(i, source)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			logger.WithError(err).Warn("order sync aborted, keeping previous snapshot")
			return nil, err
		}
	}

	var merged []model.Order
	for _, orders := range results {
		merged = append(merged, orders...)
	}
	for i := range merged {
		merged[i].Account = account
		merged[i].ChainID = chainID
		merged[i].Exchange = r.exchange
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	previous, err := r.cache.FindByScope(ctx, account, chainID, r.exchange)
	if err != nil {
		return nil, err
	}
	r.emitSignals(previous, merged)

	if err := r.cache.Replace(ctx, account, chainID, r.exchange, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// emitSignals diffs two snapshots. New fills are detected per order by
// comparing fill counts; every fill beyond the previous count is reported.
func (r *Reconciler) emitSignals(previous, current []model.Order) {
	prevByID := make(map[string]model.Order, len(previous))
	for _, order := range previous {
		prevByID[order.ID] = order
	}

	balancesStale := false
	for _, order := range current {
		prev, known := prevByID[order.ID]

		prevFills := 0
		if known {
			prevFills = len(prev.Fills)
		}
		if len(order.Fills) > prevFills {
			balancesStale = true
			if r.signals.OnOrderFilled != nil {
				for _, fill := range order.Fills[prevFills:] {
					r.signals.OnOrderFilled(order, fill)
				}
			}
		}

		if known && prev.Status != order.Status {
			if r.signals.OnOrderStatusChanged != nil {
				r.signals.OnOrderStatusChanged(order, prev.Status)
			}
			if order.Status == model.OrderStatusCompleted || order.Status == model.OrderStatusCanceled {
				balancesStale = true
			}
		}
	}

	if balancesStale && r.signals.OnBalancesStale != nil {
		r.signals.OnBalancesStale()
	}
}

// InsertOptimistic caches a just-submitted order before the sources have
// indexed it, so the next read sees it immediately. The following sync
// overwrites it with the authoritative view.
func (r *Reconciler) InsertOptimistic(ctx context.Context, order model.Order) error {
	order.Account = strings.ToLower(order.Account)
	order.Exchange = r.exchange
	if order.Status == "" {
		order.Status = model.OrderStatusOpen
	}
	return r.cache.Upsert(ctx, &order)
}
