package batch

import (
	"context"
	"fmt"
	"sync"

	"sku-batch/internal/infra/logx"
)

// MaxOrdinal is the highest marketplace image position.
const MaxOrdinal = 12

// OrderSaver persists the complete ordinal map of a SKU. The service offers
// no delta write, so the whole map is replaced every time.
type OrderSaver interface {
	SaveImageOrders(ctx context.Context, sku string, orders map[string]int) error
}

// OrderAssigner enforces the image-ordering invariant: per SKU, at most one
// filename per ordinal and one ordinal per filename. Assignments for the
// same SKU are serialized to avoid lost updates on the whole-map replace;
// distinct SKUs proceed concurrently.
type OrderAssigner struct {
	cache *Cache
	store OrderSaver

	mu     sync.Mutex
	perSku map[string]*sync.Mutex
}

func NewOrderAssigner(cache *Cache, store OrderSaver) *OrderAssigner {
	return &OrderAssigner{cache: cache, store: store, perSku: make(map[string]*sync.Mutex)}
}

// Assign gives filename the ordinal. Assigning the ordinal it already holds
// clears it (toggle-off); assigning an ordinal held by another filename
// evicts that filename first. The resulting map is persisted whole before
// Assign returns. On persist failure the in-memory map keeps the new state
// and the error is surfaced; the slice stays stale-marked until the next
// successful refresh.
func (a *OrderAssigner) Assign(ctx context.Context, sku, filename string, ordinal int) (map[string]int, error) {
	if ordinal < 1 || ordinal > MaxOrdinal {
		return nil, fmt.Errorf("ordinal %d out of range 1..%d", ordinal, MaxOrdinal)
	}
	lock := a.lockFor(sku)
	lock.Lock()
	defer lock.Unlock()

	orders := a.cache.Get(sku).ImageOrders
	if orders == nil {
		orders = make(map[string]int)
	}
	if orders[filename] == ordinal {
		delete(orders, filename)
	} else {
		for f, o := range orders {
			if o == ordinal {
				delete(orders, f)
			}
		}
		orders[filename] = ordinal
	}

	a.cache.SetSlice(sku, SliceImageOrders, orders)
	if err := a.store.SaveImageOrders(ctx, sku, orders); err != nil {
		a.cache.MarkError(sku, SliceImageOrders, err)
		logx.L().Warn().Str("sku", sku).Str("file", filename).Int("ordinal", ordinal).
			Err(err).Msg("image order persist failed, memory state kept")
		return a.cache.Get(sku).ImageOrders, err
	}
	return a.cache.Get(sku).ImageOrders, nil
}

func (a *OrderAssigner) lockFor(sku string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.perSku[sku]
	if !ok {
		l = &sync.Mutex{}
		a.perSku[sku] = l
	}
	return l
}
