package domain

import "sort"

// CartSnapshot maps product id to quantity. Keys always carry a positive quantity.
type CartSnapshot map[string]int

// CartItem is the array form of a cart line used at the HTTP boundary.
type CartItem struct {
	ProductID string `json:"product" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// CartDelta is the change for one product between two snapshots.
// Positive Change claims stock, negative releases it.
type CartDelta struct {
	ProductID string
	Change    int
}

func (d CartDelta) IsClaim() bool   { return d.Change > 0 }
func (d CartDelta) IsRelease() bool { return d.Change < 0 }

// SnapshotFromItems converts boundary items into a snapshot.
// Zero quantities are dropped; negative quantities and repeated products are rejected.
func SnapshotFromItems(items []CartItem) (CartSnapshot, error) {
	snapshot := make(CartSnapshot, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			return nil, InvalidInput("cart item without product id")
		}
		if item.Quantity < 0 {
			return nil, InvalidInput("negative quantity %d for product %s", item.Quantity, item.ProductID)
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, InvalidInput("product %s listed more than once", item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
		if item.Quantity > 0 {
			snapshot[item.ProductID] = item.Quantity
		}
	}
	return snapshot, nil
}

// Normalize returns a copy without zero entries, or an error for negative quantities.
func (c CartSnapshot) Normalize() (CartSnapshot, error) {
	out := make(CartSnapshot, len(c))
	for id, qty := range c {
		if id == "" {
			return nil, InvalidInput("cart item without product id")
		}
		if qty < 0 {
			return nil, InvalidInput("negative quantity %d for product %s", qty, id)
		}
		if qty > 0 {
			out[id] = qty
		}
	}
	return out, nil
}

// Items returns the array form sorted by product id.
func (c CartSnapshot) Items() []CartItem {
	items := make([]CartItem, 0, len(c))
	for _, id := range c.ProductIDs() {
		items = append(items, CartItem{ProductID: id, Quantity: c[id]})
	}
	return items
}

func (c CartSnapshot) ProductIDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c CartSnapshot) Clone() CartSnapshot {
	out := make(CartSnapshot, len(c))
	for id, qty := range c {
		out[id] = qty
	}
	return out
}

// Diff computes requested - previous over the union of both key sets, ordered by product id.
// Products whose quantity did not change are reported with a zero Change.
func Diff(previous, requested CartSnapshot) []CartDelta {
	union := make(map[string]struct{}, len(previous)+len(requested))
	for id := range previous {
		union[id] = struct{}{}
	}
	for id := range requested {
		union[id] = struct{}{}
	}

	ids := make([]string, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	deltas := make([]CartDelta, 0, len(ids))
	for _, id := range ids {
		deltas = append(deltas, CartDelta{ProductID: id, Change: requested[id] - previous[id]})
	}
	return deltas
}
