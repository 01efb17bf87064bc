package cart

import "github.com/patelashutosh/bloom-store/internal/domain"

// The functions below never modify their input slice; each returns a new
// item list.

// Add bumps the quantity of an existing line by one or appends a new line
// with quantity 1. The quantity carried by item is ignored.
func Add(items []domain.CartItem, item domain.CartItem) []domain.CartItem {
	return AddN(items, item, 1)
}

// AddN is Add for n units at once. n below 1 leaves the list unchanged.
func AddN(items []domain.CartItem, item domain.CartItem, n int) []domain.CartItem {
	out := clone(items)
	if n < 1 {
		return out
	}
	for i := range out {
		if out[i].ID == item.ID {
			out[i].Quantity += n
			return out
		}
	}
	item.Quantity = n
	return append(out, item)
}

// SetQuantity sets an absolute quantity. Zero or negative removes the line;
// an unknown id leaves the list unchanged.
func SetQuantity(items []domain.CartItem, id string, quantity int) []domain.CartItem {
	if quantity <= 0 {
		return Remove(items, id)
	}
	out := clone(items)
	for i := range out {
		if out[i].ID == id {
			out[i].Quantity = quantity
		}
	}
	return out
}

func Remove(items []domain.CartItem, id string) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

func Clear([]domain.CartItem) []domain.CartItem {
	return []domain.CartItem{}
}

// Normalize coerces a restored item list: lines without an id, with a
// quantity below 1 or with a negative price are dropped and duplicate ids are
// merged by summing their quantities. Order of first appearance is kept.
func Normalize(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 || item.UnitPrice.IsNegative() {
			continue
		}
		if i, ok := index[item.ID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}

func clone(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}
