package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feastlyapp/feastly-backend/pkg/types"
)

// LineItem is one distinct purchasable entry in a cart: a catalog item plus
// the customization payload it was added with. Items sharing an ItemID but
// carrying different customizations are separate lines.
type LineItem struct {
	// LineID is the runtime handle for update/remove operations. It is
	// assigned at insertion and never persisted.
	LineID         string
	ItemID         string
	Name           string
	Price          decimal.Decimal
	Quantity       int
	Customizations types.Customizations
}

// State is an immutable snapshot of the cart. Reducer operations return a new
// State and leave their input untouched.
type State struct {
	Items []LineItem
}

// NewState returns an empty cart state.
func NewState() State {
	return State{Items: []LineItem{}}
}

// CatalogItem carries the fields snapshotted onto a line at add time.
type CatalogItem struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// newLineID builds a process-unique handle. The item id prefix keeps handles
// readable in logs; the uuid suffix guarantees uniqueness even for adds that
// land in the same millisecond.
func newLineID(itemID string) string {
	return itemID + "-" + uuid.NewString()
}

// AddItem appends a line for the given catalog item, or merges into an
// existing line when both the item id and the canonical customization payload
// match. Quantity validation is the caller's job; merge sums quantities
// without a cap.
func AddItem(prev State, item CatalogItem, quantity int, customizations types.Customizations) State {
	canonical := customizations.Canonical()

	next := make([]LineItem, len(prev.Items))
	copy(next, prev.Items)

	for i, line := range next {
		if line.ItemID == item.ID && line.Customizations.Canonical() == canonical {
			line.Quantity += quantity
			next[i] = line
			return State{Items: next}
		}
	}

	next = append(next, LineItem{
		LineID:         newLineID(item.ID),
		ItemID:         item.ID,
		Name:           item.Name,
		Price:          item.Price,
		Quantity:       quantity,
		Customizations: customizations.Clone(),
	})
	return State{Items: next}
}

// UpdateQuantity sets the quantity of the line identified by lineID, then
// drops every line whose quantity fell to zero or below. An unknown lineID
// leaves the state unchanged.
func UpdateQuantity(prev State, lineID string, quantity int) State {
	found := false
	next := make([]LineItem, 0, len(prev.Items))
	for _, line := range prev.Items {
		if line.LineID == lineID {
			found = true
			line.Quantity = quantity
		}
		if line.Quantity > 0 {
			next = append(next, line)
		}
	}
	if !found {
		return prev
	}
	return State{Items: next}
}

// RemoveItem drops the line identified by lineID. Removing an absent line is
// a no-op.
func RemoveItem(prev State, lineID string) State {
	next := make([]LineItem, 0, len(prev.Items))
	removed := false
	for _, line := range prev.Items {
		if line.LineID == lineID {
			removed = true
			continue
		}
		next = append(next, line)
	}
	if !removed {
		return prev
	}
	return State{Items: next}
}

// Clear resets the cart unconditionally.
func Clear(State) State {
	return NewState()
}
