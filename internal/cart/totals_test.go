package cart

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/feastlyapp/feastly-backend/pkg/types"
)

func requireDecimal(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: expected %s, got %s", label, want, got)
	}
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	t.Parallel()

	totals := ComputeTotals(nil)

	if totals.ItemCount != 0 {
		t.Fatalf("expected zero item count, got %d", totals.ItemCount)
	}
	requireDecimal(t, totals.Subtotal, "0", "subtotal")
	requireDecimal(t, totals.Tax, "0", "tax")
	requireDecimal(t, totals.DeliveryFee, "0", "delivery fee")
	requireDecimal(t, totals.Discount, "0", "discount")
	requireDecimal(t, totals.Total, "0", "total")
}

func TestComputeTotalsAtDiscountBoundary(t *testing.T) {
	t.Parallel()

	// subtotal exactly 25: fee applies, discount does not
	st := AddItem(NewState(), wings(), 2, nil)
	st = AddItem(st, wings(), 3, nil)
	totals := ComputeTotals(st.Items)

	if totals.ItemCount != 5 {
		t.Fatalf("expected item count 5, got %d", totals.ItemCount)
	}
	requireDecimal(t, totals.Subtotal, "25", "subtotal")
	requireDecimal(t, totals.Tax, "2.00", "tax")
	requireDecimal(t, totals.DeliveryFee, "5.99", "delivery fee")
	requireDecimal(t, totals.Discount, "0", "discount")
	requireDecimal(t, totals.Total, "32.99", "total")
}

func TestComputeTotalsAboveDiscountThreshold(t *testing.T) {
	t.Parallel()

	st := AddItem(NewState(), CatalogItem{ID: "feast", Name: "Family Feast", Price: decimal.NewFromInt(30)}, 1, nil)
	totals := ComputeTotals(st.Items)

	requireDecimal(t, totals.Subtotal, "30", "subtotal")
	requireDecimal(t, totals.Tax, "2.40", "tax")
	requireDecimal(t, totals.DeliveryFee, "5.99", "delivery fee")
	requireDecimal(t, totals.Discount, "5.99", "discount")
	requireDecimal(t, totals.Total, "32.40", "total")
}

func TestComputeTotalsIncludesAddOnPrices(t *testing.T) {
	t.Parallel()

	cust := types.Customizations{
		"addOns": []any{
			map[string]any{"name": "extra cheese", "price": 1.50},
			map[string]any{"name": "bacon", "price": 2.00},
		},
		"spice": "medium",
	}
	st := AddItem(NewState(), CatalogItem{ID: "burger", Name: "Burger", Price: decimal.NewFromInt(10)}, 2, cust)
	totals := ComputeTotals(st.Items)

	// (10 + 1.50 + 2.00) * 2 = 27
	requireDecimal(t, totals.Subtotal, "27", "subtotal")
	requireDecimal(t, totals.Discount, "5.99", "discount")
}

func TestComputeTotalsAfterQuantityDrop(t *testing.T) {
	t.Parallel()

	st := AddItem(NewState(), wings(), 2, nil)
	st = AddItem(st, CatalogItem{ID: "cola", Price: decimal.NewFromInt(2)}, 3, nil)
	st = UpdateQuantity(st, st.Items[0].LineID, 0)

	totals := ComputeTotals(st.Items)
	if totals.ItemCount != 3 {
		t.Fatalf("expected remaining count 3, got %d", totals.ItemCount)
	}
	requireDecimal(t, totals.Subtotal, "6", "subtotal")
}
