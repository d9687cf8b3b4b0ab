package cart

import (
	"github.com/davivienda-ecommerce/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineCalculation prices one cart line. Amounts are rounded to two places
// per line and totals are sums of the rounded lines.
type LineCalculation struct {
	UnitValue types.Money     `json:"unit_value"`
	IVAPct    decimal.Decimal `json:"iva_pct"`
	Quantity  int             `json:"quantity"`
	Subtotal  types.Money     `json:"subtotal"`
	IVAAmount types.Money     `json:"iva_amount"`
	Total     types.Money     `json:"total"`
}

// CalculateLine computes subtotal = unit*qty, iva = subtotal*pct/100 and
// total = subtotal+iva.
func CalculateLine(unitValue, ivaPct decimal.Decimal, quantity int) LineCalculation {
	subtotal := types.NewMoney(unitValue.Mul(decimal.NewFromInt(int64(quantity))))
	iva := types.NewMoney(subtotal.Mul(ivaPct).Div(hundred))
	return LineCalculation{
		UnitValue: types.NewMoney(unitValue),
		IVAPct:    ivaPct,
		Quantity:  quantity,
		Subtotal:  subtotal,
		IVAAmount: iva,
		Total:     types.NewMoney(subtotal.Add(iva.Decimal)),
	}
}

// Summarize sums the line calculations of items. It has no side effects.
func Summarize(cartID uuid.UUID, items []ItemDTO) *Summary {
	summary := &Summary{
		CartID:        cartID,
		Items:         items,
		TotalSubtotal: types.NewMoney(decimal.Zero),
		TotalIVA:      types.NewMoney(decimal.Zero),
		TotalPrice:    types.NewMoney(decimal.Zero),
	}
	if summary.Items == nil {
		summary.Items = []ItemDTO{}
	}
	for _, item := range items {
		summary.TotalQuantity += item.Quantity
		summary.TotalSubtotal = types.NewMoney(summary.TotalSubtotal.Add(item.Calculation.Subtotal.Decimal))
		summary.TotalIVA = types.NewMoney(summary.TotalIVA.Add(item.Calculation.IVAAmount.Decimal))
		summary.TotalPrice = types.NewMoney(summary.TotalPrice.Add(item.Calculation.Total.Decimal))
	}
	return summary
}
