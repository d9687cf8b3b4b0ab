package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCalculateLineRoundsPerLine(t *testing.T) {
	line := CalculateLine(decimal.RequireFromString("0.335"), decimal.NewFromInt(19), 3)
	require.Equal(t, "1.01", line.Subtotal.String())
	require.Equal(t, "0.19", line.IVAAmount.String())
	require.Equal(t, "1.20", line.Total.String())
	require.Equal(t, "0.34", line.UnitValue.String())
}

func TestSummarizeEmptyCart(t *testing.T) {
	summary := Summarize(uuid.New(), nil)
	require.NotNil(t, summary.Items)
	require.Zero(t, summary.TotalQuantity)
	require.Equal(t, "0.00", summary.TotalPrice.String())
}
