package cart

import (
	"testing"

	"gearup-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(productID string, qty int, price string) models.CartLine {
	return models.CartLine{
		ProductID:  productID,
		Qty:        qty,
		PriceAtAdd: decimal.RequireFromString(price),
	}
}

func TestMergeLine_NewProductAppends(t *testing.T) {
	lines := []models.CartLine{line("prod-a", 2, "10.00")}

	out := mergeLine(lines, line("prod-b", 1, "5.00"))

	require.Len(t, out, 2)
	assert.Equal(t, "prod-a", out[0].ProductID)
	assert.Equal(t, "prod-b", out[1].ProductID)
}

func TestMergeLine_ExistingProductMergesInPlace(t *testing.T) {
	lines := []models.CartLine{
		line("prod-a", 2, "10.00"),
		line("prod-b", 1, "5.00"),
	}

	// A repriced product still merges at the original position with the
	// originally recorded price.
	out := mergeLine(lines, line("prod-a", 3, "12.00"))

	require.Len(t, out, 2)
	assert.Equal(t, "prod-a", out[0].ProductID)
	assert.Equal(t, 5, out[0].Qty)
	assert.True(t, out[0].PriceAtAdd.Equal(decimal.RequireFromString("10.00")))
}

func TestSetLine_LowersQtyInPlace(t *testing.T) {
	lines := []models.CartLine{
		line("prod-a", 5, "10.00"),
		line("prod-b", 1, "5.00"),
	}

	// Setting the quantity keeps the line's position and the originally
	// recorded price, even when the caller passes a newer price.
	out := setLine(lines, line("prod-a", 2, "12.00"))

	require.Len(t, out, 2)
	assert.Equal(t, "prod-a", out[0].ProductID)
	assert.Equal(t, 2, out[0].Qty)
	assert.True(t, out[0].PriceAtAdd.Equal(decimal.RequireFromString("10.00")))
}

func TestSetLine_AbsentProductAppends(t *testing.T) {
	lines := []models.CartLine{line("prod-a", 2, "10.00")}

	out := setLine(lines, line("prod-b", 3, "5.00"))

	require.Len(t, out, 2)
	assert.Equal(t, "prod-b", out[1].ProductID)
	assert.Equal(t, 3, out[1].Qty)
	assert.True(t, out[1].PriceAtAdd.Equal(decimal.RequireFromString("5.00")))
}

func TestRemoveLine(t *testing.T) {
	lines := []models.CartLine{
		line("prod-a", 2, "10.00"),
		line("prod-b", 1, "5.00"),
		line("prod-c", 4, "2.00"),
	}

	out := removeLine(lines, "prod-b")

	require.Len(t, out, 2)
	assert.Equal(t, "prod-a", out[0].ProductID)
	assert.Equal(t, "prod-c", out[1].ProductID)
}

func TestRemoveLine_AbsentProductIsNoop(t *testing.T) {
	lines := []models.CartLine{line("prod-a", 2, "10.00")}

	out := removeLine(lines, "prod-x")

	require.Len(t, out, 1)
}
