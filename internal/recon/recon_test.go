package recon

import (
	"math"
	"testing"
	"time"

	"github.com/OscarIvaVP/inventario-ventas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func saleLine(saleID, product, size string, qty, total float64, status string) models.SaleLine {
	return models.SaleLine{
		SaleID:        saleID,
		Timestamp:     now,
		Product:       product,
		Size:          size,
		Customer:      "Cliente",
		Quantity:      qty,
		LineTotal:     total,
		PaymentStatus: status,
	}
}

func purchaseLine(purchaseID, product, size string, qty, cost, shipping float64) models.PurchaseLine {
	return models.PurchaseLine{
		PurchaseID:   purchaseID,
		Timestamp:    now,
		Product:      product,
		Size:         size,
		Supplier:     "Proveedor",
		Quantity:     qty,
		LineCost:     cost,
		ShippingCost: shipping,
	}
}

func payment(saleID string, amount float64) models.Payment {
	return models.Payment{
		PaymentID: models.NewPaymentID(),
		SaleID:    saleID,
		Timestamp: now,
		Amount:    amount,
	}
}

func TestRecomputeInventoryStockIdentity(t *testing.T) {
	purchases := []models.PurchaseLine{
		purchaseLine("COMPRA-AAAA0001", "Bata", "S", 10, 100, 5),
		purchaseLine("COMPRA-AAAA0002", "Bata", "S", 7, 70, 5),
		purchaseLine("COMPRA-AAAA0002", "Bata", "M", 3, 30, 5),
	}
	sales := []models.SaleLine{
		saleLine("VENTA-BBBB0001", "Bata", "S", 4, 80, models.PaymentStatusPaid),
		saleLine("VENTA-BBBB0002", "Bata", "S", 2, 40, models.PaymentStatusOwed),
	}

	snapshot := RecomputeInventory(sales, purchases, now)
	require.Len(t, snapshot, 2)

	bySKU := make(map[string]models.InventorySnapshot)
	for _, row := range snapshot {
		bySKU[row.SKU] = row
		assert.Equal(t, row.UnitsPurchased-row.UnitsSold, row.CurrentStock)
		assert.Equal(t, now, row.LastUpdated)
	}

	assert.Equal(t, 17.0, bySKU["Bata - S"].UnitsPurchased)
	assert.Equal(t, 6.0, bySKU["Bata - S"].UnitsSold)
	assert.Equal(t, 11.0, bySKU["Bata - S"].CurrentStock)

	// SKU purchased but never sold gets zero on the missing side
	assert.Equal(t, 3.0, bySKU["Bata - M"].UnitsPurchased)
	assert.Equal(t, 0.0, bySKU["Bata - M"].UnitsSold)
	assert.Equal(t, 3.0, bySKU["Bata - M"].CurrentStock)
}

func TestRecomputeInventorySoldOnlySKU(t *testing.T) {
	sales := []models.SaleLine{
		saleLine("VENTA-BBBB0003", "Gorro", "U", 5, 50, models.PaymentStatusPaid),
	}

	snapshot := RecomputeInventory(sales, nil, now)
	require.Len(t, snapshot, 1)
	assert.Equal(t, 0.0, snapshot[0].UnitsPurchased)
	assert.Equal(t, 5.0, snapshot[0].UnitsSold)
	assert.Equal(t, -5.0, snapshot[0].CurrentStock)
}

func TestRecomputeInventoryEmptyLogs(t *testing.T) {
	snapshot := RecomputeInventory(nil, nil, now)
	assert.NotNil(t, snapshot)
	assert.Empty(t, snapshot)
}

func TestRecomputeInventoryIdempotent(t *testing.T) {
	purchases := []models.PurchaseLine{
		purchaseLine("COMPRA-AAAA0003", "Bata", "L", 8, 80, 10),
		purchaseLine("COMPRA-AAAA0003", "Bata", "S", 2, 20, 10),
	}
	sales := []models.SaleLine{
		saleLine("VENTA-BBBB0004", "Bata", "L", 3, 60, models.PaymentStatusOwed),
	}

	first := RecomputeInventory(sales, purchases, now)
	second := RecomputeInventory(sales, purchases, now)
	assert.Equal(t, first, second)
}

func TestRecomputeReceivablesPartialThenFull(t *testing.T) {
	sales := []models.SaleLine{
		saleLine("VENTA-CCCC0001", "Bata", "S", 1, 100.00, models.PaymentStatusOwed),
	}

	outstanding := RecomputeReceivables(sales, []models.Payment{payment("VENTA-CCCC0001", 60.00)})
	assert.InDelta(t, 40.00, outstanding["VENTA-CCCC0001"], 1e-9)

	outstanding = RecomputeReceivables(sales, []models.Payment{
		payment("VENTA-CCCC0001", 60.00),
		payment("VENTA-CCCC0001", 40.00),
	})
	assert.NotContains(t, outstanding, "VENTA-CCCC0001")

	settled := SettledSales(sales, []models.Payment{
		payment("VENTA-CCCC0001", 60.00),
		payment("VENTA-CCCC0001", 40.00),
	})
	assert.Equal(t, []string{"VENTA-CCCC0001"}, settled)
}

func TestRecomputeReceivablesWithinEpsilon(t *testing.T) {
	sales := []models.SaleLine{
		saleLine("VENTA-CCCC0002", "Bata", "S", 1, 100.00, models.PaymentStatusPartiallyPaid),
	}
	payments := []models.Payment{payment("VENTA-CCCC0002", 99.999)}

	outstanding := RecomputeReceivables(sales, payments)
	assert.Empty(t, outstanding)

	settled := SettledSales(sales, payments)
	assert.Equal(t, []string{"VENTA-CCCC0002"}, settled)
}

func TestRecomputeReceivablesOverpayment(t *testing.T) {
	sales := []models.SaleLine{
		saleLine("VENTA-CCCC0003", "Bata", "S", 1, 100.00, models.PaymentStatusPartiallyPaid),
	}
	payments := []models.Payment{payment("VENTA-CCCC0003", 150.00)}

	// over-payment is tolerated, never surfaces as a negative balance
	outstanding := RecomputeReceivables(sales, payments)
	assert.Empty(t, outstanding)
}

func TestRecomputeReceivablesLegacyPaidSale(t *testing.T) {
	sales := []models.SaleLine{
		saleLine("VENTA-CCCC0004", "Bata", "S", 1, 100.00, models.PaymentStatusPaid),
	}

	outstanding := RecomputeReceivables(sales, nil)
	assert.Empty(t, outstanding)
}

func TestShippingCountedOncePerPurchase(t *testing.T) {
	purchases := []models.PurchaseLine{
		purchaseLine("COMPRA-DDDD0001", "Bata", "S", 2, 20, 15),
		purchaseLine("COMPRA-DDDD0001", "Bata", "M", 3, 30, 15),
		purchaseLine("COMPRA-DDDD0001", "Bata", "L", 5, 50, 15),
	}

	summary := RecomputePeriodFinancials(nil, purchases, nil, PeriodAll)
	assert.InDelta(t, 20+30+50+15, summary.TotalExpense, 1e-9)
	assert.InDelta(t, -115, summary.GrossProfit, 1e-9)
}

func TestLegacyPaidSaleIncomeCountedOnce(t *testing.T) {
	sales := []models.SaleLine{
		saleLine("VENTA-EEEE0001", "Bata", "S", 2, 200.00, models.PaymentStatusPaid),
	}

	summary := RecomputePeriodFinancials(sales, nil, nil, now.Format("2006-01"))
	assert.InDelta(t, 200.00, summary.RealIncome, 1e-9)

	// a payment mistakenly added later demotes the sale from the legacy set:
	// income counts the explicit payments only, never both
	summary = RecomputePeriodFinancials(sales, nil, []models.Payment{payment("VENTA-EEEE0001", 200.00)}, now.Format("2006-01"))
	assert.InDelta(t, 200.00, summary.RealIncome, 1e-9)
}

func TestPendingSaleExcludedFromIncome(t *testing.T) {
	sales := []models.SaleLine{
		saleLine("VENTA-EEEE0002", "Bata", "S", 1, 100.00, models.PaymentStatusOwed),
	}

	summary := RecomputePeriodFinancials(sales, nil, nil, PeriodAll)
	assert.Zero(t, summary.RealIncome)
	assert.InDelta(t, 100.00, summary.ReceivablesTotal, 1e-9)
}

func TestPeriodFiltering(t *testing.T) {
	may := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	june := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	paymentAt := func(saleID string, amount float64, ts time.Time) models.Payment {
		p := payment(saleID, amount)
		p.Timestamp = ts
		return p
	}

	sales := []models.SaleLine{
		saleLine("VENTA-FFFF0001", "Bata", "S", 1, 100.00, models.PaymentStatusOwed),
	}
	payments := []models.Payment{
		paymentAt("VENTA-FFFF0001", 30.00, may),
		paymentAt("VENTA-FFFF0001", 20.00, june),
	}

	maySummary := RecomputePeriodFinancials(sales, nil, payments, "2025-05")
	assert.InDelta(t, 30.00, maySummary.RealIncome, 1e-9)

	juneSummary := RecomputePeriodFinancials(sales, nil, payments, "2025-06")
	assert.InDelta(t, 20.00, juneSummary.RealIncome, 1e-9)

	// receivables ignore the period filter
	assert.InDelta(t, 50.00, maySummary.ReceivablesTotal, 1e-9)
	assert.InDelta(t, 50.00, juneSummary.ReceivablesTotal, 1e-9)

	allSummary := RecomputePeriodFinancials(sales, nil, payments, PeriodAll)
	assert.InDelta(t, 50.00, allSummary.RealIncome, 1e-9)
}

func TestAvailablePeriods(t *testing.T) {
	may := saleLine("VENTA-GGGG0001", "Bata", "S", 1, 10, models.PaymentStatusPaid)
	may.Timestamp = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	purchase := purchaseLine("COMPRA-GGGG0001", "Bata", "S", 1, 10, 0)
	purchase.Timestamp = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	periods := AvailablePeriods([]models.SaleLine{may}, []models.PurchaseLine{purchase}, nil)
	assert.Equal(t, []string{"2025-05", "2025-03"}, periods)
}

func TestMalformedNumericsContributeZero(t *testing.T) {
	purchases := []models.PurchaseLine{
		purchaseLine("COMPRA-HHHH0001", "Bata", "S", 10, 100, 5),
		purchaseLine("COMPRA-HHHH0002", "Bata", "S", math.NaN(), math.NaN(), math.Inf(1)),
	}
	sales := []models.SaleLine{
		saleLine("VENTA-HHHH0001", "Bata", "S", 4, 80, models.PaymentStatusOwed),
		saleLine("VENTA-HHHH0002", "Bata", "S", math.Inf(-1), math.NaN(), models.PaymentStatusOwed),
	}

	snapshot := RecomputeInventory(sales, purchases, now)
	require.Len(t, snapshot, 1)
	assert.InDelta(t, 10.0, snapshot[0].UnitsPurchased, 1e-9)
	assert.InDelta(t, 4.0, snapshot[0].UnitsSold, 1e-9)
	assert.InDelta(t, 6.0, snapshot[0].CurrentStock, 1e-9)

	payments := []models.Payment{
		payment("VENTA-HHHH0001", 80),
		payment("VENTA-HHHH0001", math.NaN()),
	}

	summary := RecomputePeriodFinancials(sales, purchases, payments, PeriodAll)
	assert.InDelta(t, 80.00, summary.RealIncome, 1e-9)
	// the corrupt purchase line still carries its id, so only the finite
	// first purchase's costs survive
	assert.InDelta(t, 105.00, summary.TotalExpense, 1e-9)

	outstanding := RecomputeReceivables(sales, payments)
	_, open := outstanding["VENTA-HHHH0002"]
	assert.False(t, open)
	_, settled := outstanding["VENTA-HHHH0001"]
	assert.False(t, settled)
}
