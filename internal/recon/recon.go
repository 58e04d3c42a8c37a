// Package recon recomputes the derived views of the business ledgers: stock
// per SKU, outstanding receivables per sale, and period financials. Every
// function is a pure full rescan over the flat logs - nothing here is
// incremental, so recomputing twice from the same input yields the same
// output.
package recon

import (
	"math"
	"sort"
	"time"

	"github.com/OscarIvaVP/inventario-ventas/internal/models"
)

// Epsilon is the money comparison tolerance. Balances at or below it are
// treated as fully paid so floating-point noise never shows up as a phantom
// receivable.
const Epsilon = 0.01

// PeriodAll selects the whole history instead of one calendar month.
const PeriodAll = "all"

// periodLayout formats a timestamp into the "YYYY-MM" period key.
const periodLayout = "2006-01"

// RecomputeInventory rebuilds the per-SKU stock snapshot from the full sales
// and purchase logs. SKUs present on only one side get zero for the missing
// side. Empty logs produce an empty (non-nil) snapshot. Rows are ordered by
// SKU so the persisted table is stable across recomputes.
func RecomputeInventory(sales []models.SaleLine, purchases []models.PurchaseLine, now time.Time) []models.InventorySnapshot {
	purchased := make(map[string]float64)
	for _, p := range purchases {
		purchased[models.BuildSKU(p.Product, p.Size)] += sanitize(p.Quantity)
	}

	sold := make(map[string]float64)
	for _, s := range sales {
		sold[models.BuildSKU(s.Product, s.Size)] += sanitize(s.Quantity)
	}

	skus := make(map[string]struct{}, len(purchased)+len(sold))
	for sku := range purchased {
		skus[sku] = struct{}{}
	}
	for sku := range sold {
		skus[sku] = struct{}{}
	}

	snapshot := make([]models.InventorySnapshot, 0, len(skus))
	for sku := range skus {
		product, size := models.SplitSKU(sku)
		snapshot = append(snapshot, models.InventorySnapshot{
			SKU:            sku,
			Product:        product,
			Size:           size,
			UnitsPurchased: purchased[sku],
			UnitsSold:      sold[sku],
			CurrentStock:   purchased[sku] - sold[sku],
			LastUpdated:    now,
		})
	}

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].SKU < snapshot[j].SKU })
	return snapshot
}

// RecomputeReceivables derives the outstanding balance per sale from sale
// totals minus explicit payments. Sales recorded as Paid before the payments
// sheet existed carry no Payment rows; their status is the record of full
// payment, so they owe nothing. Balances within Epsilon of zero are dropped.
func RecomputeReceivables(sales []models.SaleLine, payments []models.Payment) map[string]float64 {
	owed := make(map[string]float64)
	legacyPaid := legacyPaidSales(sales, payments)
	for _, s := range sales {
		owed[s.SaleID] += sanitize(s.LineTotal)
	}

	paid := make(map[string]float64)
	for _, p := range payments {
		paid[p.SaleID] += sanitize(p.Amount)
	}

	outstanding := make(map[string]float64)
	for saleID, total := range owed {
		if legacyPaid[saleID] {
			continue
		}
		balance := total - paid[saleID]
		if balance > Epsilon {
			outstanding[saleID] = balance
		}
	}
	return outstanding
}

// SettledSales returns the sale ids whose balance dropped within Epsilon of
// zero but whose lines still carry a pending status. The caller is expected
// to advance those sales to Paid in the backing store; the status column is
// a cached classification, not the source of truth.
func SettledSales(sales []models.SaleLine, payments []models.Payment) []string {
	outstanding := RecomputeReceivables(sales, payments)

	pending := make(map[string]bool)
	for _, s := range sales {
		if s.PaymentStatus != models.PaymentStatusPaid {
			pending[s.SaleID] = true
		}
	}

	var settled []string
	for saleID := range pending {
		if _, still := outstanding[saleID]; !still {
			settled = append(settled, saleID)
		}
	}
	sort.Strings(settled)
	return settled
}

// RecomputePeriodFinancials derives income, expense and profit for one
// calendar month ("YYYY-MM") or the whole history (PeriodAll).
//
// Real income splits along schema history: explicit Payment rows in the
// period, plus line totals of legacy sales that were marked Paid before the
// payments sheet existed and therefore have no Payment row at all. A sale id
// present in both sets counts only through its payments. Shipping cost is
// stored on every line of a purchase and is de-duplicated by purchase id
// before summing. ReceivablesTotal always covers the full history regardless
// of the selected period.
func RecomputePeriodFinancials(sales []models.SaleLine, purchases []models.PurchaseLine, payments []models.Payment, period string) models.FinancialSummary {
	legacyPaid := legacyPaidSales(sales, payments)

	var income float64
	for _, p := range payments {
		if inPeriod(p.Timestamp, period) {
			income += sanitize(p.Amount)
		}
	}
	for _, s := range sales {
		if legacyPaid[s.SaleID] && inPeriod(s.Timestamp, period) {
			income += sanitize(s.LineTotal)
		}
	}

	var expense float64
	shippingSeen := make(map[string]bool)
	for _, p := range purchases {
		if !inPeriod(p.Timestamp, period) {
			continue
		}
		expense += sanitize(p.LineCost)
		if !shippingSeen[p.PurchaseID] {
			expense += sanitize(p.ShippingCost)
			shippingSeen[p.PurchaseID] = true
		}
	}

	var receivables float64
	for _, balance := range RecomputeReceivables(sales, payments) {
		receivables += balance
	}

	return models.FinancialSummary{
		Period:           period,
		RealIncome:       income,
		TotalExpense:     expense,
		GrossProfit:      income - expense,
		ReceivablesTotal: receivables,
	}
}

// AvailablePeriods lists the distinct "YYYY-MM" periods present across the
// three logs, newest first.
func AvailablePeriods(sales []models.SaleLine, purchases []models.PurchaseLine, payments []models.Payment) []string {
	seen := make(map[string]struct{})
	for _, s := range sales {
		seen[s.Timestamp.Format(periodLayout)] = struct{}{}
	}
	for _, p := range purchases {
		seen[p.Timestamp.Format(periodLayout)] = struct{}{}
	}
	for _, p := range payments {
		seen[p.Timestamp.Format(periodLayout)] = struct{}{}
	}

	periods := make([]string, 0, len(seen))
	for p := range seen {
		periods = append(periods, p)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	return periods
}

// legacyPaidSales identifies sales recorded as fully paid via status alone:
// every line marked Paid and no Payment row anywhere in the log. The moment
// any Payment row references the sale, it leaves the legacy set and income
// for it is counted through payments only, so a mistakenly added payment
// cannot double-count the sale.
func legacyPaidSales(sales []models.SaleLine, payments []models.Payment) map[string]bool {
	hasPayment := make(map[string]bool)
	for _, p := range payments {
		hasPayment[p.SaleID] = true
	}

	legacy := make(map[string]bool)
	for _, s := range sales {
		if hasPayment[s.SaleID] {
			continue
		}
		if s.PaymentStatus == models.PaymentStatusPaid {
			if _, seen := legacy[s.SaleID]; !seen {
				legacy[s.SaleID] = true
			}
		} else {
			// one pending line disqualifies the whole sale
			legacy[s.SaleID] = false
		}
	}

	for saleID, ok := range legacy {
		if !ok {
			delete(legacy, saleID)
		}
	}
	return legacy
}

func inPeriod(ts time.Time, period string) bool {
	if period == PeriodAll || period == "" {
		return true
	}
	return ts.Format(periodLayout) == period
}

// sanitize coerces malformed numerics to zero instead of rejecting the row,
// mirroring how the persisted logs have always been aggregated.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
