package models

import "time"

// SaleLine is one line of a finalized sale. All lines of one checkout share
// the same SaleID. Lines are append-only; only PaymentStatus is ever updated
// in place, when a receivable is settled.
type SaleLine struct {
	SaleID        string    `db:"sale_id" json:"sale_id"`
	LineNo        int       `db:"line_no" json:"line_no"`
	Timestamp     time.Time `db:"recorded_at" json:"timestamp"`
	Product       string    `db:"product" json:"product"`
	Size          string    `db:"size" json:"size"`
	Customer      string    `db:"customer" json:"customer"`
	Quantity      float64   `db:"quantity" json:"quantity"`
	UnitPrice     float64   `db:"unit_price" json:"unit_price"`
	LineTotal     float64   `db:"line_total" json:"line_total"`
	PaymentStatus string    `db:"payment_status" json:"payment_status"`
}

// PurchaseLine is one line of a supplier purchase. ShippingCost is recorded
// on every line of the same PurchaseID; aggregations must de-duplicate it by
// purchase before summing.
type PurchaseLine struct {
	PurchaseID   string    `db:"purchase_id" json:"purchase_id"`
	LineNo       int       `db:"line_no" json:"line_no"`
	Timestamp    time.Time `db:"recorded_at" json:"timestamp"`
	Product      string    `db:"product" json:"product"`
	Size         string    `db:"size" json:"size"`
	Supplier     string    `db:"supplier" json:"supplier"`
	Quantity     float64   `db:"quantity" json:"quantity"`
	LineCost     float64   `db:"line_cost" json:"line_cost"`
	ShippingCost float64   `db:"shipping_cost" json:"shipping_cost"`
}

// Payment is a partial or full payment against a sale. A sale may have zero
// payments (legacy sales recorded as fully paid via status alone), one, or
// many.
type Payment struct {
	PaymentID string    `db:"payment_id" json:"payment_id"`
	SaleID    string    `db:"sale_id" json:"sale_id"`
	Timestamp time.Time `db:"recorded_at" json:"timestamp"`
	Amount    float64   `db:"amount" json:"amount"`
}

// InventorySnapshot is one derived stock row, keyed by SKU. The snapshot
// table is fully replaced on every recompute; no history is kept.
type InventorySnapshot struct {
	SKU            string    `db:"sku" json:"sku"`
	Product        string    `db:"product" json:"product"`
	Size           string    `db:"size" json:"size"`
	UnitsPurchased float64   `db:"units_purchased" json:"units_purchased"`
	UnitsSold      float64   `db:"units_sold" json:"units_sold"`
	CurrentStock   float64   `db:"current_stock" json:"current_stock"`
	LastUpdated    time.Time `db:"last_updated" json:"last_updated"`
}

// Product master record. Sizes come from a comma-separated list in the
// source sheets and are stored normalized here.
type Product struct {
	Name         string   `db:"name" json:"name"`
	Sizes        []string `json:"sizes"`
	DefaultPrice float64  `db:"default_price" json:"default_price"`
	DefaultCost  float64  `db:"default_cost" json:"default_cost"`
}

// Client master record.
type Client struct {
	Name string `db:"name" json:"name"`
}

// Supplier master record.
type Supplier struct {
	Name string `db:"name" json:"name"`
}

// FinancialSummary holds the derived figures for one calendar month, or for
// the whole history when Period is "all". ReceivablesTotal is always computed
// over the full unfiltered history regardless of Period.
type FinancialSummary struct {
	Period           string  `json:"period"`
	RealIncome       float64 `json:"real_income"`
	TotalExpense     float64 `json:"total_expense"`
	GrossProfit      float64 `json:"gross_profit"`
	ReceivablesTotal float64 `json:"receivables_total"`
}

// Receivable is the outstanding balance of one pending sale.
type Receivable struct {
	SaleID      string  `json:"sale_id"`
	Customer    string  `json:"customer"`
	Status      string  `json:"status"`
	TotalOwed   float64 `json:"total_owed"`
	TotalPaid   float64 `json:"total_paid"`
	Outstanding float64 `json:"outstanding"`
}

// Payment statuses. A sale only ever advances Owed -> PartiallyPaid -> Paid;
// Paid is terminal. A sale may also be created directly as Paid.
const (
	PaymentStatusPaid          = "Paid"
	PaymentStatusPartiallyPaid = "PartiallyPaid"
	PaymentStatusOwed          = "Owed"
)

// ValidPaymentStatus reports whether s is one of the three payment statuses.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusPartiallyPaid, PaymentStatusOwed:
		return true
	}
	return false
}

// CanAdvanceStatus reports whether a sale's payment status may move from one
// value to another. Regressions (anything away from Paid, or PartiallyPaid
// back to Owed) are rejected.
func CanAdvanceStatus(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case PaymentStatusOwed:
		return to == PaymentStatusPartiallyPaid || to == PaymentStatusPaid
	case PaymentStatusPartiallyPaid:
		return to == PaymentStatusPaid
	}
	return false
}

// CartItem is one pending line in a session-scoped sale or purchase cart.
type CartItem struct {
	Product   string  `json:"product" binding:"required"`
	Size      string  `json:"size" binding:"required"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" binding:"gte=0"`
}

// Total returns quantity times unit price (or unit cost for purchases).
func (ci CartItem) Total() float64 {
	return ci.Quantity * ci.UnitPrice
}

// ProcessedEvent records a consumed broker event for dedup.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
