package models

import "time"

// Event types published on the ledger topic.
const (
	EventTypeSaleRecorded        = "SALE_RECORDED"
	EventTypePurchaseRecorded    = "PURCHASE_RECORDED"
	EventTypePaymentRecorded     = "PAYMENT_RECORDED"
	EventTypeSaleSettled         = "SALE_SETTLED"
	EventTypeInventoryRecomputed = "INVENTORY_RECOMPUTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// LedgerLineData represents one ledger line carried in events.
type LedgerLineData struct {
	Product  string  `json:"product"`
	Size     string  `json:"size"`
	Quantity float64 `json:"quantity"`
	Amount   float64 `json:"amount"`
}

// SaleRecordedEvent published after all lines of a sale are appended.
type SaleRecordedEvent struct {
	BaseEvent
	SaleID        string           `json:"sale_id"`
	Customer      string           `json:"customer"`
	Total         float64          `json:"total"`
	PaymentStatus string           `json:"payment_status"`
	Lines         []LedgerLineData `json:"lines"`
}

// PurchaseRecordedEvent published after all lines of a purchase are appended.
type PurchaseRecordedEvent struct {
	BaseEvent
	PurchaseID   string           `json:"purchase_id"`
	Supplier     string           `json:"supplier"`
	Total        float64          `json:"total"`
	ShippingCost float64          `json:"shipping_cost"`
	Lines        []LedgerLineData `json:"lines"`
}

// PaymentRecordedEvent published after a payment row is appended.
type PaymentRecordedEvent struct {
	BaseEvent
	PaymentID   string  `json:"payment_id"`
	SaleID      string  `json:"sale_id"`
	Amount      float64 `json:"amount"`
	Outstanding float64 `json:"outstanding"`
}

// SaleSettledEvent published when a sale is marked fully paid directly,
// without an explicit payment row (legacy settle path).
type SaleSettledEvent struct {
	BaseEvent
	SaleID string `json:"sale_id"`
}

// InventoryRecomputedEvent published after a snapshot version is swapped in.
type InventoryRecomputedEvent struct {
	BaseEvent
	Version int64 `json:"version"`
	SKUs    int   `json:"skus"`
}
