package models

import (
	"strings"

	"github.com/google/uuid"
)

// Identifier prefixes match the persisted sheet format: an uppercase Spanish
// prefix plus 8 uppercase hex characters, e.g. VENTA-3FA85F64.
const (
	SaleIDPrefix     = "VENTA-"
	PurchaseIDPrefix = "COMPRA-"
	PaymentIDPrefix  = "PAGO-"
)

// SKUSeparator joins product and size into a SKU. The separator is
// load-bearing: a product or size name containing " - " corrupts the SKU on
// read-back. See SplitSKU.
const SKUSeparator = " - "

func newID(prefix string) string {
	return prefix + strings.ToUpper(uuid.New().String()[:8])
}

// NewSaleID allocates a sale identifier shared by all lines of one checkout.
func NewSaleID() string { return newID(SaleIDPrefix) }

// NewPurchaseID allocates a purchase identifier shared by all lines of one
// purchase order.
func NewPurchaseID() string { return newID(PurchaseIDPrefix) }

// NewPaymentID allocates a payment identifier.
func NewPaymentID() string { return newID(PaymentIDPrefix) }

// BuildSKU synthesizes the stock-keeping unit from product and size.
func BuildSKU(product, size string) string {
	return product + SKUSeparator + size
}

// SplitSKU splits a SKU back into product and size on the first separator
// occurrence. Product names that themselves contain " - " cannot round-trip;
// this is a known limitation of the persisted format, not handled here.
func SplitSKU(sku string) (product, size string) {
	idx := strings.Index(sku, SKUSeparator)
	if idx < 0 {
		return sku, ""
	}
	return sku[:idx], sku[idx+len(SKUSeparator):]
}
