package service

import (
	"context"
	"fmt"
	"time"

	"github.com/OscarIvaVP/inventario-ventas/internal/models"
	"github.com/OscarIvaVP/inventario-ventas/internal/redisclient"
	"github.com/OscarIvaVP/inventario-ventas/internal/util"

	"go.uber.org/zap"
)

// Cart kinds. Each session carries one pending cart per kind.
const (
	CartKindSale     = "sale"
	CartKindPurchase = "purchase"
)

// CartService holds the pending sale and purchase carts per session in
// Redis. Carts belong to their session alone; nothing here is process-global
// state.
type CartService struct {
	redis  *redisclient.Client
	ledger *LedgerService
	ttl    time.Duration
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(redis *redisclient.Client, ledger *LedgerService, ttl time.Duration) *CartService {
	return &CartService{
		redis:  redis,
		ledger: ledger,
		ttl:    ttl,
		logger: util.GetLogger(),
	}
}

// ValidCartKind reports whether kind names a cart kind
func ValidCartKind(kind string) bool {
	return kind == CartKindSale || kind == CartKindPurchase
}

// AddItem appends an item to the session's cart of the given kind
func (cs *CartService) AddItem(ctx context.Context, sessionID, kind string, item models.CartItem) error {
	if !ValidCartKind(kind) {
		return fmt.Errorf("unknown cart kind: %s", kind)
	}
	return cs.redis.PushCartItem(ctx, sessionID, kind, item, cs.ttl)
}

// Items lists the session's pending cart
func (cs *CartService) Items(ctx context.Context, sessionID, kind string) ([]models.CartItem, error) {
	if !ValidCartKind(kind) {
		return nil, fmt.Errorf("unknown cart kind: %s", kind)
	}
	return cs.redis.GetCart(ctx, sessionID, kind)
}

// RemoveItem drops one pending item by position
func (cs *CartService) RemoveItem(ctx context.Context, sessionID, kind string, index int) error {
	if !ValidCartKind(kind) {
		return fmt.Errorf("unknown cart kind: %s", kind)
	}
	return cs.redis.RemoveCartItem(ctx, sessionID, kind, index, cs.ttl)
}

// Clear drops the session's cart without recording anything
func (cs *CartService) Clear(ctx context.Context, sessionID, kind string) error {
	if !ValidCartKind(kind) {
		return fmt.Errorf("unknown cart kind: %s", kind)
	}
	return cs.redis.ClearCart(ctx, sessionID, kind)
}

// CheckoutSaleRequest finalizes a session's sale cart
type CheckoutSaleRequest struct {
	Customer       string `json:"customer" binding:"required"`
	PaymentStatus  string `json:"payment_status" binding:"required"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// CheckoutSale records the session's pending sale cart as one sale and
// clears the cart on success.
func (cs *CartService) CheckoutSale(ctx context.Context, sessionID string, req *CheckoutSaleRequest) (*RecordSaleResponse, error) {
	items, err := cs.redis.GetCart(ctx, sessionID, CartKindSale)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("sale cart is empty")
	}

	resp, err := cs.ledger.RecordSale(ctx, &RecordSaleRequest{
		Customer:       req.Customer,
		Items:          items,
		PaymentStatus:  req.PaymentStatus,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	if err := cs.redis.ClearCart(ctx, sessionID, CartKindSale); err != nil {
		cs.logger.Warn("Failed to clear sale cart after checkout",
			zap.String("session_id", sessionID), zap.Error(err))
	}
	return resp, nil
}

// CheckoutPurchaseRequest finalizes a session's purchase cart
type CheckoutPurchaseRequest struct {
	Supplier       string  `json:"supplier" binding:"required"`
	ShippingCost   float64 `json:"shipping_cost" binding:"gte=0"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

// CheckoutPurchase records the session's pending purchase cart as one
// purchase order and clears the cart on success.
func (cs *CartService) CheckoutPurchase(ctx context.Context, sessionID string, req *CheckoutPurchaseRequest) (*RecordPurchaseResponse, error) {
	items, err := cs.redis.GetCart(ctx, sessionID, CartKindPurchase)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("purchase cart is empty")
	}

	resp, err := cs.ledger.RecordPurchase(ctx, &RecordPurchaseRequest{
		Supplier:       req.Supplier,
		Items:          items,
		ShippingCost:   req.ShippingCost,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	if err := cs.redis.ClearCart(ctx, sessionID, CartKindPurchase); err != nil {
		cs.logger.Warn("Failed to clear purchase cart after checkout",
			zap.String("session_id", sessionID), zap.Error(err))
	}
	return resp, nil
}
