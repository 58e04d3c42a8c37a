package service

import (
	"context"
	"fmt"
	"time"

	"github.com/OscarIvaVP/inventario-ventas/internal/broker"
	"github.com/OscarIvaVP/inventario-ventas/internal/models"
	"github.com/OscarIvaVP/inventario-ventas/internal/recon"
	"github.com/OscarIvaVP/inventario-ventas/internal/redisclient"
	"github.com/OscarIvaVP/inventario-ventas/internal/store"
	"github.com/OscarIvaVP/inventario-ventas/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerService records sales, purchases and payments in the append-only
// logs and keeps the cached payment status and derived inventory in step.
type LedgerService struct {
	store          *store.Store
	redis          *redisclient.Client
	masters        *MasterService
	reconService   *ReconService
	eventPublisher *broker.EventPublisher
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	store *store.Store,
	redis *redisclient.Client,
	masters *MasterService,
	reconService *ReconService,
	eventPublisher *broker.EventPublisher,
	idempotencyTTL time.Duration,
) *LedgerService {
	return &LedgerService{
		store:          store,
		redis:          redis,
		masters:        masters,
		reconService:   reconService,
		eventPublisher: eventPublisher,
		idempotencyTTL: idempotencyTTL,
		logger:         util.GetLogger(),
	}
}

// cachedSubmission returns the id remembered in Redis for a submission key.
// Cache failures degrade to the ledger lookup, never to a duplicate write.
func (s *LedgerService) cachedSubmission(ctx context.Context, key string) string {
	id, err := s.redis.GetIdempotencyKey(ctx, key)
	if err != nil {
		s.logger.Warn("Idempotency cache read failed", zap.Error(err))
		return ""
	}
	return id
}

func (s *LedgerService) rememberSubmission(ctx context.Context, key, id string) {
	if err := s.redis.SetIdempotencyKey(ctx, key, id, s.idempotencyTTL); err != nil {
		s.logger.Warn("Idempotency cache write failed", zap.Error(err))
	}
}

// RecordSaleRequest represents a finalized checkout
type RecordSaleRequest struct {
	Customer       string            `json:"customer" binding:"required"`
	Items          []models.CartItem `json:"items" binding:"required,min=1,dive"`
	PaymentStatus  string            `json:"payment_status" binding:"required"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// RecordSaleResponse represents the response after recording a sale
type RecordSaleResponse struct {
	SaleID string  `json:"sale_id"`
	Total  float64 `json:"total"`
	Status string  `json:"status"`
}

// RecordSale appends all lines of one checkout under a fresh sale id,
// auto-registering an unknown customer, then recomputes the inventory
// snapshot. A repeated submission with the same idempotency key returns the
// previously recorded sale instead of duplicating ledger rows.
func (s *LedgerService) RecordSale(ctx context.Context, req *RecordSaleRequest) (*RecordSaleResponse, error) {
	ctx, span := util.StartSpan(ctx, "LedgerService.RecordSale")
	defer span.End()

	if !models.ValidPaymentStatus(req.PaymentStatus) {
		return nil, fmt.Errorf("invalid payment status: %s", req.PaymentStatus)
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}
	existing := s.cachedSubmission(ctx, req.IdempotencyKey)
	if existing == "" {
		var err error
		existing, err = s.store.GetSaleIDByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
	}
	if existing != "" {
		util.DuplicateSubmissionsTotal.WithLabelValues("sale").Inc()
		s.logger.Info("Duplicate sale submission detected",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.String("sale_id", existing))
		lines, err := s.store.GetSaleByID(ctx, existing)
		if err != nil {
			return nil, err
		}
		return &RecordSaleResponse{
			SaleID: existing,
			Total:  linesTotal(lines),
			Status: lines[0].PaymentStatus,
		}, nil
	}

	if err := s.validateItems(ctx, req.Items); err != nil {
		util.LedgerWritesFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}
	if err := s.masters.EnsureClient(ctx, req.Customer); err != nil {
		return nil, fmt.Errorf("failed to register client: %w", err)
	}

	saleID := models.NewSaleID()
	now := time.Now()

	var total float64
	lines := make([]models.SaleLine, 0, len(req.Items))
	eventLines := make([]models.LedgerLineData, 0, len(req.Items))
	for i, item := range req.Items {
		lineTotal := item.Total()
		total += lineTotal
		lines = append(lines, models.SaleLine{
			SaleID:        saleID,
			LineNo:        i + 1,
			Timestamp:     now,
			Product:       item.Product,
			Size:          item.Size,
			Customer:      req.Customer,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			LineTotal:     lineTotal,
			PaymentStatus: req.PaymentStatus,
		})
		eventLines = append(eventLines, models.LedgerLineData{
			Product:  item.Product,
			Size:     item.Size,
			Quantity: item.Quantity,
			Amount:   lineTotal,
		})
	}

	if err := s.store.AppendSaleLines(ctx, lines, req.IdempotencyKey); err != nil {
		util.LedgerWritesFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}
	s.rememberSubmission(ctx, req.IdempotencyKey, saleID)

	util.SalesRecordedTotal.Inc()
	util.SaleLinesRecordedTotal.Add(float64(len(lines)))
	s.logger.Info("Sale recorded",
		zap.String("sale_id", saleID),
		zap.String("customer", req.Customer),
		zap.Float64("total", total))

	event := &models.SaleRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSaleRecorded,
			Timestamp: now,
		},
		SaleID:        saleID,
		Customer:      req.Customer,
		Total:         total,
		PaymentStatus: req.PaymentStatus,
		Lines:         eventLines,
	}
	if err := s.eventPublisher.PublishSaleRecorded(ctx, event); err != nil {
		s.logger.Error("Failed to publish SaleRecorded event", zap.Error(err))
	}

	if _, err := s.reconService.RecomputeInventory(ctx); err != nil {
		// the ledger rows are committed; the snapshot catches up on the next
		// recompute or when the worker replays the event
		s.logger.Error("Inventory recompute after sale failed", zap.Error(err))
	}

	return &RecordSaleResponse{SaleID: saleID, Total: total, Status: req.PaymentStatus}, nil
}

// RecordPurchaseRequest represents a finalized purchase order
type RecordPurchaseRequest struct {
	Supplier       string            `json:"supplier" binding:"required"`
	Items          []models.CartItem `json:"items" binding:"required,min=1,dive"`
	ShippingCost   float64           `json:"shipping_cost" binding:"gte=0"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

// RecordPurchaseResponse represents the response after recording a purchase
type RecordPurchaseResponse struct {
	PurchaseID string  `json:"purchase_id"`
	Total      float64 `json:"total"`
}

// RecordPurchase appends all lines of one purchase order under a fresh
// purchase id. The shipping cost is written to every line of the order,
// matching the persisted format; aggregations de-duplicate it by purchase id.
func (s *LedgerService) RecordPurchase(ctx context.Context, req *RecordPurchaseRequest) (*RecordPurchaseResponse, error) {
	ctx, span := util.StartSpan(ctx, "LedgerService.RecordPurchase")
	defer span.End()

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}
	existing := s.cachedSubmission(ctx, req.IdempotencyKey)
	if existing == "" {
		var err error
		existing, err = s.store.GetPurchaseIDByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
	}
	if existing != "" {
		util.DuplicateSubmissionsTotal.WithLabelValues("purchase").Inc()
		s.logger.Info("Duplicate purchase submission detected",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.String("purchase_id", existing))
		lines, err := s.store.GetPurchaseByID(ctx, existing)
		if err != nil {
			return nil, err
		}
		return &RecordPurchaseResponse{
			PurchaseID: existing,
			Total:      purchaseTotal(lines),
		}, nil
	}

	if err := s.validateItems(ctx, req.Items); err != nil {
		util.LedgerWritesFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}
	if err := s.masters.EnsureSupplier(ctx, req.Supplier); err != nil {
		return nil, fmt.Errorf("failed to register supplier: %w", err)
	}

	purchaseID := models.NewPurchaseID()
	now := time.Now()

	var total float64
	lines := make([]models.PurchaseLine, 0, len(req.Items))
	eventLines := make([]models.LedgerLineData, 0, len(req.Items))
	for i, item := range req.Items {
		lineCost := item.Total()
		total += lineCost
		lines = append(lines, models.PurchaseLine{
			PurchaseID:   purchaseID,
			LineNo:       i + 1,
			Timestamp:    now,
			Product:      item.Product,
			Size:         item.Size,
			Supplier:     req.Supplier,
			Quantity:     item.Quantity,
			LineCost:     lineCost,
			ShippingCost: req.ShippingCost,
		})
		eventLines = append(eventLines, models.LedgerLineData{
			Product:  item.Product,
			Size:     item.Size,
			Quantity: item.Quantity,
			Amount:   lineCost,
		})
	}
	total += req.ShippingCost

	if err := s.store.AppendPurchaseLines(ctx, lines, req.IdempotencyKey); err != nil {
		util.LedgerWritesFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}
	s.rememberSubmission(ctx, req.IdempotencyKey, purchaseID)

	util.PurchasesRecordedTotal.Inc()
	s.logger.Info("Purchase recorded",
		zap.String("purchase_id", purchaseID),
		zap.String("supplier", req.Supplier),
		zap.Float64("total", total))

	event := &models.PurchaseRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePurchaseRecorded,
			Timestamp: now,
		},
		PurchaseID:   purchaseID,
		Supplier:     req.Supplier,
		Total:        total,
		ShippingCost: req.ShippingCost,
		Lines:        eventLines,
	}
	if err := s.eventPublisher.PublishPurchaseRecorded(ctx, event); err != nil {
		s.logger.Error("Failed to publish PurchaseRecorded event", zap.Error(err))
	}

	if _, err := s.reconService.RecomputeInventory(ctx); err != nil {
		s.logger.Error("Inventory recompute after purchase failed", zap.Error(err))
	}

	return &RecordPurchaseResponse{PurchaseID: purchaseID, Total: total}, nil
}

// RecordPaymentRequest represents a payment against a pending sale
type RecordPaymentRequest struct {
	SaleID         string  `json:"sale_id" binding:"required"`
	Amount         float64 `json:"amount" binding:"required,gt=0"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

// RecordPaymentResponse represents the response after recording a payment
type RecordPaymentResponse struct {
	PaymentID   string  `json:"payment_id"`
	SaleID      string  `json:"sale_id"`
	Outstanding float64 `json:"outstanding"`
	Status      string  `json:"status"`
}

// RecordPayment appends a payment row, re-derives the sale's outstanding
// balance from the logs and advances the cached payment status. Over-payment
// is tolerated; the reported outstanding floors at zero.
func (s *LedgerService) RecordPayment(ctx context.Context, req *RecordPaymentRequest) (*RecordPaymentResponse, error) {
	ctx, span := util.StartSpan(ctx, "LedgerService.RecordPayment")
	defer span.End()

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}
	existing := s.cachedSubmission(ctx, req.IdempotencyKey)
	if existing == "" {
		var err error
		existing, err = s.store.GetPaymentIDByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
	}

	saleLines, err := s.store.GetSaleByID(ctx, req.SaleID)
	if err != nil {
		return nil, err
	}

	var paymentID string
	now := time.Now()
	if existing != "" {
		util.DuplicateSubmissionsTotal.WithLabelValues("payment").Inc()
		s.logger.Info("Duplicate payment submission detected",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.String("payment_id", existing))
		paymentID = existing
	} else {
		payment := &models.Payment{
			PaymentID: models.NewPaymentID(),
			SaleID:    req.SaleID,
			Timestamp: now,
			Amount:    req.Amount,
		}
		if err := s.store.AppendPayment(ctx, payment, req.IdempotencyKey); err != nil {
			util.LedgerWritesFailedTotal.WithLabelValues("db_error").Inc()
			return nil, err
		}
		paymentID = payment.PaymentID
		s.rememberSubmission(ctx, req.IdempotencyKey, paymentID)
		util.PaymentsRecordedTotal.Inc()
	}

	payments, err := s.store.GetPaymentsBySaleID(ctx, req.SaleID)
	if err != nil {
		return nil, fmt.Errorf("failed to read payments: %w", err)
	}

	var paid float64
	for _, p := range payments {
		paid += p.Amount
	}
	outstanding := linesTotal(saleLines) - paid
	if outstanding < 0 {
		outstanding = 0
	}

	status := saleLines[0].PaymentStatus
	target := models.PaymentStatusPartiallyPaid
	if outstanding <= recon.Epsilon {
		outstanding = 0
		target = models.PaymentStatusPaid
	}
	if models.CanAdvanceStatus(status, target) && status != target {
		if err := s.store.UpdateSalePaymentStatus(ctx, req.SaleID, target); err != nil {
			return nil, fmt.Errorf("failed to advance payment status: %w", err)
		}
		status = target
		if target == models.PaymentStatusPaid {
			util.SalesSettledTotal.Inc()
		}
	}

	s.logger.Info("Payment recorded",
		zap.String("payment_id", paymentID),
		zap.String("sale_id", req.SaleID),
		zap.Float64("amount", req.Amount),
		zap.Float64("outstanding", outstanding))

	event := &models.PaymentRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentRecorded,
			Timestamp: now,
		},
		PaymentID:   paymentID,
		SaleID:      req.SaleID,
		Amount:      req.Amount,
		Outstanding: outstanding,
	}
	if err := s.eventPublisher.PublishPaymentRecorded(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentRecorded event", zap.Error(err))
	}

	return &RecordPaymentResponse{
		PaymentID:   paymentID,
		SaleID:      req.SaleID,
		Outstanding: outstanding,
		Status:      status,
	}, nil
}

// SettleSale marks every line of a sale as Paid without an explicit payment
// row. This is the legacy settle path from before payments were tracked.
func (s *LedgerService) SettleSale(ctx context.Context, saleID string) error {
	ctx, span := util.StartSpan(ctx, "LedgerService.SettleSale")
	defer span.End()

	if _, err := s.store.GetSaleByID(ctx, saleID); err != nil {
		return err
	}

	if err := s.store.UpdateSalePaymentStatus(ctx, saleID, models.PaymentStatusPaid); err != nil {
		return fmt.Errorf("failed to settle sale: %w", err)
	}

	util.SalesSettledTotal.Inc()
	s.logger.Info("Sale settled", zap.String("sale_id", saleID))

	event := &models.SaleSettledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSaleSettled,
			Timestamp: time.Now(),
		},
		SaleID: saleID,
	}
	if err := s.eventPublisher.PublishSaleSettled(ctx, event); err != nil {
		s.logger.Error("Failed to publish SaleSettled event", zap.Error(err))
	}
	return nil
}

// GetSale retrieves all lines of one sale
func (s *LedgerService) GetSale(ctx context.Context, saleID string) ([]models.SaleLine, error) {
	return s.store.GetSaleByID(ctx, saleID)
}

// GetPurchase retrieves all lines of one purchase
func (s *LedgerService) GetPurchase(ctx context.Context, purchaseID string) ([]models.PurchaseLine, error) {
	return s.store.GetPurchaseByID(ctx, purchaseID)
}

// GetPaymentsForSale retrieves the payments recorded against a sale
func (s *LedgerService) GetPaymentsForSale(ctx context.Context, saleID string) ([]models.Payment, error) {
	if _, err := s.store.GetSaleByID(ctx, saleID); err != nil {
		return nil, err
	}
	return s.store.GetPaymentsBySaleID(ctx, saleID)
}

// validateItems checks that every item references a registered product and
// one of its sizes.
func (s *LedgerService) validateItems(ctx context.Context, items []models.CartItem) error {
	products, err := s.masters.Products(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	byName := make(map[string]models.Product, len(products))
	for _, p := range products {
		byName[p.Name] = p
	}

	for _, item := range items {
		product, ok := byName[item.Product]
		if !ok {
			return fmt.Errorf("unknown product: %s", item.Product)
		}
		if !containsSize(product.Sizes, item.Size) {
			return fmt.Errorf("product %s has no size %s", item.Product, item.Size)
		}
	}
	return nil
}

func containsSize(sizes []string, size string) bool {
	for _, s := range sizes {
		if s == size {
			return true
		}
	}
	return false
}

func linesTotal(lines []models.SaleLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.LineTotal
	}
	return total
}

func purchaseTotal(lines []models.PurchaseLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.LineCost
	}
	if len(lines) > 0 {
		total += lines[0].ShippingCost
	}
	return total
}
