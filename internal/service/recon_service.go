package service

import (
	"context"
	"fmt"
	"sort"
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

const snapshotLockKey = "inventory-snapshot"

// ReconService runs the reconciliation engine over the persisted logs and
// maintains the derived inventory snapshot and payment status cache.
type ReconService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
	lockTTL        time.Duration
}

// NewReconService creates a new reconciliation service
func NewReconService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	lockTTL time.Duration,
) *ReconService {
	return &ReconService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
		lockTTL:        lockTTL,
	}
}

// RecomputeInventory re-reads the full sales and purchase logs, recomputes
// per-SKU stock and swaps in a fresh snapshot version. The recompute is a
// full rescan and idempotent; a short Redis lock keeps overlapping callers
// from doing redundant work, but the last committed version winning is still
// the documented behavior when the lock is unavailable.
func (rs *ReconService) RecomputeInventory(ctx context.Context) ([]models.InventorySnapshot, error) {
	ctx, span := util.StartSpan(ctx, "ReconService.RecomputeInventory")
	defer span.End()

	start := time.Now()
	defer func() {
		util.InventoryRecomputeLatency.Observe(time.Since(start).Seconds())
	}()

	locked, err := rs.redis.AcquireLock(ctx, snapshotLockKey, rs.lockTTL)
	if err != nil {
		rs.logger.Warn("Snapshot lock unavailable, proceeding unlocked", zap.Error(err))
	} else if locked {
		defer func() {
			if err := rs.redis.ReleaseLock(context.Background(), snapshotLockKey); err != nil {
				rs.logger.Warn("Failed to release snapshot lock", zap.Error(err))
			}
		}()
	}

	sales, err := rs.store.GetSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sales log: %w", err)
	}
	purchases, err := rs.store.GetPurchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read purchase log: %w", err)
	}

	snapshot := recon.RecomputeInventory(sales, purchases, time.Now())

	version, err := rs.store.ReplaceInventorySnapshot(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to replace inventory snapshot: %w", err)
	}

	util.InventoryRecomputesTotal.Inc()
	util.InventorySnapshotRows.Set(float64(len(snapshot)))
	rs.logger.Info("Inventory snapshot replaced",
		zap.Int64("version", version),
		zap.Int("skus", len(snapshot)))

	event := &models.InventoryRecomputedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeInventoryRecomputed,
			Timestamp: time.Now(),
		},
		Version: version,
		SKUs:    len(snapshot),
	}
	if err := rs.eventPublisher.PublishInventoryRecomputed(ctx, event); err != nil {
		rs.logger.Error("Failed to publish InventoryRecomputed event", zap.Error(err))
	}

	return snapshot, nil
}

// Inventory reads the current snapshot without recomputing
func (rs *ReconService) Inventory(ctx context.Context) ([]models.InventorySnapshot, error) {
	return rs.store.GetInventorySnapshot(ctx)
}

// Receivables derives the outstanding balance of every pending sale from the
// full logs, with customer and cached status attached for display.
func (rs *ReconService) Receivables(ctx context.Context) ([]models.Receivable, error) {
	ctx, span := util.StartSpan(ctx, "ReconService.Receivables")
	defer span.End()

	sales, err := rs.store.GetSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sales log: %w", err)
	}
	payments, err := rs.store.GetPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read payments log: %w", err)
	}

	outstanding := recon.RecomputeReceivables(sales, payments)

	type saleAgg struct {
		customer string
		status   string
		total    float64
	}
	byID := make(map[string]*saleAgg)
	for _, s := range sales {
		agg, ok := byID[s.SaleID]
		if !ok {
			agg = &saleAgg{customer: s.Customer, status: s.PaymentStatus}
			byID[s.SaleID] = agg
		}
		agg.total += s.LineTotal
	}

	paid := make(map[string]float64)
	for _, p := range payments {
		paid[p.SaleID] += p.Amount
	}

	var sum float64
	receivables := make([]models.Receivable, 0, len(outstanding))
	for saleID, balance := range outstanding {
		agg := byID[saleID]
		receivables = append(receivables, models.Receivable{
			SaleID:      saleID,
			Customer:    agg.customer,
			Status:      agg.status,
			TotalOwed:   agg.total,
			TotalPaid:   paid[saleID],
			Outstanding: balance,
		})
		sum += balance
	}
	sort.Slice(receivables, func(i, j int) bool { return receivables[i].SaleID < receivables[j].SaleID })

	util.ReceivablesOutstanding.Set(sum)
	return receivables, nil
}

// ApplySettlements advances to Paid every pending sale whose balance has
// dropped within epsilon of zero. Returns the sale ids it advanced. This is
// the cross-cutting status write the receivables computation calls for; the
// worker runs it after every payment event.
func (rs *ReconService) ApplySettlements(ctx context.Context) ([]string, error) {
	ctx, span := util.StartSpan(ctx, "ReconService.ApplySettlements")
	defer span.End()

	sales, err := rs.store.GetSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sales log: %w", err)
	}
	payments, err := rs.store.GetPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read payments log: %w", err)
	}

	settled := recon.SettledSales(sales, payments)
	for _, saleID := range settled {
		if err := rs.store.UpdateSalePaymentStatus(ctx, saleID, models.PaymentStatusPaid); err != nil {
			return nil, fmt.Errorf("failed to settle sale %s: %w", saleID, err)
		}
		util.SalesSettledTotal.Inc()
		rs.logger.Info("Sale settled by reconciliation", zap.String("sale_id", saleID))
	}
	return settled, nil
}

// FinancialSummary derives the income, expense and profit figures for one
// "YYYY-MM" period or for the whole history.
func (rs *ReconService) FinancialSummary(ctx context.Context, period string) (*models.FinancialSummary, error) {
	ctx, span := util.StartSpan(ctx, "ReconService.FinancialSummary")
	defer span.End()

	sales, purchases, payments, err := rs.readLogs(ctx)
	if err != nil {
		return nil, err
	}

	summary := recon.RecomputePeriodFinancials(sales, purchases, payments, period)
	util.ReceivablesOutstanding.Set(summary.ReceivablesTotal)
	return &summary, nil
}

// AvailablePeriods lists the months with ledger activity, newest first
func (rs *ReconService) AvailablePeriods(ctx context.Context) ([]string, error) {
	sales, purchases, payments, err := rs.readLogs(ctx)
	if err != nil {
		return nil, err
	}
	return recon.AvailablePeriods(sales, purchases, payments), nil
}

func (rs *ReconService) readLogs(ctx context.Context) ([]models.SaleLine, []models.PurchaseLine, []models.Payment, error) {
	sales, err := rs.store.GetSales(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read sales log: %w", err)
	}
	purchases, err := rs.store.GetPurchases(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read purchase log: %w", err)
	}
	payments, err := rs.store.GetPayments(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read payments log: %w", err)
	}
	return sales, purchases, payments, nil
}
