package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/OscarIvaVP/inventario-ventas/internal/models"
)

// AppendSaleLines appends all lines of one sale in a single transaction so a
// mid-write failure cannot leave a half-recorded checkout.
func (s *Store) AppendSaleLines(ctx context.Context, lines []models.SaleLine, idempotencyKey string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO ventas (sale_id, line_no, recorded_at, product, size, customer, quantity, unit_price, line_total, payment_status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	for _, line := range lines {
		if _, err := tx.ExecContext(ctx, query,
			line.SaleID, line.LineNo, line.Timestamp, line.Product, line.Size,
			line.Customer, line.Quantity, line.UnitPrice, line.LineTotal,
			line.PaymentStatus, idempotencyKey); err != nil {
			return fmt.Errorf("failed to append sale line: %w", err)
		}
	}

	return tx.Commit()
}

// GetSales reads the full sales log
func (s *Store) GetSales(ctx context.Context) ([]models.SaleLine, error) {
	var sales []models.SaleLine
	err := s.db.SelectContext(ctx, &sales, `
		SELECT sale_id, line_no, recorded_at, product, size, customer,
		       COALESCE(quantity, 0) AS quantity,
		       COALESCE(unit_price, 0) AS unit_price,
		       COALESCE(line_total, 0) AS line_total,
		       payment_status
		FROM ventas ORDER BY recorded_at, sale_id, line_no`)
	return sales, err
}

// GetSaleByID reads all lines of one sale
func (s *Store) GetSaleByID(ctx context.Context, saleID string) ([]models.SaleLine, error) {
	var lines []models.SaleLine
	err := s.db.SelectContext(ctx, &lines, `
		SELECT sale_id, line_no, recorded_at, product, size, customer,
		       COALESCE(quantity, 0) AS quantity,
		       COALESCE(unit_price, 0) AS unit_price,
		       COALESCE(line_total, 0) AS line_total,
		       payment_status
		FROM ventas WHERE sale_id = $1 ORDER BY line_no`, saleID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, notFound("sale", saleID)
	}
	return lines, nil
}

// GetSaleIDByIdempotencyKey returns the sale previously recorded under the
// key, or "" when the key is unseen.
func (s *Store) GetSaleIDByIdempotencyKey(ctx context.Context, key string) (string, error) {
	var saleID string
	err := s.db.GetContext(ctx, &saleID,
		"SELECT sale_id FROM ventas WHERE idempotency_key = $1 LIMIT 1", key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return saleID, err
}

// UpdateSalePaymentStatus advances every line of a sale to the given status.
// The status cache only moves forward; regressions are filtered in SQL so a
// concurrent settle cannot undo a Paid marker.
func (s *Store) UpdateSalePaymentStatus(ctx context.Context, saleID, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ventas SET payment_status = $1
		WHERE sale_id = $2 AND payment_status != $3`,
		status, saleID, models.PaymentStatusPaid)
	return err
}

// AppendPurchaseLines appends all lines of one purchase in a single
// transaction. The shipping cost is stored on every line, as the sheet
// format has always done.
func (s *Store) AppendPurchaseLines(ctx context.Context, lines []models.PurchaseLine, idempotencyKey string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO compras (purchase_id, line_no, recorded_at, product, size, supplier, quantity, line_cost, shipping_cost, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, line := range lines {
		if _, err := tx.ExecContext(ctx, query,
			line.PurchaseID, line.LineNo, line.Timestamp, line.Product, line.Size,
			line.Supplier, line.Quantity, line.LineCost, line.ShippingCost,
			idempotencyKey); err != nil {
			return fmt.Errorf("failed to append purchase line: %w", err)
		}
	}

	return tx.Commit()
}

// GetPurchases reads the full purchase log
func (s *Store) GetPurchases(ctx context.Context) ([]models.PurchaseLine, error) {
	var purchases []models.PurchaseLine
	err := s.db.SelectContext(ctx, &purchases, `
		SELECT purchase_id, line_no, recorded_at, product, size, supplier,
		       COALESCE(quantity, 0) AS quantity,
		       COALESCE(line_cost, 0) AS line_cost,
		       COALESCE(shipping_cost, 0) AS shipping_cost
		FROM compras ORDER BY recorded_at, purchase_id, line_no`)
	return purchases, err
}

// GetPurchaseByID reads all lines of one purchase
func (s *Store) GetPurchaseByID(ctx context.Context, purchaseID string) ([]models.PurchaseLine, error) {
	var lines []models.PurchaseLine
	err := s.db.SelectContext(ctx, &lines, `
		SELECT purchase_id, line_no, recorded_at, product, size, supplier,
		       COALESCE(quantity, 0) AS quantity,
		       COALESCE(line_cost, 0) AS line_cost,
		       COALESCE(shipping_cost, 0) AS shipping_cost
		FROM compras WHERE purchase_id = $1 ORDER BY line_no`, purchaseID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, notFound("purchase", purchaseID)
	}
	return lines, nil
}

// GetPurchaseIDByIdempotencyKey returns the purchase previously recorded
// under the key, or "" when the key is unseen.
func (s *Store) GetPurchaseIDByIdempotencyKey(ctx context.Context, key string) (string, error) {
	var purchaseID string
	err := s.db.GetContext(ctx, &purchaseID,
		"SELECT purchase_id FROM compras WHERE idempotency_key = $1 LIMIT 1", key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return purchaseID, err
}

// AppendPayment appends one payment row
func (s *Store) AppendPayment(ctx context.Context, p *models.Payment, idempotencyKey string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pagos (payment_id, sale_id, recorded_at, amount, idempotency_key)
		VALUES ($1, $2, $3, $4, $5)`,
		p.PaymentID, p.SaleID, p.Timestamp, p.Amount, idempotencyKey)
	if err != nil {
		return fmt.Errorf("failed to append payment: %w", err)
	}
	return nil
}

// GetPayments reads the full payment log
func (s *Store) GetPayments(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.SelectContext(ctx, &payments, `
		SELECT payment_id, sale_id, recorded_at, COALESCE(amount, 0) AS amount
		FROM pagos ORDER BY recorded_at, payment_id`)
	return payments, err
}

// GetPaymentsBySaleID reads the payments recorded against one sale
func (s *Store) GetPaymentsBySaleID(ctx context.Context, saleID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.SelectContext(ctx, &payments, `
		SELECT payment_id, sale_id, recorded_at, COALESCE(amount, 0) AS amount
		FROM pagos WHERE sale_id = $1 ORDER BY recorded_at`, saleID)
	return payments, err
}

// GetPaymentIDByIdempotencyKey returns the payment previously recorded under
// the key, or "" when the key is unseen.
func (s *Store) GetPaymentIDByIdempotencyKey(ctx context.Context, key string) (string, error) {
	var paymentID string
	err := s.db.GetContext(ctx, &paymentID,
		"SELECT payment_id FROM pagos WHERE idempotency_key = $1 LIMIT 1", key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return paymentID, err
}
