package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/OscarIvaVP/inventario-ventas/internal/models"
)

// ReplaceInventorySnapshot writes a new snapshot version and flips the
// current-version pointer in one transaction, then drops older versions.
// Readers always see a complete version; there is no window where the
// derived table is empty or half-written. Concurrent recomputes are not
// serialized here - the last committed version wins.
func (s *Store) ReplaceInventorySnapshot(ctx context.Context, rows []models.InventorySnapshot) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var version int64
	err = tx.GetContext(ctx, &version,
		"SELECT nextval('inventario_version_seq')")
	if err != nil {
		return 0, fmt.Errorf("failed to allocate snapshot version: %w", err)
	}

	query := `
		INSERT INTO inventario (version, sku, product, size, units_purchased, units_sold, current_stock, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, query,
			version, row.SKU, row.Product, row.Size,
			row.UnitsPurchased, row.UnitsSold, row.CurrentStock, row.LastUpdated); err != nil {
			return 0, fmt.Errorf("failed to write snapshot row: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventario_current (id, version) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version
		WHERE inventario_current.version < EXCLUDED.version`, version)
	if err != nil {
		return 0, fmt.Errorf("failed to flip snapshot version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	// old versions are garbage, not history; failure here is harmless
	_, _ = s.db.ExecContext(ctx,
		"DELETE FROM inventario WHERE version < (SELECT version FROM inventario_current WHERE id = 1)")

	return version, nil
}

// GetInventorySnapshot reads the current snapshot version. An empty ledger
// yields an empty (non-nil) snapshot rather than an error.
func (s *Store) GetInventorySnapshot(ctx context.Context) ([]models.InventorySnapshot, error) {
	var version int64
	err := s.db.GetContext(ctx, &version,
		"SELECT version FROM inventario_current WHERE id = 1")
	if err == sql.ErrNoRows {
		return []models.InventorySnapshot{}, nil
	}
	if err != nil {
		return nil, err
	}

	rows := []models.InventorySnapshot{}
	err = s.db.SelectContext(ctx, &rows, `
		SELECT sku, product, size, units_purchased, units_sold, current_stock, last_updated
		FROM inventario WHERE version = $1 ORDER BY sku`, version)
	return rows, err
}
