package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OscarIvaVP/inventario-ventas/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound marks lookups for ids that have no ledger or master rows.
// Handlers match it with errors.Is to answer 404 instead of 500.
var ErrNotFound = errors.New("not found")

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

type productRow struct {
	Name         string  `db:"name"`
	Sizes        string  `db:"sizes"`
	DefaultPrice float64 `db:"default_price"`
	DefaultCost  float64 `db:"default_cost"`
}

func (r productRow) toModel() models.Product {
	var sizes []string
	for _, s := range strings.Split(r.Sizes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			sizes = append(sizes, s)
		}
	}
	return models.Product{
		Name:         r.Name,
		Sizes:        sizes,
		DefaultPrice: r.DefaultPrice,
		DefaultCost:  r.DefaultCost,
	}
}

// GetProducts retrieves the product master list
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var rows []productRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT name, sizes, COALESCE(default_price, 0) AS default_price, COALESCE(default_cost, 0) AS default_cost FROM productos ORDER BY name")
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, r.toModel())
	}
	return products, nil
}

// GetProductByName retrieves one product by name
func (s *Store) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row,
		"SELECT name, sizes, COALESCE(default_price, 0) AS default_price, COALESCE(default_cost, 0) AS default_cost FROM productos WHERE name = $1", name)
	if err == sql.ErrNoRows {
		return nil, notFound("product", name)
	}
	if err != nil {
		return nil, err
	}
	product := row.toModel()
	return &product, nil
}

// CreateProduct appends a product master record. Uniqueness is checked
// application-side only, matching the source sheets.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO productos (name, sizes, default_price, default_cost) VALUES ($1, $2, $3, $4)",
		p.Name, strings.Join(p.Sizes, ","), p.DefaultPrice, p.DefaultCost)
	return err
}

// GetClients retrieves the client master list
func (s *Store) GetClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	err := s.db.SelectContext(ctx, &clients, "SELECT name FROM clientes ORDER BY name")
	return clients, err
}

// CreateClient appends a client master record
func (s *Store) CreateClient(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO clientes (name) VALUES ($1)", name)
	return err
}

// ClientExists reports whether a client with the given name is registered
func (s *Store) ClientExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM clientes WHERE name = $1)", name)
	return exists, err
}

// GetSuppliers retrieves the supplier master list
func (s *Store) GetSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	err := s.db.SelectContext(ctx, &suppliers, "SELECT name FROM proveedores ORDER BY name")
	return suppliers, err
}

// CreateSupplier appends a supplier master record
func (s *Store) CreateSupplier(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO proveedores (name) VALUES ($1)", name)
	return err
}

// SupplierExists reports whether a supplier with the given name is registered
func (s *Store) SupplierExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM proveedores WHERE name = $1)", name)
	return exists, err
}

// IsEventProcessed checks if a broker event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks a broker event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
