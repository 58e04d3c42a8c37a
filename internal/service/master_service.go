package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OscarIvaVP/inventario-ventas/internal/models"
	"github.com/OscarIvaVP/inventario-ventas/internal/redisclient"
	"github.com/OscarIvaVP/inventario-ventas/internal/store"
	"github.com/OscarIvaVP/inventario-ventas/internal/util"

	"go.uber.org/zap"
)

const (
	masterCacheTTL = 5 * time.Minute

	cacheProducts  = "productos"
	cacheClients   = "clientes"
	cacheSuppliers = "proveedores"
)

// MasterService manages the product, client and supplier master lists. Reads
// go through a short-lived Redis cache; every write invalidates the affected
// list explicitly so no reader ever depends on ambient staleness.
type MasterService struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewMasterService creates a new master data service
func NewMasterService(store *store.Store, redis *redisclient.Client) *MasterService {
	return &MasterService{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// AddProductRequest represents a new product master record
type AddProductRequest struct {
	Name         string   `json:"name" binding:"required"`
	Sizes        []string `json:"sizes" binding:"required,min=1"`
	DefaultPrice float64  `json:"default_price" binding:"gte=0"`
	DefaultCost  float64  `json:"default_cost" binding:"gte=0"`
}

// Products returns the product master list, cache-first
func (ms *MasterService) Products(ctx context.Context) ([]models.Product, error) {
	var cached []models.Product
	hit, err := ms.redis.GetMasterData(ctx, cacheProducts, &cached)
	if err != nil {
		ms.logger.Warn("Master cache read failed", zap.String("list", cacheProducts), zap.Error(err))
	}
	if hit {
		util.MasterCacheHitsTotal.WithLabelValues(cacheProducts, "hit").Inc()
		return cached, nil
	}
	util.MasterCacheHitsTotal.WithLabelValues(cacheProducts, "miss").Inc()

	products, err := ms.store.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	if err := ms.redis.CacheMasterData(ctx, cacheProducts, products, masterCacheTTL); err != nil {
		ms.logger.Warn("Master cache write failed", zap.String("list", cacheProducts), zap.Error(err))
	}
	return products, nil
}

// AddProduct appends a product and invalidates the cached list
func (ms *MasterService) AddProduct(ctx context.Context, req *AddProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("product name must not be blank")
	}

	existing, err := ms.Products(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if p.Name == name {
			return nil, fmt.Errorf("product already exists: %s", name)
		}
	}

	sizes := make([]string, 0, len(req.Sizes))
	for _, s := range req.Sizes {
		if s = strings.TrimSpace(s); s != "" {
			sizes = append(sizes, s)
		}
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("at least one size is required")
	}

	product := &models.Product{
		Name:         name,
		Sizes:        sizes,
		DefaultPrice: req.DefaultPrice,
		DefaultCost:  req.DefaultCost,
	}
	if err := ms.store.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	ms.invalidate(ctx, cacheProducts)
	ms.logger.Info("Product added", zap.String("name", name))
	return product, nil
}

// Clients returns the client master list, cache-first
func (ms *MasterService) Clients(ctx context.Context) ([]models.Client, error) {
	var cached []models.Client
	hit, err := ms.redis.GetMasterData(ctx, cacheClients, &cached)
	if err != nil {
		ms.logger.Warn("Master cache read failed", zap.String("list", cacheClients), zap.Error(err))
	}
	if hit {
		util.MasterCacheHitsTotal.WithLabelValues(cacheClients, "hit").Inc()
		return cached, nil
	}
	util.MasterCacheHitsTotal.WithLabelValues(cacheClients, "miss").Inc()

	clients, err := ms.store.GetClients(ctx)
	if err != nil {
		return nil, err
	}
	if err := ms.redis.CacheMasterData(ctx, cacheClients, clients, masterCacheTTL); err != nil {
		ms.logger.Warn("Master cache write failed", zap.String("list", cacheClients), zap.Error(err))
	}
	return clients, nil
}

// AddClient appends a client and invalidates the cached list
func (ms *MasterService) AddClient(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("client name must not be blank")
	}

	exists, err := ms.store.ClientExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("client already exists: %s", name)
	}

	if err := ms.store.CreateClient(ctx, name); err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	ms.invalidate(ctx, cacheClients)
	ms.logger.Info("Client added", zap.String("name", name))
	return nil
}

// EnsureClient registers the customer if not yet known. Used when a sale
// names a new customer inline instead of going through master management.
func (ms *MasterService) EnsureClient(ctx context.Context, name string) error {
	exists, err := ms.store.ClientExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := ms.store.CreateClient(ctx, name); err != nil {
		return err
	}
	ms.invalidate(ctx, cacheClients)
	ms.logger.Info("Client auto-registered", zap.String("name", name))
	return nil
}

// Suppliers returns the supplier master list, cache-first
func (ms *MasterService) Suppliers(ctx context.Context) ([]models.Supplier, error) {
	var cached []models.Supplier
	hit, err := ms.redis.GetMasterData(ctx, cacheSuppliers, &cached)
	if err != nil {
		ms.logger.Warn("Master cache read failed", zap.String("list", cacheSuppliers), zap.Error(err))
	}
	if hit {
		util.MasterCacheHitsTotal.WithLabelValues(cacheSuppliers, "hit").Inc()
		return cached, nil
	}
	util.MasterCacheHitsTotal.WithLabelValues(cacheSuppliers, "miss").Inc()

	suppliers, err := ms.store.GetSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	if err := ms.redis.CacheMasterData(ctx, cacheSuppliers, suppliers, masterCacheTTL); err != nil {
		ms.logger.Warn("Master cache write failed", zap.String("list", cacheSuppliers), zap.Error(err))
	}
	return suppliers, nil
}

// AddSupplier appends a supplier and invalidates the cached list
func (ms *MasterService) AddSupplier(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("supplier name must not be blank")
	}

	exists, err := ms.store.SupplierExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("supplier already exists: %s", name)
	}

	if err := ms.store.CreateSupplier(ctx, name); err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}
	ms.invalidate(ctx, cacheSuppliers)
	ms.logger.Info("Supplier added", zap.String("name", name))
	return nil
}

// EnsureSupplier registers the supplier if not yet known
func (ms *MasterService) EnsureSupplier(ctx context.Context, name string) error {
	exists, err := ms.store.SupplierExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := ms.store.CreateSupplier(ctx, name); err != nil {
		return err
	}
	ms.invalidate(ctx, cacheSuppliers)
	ms.logger.Info("Supplier auto-registered", zap.String("name", name))
	return nil
}

func (ms *MasterService) invalidate(ctx context.Context, list string) {
	if err := ms.redis.InvalidateMasterData(ctx, list); err != nil {
		ms.logger.Warn("Master cache invalidation failed", zap.String("list", list), zap.Error(err))
	}
}
