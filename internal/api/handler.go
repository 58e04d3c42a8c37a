package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/OscarIvaVP/inventario-ventas/internal/models"
	"github.com/OscarIvaVP/inventario-ventas/internal/recon"
	"github.com/OscarIvaVP/inventario-ventas/internal/service"
	"github.com/OscarIvaVP/inventario-ventas/internal/store"
	"github.com/OscarIvaVP/inventario-ventas/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	ledger  *service.LedgerService
	masters *service.MasterService
	reconS  *service.ReconService
	carts   *service.CartService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	ledger *service.LedgerService,
	masters *service.MasterService,
	reconS *service.ReconService,
	carts *service.CartService,
) *Handler {
	return &Handler{
		ledger:  ledger,
		masters: masters,
		reconS:  reconS,
		carts:   carts,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/sales", h.recordSale)
		v1.GET("/sales/:id", h.getSale)
		v1.POST("/sales/:id/settle", h.settleSale)
		v1.GET("/sales/:id/payments", h.getSalePayments)

		v1.POST("/purchases", h.recordPurchase)
		v1.GET("/purchases/:id", h.getPurchase)

		v1.POST("/payments", h.recordPayment)

		v1.GET("/inventory", h.getInventory)
		v1.POST("/inventory/recompute", h.recomputeInventory)

		v1.GET("/receivables", h.getReceivables)
		v1.GET("/finance/summary", h.getFinancialSummary)
		v1.GET("/finance/periods", h.getPeriods)

		v1.GET("/products", h.listProducts)
		v1.POST("/products", h.addProduct)
		v1.GET("/clients", h.listClients)
		v1.POST("/clients", h.addClient)
		v1.GET("/suppliers", h.listSuppliers)
		v1.POST("/suppliers", h.addSupplier)

		carts := v1.Group("/carts/:session/:kind")
		{
			carts.GET("/items", h.listCartItems)
			carts.POST("/items", h.addCartItem)
			carts.DELETE("/items/:index", h.removeCartItem)
			carts.DELETE("/items", h.clearCart)
			carts.POST("/checkout", h.checkoutCart)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// recordSale handles sale recording
func (h *Handler) recordSale(c *gin.Context) {
	var req service.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.ledger.RecordSale(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to record sale",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getSale handles get sale by ID
func (h *Handler) getSale(c *gin.Context) {
	lines, err := h.ledger.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Sale not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sale_id": c.Param("id"), "lines": lines})
}

// settleSale marks a sale as fully paid without a payment row
func (h *Handler) settleSale(c *gin.Context) {
	if err := h.ledger.SettleSale(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to settle sale",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sale_id": c.Param("id"),
		"status":  models.PaymentStatusPaid,
	})
}

// getSalePayments lists payments recorded against a sale
func (h *Handler) getSalePayments(c *gin.Context) {
	payments, err := h.ledger.GetPaymentsForSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Sale not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sale_id": c.Param("id"), "payments": payments})
}

// recordPurchase handles purchase recording
func (h *Handler) recordPurchase(c *gin.Context) {
	var req service.RecordPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.ledger.RecordPurchase(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to record purchase",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getPurchase handles get purchase by ID
func (h *Handler) getPurchase(c *gin.Context) {
	lines, err := h.ledger.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Purchase not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchase_id": c.Param("id"), "lines": lines})
}

// recordPayment handles payment recording
func (h *Handler) recordPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.ledger.RecordPayment(c.Request.Context(), &req)
	if err != nil {
		c.JSON(errStatus(err, http.StatusInternalServerError), gin.H{
			"error":   "Failed to record payment",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getInventory returns the current snapshot without recomputing
func (h *Handler) getInventory(c *gin.Context) {
	snapshot, err := h.reconS.Inventory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read inventory",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inventory": snapshot})
}

// recomputeInventory forces a full rescan and snapshot swap
func (h *Handler) recomputeInventory(c *gin.Context) {
	snapshot, err := h.reconS.RecomputeInventory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to recompute inventory",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inventory": snapshot})
}

// getReceivables lists outstanding balances per pending sale
func (h *Handler) getReceivables(c *gin.Context) {
	receivables, err := h.reconS.Receivables(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute receivables",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"receivables": receivables})
}

// getFinancialSummary returns income/expense/profit for one period
func (h *Handler) getFinancialSummary(c *gin.Context) {
	period := c.DefaultQuery("period", recon.PeriodAll)

	summary, err := h.reconS.FinancialSummary(c.Request.Context(), period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute financial summary",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// getPeriods lists the months with ledger activity
func (h *Handler) getPeriods(c *gin.Context) {
	periods, err := h.reconS.AvailablePeriods(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list periods",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"periods": periods})
}

// listProducts returns the product master list
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.masters.Products(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list products",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// addProduct appends a product master record
func (h *Handler) addProduct(c *gin.Context) {
	var req service.AddProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.masters.AddProduct(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to add product",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, product)
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

// listClients returns the client master list
func (h *Handler) listClients(c *gin.Context) {
	clients, err := h.masters.Clients(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list clients",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

// addClient appends a client master record
func (h *Handler) addClient(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.masters.AddClient(c.Request.Context(), req.Name); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to add client",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": req.Name})
}

// listSuppliers returns the supplier master list
func (h *Handler) listSuppliers(c *gin.Context) {
	suppliers, err := h.masters.Suppliers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list suppliers",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers})
}

// addSupplier appends a supplier master record
func (h *Handler) addSupplier(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.masters.AddSupplier(c.Request.Context(), req.Name); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to add supplier",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": req.Name})
}

// listCartItems lists a session's pending cart
func (h *Handler) listCartItems(c *gin.Context) {
	items, err := h.carts.Items(c.Request.Context(), c.Param("session"), c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to read cart",
			"details": err.Error(),
		})
		return
	}

	var total float64
	for _, item := range items {
		total += item.Total()
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// addCartItem appends a pending item to a session cart
func (h *Handler) addCartItem(c *gin.Context) {
	var item models.CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.carts.AddItem(c.Request.Context(), c.Param("session"), c.Param("kind"), item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to add cart item",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, item)
}

// removeCartItem drops one pending item by position
func (h *Handler) removeCartItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart index"})
		return
	}

	if err := h.carts.RemoveItem(c.Request.Context(), c.Param("session"), c.Param("kind"), index); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to remove cart item",
			"details": err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// clearCart drops a session cart
func (h *Handler) clearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), c.Param("session"), c.Param("kind")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to clear cart",
			"details": err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// checkoutCart finalizes a session cart into a sale or purchase
func (h *Handler) checkoutCart(c *gin.Context) {
	session := c.Param("session")
	kind := c.Param("kind")

	switch kind {
	case service.CartKindSale:
		var req service.CheckoutSaleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request body",
				"details": err.Error(),
			})
			return
		}
		if req.IdempotencyKey == "" {
			req.IdempotencyKey = c.GetHeader("Idempotency-Key")
		}
		resp, err := h.carts.CheckoutSale(c.Request.Context(), session, &req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to checkout sale",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusCreated, resp)

	case service.CartKindPurchase:
		var req service.CheckoutPurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request body",
				"details": err.Error(),
			})
			return
		}
		if req.IdempotencyKey == "" {
			req.IdempotencyKey = c.GetHeader("Idempotency-Key")
		}
		resp, err := h.carts.CheckoutPurchase(c.Request.Context(), session, &req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to checkout purchase",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusCreated, resp)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown cart kind"})
	}
}

// errStatus maps missing-id lookups to 404 and everything else to fallback
func errStatus(err error, fallback int) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return fallback
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
