package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prasetyow/product-catalog-service/internal/catalog/domain"
	"github.com/prasetyow/product-catalog-service/internal/catalog/service"
	"github.com/prasetyow/product-catalog-service/internal/platform/logger"
)

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(ps service.ProductService) *ProductHandler {
	return &ProductHandler{productService: ps}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	productRoutes := router.Group("/products")
	{
		productRoutes.GET("", h.ListProducts)
		productRoutes.GET("/", h.ListProducts)
		productRoutes.GET("/:id", h.GetProduct)
		productRoutes.PUT("/:id", auth, h.EditProduct)
		productRoutes.DELETE("/:id", auth, h.DeleteProduct)
		productRoutes.POST("/:id/discounts", auth, h.AddDiscount)
		productRoutes.PUT("/:id/reserve", auth, RequireService(), h.ReserveStock)
		productRoutes.PUT("/:id/return", auth, RequireService(), h.ReturnStock)
	}
	requestRoutes := router.Group("/requests")
	{
		requestRoutes.POST("", auth, h.SubmitRequest)
		requestRoutes.GET("", auth, RequireAdmin(), h.ListRequests)
		requestRoutes.GET("/:id", auth, RequireAdmin(), h.GetRequest)
		requestRoutes.POST("/:id/approve", auth, RequireAdmin(), h.ApproveRequest)
		requestRoutes.DELETE("/:id", auth, RequireAdmin(), h.RejectRequest)
	}
}

// --- Products ---

// ListProducts serves the public catalog; with an ids query parameter it
// instead returns the raw products for a batch lookup, which is how sibling
// services resolve order lines without N round trips.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	if rawIDs := c.Query("ids"); rawIDs != "" {
		h.listProductsByIDs(c, rawIDs)
		return
	}

	products, err := h.productService.ListProducts(c.Request.Context())
	if err != nil {
		logger.Error("ListProducts: service error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) listProductsByIDs(c *gin.Context, rawIDs string) {
	parts := strings.Split(rawIDs, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ids parameter"})
			return
		}
		ids = append(ids, id)
	}

	products, err := h.productService.GetProductsByIDs(c.Request.Context(), ids)
	if err != nil {
		logger.Error("listProductsByIDs: service error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetProduct")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) EditProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	identity, ok := IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	var dto domain.ProductCreateRequest
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.productService.EditProduct(c.Request.Context(), identity, id, dto)
	if err != nil {
		respondServiceError(c, err, "EditProduct")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	identity, ok := IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), identity, id); err != nil {
		respondServiceError(c, err, "DeleteProduct")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) AddDiscount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	identity, ok := IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	var dto domain.DiscountCreateRequest
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	discount, err := h.productService.AddDiscount(c.Request.Context(), identity, id, dto)
	if err != nil {
		respondServiceError(c, err, "AddDiscount")
		return
	}
	c.JSON(http.StatusCreated, discount)
}

// --- Stock ---

func (h *ProductHandler) ReserveStock(c *gin.Context) {
	h.stockOperation(c, h.productService.ReserveStock)
}

func (h *ProductHandler) ReturnStock(c *gin.Context) {
	h.stockOperation(c, h.productService.ReturnStock)
}

func (h *ProductHandler) stockOperation(c *gin.Context, op func(ctx context.Context, id int64, quantity int) error) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req domain.StockOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Quantities below 1 never reach the service.
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := op(c.Request.Context(), id, req.Quantity); err != nil {
		respondServiceError(c, err, "stockOperation")
		return
	}
	c.Status(http.StatusOK)
}

// --- Creation requests ---

func (h *ProductHandler) SubmitRequest(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	var dto domain.ProductCreateRequest
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.productService.SubmitRequest(c.Request.Context(), identity, dto)
	if err != nil {
		respondServiceError(c, err, "SubmitRequest")
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *ProductHandler) ListRequests(c *gin.Context) {
	requests, err := h.productService.ListRequests(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "ListRequests")
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *ProductHandler) GetRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	request, err := h.productService.GetRequest(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetRequest")
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h *ProductHandler) ApproveRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := h.productService.ApproveRequest(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "ApproveRequest")
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) RejectRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.productService.RejectRequest(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "RejectRequest")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- helpers ---

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// respondServiceError maps the business-failure taxonomy onto HTTP statuses.
// Anything unrecognized is an infrastructure fault and stays a 500.
func respondServiceError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrOrganizationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case domain.IsInvalidOwner(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrOrganizationFrozen),
		errors.Is(err, domain.ErrOrganizationDeleted),
		errors.Is(err, domain.ErrProductNameConflict),
		errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidProduct),
		errors.Is(err, domain.ErrInvalidDiscount),
		errors.Is(err, domain.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error(op+": service error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
