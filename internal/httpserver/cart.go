package httpserver

import (
	"context"
	"net/http"
	"strconv"

	"cartservice/internal/domain"
	cartsvc "cartservice/internal/service/cart"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService is the cart surface the HTTP layer drives.
type CartService interface {
	Create(ctx context.Context, customerID string) (*domain.Cart, bool, error)
	Get(ctx context.Context, customerID string) (*domain.Cart, error)
	Delete(ctx context.Context, customerID string) error
	AddItem(ctx context.Context, customerID string, item domain.CartItem) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, customerID, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, customerID, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, customerID string) (*domain.Cart, error)
	Archive(ctx context.Context, customerID string) (*domain.Cart, error)
	Unarchive(ctx context.Context, customerID string) (*domain.Cart, error)
	ApplyPromoCode(ctx context.Context, customerID, code string) (*domain.Cart, error)
	RemovePromoCode(ctx context.Context, customerID string) (*domain.Cart, error)
	Checkout(ctx context.Context, customerID string, in cartsvc.CheckoutInput) (*domain.Cart, error)
}

type cartHandler struct {
	carts  CartService
	logger *zap.Logger
}

type addItemRequest struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func customerID(c *gin.Context) string {
	return c.GetHeader(customerHeader)
}

func (h *cartHandler) respond(c *gin.Context, status int, cart *domain.Cart, err error) {
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(status, toCartResponse(*cart))
}

// create answers 201 for a new cart and 200 when the customer already had one.
func (h *cartHandler) create(c *gin.Context) {
	cart, created, err := h.carts.Create(c.Request.Context(), customerID(c))
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.respond(c, status, cart, err)
}

func (h *cartHandler) get(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), customerID(c))
	h.respond(c, http.StatusOK, cart, err)
}

func (h *cartHandler) delete(c *gin.Context) {
	if err := h.carts.Delete(c.Request.Context(), customerID(c)); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *cartHandler) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	cart, err := h.carts.AddItem(c.Request.Context(), customerID(c), domain.CartItem{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	})
	h.respond(c, http.StatusOK, cart, err)
}

func (h *cartHandler) updateItemQuantity(c *gin.Context) {
	quantity, err := strconv.Atoi(c.Query("quantity"))
	if err != nil {
		badRequest(c, "quantity query parameter must be an integer")
		return
	}
	cart, err := h.carts.UpdateItemQuantity(c.Request.Context(), customerID(c), c.Param("productId"), quantity)
	h.respond(c, http.StatusOK, cart, err)
}

func (h *cartHandler) removeItem(c *gin.Context) {
	cart, err := h.carts.RemoveItem(c.Request.Context(), customerID(c), c.Param("productId"))
	h.respond(c, http.StatusOK, cart, err)
}

func (h *cartHandler) clear(c *gin.Context) {
	cart, err := h.carts.Clear(c.Request.Context(), customerID(c))
	h.respond(c, http.StatusOK, cart, err)
}

func (h *cartHandler) archive(c *gin.Context) {
	cart, err := h.carts.Archive(c.Request.Context(), customerID(c))
	h.respond(c, http.StatusOK, cart, err)
}

func (h *cartHandler) unarchive(c *gin.Context) {
	cart, err := h.carts.Unarchive(c.Request.Context(), customerID(c))
	h.respond(c, http.StatusOK, cart, err)
}

func (h *cartHandler) applyPromoCode(c *gin.Context) {
	cart, err := h.carts.ApplyPromoCode(c.Request.Context(), customerID(c), c.Param("code"))
	h.respond(c, http.StatusOK, cart, err)
}

func (h *cartHandler) removePromoCode(c *gin.Context) {
	cart, err := h.carts.RemovePromoCode(c.Request.Context(), customerID(c))
	h.respond(c, http.StatusOK, cart, err)
}

func (h *cartHandler) checkout(c *gin.Context) {
	var in cartsvc.CheckoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	cart, err := h.carts.Checkout(c.Request.Context(), customerID(c), in)
	h.respond(c, http.StatusOK, cart, err)
}
