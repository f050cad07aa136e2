package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"cartservice/internal/domain"
	"cartservice/internal/money"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type cartResponse struct {
	ID               string         `json:"id"`
	CustomerID       string         `json:"customerId"`
	Items            []itemResponse `json:"items"`
	Archived         bool           `json:"archived"`
	AppliedPromoCode *string        `json:"appliedPromoCode"`
	SubTotal         json.Number    `json:"subTotal"`
	DiscountAmount   json.Number    `json:"discountAmount"`
	TotalPrice       json.Number    `json:"totalPrice"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type itemResponse struct {
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	UnitPrice json.Number `json:"unitPrice"`
	ItemTotal json.Number `json:"itemTotal"`
}

func amount(d decimal.Decimal) json.Number {
	return json.Number(money.Format(d))
}

func toCartResponse(c domain.Cart) cartResponse {
	items := make([]itemResponse, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, itemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: amount(item.UnitPrice),
			ItemTotal: amount(item.ItemTotal()),
		})
	}
	var promo *string
	if c.AppliedPromoCode != "" {
		code := c.AppliedPromoCode
		promo = &code
	}
	return cartResponse{
		ID:               c.ID,
		CustomerID:       c.CustomerID,
		Items:            items,
		Archived:         c.Archived,
		AppliedPromoCode: promo,
		SubTotal:         amount(c.SubTotal),
		DiscountAmount:   amount(c.DiscountAmount),
		TotalPrice:       amount(c.TotalPrice),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

type errorBody struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify maps a service error onto a status code and a stable error name.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNoActiveCart):
		return http.StatusNotFound, "NoActiveCart"
	case errors.Is(err, domain.ErrNoArchivedCart):
		return http.StatusNotFound, "NoArchivedCart"
	case errors.Is(err, domain.ErrCartNotFound):
		return http.StatusNotFound, "CartNotFound"
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "ProductNotFound"
	case errors.Is(err, domain.ErrInvalidPromoCode):
		return http.StatusBadRequest, "InvalidPromoCode"
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest, "EmptyCart"
	case errors.Is(err, domain.ErrMissingSignature):
		return http.StatusBadRequest, "MissingSignature"
	case errors.Is(err, domain.ErrInvalidConfirmationType):
		return http.StatusBadRequest, "InvalidConfirmationType"
	case errors.Is(err, domain.ErrInvalidItem):
		return http.StatusBadRequest, "InvalidItem"
	case errors.Is(err, domain.ErrCheckoutPublishFailed):
		return http.StatusBadGateway, "CheckoutPublishFailed"
	default:
		return http.StatusInternalServerError, "InternalError"
	}
}

func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status, name := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	c.JSON(status, errorBody{Status: status, Error: name, Message: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{Status: http.StatusBadRequest, Error: "BadRequest", Message: msg})
}
