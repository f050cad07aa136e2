package cart

import (
	"context"
	"fmt"
	"strings"

	"cartservice/internal/domain"
	"github.com/shopspring/decimal"
)

// Command is a reversible cart mutation. Execute and Undo both re-read the
// customer's active cart, so a command holds identifiers and deltas only.
type Command interface {
	Execute(ctx context.Context) (*domain.Cart, error)
	Undo(ctx context.Context) (*domain.Cart, error)
}

var (
	_ Command = (*AddItem)(nil)
	_ Command = (*UpdateQuantity)(nil)
	_ Command = (*RemoveItem)(nil)
)

type AddItem struct {
	svc        *Service
	customerID string
	item       domain.CartItem
}

// NewAddItem validates the line and returns a command that adds it, merging
// quantities when the product is already in the cart.
func (s *Service) NewAddItem(customerID string, item domain.CartItem) (*AddItem, error) {
	item.ProductID = strings.TrimSpace(item.ProductID)
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if item.Quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidItem)
	}
	return &AddItem{svc: s, customerID: customerID, item: item}, nil
}

func (c *AddItem) Execute(ctx context.Context) (*domain.Cart, error) {
	cart, err := c.svc.active(ctx, c.customerID)
	if err != nil {
		return nil, err
	}
	if idx, ok := cart.FindItem(c.item.ProductID); ok {
		if err := cart.Items[idx].MergeQuantity(c.item.Quantity); err != nil {
			return nil, err
		}
	} else {
		cart.Items = append(cart.Items, c.item)
	}
	return c.svc.save(ctx, cart)
}

func (c *AddItem) Undo(ctx context.Context) (*domain.Cart, error) {
	cart, err := c.svc.active(ctx, c.customerID)
	if err != nil {
		return nil, err
	}
	if idx, ok := cart.FindItem(c.item.ProductID); ok {
		cart.Items[idx].Quantity -= c.item.Quantity
		if cart.Items[idx].Quantity <= 0 {
			cart.RemoveItem(c.item.ProductID)
		}
	}
	return c.svc.save(ctx, cart)
}

type UpdateQuantity struct {
	svc        *Service
	customerID string
	productID  string
	quantity   int

	executed         bool
	previousQuantity int
	unitPrice        decimal.Decimal
}

// NewUpdateQuantity returns a command that sets a line's quantity. A quantity
// of zero or less removes the line.
func (s *Service) NewUpdateQuantity(customerID, productID string, quantity int) *UpdateQuantity {
	return &UpdateQuantity{
		svc:        s,
		customerID: customerID,
		productID:  strings.TrimSpace(productID),
		quantity:   quantity,
	}
}

func (c *UpdateQuantity) Execute(ctx context.Context) (*domain.Cart, error) {
	if c.quantity > domain.MaxQuantity {
		return nil, fmt.Errorf("%w: quantity exceeds %d", domain.ErrInvalidItem, domain.MaxQuantity)
	}
	cart, err := c.svc.active(ctx, c.customerID)
	if err != nil {
		return nil, err
	}
	idx, ok := cart.FindItem(c.productID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, c.productID)
	}
	c.executed = true
	c.previousQuantity = cart.Items[idx].Quantity
	c.unitPrice = cart.Items[idx].UnitPrice
	if c.quantity <= 0 {
		cart.RemoveItem(c.productID)
	} else {
		cart.Items[idx].Quantity = c.quantity
	}
	return c.svc.save(ctx, cart)
}

// Undo restores the quantity seen by Execute. Before Execute it returns the
// active cart unchanged.
func (c *UpdateQuantity) Undo(ctx context.Context) (*domain.Cart, error) {
	cart, err := c.svc.active(ctx, c.customerID)
	if err != nil {
		return nil, err
	}
	if !c.executed {
		return cart, nil
	}
	idx, ok := cart.FindItem(c.productID)
	switch {
	case c.previousQuantity <= 0:
		cart.RemoveItem(c.productID)
	case ok:
		cart.Items[idx].Quantity = c.previousQuantity
	default:
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: c.productID,
			Quantity:  c.previousQuantity,
			UnitPrice: c.unitPrice,
		})
	}
	return c.svc.save(ctx, cart)
}

type RemoveItem struct {
	svc        *Service
	customerID string
	productID  string

	removed *domain.CartItem
}

// NewRemoveItem returns a command that drops a line. Removing a product that
// is not in the cart is a no-op.
func (s *Service) NewRemoveItem(customerID, productID string) *RemoveItem {
	return &RemoveItem{svc: s, customerID: customerID, productID: strings.TrimSpace(productID)}
}

func (c *RemoveItem) Execute(ctx context.Context) (*domain.Cart, error) {
	cart, err := c.svc.active(ctx, c.customerID)
	if err != nil {
		return nil, err
	}
	if removed, ok := cart.RemoveItem(c.productID); ok {
		c.removed = &removed
	}
	return c.svc.save(ctx, cart)
}

func (c *RemoveItem) Undo(ctx context.Context) (*domain.Cart, error) {
	cart, err := c.svc.active(ctx, c.customerID)
	if err != nil {
		return nil, err
	}
	if c.removed != nil {
		if idx, ok := cart.FindItem(c.productID); ok {
			if err := cart.Items[idx].MergeQuantity(c.removed.Quantity); err != nil {
				return nil, err
			}
		} else {
			cart.Items = append(cart.Items, *c.removed)
		}
	}
	return c.svc.save(ctx, cart)
}
