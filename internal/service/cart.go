package service

import (
	"math"

	"vetpos-service/internal/models"
)

// Cart holds the in-progress sale lines. Discrete items merge into a single
// line per product; each dose addition is its own line, never merged.
type Cart struct {
	Items []models.CartItem
}

// CartSummary aggregates the cart's monetary fields.
type CartSummary struct {
	Subtotal      float64 `json:"subtotal"`
	TotalDiscount float64 `json:"total_discount"`
	Total         float64 `json:"total"`
}

// Round2 rounds a currency amount to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// recompute refreshes the derived fields from quantity, unit price and the
// existing discount parameters.
func recompute(item *models.CartItem) {
	item.PriceBeforeDiscount = Round2(item.OriginalPrice * item.Quantity)

	switch item.DiscountType {
	case models.DiscountPercentage:
		item.DiscountAmount = Round2(item.PriceBeforeDiscount * item.DiscountValue / 100)
	case models.DiscountFixed:
		// Deliberately not clamped to the line subtotal; a larger fixed
		// discount produces a negative line total.
		item.DiscountAmount = Round2(item.DiscountValue)
	default:
		item.DiscountAmount = 0
	}

	item.Price = Round2(item.PriceBeforeDiscount - item.DiscountAmount)
}

// AddItem adds a catalog item to the cart. Discrete items already present
// increment their quantity; dose items require doseAmount and always create
// a new line. Online items without stock are rejected.
func (c *Cart) AddItem(p *models.Producto, doseAmount float64) error {
	if p.Source == models.SourceOnline && p.Stock <= 0 {
		return &models.StockConflictError{ProductoID: p.ID, Requested: 1, Available: p.Stock}
	}

	if p.Dose {
		if doseAmount <= 0 {
			return models.NewValidationError("dose amount must be positive for %s", p.Name)
		}
		item := models.CartItem{
			ProductoID:    p.ID,
			Source:        p.Source,
			Name:          p.Name,
			Quantity:      doseAmount,
			Unit:          p.Unit,
			Dose:          true,
			OriginalPrice: p.Price,
			DiscountType:  models.DiscountNone,
		}
		recompute(&item)
		c.Items = append(c.Items, item)
		return nil
	}

	for i := range c.Items {
		if c.Items[i].ProductoID == p.ID && c.Items[i].Source == p.Source && !c.Items[i].Dose {
			return c.ChangeQuantity(i, int(c.Items[i].Quantity)+1, p.Stock)
		}
	}

	item := models.CartItem{
		ProductoID:    p.ID,
		Source:        p.Source,
		Name:          p.Name,
		Quantity:      1,
		OriginalPrice: p.Price,
		DiscountType:  models.DiscountNone,
	}
	recompute(&item)
	c.Items = append(c.Items, item)
	return nil
}

// ChangeQuantity sets the quantity of a discrete line. Quantities above the
// known stock of an online item are capped at that stock and reported as a
// conflict; a quantity below 1 removes the line. The stock argument is the
// caller's last-known snapshot, advisory only.
func (c *Cart) ChangeQuantity(index, newQuantity, stock int) error {
	if index < 0 || index >= len(c.Items) {
		return models.NewValidationError("no cart line at position %d", index)
	}
	item := &c.Items[index]
	if item.Dose {
		return models.NewValidationError("cannot change quantity of a dosed line")
	}

	if newQuantity < 1 {
		c.Remove(index)
		return nil
	}

	if item.Source == models.SourceOnline && newQuantity > stock {
		item.Quantity = float64(stock)
		recompute(item)
		return &models.StockConflictError{
			ProductoID: item.ProductoID,
			Requested:  newQuantity,
			Available:  stock,
		}
	}

	item.Quantity = float64(newQuantity)
	recompute(item)
	return nil
}

// ApplyDiscount sets the discount parameters of a line and recomputes it.
func (c *Cart) ApplyDiscount(index int, discountType string, value float64) error {
	if index < 0 || index >= len(c.Items) {
		return models.NewValidationError("no cart line at position %d", index)
	}
	switch discountType {
	case models.DiscountNone, models.DiscountPercentage, models.DiscountFixed:
	default:
		return models.NewValidationError("unknown discount type %q", discountType)
	}
	if value < 0 {
		return models.NewValidationError("discount value cannot be negative")
	}

	item := &c.Items[index]
	item.DiscountType = discountType
	item.DiscountValue = value
	recompute(item)
	return nil
}

// SetUnitPrice overrides the unit price of a line and recomputes it.
func (c *Cart) SetUnitPrice(index int, price float64) error {
	if index < 0 || index >= len(c.Items) {
		return models.NewValidationError("no cart line at position %d", index)
	}
	if price < 0 {
		return models.NewValidationError("unit price cannot be negative")
	}

	item := &c.Items[index]
	item.OriginalPrice = price
	recompute(item)
	return nil
}

// Remove deletes a line from the cart.
func (c *Cart) Remove(index int) {
	if index < 0 || index >= len(c.Items) {
		return
	}
	c.Items = append(c.Items[:index], c.Items[index+1:]...)
}

// Summary returns the cart totals.
func (c *Cart) Summary() CartSummary {
	var summary CartSummary
	for _, item := range c.Items {
		summary.Subtotal += item.PriceBeforeDiscount
		summary.TotalDiscount += item.DiscountAmount
		summary.Total += item.Price
	}
	summary.Subtotal = Round2(summary.Subtotal)
	summary.TotalDiscount = Round2(summary.TotalDiscount)
	summary.Total = Round2(summary.Total)
	return summary
}
