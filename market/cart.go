package market

import "errors"

var (
	ErrNotInCart  = errors.New("item not in cart")
	ErrOutOfStock = errors.New("item is out of stock")
)

// CartItem is a line in a buyer's cart. Price, title, image and seller are
// snapshots taken when the line was added.
type CartItem struct {
	PostID         string `json:"post_id"`
	SellerID       string `json:"seller_id"`
	SellerName     string `json:"seller_name,omitempty"`
	Title          string `json:"title"`
	Image          string `json:"image"`
	Price          int64  `json:"price"`
	Quantity       int    `json:"quantity"`
	Variant        string `json:"variant,omitempty"`
	Stock          int    `json:"stock"`
	ShippingMethod string `json:"shipping_method,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// LineTotal is price times quantity.
func (i CartItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

func clampQuantity(q, stock int) int {
	if q > stock {
		q = stock
	}
	if q < 1 {
		q = 1
	}
	return q
}

// Cart is the per-user shopping cart.
type Cart struct {
	Items []CartItem `json:"items"`
}

// each applies fn to every line for the post, whatever its variant.
func (c *Cart) each(postID string, fn func(*CartItem)) error {
	found := false
	for i := range c.Items {
		if c.Items[i].PostID == postID {
			fn(&c.Items[i])
			found = true
		}
	}
	if !found {
		return ErrNotInCart
	}
	return nil
}

// Add puts an item in the cart. A line for the same post and variant absorbs
// the new quantity instead of being duplicated. Quantities never exceed the
// snapshotted stock.
func (c *Cart) Add(item CartItem) error {
	if item.Stock <= 0 {
		return ErrOutOfStock
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	for i := range c.Items {
		existing := &c.Items[i]
		if existing.PostID == item.PostID && existing.Variant == item.Variant {
			existing.Stock = item.Stock
			existing.Price = item.Price
			existing.Quantity = clampQuantity(existing.Quantity+item.Quantity, item.Stock)
			return nil
		}
	}
	item.Quantity = clampQuantity(item.Quantity, item.Stock)
	c.Items = append(c.Items, item)
	return nil
}

// Remove drops every line for the post.
func (c *Cart) Remove(postID string) error {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.PostID != postID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(c.Items) {
		return ErrNotInCart
	}
	c.Items = kept
	return nil
}

// UpdateQuantity sets the quantity of every line for the post, clamped to
// each line's stock.
func (c *Cart) UpdateQuantity(postID string, quantity int) error {
	return c.each(postID, func(it *CartItem) {
		it.Quantity = clampQuantity(quantity, it.Stock)
	})
}

func (c *Cart) UpdateShipping(postID, method string) error {
	return c.each(postID, func(it *CartItem) { it.ShippingMethod = method })
}

func (c *Cart) UpdateNotes(postID, notes string) error {
	return c.each(postID, func(it *CartItem) { it.Notes = notes })
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

// Total sums every line total.
func (c *Cart) Total() int64 {
	var sum int64
	for _, it := range c.Items {
		sum += it.LineTotal()
	}
	return sum
}

// BySeller groups lines by seller id, preserving cart order inside a group.
func (c *Cart) BySeller() map[string][]CartItem {
	out := make(map[string][]CartItem)
	for _, it := range c.Items {
		out[it.SellerID] = append(out[it.SellerID], it)
	}
	return out
}
