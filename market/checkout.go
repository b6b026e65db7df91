package market

import "errors"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderCODWaiting OrderStatus = "cod_waiting"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCODWaiting, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Flat fees in Rupiah.
const (
	ShippingFee = 12000
	ServiceFee  = 1000
	CODFee      = 2000
)

var ErrEmptyCart = errors.New("cart is empty")

// Summary is the price breakdown shown at checkout.
type Summary struct {
	Subtotal    int64 `json:"subtotal"`
	ShippingFee int64 `json:"shipping_fee"`
	ServiceFee  int64 `json:"service_fee"`
	Total       int64 `json:"total"`
}

func Summarize(c *Cart) Summary {
	sub := c.Total()
	return Summary{
		Subtotal:    sub,
		ShippingFee: ShippingFee,
		ServiceFee:  ServiceFee,
		Total:       sub + ShippingFee + ServiceFee,
	}
}

// OrderDraft is one order row to be created from a cart line.
type OrderDraft struct {
	BuyerID        string
	SellerID       string
	PostID         string
	Title          string
	Price          int64
	Image          string
	Quantity       int
	TotalPrice     int64
	Status         OrderStatus
	LocationMeetup string
	Notes          string
	ShippingMethod string
}

// Buyer is the subset of a profile checkout needs to pick a meetup point.
type Buyer struct {
	ID             string
	Location       string
	UniversityName string
}

// MeetupFor picks the meetup location: the explicit choice, then the buyer's
// own location, then their campus.
func MeetupFor(b Buyer, requested string) string {
	switch {
	case requested != "":
		return requested
	case b.Location != "":
		return b.Location
	}
	return b.UniversityName
}

// DraftOrders turns every cart line into a cash-on-delivery order. Stock is
// not touched.
func DraftOrders(b Buyer, c *Cart, meetup, notes string) ([]OrderDraft, error) {
	if c.Empty() {
		return nil, ErrEmptyCart
	}
	loc := MeetupFor(b, meetup)
	drafts := make([]OrderDraft, 0, len(c.Items))
	for _, it := range c.Items {
		n := notes
		if it.Notes != "" {
			n = it.Notes
		}
		drafts = append(drafts, OrderDraft{
			BuyerID:        b.ID,
			SellerID:       it.SellerID,
			PostID:         it.PostID,
			Title:          it.Title,
			Price:          it.Price,
			Image:          it.Image,
			Quantity:       it.Quantity,
			TotalPrice:     it.LineTotal(),
			Status:         OrderCODWaiting,
			LocationMeetup: loc,
			Notes:          n,
			ShippingMethod: it.ShippingMethod,
		})
	}
	return drafts, nil
}

// Payable is what the buyer hands over at the meetup.
func Payable(totalPrice int64) int64 {
	return totalPrice + CODFee
}
