package router

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/envelope-app/segora-backend/db"
	"github.com/envelope-app/segora-backend/market"
)

func cartResponse(c *market.Cart) *CartResponse {
	items := c.Items
	if items == nil {
		items = []market.CartItem{}
	}
	return &CartResponse{Items: items, Total: c.Total(), BySeller: c.BySeller()}
}

func cartError(err error) *HTTPError {
	switch {
	case errors.Is(err, market.ErrNotInCart):
		return &HTTPError{
			IError:    err,
			Level:     1,
			Error:     "Item not in cart",
			Status:    http.StatusNotFound,
			ErrorCode: ErrNotFound,
		}
	case errors.Is(err, market.ErrOutOfStock):
		return &HTTPError{
			IError:    err,
			Level:     1,
			Error:     "Item is out of stock",
			Status:    http.StatusConflict,
			ErrorCode: ErrConflict,
		}
	}
	return storeError(err, "Cart")
}

// saveCart stores c and writes it back to the client.
func saveCart(rc *RouterContext, w http.ResponseWriter, c *market.Cart) *HTTPError {
	if err := rc.cache.SaveCart(rc.userID, c); err != nil {
		return cartError(err)
	}
	return writeJSON(w, http.StatusOK, cartResponse(c))
}

func GetCart() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		c, err := rc.cache.LoadCart(rc.userID)
		if err != nil {
			return cartError(err)
		}
		return writeJSON(w, http.StatusOK, cartResponse(c))
	}
}

// AddToCart snapshots a product into the caller's cart.
func AddToCart() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		var req AddToCartRequest
		if e := parseJSON(r, &req); e != nil {
			return e
		}
		id, err := uuid.Parse(req.PostID)
		if err != nil {
			return handleMissingDataError("post_id")
		}
		if req.Quantity < 0 {
			return invalidData(errors.New("quantity must not be negative"))
		}

		p, err := rc.store.GetPost(r.Context(), id.String())
		if err != nil {
			return storeError(err, "Post")
		}
		if p.Type != market.PostProduct {
			return invalidData(errors.New("only products can be added to the cart"))
		}
		if p.UserID == rc.userID {
			return invalidData(errors.New("you cannot buy your own post"))
		}

		item := market.CartItem{
			PostID:   p.ID,
			SellerID: p.UserID,
			Title:    p.Title,
			Price:    p.Price,
			Quantity: req.Quantity,
			Variant:  req.Variant,
			Stock:    1,
		}
		if p.Stock != nil {
			item.Stock = *p.Stock
		}
		if len(p.Images) > 0 {
			item.Image = p.Images[0]
		}
		if p.Seller != nil {
			item.SellerName = p.Seller.Name
		}
		if len(p.ShippingMethods) > 0 {
			item.ShippingMethod = p.ShippingMethods[0]
		}

		c, err := rc.cache.LoadCart(rc.userID)
		if err != nil {
			return cartError(err)
		}
		if err := c.Add(item); err != nil {
			return cartError(err)
		}
		return saveCart(rc, w, c)
	}
}

func UpdateCartItem() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		postID := mux.Vars(r)["postId"]
		var req UpdateCartItemRequest
		if e := parseJSON(r, &req); e != nil {
			return e
		}

		c, err := rc.cache.LoadCart(rc.userID)
		if err != nil {
			return cartError(err)
		}
		if req.Quantity != nil {
			err = c.UpdateQuantity(postID, *req.Quantity)
		}
		if err == nil && req.ShippingMethod != nil {
			err = c.UpdateShipping(postID, *req.ShippingMethod)
		}
		if err == nil && req.Notes != nil {
			err = c.UpdateNotes(postID, *req.Notes)
		}
		if err != nil {
			return cartError(err)
		}
		return saveCart(rc, w, c)
	}
}

func RemoveCartItem() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		c, err := rc.cache.LoadCart(rc.userID)
		if err != nil {
			return cartError(err)
		}
		if err := c.Remove(mux.Vars(r)["postId"]); err != nil {
			return cartError(err)
		}
		return saveCart(rc, w, c)
	}
}

func ClearCart() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		c, err := rc.cache.LoadCart(rc.userID)
		if err != nil {
			return cartError(err)
		}
		c.Clear()
		return saveCart(rc, w, c)
	}
}

// Checkout turns the cart into cash-on-delivery orders and empties it.
func Checkout() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		var req CheckoutRequest
		if e := parseJSON(r, &req); e != nil && !errors.Is(e.IError, io.EOF) {
			return e
		}

		c, err := rc.cache.LoadCart(rc.userID)
		if err != nil {
			return cartError(err)
		}
		buyer := market.Buyer{
			ID:             rc.userID,
			Location:       rc.profile.Location,
			UniversityName: rc.profile.UniversityName,
		}
		drafts, err := market.DraftOrders(buyer, c, req.LocationMeetup, req.Notes)
		if err != nil {
			return invalidData(err)
		}
		summary := market.Summarize(c)

		ids, err := rc.store.CreateOrders(r.Context(), drafts)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return invalidData(errors.New("a post in the cart no longer exists"))
			}
			return storeError(err, "Order")
		}

		if e := writeJSON(w, http.StatusCreated, &CheckoutResponse{OrderIDs: ids, Summary: summary}); e != nil {
			return e
		}
		if err := rc.cache.ClearCart(rc.userID); err != nil {
			return &HTTPError{IError: err, Level: 2}
		}
		return nil
	}
}
