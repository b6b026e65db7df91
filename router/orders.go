package router

import (
	"errors"
	"net/http"

	"github.com/envelope-app/segora-backend/db"
	"github.com/envelope-app/segora-backend/market"
)

// ListOrders lists the caller's purchases, or sales with role=seller.
func ListOrders() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		role := db.OrderRole(r.URL.Query().Get("role"))
		switch role {
		case "":
			role = db.RoleBuyer
		case db.RoleBuyer, db.RoleSeller:
		default:
			return invalidData(errors.New("role must be buyer or seller"))
		}

		orders, err := rc.store.ListOrders(r.Context(), rc.userID, role)
		if err != nil {
			return storeError(err, "Order")
		}
		return writeJSON(w, http.StatusOK, &OrdersResponse{Orders: orders})
	}
}

func memberOrder(rc *RouterContext, r *http.Request) (*db.Order, *HTTPError) {
	id, e := pathID(r, "id", "Order")
	if e != nil {
		return nil, e
	}
	o, err := rc.store.GetOrder(r.Context(), id)
	if err != nil {
		return nil, storeError(err, "Order")
	}
	if o.BuyerID != rc.userID && o.SellerID != rc.userID {
		return nil, forbidden("You are not part of this order")
	}
	return o, nil
}

// orderView resolves the display fields, preferring the snapshot taken at
// checkout over the live post.
func orderView(o *db.Order) *OrderView {
	v := &OrderView{
		Order:   *o,
		Title:   o.SnapshotTitle,
		Price:   o.SnapshotPrice,
		Image:   o.SnapshotImage,
		Payable: market.Payable(o.TotalPrice),
	}
	if v.Title == "" {
		v.Title = o.PostTitle
	}
	if v.Price == 0 && o.PostPrice != nil {
		v.Price = *o.PostPrice
	}
	if v.Image == "" && len(o.PostImages) > 0 {
		v.Image = o.PostImages[0]
	}
	return v
}

func GetOrder() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		o, e := memberOrder(rc, r)
		if e != nil {
			return e
		}
		return writeJSON(w, http.StatusOK, orderView(o))
	}
}

// UpdateOrderStatus lets either party set any valid status.
func UpdateOrderStatus() Handler {
	return func(rc *RouterContext, w http.ResponseWriter, r *http.Request) *HTTPError {
		o, e := memberOrder(rc, r)
		if e != nil {
			return e
		}
		var req UpdateOrderStatusRequest
		if e := parseJSON(r, &req); e != nil {
			return e
		}
		status := market.OrderStatus(req.Status)
		if !status.Valid() {
			return invalidData(errors.New("unknown order status"))
		}

		if err := rc.store.UpdateOrderStatus(r.Context(), o.ID, status); err != nil {
			return storeError(err, "Order")
		}
		o.Status = status
		return writeJSON(w, http.StatusOK, orderView(o))
	}
}
