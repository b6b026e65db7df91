package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/envelope-app/segora-backend/market"
)

const orderSelect = `SELECT o.id, o.buyer_id, o.seller_id, o.post_id, o.snapshot_title, o.snapshot_price,
	o.snapshot_image, o.quantity, o.total_price, o.status, o.location_meetup, o.notes, o.shipping_method,
	o.created_at, o.updated_at,
	seller.name, seller.avatar_url, buyer.name, p.title, p.images, p.price
	FROM orders o
	LEFT JOIN profiles seller ON seller.id = o.seller_id
	LEFT JOIN profiles buyer ON buyer.id = o.buyer_id
	LEFT JOIN posts p ON p.id = o.post_id`

func scanOrder(s scanner) (*Order, error) {
	var (
		o                     Order
		postID                sql.NullString
		sellerName, buyerName sql.NullString
		sellerAvatar          sql.NullString
		postTitle             sql.NullString
		postPrice             sql.NullInt64
	)
	err := s.Scan(&o.ID, &o.BuyerID, &o.SellerID, &postID, &o.SnapshotTitle, &o.SnapshotPrice,
		&o.SnapshotImage, &o.Quantity, &o.TotalPrice, &o.Status, &o.LocationMeetup, &o.Notes, &o.ShippingMethod,
		&o.CreatedAt, &o.UpdatedAt,
		&sellerName, &sellerAvatar, &buyerName, &postTitle, pq.Array(&o.PostImages), &postPrice)
	if err != nil {
		return nil, notFound(err)
	}
	o.PostID = nullString(postID)
	o.SellerName = sellerName.String
	o.SellerAvatar = nullString(sellerAvatar)
	o.BuyerName = buyerName.String
	o.PostTitle = postTitle.String
	if postPrice.Valid {
		p := postPrice.Int64
		o.PostPrice = &p
	}
	return &o, nil
}

// CreateOrders inserts one order per draft in a single transaction and
// returns their ids in draft order.
func (d *DB) CreateOrders(ctx context.Context, drafts []market.OrderDraft) ([]string, error) {
	ids := make([]string, 0, len(drafts))
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO orders (buyer_id, seller_id, post_id, snapshot_title, snapshot_price, snapshot_image,
				quantity, total_price, status, location_meetup, notes, shipping_method)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`)
		if err != nil {
			return fmt.Errorf("prepare order insert: %w", err)
		}
		defer stmt.Close()

		for _, o := range drafts {
			var id string
			err := stmt.QueryRowContext(ctx, o.BuyerID, o.SellerID, o.PostID, o.Title, o.Price, o.Image,
				o.Quantity, o.TotalPrice, string(o.Status), o.LocationMeetup, o.Notes, o.ShippingMethod).Scan(&id)
			if err != nil {
				if isForeignKeyViolation(err) {
					return ErrNotFound
				}
				return fmt.Errorf("insert order: %w", err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListOrders returns the user's orders on one side of the trade, newest
// first.
func (d *DB) ListOrders(ctx context.Context, userID string, role OrderRole) ([]Order, error) {
	column := "o.buyer_id"
	if role == RoleSeller {
		column = "o.seller_id"
	}
	rows, err := d.Db.QueryContext(ctx, orderSelect+`
		WHERE `+column+` = $1
		ORDER BY o.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (d *DB) GetOrder(ctx context.Context, id string) (*Order, error) {
	row := d.Db.QueryRowContext(ctx, orderSelect+` WHERE o.id = $1 LIMIT 1`, id)
	return scanOrder(row)
}

// UpdateOrderStatus sets the status without any transition rules.
func (d *DB) UpdateOrderStatus(ctx context.Context, id string, status market.OrderStatus) error {
	res, err := d.Db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
