package db

import (
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis"

	"github.com/envelope-app/segora-backend/market"
)

func cartKey(userID string) string {
	return "cart:" + userID
}

// LoadCart returns the user's cart. A missing or expired key is an empty cart.
func (d *DB) LoadCart(userID string) (*market.Cart, error) {
	raw, err := d.Redis.Get(cartKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return &market.Cart{Items: []market.CartItem{}}, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}

	c := &market.Cart{}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []market.CartItem{}
	}
	return c, nil
}

// SaveCart stores the cart and refreshes its expiry. Saving an empty cart
// deletes the key.
func (d *DB) SaveCart(userID string, c *market.Cart) error {
	if c.Empty() {
		return d.ClearCart(userID)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return d.Redis.Set(cartKey(userID), raw, d.cartTTL).Err()
}

func (d *DB) ClearCart(userID string) error {
	return d.Redis.Del(cartKey(userID)).Err()
}
