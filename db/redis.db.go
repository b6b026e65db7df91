package db

import (
	"time"

	"github.com/go-redis/redis"
)

func revokedKey(jti string) string {
	return "revoked:" + jti
}

// RevokeToken blacklists a token id until the token would have expired
// anyway. A ttl that already passed is a no-op.
func (d *DB) RevokeToken(jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.Redis.Set(revokedKey(jti), "1", ttl).Err()
}

// IsTokenRevoked reports whether a token id was logged out.
func (d *DB) IsTokenRevoked(jti string) (bool, error) {
	err := d.Redis.Get(revokedKey(jti)).Err()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
