package redisx

import (
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Cache of an order's current status: order_status:{order_id} -> status string.
	KeyOrderStatus = "order_status:%s"
)

var TTLStatusCache = 5 * time.Minute

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}
