package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/romariomartinez/ApiEcommerce/internal/domain"
	"github.com/romariomartinez/ApiEcommerce/internal/redisx"
)

// cachedStatus is the status-poll cache entry. The owning user id travels
// with the status so a cache hit enforces the same ownership rule as the
// database path.
type cachedStatus struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

func writeStatusCache(ctx context.Context, cache *redis.Client, logger *log.Logger, orderID, userID string, status domain.OrderStatus) {
	if cache == nil {
		return
	}
	value, err := json.Marshal(cachedStatus{UserID: userID, Status: string(status)})
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if err := cache.Set(ctx, key, value, redisx.TTLStatusCache).Err(); err != nil && logger != nil {
		logger.Printf("cache order status %s: %v", orderID, err)
	}
}

// readStatusCache returns the cached entry for orderID. Entries without an
// owner are treated as misses so stale pre-owner values can never bypass the
// access check.
func readStatusCache(ctx context.Context, cache *redis.Client, orderID string) (cachedStatus, bool) {
	if cache == nil {
		return cachedStatus{}, false
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	raw, err := cache.Get(ctx, key).Result()
	if err != nil {
		return cachedStatus{}, false
	}
	var entry cachedStatus
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.UserID == "" || entry.Status == "" {
		return cachedStatus{}, false
	}
	return entry, true
}
