package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roomify/roomify/internal/model"
)

// Cache key prefixes and TTLs.
const (
	rentalKeyPrefix   = "rental:"
	negCacheKeySuffix = ":neg"

	// DefaultRentalTTL is the TTL for cached rental data. Rentals change
	// rarely, but a short TTL keeps occupancy flips visible quickly.
	DefaultRentalTTL = 10 * time.Minute

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 1 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetRental retrieves an active rental from cache by rental ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetRental(ctx context.Context, rentalID string) (*model.CachedRental, error) {
	key := rentalKeyPrefix + rentalID

	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	cached := &model.CachedRental{
		UserID:   result["user_id"],
		RoomID:   result["room_id"],
		RoomCode: result["room_code"],
		Status:   result["status"],
	}

	return cached, nil
}

// SetRental stores a rental in cache. Only active rentals are worth
// caching; ended rentals are evicted instead.
func (c *Cache) SetRental(ctx context.Context, rental *model.Rental, roomCode string) error {
	key := rentalKeyPrefix + rental.ID

	if !rental.IsActive() {
		c.client.Del(ctx, key, key+negCacheKeySuffix)
		return nil
	}

	cached := rental.ToCachedRental(roomCode)
	fields := map[string]any{
		"user_id":   cached.UserID,
		"room_id":   cached.RoomID,
		"room_code": cached.RoomCode,
		"status":    cached.Status,
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, DefaultRentalTTL)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to cache rental: %w", err)
	}

	// Remove negative cache if exists
	c.client.Del(ctx, key+negCacheKeySuffix)

	return nil
}

// DeleteRental removes a rental from cache. Called whenever a rental is
// updated or ended so readers never see a stale occupancy.
func (c *Cache) DeleteRental(ctx context.Context, rentalID string) error {
	key := rentalKeyPrefix + rentalID

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete rental from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if a rental ID is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, rentalID string) (bool, error) {
	key := rentalKeyPrefix + rentalID + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a rental ID as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, rentalID string) error {
	key := rentalKeyPrefix + rentalID + negCacheKeySuffix

	err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
