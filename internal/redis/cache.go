package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	// Lots change rarely (admin rate edits), so a longer TTL is safe;
	// lot updates invalidate explicitly.
	LotCacheTTL = 5 * time.Minute

	// Availability counts change on every transition, so keep them short
	// rather than invalidating from every writer.
	AvailabilityCacheTTL = 10 * time.Second
)

// Key prefixes
const (
	lotCachePrefix          = "cache:lot:"
	availabilityCachePrefix = "cache:availability:"
)

// CachedLot represents a cached lot entity.
type CachedLot struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Capacity    int     `json:"capacity"`
	BaseRate    float64 `json:"base_rate"`
	GeoLocation string  `json:"geo_location"`
}

// GetLot retrieves a lot from cache. Returns nil on a cache miss.
func (s *CacheStore) GetLot(ctx context.Context, lotID string) (*CachedLot, error) {
	data, err := s.client.Get(ctx, lotCachePrefix+lotID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var lot CachedLot
	if err := json.Unmarshal(data, &lot); err != nil {
		return nil, err
	}
	return &lot, nil
}

// SetLot stores a lot in cache.
func (s *CacheStore) SetLot(ctx context.Context, lot *CachedLot) error {
	data, err := json.Marshal(lot)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, lotCachePrefix+lot.ID, data, LotCacheTTL).Err()
}

// InvalidateLot removes a lot from cache.
func (s *CacheStore) InvalidateLot(ctx context.Context, lotID string) error {
	return s.client.Del(ctx, lotCachePrefix+lotID).Err()
}

// GetAvailability retrieves cached per-class availability counts for a lot.
// Returns nil on a cache miss.
func (s *CacheStore) GetAvailability(ctx context.Context, lotID string) (map[string]int, error) {
	data, err := s.client.Get(ctx, availabilityCachePrefix+lotID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var counts map[string]int
	if err := json.Unmarshal(data, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// SetAvailability stores per-class availability counts for a lot.
func (s *CacheStore) SetAvailability(ctx context.Context, lotID string, counts map[string]int) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, availabilityCachePrefix+lotID, data, AvailabilityCacheTTL).Err()
}
