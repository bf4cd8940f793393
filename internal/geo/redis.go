package geo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces the per-fleet geo sets in Redis.
const keyPrefix = "fleet:pos:"

// RedisChannel implements Channel on a Redis geo set per fleet.
// Positions are stored with GEOADD (one entry per driver, last write wins)
// so consumers can run radius queries against a fleet's live drivers.
type RedisChannel struct {
	client *redis.Client
}

// NewRedisChannel wraps an already-connected Redis client.
func NewRedisChannel(client *redis.Client) *RedisChannel {
	return &RedisChannel{client: client}
}

// Dial connects to Redis at the given URL and verifies the connection with a
// ping before returning the channel.
func Dial(ctx context.Context, url string) (*RedisChannel, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("geo.Dial: parse url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("geo.Dial: ping: %w", err)
	}
	return NewRedisChannel(client), nil
}

// Close releases the underlying Redis connection.
func (c *RedisChannel) Close() error {
	return c.client.Close()
}

func fleetKey(fleetID uuid.UUID) string {
	return keyPrefix + fleetID.String()
}

func (c *RedisChannel) UpdateDriverPos(ctx context.Context, fleetID, driverID uuid.UUID, lat, lon float64) error {
	err := c.client.GeoAdd(ctx, fleetKey(fleetID), &redis.GeoLocation{
		Name:      driverID.String(),
		Latitude:  lat,
		Longitude: lon,
	}).Err()
	if err != nil {
		return fmt.Errorf("geo.UpdateDriverPos: %w", err)
	}
	return nil
}

func (c *RedisChannel) DeleteDriverPos(ctx context.Context, fleetID, driverID uuid.UUID) error {
	// GEOADD entries live in a sorted set, so ZREM removes a single driver.
	if err := c.client.ZRem(ctx, fleetKey(fleetID), driverID.String()).Err(); err != nil {
		return fmt.Errorf("geo.DeleteDriverPos: %w", err)
	}
	return nil
}

func (c *RedisChannel) DeleteFleetChannel(ctx context.Context, fleetID uuid.UUID) error {
	if err := c.client.Del(ctx, fleetKey(fleetID)).Err(); err != nil {
		return fmt.Errorf("geo.DeleteFleetChannel: %w", err)
	}
	return nil
}

func (c *RedisChannel) ClearAllFleetChannels(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("geo.ClearAllFleetChannels: del %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("geo.ClearAllFleetChannels: scan: %w", err)
	}
	return nil
}

// compile-time check: RedisChannel must satisfy Channel.
var _ Channel = (*RedisChannel)(nil)
