package calibration

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/w3axl/xcmpgo/internal/client"
	"github.com/w3axl/xcmpgo/internal/xcmp"
)

// Mirror wraps a client.Client and shadows every successful softpot
// read into Redis by a stringified key, the same "database 0, key is
// stringified UID+FNo" scheme the teacher's Redis.Interface used —
// upgraded here to go-redis/redis/v8, the import-path-versioned
// successor of the teacher's retired module. SoftpotGetValue itself
// always reads the radio, never Redis; ReadMirrored is the separate,
// explicitly-named accessor for dashboards that want the Redis shadow
// copy instead, so this makes no persistence claim about session
// state.
type Mirror struct {
	client *client.Client
	db     *redis.Client
	device string // identifies this radio's keys, typically its serial
}

// NewMirror wraps c, mirroring its softpot reads to the Redis instance
// at addr ("host:port") under keys scoped to device.
func NewMirror(c *client.Client, addr, device string) *Mirror {
	return &Mirror{
		client: c,
		db:     redis.NewClient(&redis.Options{Addr: addr}),
		device: device,
	}
}

// softpotKey builds the key this mirror uses, "<device>|softpot:<type>"
// with the softpot type in decimal, the way the teacher keyed by
// UID+FNo.
func softpotKey(device string, typ xcmp.SoftpotType) string {
	return fmt.Sprintf("%s|softpot:%d", device, typ)
}

// SoftpotGetValue reads typ through the wrapped client and, on
// success, mirrors the value to Redis before returning it.
func (m *Mirror) SoftpotGetValue(ctx context.Context, typ xcmp.SoftpotType, width byte) (uint32, error) {
	v, err := m.client.SoftpotGetValue(typ, width)
	if err != nil {
		return 0, err
	}
	if err := m.db.Set(ctx, softpotKey(m.device, typ), v, 0).Err(); err != nil {
		return v, fmt.Errorf("calibration: mirror softpot %d to redis: %w", typ, err)
	}
	return v, nil
}

// ReadMirrored reads back a mirrored value from Redis, for dashboards
// that prefer to poll Redis rather than the radio directly.
func (m *Mirror) ReadMirrored(ctx context.Context, typ xcmp.SoftpotType) (string, error) {
	return m.db.Get(ctx, softpotKey(m.device, typ)).Result()
}

// Close releases the Redis client. It does not close the wrapped
// client.Client, which the caller still owns.
func (m *Mirror) Close() error {
	return m.db.Close()
}
