package rachio

import (
	"context"
	"sync"
	"time"

	"rachiohook/internal/platform/models"
)

// DeviceSource looks up a single device.
type DeviceSource interface {
	GetDevice(ctx context.Context, deviceID string) (*models.Device, error)
}

type cachedDevice struct {
	device   models.Device
	cachedAt time.Time
}

// DeviceCache remembers successful device lookups for ttl. Failures are not
// cached, so a device added to the account shows up on the next event.
type DeviceCache struct {
	source DeviceSource
	store  sync.Map // map[deviceID]*cachedDevice
	ttl    time.Duration
	now    func() time.Time
}

func NewDeviceCache(source DeviceSource, ttl time.Duration) *DeviceCache {
	return &DeviceCache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *DeviceCache) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	if device, ok := c.get(deviceID); ok {
		return device, nil
	}

	device, err := c.source.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	c.store.Store(deviceID, &cachedDevice{device: *device, cachedAt: c.now()})
	return device, nil
}

func (c *DeviceCache) get(deviceID string) (*models.Device, bool) {
	val, ok := c.store.Load(deviceID)
	if !ok {
		return nil, false
	}

	entry := val.(*cachedDevice)
	if c.now().Sub(entry.cachedAt) > c.ttl {
		c.store.Delete(deviceID)
		return nil, false
	}

	device := entry.device
	return &device, true
}
