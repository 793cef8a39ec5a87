package waveplus

import (
	"context"
	"time"

	"github.com/go-ble/ble"
)

// Advertisement is what the locator needs from one observed broadcast.
type Advertisement struct {
	Addr string

	// AD type 0xff payload, company code first; nil if the device sent none
	ManufacturerData []byte
}

type Radio interface {
	Scan(ctx context.Context, window time.Duration) ([]Advertisement, error)
	Connect(ctx context.Context, addr string) (Peripheral, error)
}

type Peripheral interface {
	// returns nil, nil when the device does not expose the characteristic
	Characteristic(service, characteristic ble.UUID) (*ble.Characteristic, error)
	Read(c *ble.Characteristic) ([]byte, error)
	Close() error
}
