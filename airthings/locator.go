package airthings

import (
	"context"
	"strconv"
)

type Locator interface {

	// resolves a device serial number to the BLE address it advertises from
	FindAddress(ctx context.Context, serialNumber uint32) (string, error)
}

// DeviceIdentity is the sensor we bridge. Address is filled in on the first
// successful lookup and kept for the rest of the run.
type DeviceIdentity struct {
	SerialNumber uint32
	Address      string
}

func (id *DeviceIdentity) Resolved() bool {
	return id.Address != ""
}

// Label identifies the device in metrics and logs.
func (id *DeviceIdentity) Label() string {
	if id.SerialNumber != 0 {
		return strconv.FormatUint(uint64(id.SerialNumber), 10)
	}
	return id.Address
}
