package waveplus

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/go-ble/ble"
	"github.com/pkg/errors"
)

// fakeRadio replays one slice of advertisements per scan round.
type fakeRadio struct {
	rounds  [][]Advertisement
	scanErr error

	scans    int
	connects []string

	connectErr error
	peripheral *fakePeripheral
}

func (r *fakeRadio) Scan(_ context.Context, _ time.Duration) ([]Advertisement, error) {
	r.scans++
	if r.scanErr != nil {
		return nil, r.scanErr
	}
	if len(r.rounds) == 0 {
		return nil, nil
	}
	ads := r.rounds[0]
	if len(r.rounds) > 1 {
		r.rounds = r.rounds[1:]
	}
	return ads, nil
}

func (r *fakeRadio) Connect(_ context.Context, addr string) (Peripheral, error) {
	r.connects = append(r.connects, addr)
	if r.connectErr != nil {
		return nil, r.connectErr
	}
	return r.peripheral, nil
}

type fakePeripheral struct {
	missing bool
	lookErr error
	value   []byte
	readErr error

	reads  int
	closed int
}

func (p *fakePeripheral) Characteristic(service, characteristic ble.UUID) (*ble.Characteristic, error) {
	if p.lookErr != nil {
		return nil, p.lookErr
	}
	if p.missing {
		return nil, nil
	}
	return &ble.Characteristic{UUID: characteristic}, nil
}

func (p *fakePeripheral) Read(c *ble.Characteristic) ([]byte, error) {
	p.reads++
	if !c.UUID.Equal(sensorCharacteristicUuid) {
		return nil, errors.New("unexpected characteristic")
	}
	return p.value, p.readErr
}

func (p *fakePeripheral) Close() error {
	p.closed++
	return nil
}

func waveplusAd(addr string, serialNumber uint32) Advertisement {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint16(data[0:2], airthingsCompanyID)
	binary.LittleEndian.PutUint32(data[2:6], serialNumber)
	data[6] = 0x09
	return Advertisement{Addr: addr, ManufacturerData: data}
}
