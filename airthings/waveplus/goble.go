package waveplus

import (
	"context"
	"time"

	"github.com/go-ble/ble"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// GoBleRadio talks to the default go-ble device, which must be set with
// ble.SetDefaultDevice before use.
type GoBleRadio struct {
	ConnectTimeout time.Duration
}

func (r *GoBleRadio) Scan(ctx context.Context, window time.Duration) ([]Advertisement, error) {
	ctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	ads, err := ble.Find(ctx, false, withManufacturerData)
	if err != nil {
		switch errors.Cause(err) {
		case nil:
		case context.DeadlineExceeded:
		case context.Canceled:
			return nil, errors.Wrap(err, "scan for devices cancelled")
		default:
			return nil, errors.Wrap(err, "failed to scan for devices")
		}
	}

	observed := make([]Advertisement, 0, len(ads))
	for _, a := range ads {
		observed = append(observed, Advertisement{
			Addr:             a.Addr().String(),
			ManufacturerData: a.ManufacturerData(),
		})
	}
	return observed, nil
}

func withManufacturerData(a ble.Advertisement) bool {
	return len(a.ManufacturerData()) > 0
}

func (r *GoBleRadio) Connect(ctx context.Context, addr string) (Peripheral, error) {
	log.Debugf("connecting to device %s", addr)
	ctx, cancel := context.WithTimeout(ctx, r.ConnectTimeout)
	defer cancel()

	cln, err := ble.Dial(ctx, ble.NewAddr(addr))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't connect to ble")
	}

	// Normally, the connection is disconnected by us after reading.
	// However, it can be asynchronously disconnected by the remote peripheral.
	// So we wait(detect) the disconnection in the go routine.
	done := make(chan struct{})
	go func() {
		<-cln.Disconnected()
		log.Debugf("device disconnected")
		close(done)
	}()

	return &goBlePeripheral{cln: cln, done: done}, nil
}

type goBlePeripheral struct {
	cln  ble.Client
	done chan struct{}
}

func (p *goBlePeripheral) Characteristic(service, characteristic ble.UUID) (*ble.Characteristic, error) {
	log.Debugf("discovering services")
	services, err := p.cln.DiscoverServices([]ble.UUID{service})
	if err != nil {
		return nil, errors.Wrap(err, "couldn't discover services")
	}
	if len(services) == 0 {
		return nil, nil
	}

	log.Debugf("discovering characteristics")
	characteristics, err := p.cln.DiscoverCharacteristics([]ble.UUID{characteristic}, services[0])
	if err != nil {
		return nil, errors.Wrap(err, "couldn't discover characteristic")
	}
	if len(characteristics) == 0 {
		return nil, nil
	}
	return characteristics[0], nil
}

func (p *goBlePeripheral) Read(c *ble.Characteristic) ([]byte, error) {
	log.Debugf("reading characteristic")
	value, err := p.cln.ReadCharacteristic(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read characteristic value")
	}
	return value, nil
}

func (p *goBlePeripheral) Close() error {
	log.Debugf("closing connection")
	if err := p.cln.CancelConnection(); err != nil {
		return errors.Wrap(err, "couldn't cancel connection")
	}
	<-p.done
	return nil
}
