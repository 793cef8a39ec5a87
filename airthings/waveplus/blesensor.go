package waveplus

import (
	"context"
	"time"

	"github.com/go-ble/ble"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alepar/airthings2mqtt/airthings"
)

var (
	sensorServiceUuid        = ble.MustParse("b42e1c08-ade7-11e4-89d3-123b93f75cba")
	sensorCharacteristicUuid = ble.MustParse("b42e2a68-ade7-11e4-89d3-123b93f75cba")
)

type BleSensor struct {
	Radio    Radio
	Locator  airthings.Locator
	Identity *airthings.DeviceIdentity

	// Retries below 2 make every failure final.
	Retries    int
	RetryDelay time.Duration
}

func (sensor *BleSensor) Receive(ctx context.Context) (airthings.SensorValues, error) {
	var lastErr error
	var values airthings.SensorValues
	for i := 0; i < sensor.attempts(); i++ {
		values, lastErr = sensor.receive(ctx)
		if lastErr == nil {
			return values, nil
		}
		if errors.Is(lastErr, airthings.ErrDeviceNotFound) || ctx.Err() != nil {
			return airthings.SensorValues{}, lastErr
		}
		if i+1 < sensor.attempts() {
			log.Errorf("retrying error in receive: %s", lastErr)
			time.Sleep(sensor.RetryDelay) // self-pacing interval in an attempt to fix freezes
		}
	}

	if sensor.attempts() > 1 {
		return airthings.SensorValues{}, errors.Wrap(lastErr, "all retries to receive failed")
	}
	return airthings.SensorValues{}, lastErr
}

func (sensor *BleSensor) attempts() int {
	if sensor.Retries < 1 {
		return 1
	}
	return sensor.Retries
}

func (sensor *BleSensor) receive(ctx context.Context) (airthings.SensorValues, error) {
	if !sensor.Identity.Resolved() {
		addr, err := sensor.Locator.FindAddress(ctx, sensor.Identity.SerialNumber)
		if err != nil {
			return airthings.SensorValues{}, err
		}
		sensor.Identity.Address = addr
	}

	p, err := sensor.Radio.Connect(ctx, sensor.Identity.Address)
	if err != nil {
		return airthings.SensorValues{}, err
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			log.Warnf("failed to close connection to %s: %s", sensor.Identity.Address, closeErr)
		}
	}()

	c, err := p.Characteristic(sensorServiceUuid, sensorCharacteristicUuid)
	if err != nil {
		return airthings.SensorValues{}, err
	}
	if c == nil {
		return airthings.SensorValues{}, airthings.ErrCharacteristicNotFound
	}

	sensorBytes, err := p.Read(c)
	if err != nil {
		return airthings.SensorValues{}, err
	}
	log.Debugf("finished reading characteristic")

	return Decode(sensorBytes)
}
