package bridge

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alepar/airthings2mqtt/airthings"
)

type Publisher interface {
	Connect()
	Connected() bool
	Publish(metric string, payload string) error
}

// Loop reads the sensor every Interval and forwards each reading.
type Loop struct {
	Sensor    airthings.Sensor
	Publisher Publisher
	Interval  time.Duration

	// optional: CSV echo of every reading
	Echo io.Writer

	// optional
	OnReading func(airthings.SensorValues)
}

// Run returns on the first failed read, or with ctx.Err() once ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.Publisher.Connect()

	for {
		values, err := l.Sensor.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "failed to read data")
		}
		l.forward(values)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.Interval):
		}
	}
}

func (l *Loop) forward(values airthings.SensorValues) {
	if l.Echo != nil {
		fmt.Fprintln(l.Echo, values.CSV())
	}
	if l.OnReading != nil {
		l.OnReading(values)
	}

	if !l.Publisher.Connected() {
		log.Warnf("waiting for mqtt connection, dropping reading")
		l.Publisher.Connect()
		return
	}

	for _, m := range values.Metrics() {
		if err := l.Publisher.Publish(m.Name, m.Value); err != nil {
			log.Debugf("not published %s: %s", m.Name, err)
		}
	}
}
