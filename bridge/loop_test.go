package bridge

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/alepar/airthings2mqtt/airthings"
	"github.com/alepar/airthings2mqtt/airthings/waveplus"
)

type scriptedSensor struct {
	results []error
	values  airthings.SensorValues
	calls   int
}

func (s *scriptedSensor) Receive(_ context.Context) (airthings.SensorValues, error) {
	s.calls++
	if len(s.results) == 0 {
		return s.values, nil
	}
	err := s.results[0]
	s.results = s.results[1:]
	if err != nil {
		return airthings.SensorValues{}, err
	}
	return s.values, nil
}

type published struct {
	topic   string
	payload string
}

type recordingPublisher struct {
	connected bool
	connects  int
	messages  []published
}

func (p *recordingPublisher) Connect()        { p.connects++ }
func (p *recordingPublisher) Connected() bool { return p.connected }

func (p *recordingPublisher) Publish(metric string, payload string) error {
	p.messages = append(p.messages, published{"airthings/bedroom/" + metric, payload})
	return nil
}

func decodedSample(t *testing.T) airthings.SensorValues {
	t.Helper()
	values, err := waveplus.Decode(waveplus.Encode(waveplus.RawValues{
		Version:     1,
		Humidity:    84,
		RadonShort:  31,
		RadonLong:   27,
		Temperature: 2212,
		AtmPressure: 50500,
		Co2:         812,
		Voc:         96,
	}))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return values
}

func TestRunPublishesReading(t *testing.T) {
	sensor := &scriptedSensor{values: decodedSample(t), results: []error{nil, errors.New("stop")}}
	publisher := &recordingPublisher{connected: true}
	echo := &bytes.Buffer{}
	var observed []airthings.SensorValues

	loop := &Loop{
		Sensor:    sensor,
		Publisher: publisher,
		Interval:  time.Millisecond,
		Echo:      echo,
		OnReading: func(v airthings.SensorValues) { observed = append(observed, v) },
	}
	if err := loop.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want read failure")
	}

	want := []published{
		{"airthings/bedroom/temperature", "22.12"},
		{"airthings/bedroom/pressure", "1010.0"},
		{"airthings/bedroom/humidity", "42.0"},
		{"airthings/bedroom/co2_ppm", "812.0"},
		{"airthings/bedroom/voc_ppb", "96.0"},
		{"airthings/bedroom/radon_st", "31"},
		{"airthings/bedroom/radon_lt", "27"},
	}
	if len(publisher.messages) != len(want) {
		t.Fatalf("published %d messages, want %d: %v", len(publisher.messages), len(want), publisher.messages)
	}
	for i := range want {
		if publisher.messages[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, publisher.messages[i], want[i])
		}
	}

	if got, want := echo.String(), "1,42.0,31,27,22.12,1010.0,812.0,96.0\n"; got != want {
		t.Errorf("echo = %q, want %q", got, want)
	}
	if len(observed) != 1 {
		t.Errorf("OnReading called %d times, want 1", len(observed))
	}
	if publisher.connects != 1 {
		t.Errorf("connects = %d, want only the initial one", publisher.connects)
	}
}

func TestRunDropsReadingWhileDisconnected(t *testing.T) {
	sensor := &scriptedSensor{values: decodedSample(t), results: []error{nil, nil, errors.New("stop")}}
	publisher := &recordingPublisher{}

	loop := &Loop{Sensor: sensor, Publisher: publisher, Interval: time.Millisecond}
	_ = loop.Run(context.Background())

	if len(publisher.messages) != 0 {
		t.Errorf("published %d messages while disconnected, want 0", len(publisher.messages))
	}
	// initial connect plus one per dropped reading
	if publisher.connects != 3 {
		t.Errorf("connects = %d, want 3", publisher.connects)
	}
}

func TestRunStopsOnReadFailure(t *testing.T) {
	sensor := &scriptedSensor{results: []error{airthings.ErrDeviceNotFound}}
	publisher := &recordingPublisher{connected: true}

	loop := &Loop{Sensor: sensor, Publisher: publisher, Interval: time.Millisecond}
	err := loop.Run(context.Background())
	if !errors.Is(err, airthings.ErrDeviceNotFound) {
		t.Fatalf("Run() error = %v, want %v", err, airthings.ErrDeviceNotFound)
	}
	if sensor.calls != 1 {
		t.Errorf("sensor reads = %d, want 1", sensor.calls)
	}
	if len(publisher.messages) != 0 {
		t.Errorf("published %d messages, want 0", len(publisher.messages))
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sensor := &scriptedSensor{values: decodedSample(t)}
	publisher := &recordingPublisher{connected: true}

	loop := &Loop{
		Sensor:    sensor,
		Publisher: publisher,
		Interval:  time.Hour,
		OnReading: func(airthings.SensorValues) { cancel() },
	}
	err := loop.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want %v", err, context.Canceled)
	}
	if sensor.calls != 1 {
		t.Errorf("sensor reads = %d, want 1", sensor.calls)
	}
}
