package main

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/alepar/airthings2mqtt/airthings"
)

func TestUpdateGauges(t *testing.T) {
	identity := &airthings.DeviceIdentity{SerialNumber: 2930165166}

	updateGauges(identity, airthings.SensorValues{
		Humidity:    42,
		RadonShort:  31,
		RadonLong:   27,
		Temperature: 22.12,
		AtmPressure: 1010,
		Co2Level:    812,
		VocLevel:    96,
	})
	updateGauges(identity, airthings.SensorValues{
		Humidity:    43,
		RadonShort:  0xffff,
		RadonLong:   0xffff,
		Temperature: 22.5,
	})

	label := "2930165166"
	if got := testutil.ToFloat64(gaugeHumidity.WithLabelValues(label)); got != 43 {
		t.Errorf("humidity gauge = %v, want 43", got)
	}
	if got := testutil.ToFloat64(gaugeTemperature.WithLabelValues(label)); got != 22.5 {
		t.Errorf("temperature gauge = %v, want 22.5", got)
	}
	if got := testutil.ToFloat64(gaugeRadonShort.WithLabelValues(label)); got != 31 {
		t.Errorf("radon short gauge = %v, want last valid value 31", got)
	}
	if got := testutil.ToFloat64(gaugeRadonLong.WithLabelValues(label)); got != 27 {
		t.Errorf("radon long gauge = %v, want last valid value 27", got)
	}
}
