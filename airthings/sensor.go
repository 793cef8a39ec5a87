package airthings

import (
	"context"
	"strconv"
	"strings"
)

type Sensor interface {
	Receive(ctx context.Context) (SensorValues, error)
}

// radon readings above this are reported by the device while the value is not available yet
const radonMaxValid = 16383

type SensorValues struct {
	// sensor protocol version
	Version uint8

	// units: % of relative Humidity
	Humidity float64

	// units: Bq/m3
	RadonShort uint16

	// units: Bq/m3
	RadonLong uint16

	// units: degrees Celsius
	Temperature float64

	// units: hPa
	AtmPressure float64

	// units: ppm
	Co2Level float64

	// units: ppb
	VocLevel float64
}

func RadonValid(v uint16) bool {
	return v <= radonMaxValid
}

// Metric is a single named value as it goes on the wire.
type Metric struct {
	Name  string
	Value string
}

// Metrics returns the published measurements in publish order.
func (v SensorValues) Metrics() []Metric {
	return []Metric{
		{"temperature", FormatFloat(v.Temperature)},
		{"pressure", FormatFloat(v.AtmPressure)},
		{"humidity", FormatFloat(v.Humidity)},
		{"co2_ppm", FormatFloat(v.Co2Level)},
		{"voc_ppb", FormatFloat(v.VocLevel)},
		{"radon_st", strconv.FormatUint(uint64(v.RadonShort), 10)},
		{"radon_lt", strconv.FormatUint(uint64(v.RadonLong), 10)},
	}
}

// CSV renders all fields on one line:
// version,humidity,radon_st,radon_lt,temperature,pressure,co2,voc
func (v SensorValues) CSV() string {
	return strings.Join([]string{
		strconv.FormatUint(uint64(v.Version), 10),
		FormatFloat(v.Humidity),
		strconv.FormatUint(uint64(v.RadonShort), 10),
		strconv.FormatUint(uint64(v.RadonLong), 10),
		FormatFloat(v.Temperature),
		FormatFloat(v.AtmPressure),
		FormatFloat(v.Co2Level),
		FormatFloat(v.VocLevel),
	}, ",")
}

// FormatFloat prints the shortest representation that round-trips, always
// keeping a fractional part so consumers can tell floats from counters (42 -> "42.0").
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if strings.ContainsAny(s, ".IN") {
		return s
	}
	return s + ".0"
}
