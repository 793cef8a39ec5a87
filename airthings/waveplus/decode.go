package waveplus

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/alepar/airthings2mqtt/airthings"
)

// RawValues mirrors the characteristic payload, little-endian, 20 bytes.
type RawValues struct {
	Version     uint8
	Humidity    uint8
	Unknown2    uint8
	Unknown3    uint8
	RadonShort  uint16
	RadonLong   uint16
	Temperature uint16
	AtmPressure uint16
	Co2         uint16
	Voc         uint16
	Unknown10   uint16
	Unknown11   uint16
}

var payloadSize = binary.Size(RawValues{})

func Decode(payload []byte) (airthings.SensorValues, error) {
	if len(payload) != payloadSize {
		return airthings.SensorValues{}, errors.Wrapf(airthings.ErrMalformedPayload, "got %d bytes, expected %d", len(payload), payloadSize)
	}

	raw := RawValues{}
	if err := binary.Read(bytes.NewReader(payload), binary.LittleEndian, &raw); err != nil {
		return airthings.SensorValues{}, errors.Wrap(airthings.ErrMalformedPayload, err.Error())
	}

	return refineRawValues(raw), nil
}

// Encode packs raw values the way the device does.
func Encode(raw RawValues) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, payloadSize))
	_ = binary.Write(buf, binary.LittleEndian, raw)
	return buf.Bytes()
}

func refineRawValues(raw RawValues) airthings.SensorValues {
	return airthings.SensorValues{
		Version:     raw.Version,
		Humidity:    float64(raw.Humidity) / 2.0,
		RadonShort:  raw.RadonShort,
		RadonLong:   raw.RadonLong,
		Temperature: float64(raw.Temperature) / 100.0,
		AtmPressure: float64(raw.AtmPressure) / 50.0,
		Co2Level:    float64(raw.Co2),
		VocLevel:    float64(raw.Voc),
	}
}
