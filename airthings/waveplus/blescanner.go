package waveplus

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alepar/airthings2mqtt/airthings"
)

const airthingsCompanyID = 0x0334

// BleScanner finds a Wave Plus by the serial number it puts in its
// manufacturer data.
type BleScanner struct {
	Radio      Radio
	ScanWindow time.Duration
	Rounds     int
}

func (scanner *BleScanner) FindAddress(ctx context.Context, serialNumber uint32) (string, error) {
	log.Infof("looking for device with serial number %d", serialNumber)

	for i := 0; i < scanner.Rounds; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		ads, err := scanner.Radio.Scan(ctx, scanner.ScanWindow)
		if err != nil {
			return "", errors.Wrapf(err, "scan round %d", i)
		}

		for _, a := range ads {
			serialNr, ok := manufacturerDataToSerialNumber(a.ManufacturerData)
			if !ok {
				continue
			}
			log.WithFields(log.Fields{
				"addr": a.Addr,
				"data": hex.EncodeToString(a.ManufacturerData),
			}).Debugf("seen wave plus %d", serialNr)
			if serialNr == serialNumber {
				log.Infof("address of our device is %s", a.Addr)
				return a.Addr, nil
			}
		}
	}

	log.Warnf("could not find device with serial number %d after %d scans", serialNumber, scanner.Rounds)
	return "", airthings.ErrDeviceNotFound
}

func manufacturerDataToSerialNumber(manufacturerData []byte) (uint32, bool) {
	if len(manufacturerData) < 6 {
		return 0, false
	}
	if binary.LittleEndian.Uint16(manufacturerData[0:2]) != airthingsCompanyID {
		return 0, false
	}
	return binary.LittleEndian.Uint32(manufacturerData[2:6]), true
}
