package airthings

import "github.com/pkg/errors"

var (
	ErrMalformedPayload       = errors.New("malformed payload")
	ErrDeviceNotFound         = errors.New("device not found")
	ErrCharacteristicNotFound = errors.New("characteristic not found")
)
