package gateway

import "github.com/pkg/errors"

var ErrNotConnected = errors.New("mqtt not connected")
