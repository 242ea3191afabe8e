package influxdb

import "errors"

// Sentinel errors. Check with errors.Is; ErrDisabled is expected when
// history is switched off.
var (
	ErrNotConnected     = errors.New("influxdb: client closed")
	ErrConnectionFailed = errors.New("influxdb: connection failed")
	ErrDisabled         = errors.New("influxdb: disabled in configuration")
)
