package device

import "github.com/itohio/trainspeed/pkg/report"

// Device is a source of timing events (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Events() <-chan report.Event
	IsConnected() bool
}

var (
	_ Device = (*Serial)(nil)
	_ Device = (*Mock)(nil)
)
