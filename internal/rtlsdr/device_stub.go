//go:build !cgo

package rtlsdr

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ChunkFunc mirrors the cgo build's signature so callers compile
// either way.
type ChunkFunc func(iq []byte, baseTime time.Time)

// Device is a stub used on builds without cgo (gortlsdr requires
// librtlsdr via cgo), following the teacher's root rtlsdr_stub.go
// idiom.
type Device struct {
	index int
}

// NewDevice always fails on a !cgo build.
func NewDevice(index int, logger *logrus.Logger) (*Device, error) {
	return nil, fmt.Errorf("rtl-sdr hardware support requires a cgo build (librtlsdr); build with CGO_ENABLED=1")
}

func (d *Device) Configure(frequency, sampleRate uint32, gain int) error {
	return fmt.Errorf("rtl-sdr hardware support requires a cgo build")
}

func (d *Device) StartCapture(ctx context.Context, chunkFn ChunkFunc) error {
	return fmt.Errorf("rtl-sdr hardware support requires a cgo build")
}

func (d *Device) Close() error {
	return fmt.Errorf("rtl-sdr hardware support requires a cgo build")
}
