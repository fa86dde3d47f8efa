//go:build !linux

package zoned

import (
	"runtime"

	"github.com/pkg/errors"
)

type unsupportedTransport struct{}

// SystemTransport returns the transport for the running OS. Zoned block
// devices are only reachable through the Linux block layer.
func SystemTransport(_ string) Transport { return unsupportedTransport{} }

func (unsupportedTransport) Open(path string, _ AccessMode) (Device, error) {
	return nil, errors.Errorf("zoned block devices are not supported on %s", runtime.GOOS)
}

func (unsupportedTransport) ZoneGranularity(path string) (uint64, error) {
	return 0, errors.Errorf("zoned block devices are not supported on %s", runtime.GOOS)
}
