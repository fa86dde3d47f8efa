package zoned

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind groups errors by how the CLI reports them.
type Kind int

// Error kinds
const (
	KindUnknown Kind = iota
	KindUsage
	KindValidation
	KindDevice
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindValidation:
		return "validation"
	case KindDevice:
		return "device"
	}
	return "unknown"
}

// Validation errors. Nothing is sent to the device when one of these is returned.
var (
	ErrOffsetOutOfRange = errors.New("offset is greater than device size")
	ErrMisalignedOffset = errors.New("offset is not aligned to zone size")
	ErrZoneSizeUnknown  = errors.New("unable to determine zone size")
)

// Device errors.
var (
	ErrOpenFailed          = errors.New("cannot open device")
	ErrNotBlockDevice      = errors.New("not a block device")
	ErrGeometryQueryFailed = errors.New("device geometry query failed")
	ErrReportFailed        = errors.New("BLKREPORTZONE ioctl failed")
	ErrResetFailed         = errors.New("BLKRESETZONE ioctl failed")
	ErrUnknownZoneType     = errors.New("unknown zone type")
)

// KindOf classifies err by the sentinel it wraps.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrOffsetOutOfRange),
		errors.Is(err, ErrMisalignedOffset),
		errors.Is(err, ErrZoneSizeUnknown):
		return KindValidation
	case errors.Is(err, ErrOpenFailed),
		errors.Is(err, ErrNotBlockDevice),
		errors.Is(err, ErrGeometryQueryFailed),
		errors.Is(err, ErrReportFailed),
		errors.Is(err, ErrResetFailed),
		errors.Is(err, ErrUnknownZoneType):
		return KindDevice
	}
	return KindUnknown
}

// pathErr ties a sentinel to the device path and the underlying cause.
func pathErr(path string, sentinel, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", path, sentinel)
	}
	return fmt.Errorf("%s: %w: %w", path, sentinel, cause)
}
