package zoned

import (
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// AccessMode selects how the device node is opened.
type AccessMode int

// Access modes
const (
	ReadOnly AccessMode = iota
	WriteOnly
)

func (m AccessMode) String() string {
	if m == WriteOnly {
		return "write-only"
	}
	return "read-only"
}

// Transport opens devices and reads per-device queue configuration.
type Transport interface {
	Open(path string, mode AccessMode) (Device, error)
	// ZoneGranularity returns the zone size in 512-byte sectors, or 0 when unknown.
	ZoneGranularity(path string) (uint64, error)
}

// Device is an open block device handle.
type Device interface {
	IsBlockDevice() (bool, error)
	// Capacity is the device size in 512-byte sectors.
	Capacity() (uint64, error)
	SectorSize() (uint32, error)
	// ReportZones returns the number of zones the device filled in and the
	// entries themselves, starting with the zone containing start.
	ReportZones(start uint64, max uint32) (uint32, []RawZone, error)
	ResetZones(sector, sectors uint64) error
	Close() error
}

// Session is one open device with its geometry. Geometry is read once in Open
// and never changes afterwards.
type Session struct {
	Path         string
	TotalSectors uint64
	SectorSize   uint32

	dev Device
	log zerolog.Logger
}

// Open opens path through t and reads the device geometry. The caller must
// Close the returned session.
func Open(t Transport, path string, mode AccessMode, logger zerolog.Logger) (*Session, error) {
	dev, err := t.Open(path, mode)
	if err != nil {
		return nil, pathErr(path, ErrOpenFailed, err)
	}
	s, err := newSession(dev, path, logger)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	s.log.Debug().
		Str("mode", mode.String()).
		Uint64("sectors", s.TotalSectors).
		Uint32("sector_size", s.SectorSize).
		Str("capacity", humanize.IBytes(s.TotalSectors*512)).
		Msg("device opened")
	return s, nil
}

func newSession(dev Device, path string, logger zerolog.Logger) (*Session, error) {
	isBlk, err := dev.IsBlockDevice()
	if err != nil {
		return nil, pathErr(path, ErrNotBlockDevice, err)
	}
	if !isBlk {
		return nil, pathErr(path, ErrNotBlockDevice, nil)
	}
	total, err := dev.Capacity()
	if err != nil {
		return nil, pathErr(path, ErrGeometryQueryFailed, err)
	}
	ssz, err := dev.SectorSize()
	if err != nil {
		return nil, pathErr(path, ErrGeometryQueryFailed, err)
	}
	return &Session{
		Path:         path,
		TotalSectors: total,
		SectorSize:   ssz,
		dev:          dev,
		log:          logger.With().Str("device", path).Logger(),
	}, nil
}

// Close releases the device handle. It is safe to call more than once.
func (s *Session) Close() error {
	if s.dev == nil {
		return nil
	}
	err := s.dev.Close()
	s.dev = nil
	return err
}
