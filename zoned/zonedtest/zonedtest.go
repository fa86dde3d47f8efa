// Package zonedtest provides an in-memory zoned block device for tests.
package zonedtest

import (
	"errors"

	"blkzone/zoned"
)

// ReportCall records one ReportZones request.
type ReportCall struct {
	Start uint64
	Max   uint32
}

// Device is a fake zoned.Device that records every call made to it.
type Device struct {
	NotBlock    bool
	Sectors     uint64
	SectorBytes uint32
	Zones       []zoned.RawZone

	StatErr       error
	CapacityErr   error
	SectorSizeErr error
	ReportErr     error
	ResetErr      error

	Reports []ReportCall
	Resets  []zoned.ResetRange
	Closed  int
}

// NewDevice returns a device of the given size split into empty
// sequential-write-required zones of zoneSize sectors. The last zone is
// shorter when sectors is not a multiple of zoneSize.
func NewDevice(sectors, zoneSize uint64) *Device {
	d := &Device{Sectors: sectors, SectorBytes: 512}
	for start := uint64(0); start < sectors; start += zoneSize {
		l := min(zoneSize, sectors-start)
		d.Zones = append(d.Zones, zoned.RawZone{
			Start:        start,
			Len:          l,
			WritePointer: start,
			Type:         uint8(zoned.TypeSeqWriteRequired),
			Cond:         uint8(zoned.CondEmpty),
		})
	}
	return d
}

// DeviceCalls is the number of report and reset requests received.
func (d *Device) DeviceCalls() int { return len(d.Reports) + len(d.Resets) }

func (d *Device) IsBlockDevice() (bool, error) {
	if d.StatErr != nil {
		return false, d.StatErr
	}
	return !d.NotBlock, nil
}

func (d *Device) Capacity() (uint64, error) {
	if d.CapacityErr != nil {
		return 0, d.CapacityErr
	}
	return d.Sectors, nil
}

func (d *Device) SectorSize() (uint32, error) {
	if d.SectorSizeErr != nil {
		return 0, d.SectorSizeErr
	}
	return d.SectorBytes, nil
}

// ReportZones returns up to max zones starting with the one containing start.
func (d *Device) ReportZones(start uint64, max uint32) (uint32, []zoned.RawZone, error) {
	d.Reports = append(d.Reports, ReportCall{Start: start, Max: max})
	if d.ReportErr != nil {
		return 0, nil, d.ReportErr
	}
	var out []zoned.RawZone
	for _, z := range d.Zones {
		if uint32(len(out)) == max {
			break
		}
		if z.Len != 0 && z.Start+z.Len <= start {
			continue
		}
		out = append(out, z)
	}
	return uint32(len(out)), out, nil
}

// ResetZones records the range and rewinds the write pointer of every zone
// that starts inside it.
func (d *Device) ResetZones(sector, sectors uint64) error {
	d.Resets = append(d.Resets, zoned.ResetRange{Sector: sector, Sectors: sectors})
	if d.ResetErr != nil {
		return d.ResetErr
	}
	for i := range d.Zones {
		z := &d.Zones[i]
		if z.Start >= sector && z.Start < sector+sectors {
			z.WritePointer = z.Start
			z.Cond = uint8(zoned.CondEmpty)
		}
	}
	return nil
}

func (d *Device) Close() error {
	d.Closed++
	return nil
}

// Transport hands out a single Device.
type Transport struct {
	Dev            *Device
	OpenErr        error
	Granularity    uint64
	GranularityErr error

	Opens []zoned.AccessMode
}

func (t *Transport) Open(path string, mode zoned.AccessMode) (zoned.Device, error) {
	t.Opens = append(t.Opens, mode)
	if t.OpenErr != nil {
		return nil, t.OpenErr
	}
	if t.Dev == nil {
		return nil, errors.New("no such device")
	}
	return t.Dev, nil
}

func (t *Transport) ZoneGranularity(path string) (uint64, error) {
	return t.Granularity, t.GranularityErr
}
