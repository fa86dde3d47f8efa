package zoned

import (
	"fmt"
	"math/bits"

	"github.com/dustin/go-humanize"
)

// ResetRequest describes a reset in the caller's terms.
type ResetRequest struct {
	Offset uint64 // first sector, must be zone aligned
	Zones  uint64 // number of zones; 0 is treated as 1
}

// ResetRange is the sector range handed to BLKRESETZONE.
type ResetRange struct {
	Sector  uint64
	Sectors uint64
}

// End is the first sector after the range.
func (r ResetRange) End() uint64 { return r.Sector + r.Sectors }

// PlanReset validates req against the device size and zone granularity and
// returns the range to reset. The range never extends past total.
func PlanReset(total, granularity uint64, req ResetRequest) (ResetRange, error) {
	if granularity == 0 {
		return ResetRange{}, ErrZoneSizeUnknown
	}
	if req.Offset%granularity != 0 {
		return ResetRange{}, ErrMisalignedOffset
	}
	if req.Offset > total {
		return ResetRange{}, ErrOffsetOutOfRange
	}
	zones := req.Zones
	if zones == 0 {
		zones = 1
	}

	avail := total - req.Offset
	hi, zlen := bits.Mul64(zones, granularity)
	if hi != 0 || zlen > avail {
		zlen = avail
	}
	return ResetRange{Sector: req.Offset, Sectors: zlen}, nil
}

// Reset plans the reset for this device and issues it.
func (s *Session) Reset(granularity uint64, req ResetRequest) (ResetRange, error) {
	rng, err := PlanReset(s.TotalSectors, granularity, req)
	if err != nil {
		if err == ErrMisalignedOffset {
			return ResetRange{}, fmt.Errorf("%s: zone %d: %w %d", s.Path, req.Offset, err, granularity)
		}
		return ResetRange{}, pathErr(s.Path, err, nil)
	}

	s.log.Debug().
		Uint64("sector", rng.Sector).
		Uint64("nr_sectors", rng.Sectors).
		Str("size", humanize.IBytes(rng.Sectors*512)).
		Msg("reset zones")
	if err := s.dev.ResetZones(rng.Sector, rng.Sectors); err != nil {
		return ResetRange{}, pathErr(s.Path, ErrResetFailed, err)
	}
	return rng, nil
}
