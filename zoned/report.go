package zoned

import (
	"fmt"
	"io"
	"iter"
)

// MaxReportLen caps the entries requested in a single BLKREPORTZONE call.
const MaxReportLen = 1 << 16

// Query selects the zones to report.
type Query struct {
	Start uint64 // sector inside the first zone to report
	Count uint64 // requested number of zones
}

// Report is the result of a single BLKREPORTZONE call.
type Report struct {
	// Requested is the clamped entry count sent to the device.
	Requested uint32
	// Returned is the number of entries the device filled in.
	Returned uint32
	// Limited is set when the caller's count exceeded MaxReportLen.
	Limited bool

	raw []RawZone
}

// ClampReportLen clamps n into [1, MaxReportLen] and reports whether it was
// above the cap.
func ClampReportLen(n uint64) (uint32, bool) {
	switch {
	case n < 1:
		return 1, false
	case n > MaxReportLen:
		return MaxReportLen, true
	}
	return uint32(n), false
}

// Report asks the device for the zones starting at q.Start.
func (s *Session) Report(q Query) (*Report, error) {
	if q.Start > s.TotalSectors {
		return nil, pathErr(s.Path, ErrOffsetOutOfRange, nil)
	}
	n, limited := ClampReportLen(q.Count)
	if limited {
		s.log.Warn().Uint64("requested", q.Count).Msgf("limiting report to %d entries", n)
	}

	s.log.Debug().Uint64("sector", q.Start).Uint32("nr_zones", n).Msg("report zones")
	got, raw, err := s.dev.ReportZones(q.Start, n)
	if err != nil {
		return nil, pathErr(s.Path, ErrReportFailed, err)
	}
	if got > uint32(len(raw)) {
		got = uint32(len(raw))
	}
	return &Report{
		Requested: n,
		Returned:  got,
		Limited:   limited,
		raw:       raw[:got],
	}, nil
}

// Zones yields the decoded entries in device order. Iteration stops at the
// first zero-length entry, or after yielding an error for an entry with an
// unknown type.
func (r *Report) Zones() iter.Seq2[Zone, error] {
	return func(yield func(Zone, error) bool) {
		for _, raw := range r.raw {
			if raw.Len == 0 {
				return
			}
			z, err := decodeZone(raw)
			if err != nil {
				yield(Zone{}, err)
				return
			}
			if !yield(z, nil) {
				return
			}
		}
	}
}

// Print writes the fixed report layout: the summary line followed by one line
// per zone. verbose adds the "Found" line.
func (r *Report) Print(w io.Writer, verbose bool) error {
	if verbose {
		fmt.Fprintf(w, "Found %d zones\n", r.Returned)
	}
	fmt.Fprintf(w, "Zones returned: %d\n", r.Returned)
	for z, err := range r.Zones() {
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, FormatZone(z)); err != nil {
			return err
		}
	}
	return nil
}

// FormatZone renders z as a single report line (without newline).
func FormatZone(z Zone) string {
	return fmt.Sprintf("  start: %9x, len %6x, wptr %6x reset:%d non-seq:%d, zcond:%2d(%s) [type: %d(%s)]",
		z.Start, z.Len, z.WritePointerOffset(),
		b2u(z.Reset), b2u(z.NonSeq),
		uint8(z.Cond), z.Cond.Mnemonic(),
		uint8(z.Type), z.Type)
}

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
