package zoned

import "encoding/binary"

// struct blk_zone_report is followed by nr_zones struct blk_zone entries.
const (
	reportHeaderSize = 16
	zoneEntrySize    = 64
)

// decodeReportEntries reads n struct blk_zone entries from buf.
//
//	0 start, 8 len, 16 wp (u64); 24 type, 25 cond, 26 non_seq, 27 reset (u8)
func decodeReportEntries(buf []byte, n uint32) []RawZone {
	zones := make([]RawZone, 0, n)
	for i := uint32(0); i < n; i++ {
		off := int(i) * zoneEntrySize
		if off+zoneEntrySize > len(buf) {
			break
		}
		e := buf[off : off+zoneEntrySize]
		zones = append(zones, RawZone{
			Start:        binary.NativeEndian.Uint64(e[0:]),
			Len:          binary.NativeEndian.Uint64(e[8:]),
			WritePointer: binary.NativeEndian.Uint64(e[16:]),
			Type:         e[24],
			Cond:         e[25],
			NonSeq:       e[26],
			Reset:        e[27],
		})
	}
	return zones
}
