// Package zoned decodes zone reports from zoned block devices and plans zone resets.
// Device access goes through the Transport/Device interfaces; the Linux
// implementation lives in blkdev_linux.go.
package zoned

import "fmt"

/* ===================== zone types ===================== */

// ZoneType is the kernel's BLK_ZONE_TYPE_* value.
type ZoneType uint8

// Zone types
const (
	TypeReserved          ZoneType = 0x0
	TypeConventional      ZoneType = 0x1
	TypeSeqWriteRequired  ZoneType = 0x2
	TypeSeqWritePreferred ZoneType = 0x3
)

var typeText = [...]string{
	TypeReserved:          "RESERVED",
	TypeConventional:      "CONVENTIONAL",
	TypeSeqWriteRequired:  "SEQ_WRITE_REQUIRED",
	TypeSeqWritePreferred: "SEQ_WRITE_PREFERRED",
}

// Valid reports whether t is one of the four known zone types.
func (t ZoneType) Valid() bool {
	return int(t) < len(typeText)
}

func (t ZoneType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
	return typeText[t]
}

/* ===================== zone conditions ===================== */

// Condition is the kernel's BLK_ZONE_COND_* value.
type Condition uint8

// Zone conditions. 0x5 through 0xC are reserved.
const (
	CondNotWP    Condition = 0x0
	CondEmpty    Condition = 0x1
	CondImpOpen  Condition = 0x2
	CondExpOpen  Condition = 0x3
	CondClosed   Condition = 0x4
	CondReadOnly Condition = 0xD
	CondFull     Condition = 0xE
	CondOffline  Condition = 0xF
)

var condMnemonic = [16]string{
	"cv", // conventional
	"e0", // empty
	"Oi", // open implicit
	"Oe", // open explicit
	"Cl", // closed
	"x5", "x6", "x7", "x8", "x9", "xA", "xB", "xC",
	"ro", // read only
	"fu", // full
	"OL", // offline
}

// Mnemonic returns the two-character code used in report output.
func (c Condition) Mnemonic() string {
	if int(c) >= len(condMnemonic) {
		return "??"
	}
	return condMnemonic[c]
}

func (c Condition) String() string { return c.Mnemonic() }

/* ===================== zone records ===================== */

// RawZone mirrors the fields of struct blk_zone the decoder cares about.
type RawZone struct {
	Start        uint64
	Len          uint64
	WritePointer uint64
	Type         uint8
	Cond         uint8
	NonSeq       uint8
	Reset        uint8
}

// Zone is one decoded report entry. All positions are in 512-byte sectors.
type Zone struct {
	Type         ZoneType
	Cond         Condition
	Start        uint64
	Len          uint64
	WritePointer uint64
	Reset        bool
	NonSeq       bool
}

// WritePointerOffset is the write pointer relative to the zone start.
func (z Zone) WritePointerOffset() uint64 {
	return z.WritePointer - z.Start
}

func decodeZone(raw RawZone) (Zone, error) {
	t := ZoneType(raw.Type)
	if !t.Valid() {
		return Zone{}, fmt.Errorf("zone at sector %d: %w %d", raw.Start, ErrUnknownZoneType, raw.Type)
	}
	return Zone{
		Type:         t,
		Cond:         Condition(raw.Cond),
		Start:        raw.Start,
		Len:          raw.Len,
		WritePointer: raw.WritePointer,
		Reset:        raw.Reset != 0,
		NonSeq:       raw.NonSeq != 0,
	}, nil
}
