//go:build linux

package zoned

import (
	"encoding/binary"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Zoned block device ioctls from <linux/blkzoned.h>.
const (
	BLKREPORTZONE = 0xC0101282 // _IOWR(0x12, 130, struct blk_zone_report)
	BLKRESETZONE  = 0x40101283 // _IOW(0x12, 131, struct blk_zone_range)
)

type linuxTransport struct {
	sysfsRoot string
}

// SystemTransport returns the transport for the running OS. sysfsRoot is
// normally "/sys".
func SystemTransport(sysfsRoot string) Transport {
	return &linuxTransport{sysfsRoot: sysfsRoot}
}

func (t *linuxTransport) Open(path string, mode AccessMode) (Device, error) {
	flags := unix.O_RDONLY
	if mode == WriteOnly {
		flags = unix.O_WRONLY
	}
	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &blockDevice{fd: fd}, nil
}

func (t *linuxTransport) ZoneGranularity(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, errors.Wrapf(err, "stat of %s failed", path)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFBLK {
		return 0, errors.Errorf("%s: not a block device", path)
	}
	rdev := uint64(st.Rdev)
	return readChunkSectors(t.sysfsRoot, unix.Major(rdev), unix.Minor(rdev))
}

type blockDevice struct {
	fd int
}

func (d *blockDevice) IsBlockDevice() (bool, error) {
	var st unix.Stat_t
	if err := unix.Fstat(d.fd, &st); err != nil {
		return false, errors.Wrap(err, "stat failed")
	}
	return st.Mode&unix.S_IFMT == unix.S_IFBLK, nil
}

func (d *blockDevice) Capacity() (uint64, error) {
	var sizeBytes uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&sizeBytes)))
	if errno != 0 {
		return 0, errors.Wrap(errno, "BLKGETSIZE64 ioctl failed")
	}
	return sizeBytes >> 9, nil
}

func (d *blockDevice) SectorSize() (uint32, error) {
	ssz, err := unix.IoctlGetInt(d.fd, unix.BLKSSZGET)
	if err != nil {
		return 0, errors.Wrap(err, "BLKSSZGET ioctl failed")
	}
	return uint32(ssz), nil
}

func (d *blockDevice) ReportZones(start uint64, max uint32) (uint32, []RawZone, error) {
	buf := make([]byte, reportHeaderSize+int(max)*zoneEntrySize)
	binary.NativeEndian.PutUint64(buf[0:], start)
	binary.NativeEndian.PutUint32(buf[8:], max)

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), BLKREPORTZONE, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return 0, nil, errno
	}

	n := binary.NativeEndian.Uint32(buf[8:])
	if n > max {
		n = max
	}
	return n, decodeReportEntries(buf[reportHeaderSize:], n), nil
}

func (d *blockDevice) ResetZones(sector, sectors uint64) error {
	var rng [16]byte
	binary.NativeEndian.PutUint64(rng[0:], sector)
	binary.NativeEndian.PutUint64(rng[8:], sectors)
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), BLKRESETZONE, uintptr(unsafe.Pointer(&rng[0])))
	if errno != 0 {
		return errno
	}
	return nil
}

func (d *blockDevice) Close() error {
	return unix.Close(d.fd)
}
