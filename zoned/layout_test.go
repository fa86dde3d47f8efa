package zoned

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putZone(buf []byte, i int, z RawZone) {
	e := buf[i*zoneEntrySize:]
	binary.NativeEndian.PutUint64(e[0:], z.Start)
	binary.NativeEndian.PutUint64(e[8:], z.Len)
	binary.NativeEndian.PutUint64(e[16:], z.WritePointer)
	e[24], e[25], e[26], e[27] = z.Type, z.Cond, z.NonSeq, z.Reset
}

func TestDecodeReportEntries(t *testing.T) {
	want := []RawZone{
		{Start: 0, Len: 0x80000, WritePointer: 0, Type: 1, Cond: 0},
		{Start: 0x80000, Len: 0x80000, WritePointer: 0x80100, Type: 2, Cond: 2, NonSeq: 0, Reset: 1},
		{Start: 0x100000, Len: 0x80000, WritePointer: 0x180000, Type: 2, Cond: 0xE},
	}
	buf := make([]byte, 4*zoneEntrySize)
	for i, z := range want {
		putZone(buf, i, z)
	}

	assert.Equal(t, want, decodeReportEntries(buf, 3))
	assert.Len(t, decodeReportEntries(buf, 4), 4)
	// count larger than the buffer holds
	assert.Len(t, decodeReportEntries(buf, 9), 4)
}

func writeChunkSectors(t *testing.T, root, devno, value string) {
	t.Helper()
	dir := filepath.Join(root, "dev", "block", devno, "queue")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chunk_sectors"), []byte(value), 0o644))
}

func TestReadChunkSectors(t *testing.T) {
	root := t.TempDir()
	writeChunkSectors(t, root, "8:16", "524288\n")

	v, err := readChunkSectors(root, 8, 16)
	require.NoError(t, err)
	assert.Equal(t, uint64(524288), v)

	// partition 8:18 (sdb2) resolves to the whole disk 8:16
	v, err = readChunkSectors(root, 8, 18)
	require.NoError(t, err)
	assert.Equal(t, uint64(524288), v)
	assert.Equal(t, filepath.Join(root, "dev/block/8:16/queue/chunk_sectors"), chunkSectorsPath(root, 8, 31))
}

func TestReadChunkSectorsErrors(t *testing.T) {
	root := t.TempDir()
	writeChunkSectors(t, root, "259:0", "garbage")

	_, err := readChunkSectors(root, 259, 0)
	assert.Error(t, err)

	_, err = readChunkSectors(root, 8, 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
