package zoned

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// partitionMask drops the partition bits of a minor number so /dev/sdXn maps
// to the queue directory of /dev/sdX.
const partitionMask = 0x0f

// chunkSectorsPath returns the sysfs file holding the zone size of the whole
// device behind major:minor.
func chunkSectorsPath(sysfsRoot string, major, minor uint32) string {
	devno := fmt.Sprintf("%d:%d", major, minor&^partitionMask)
	return filepath.Join(sysfsRoot, "dev", "block", devno, "queue", "chunk_sectors")
}

// readChunkSectors returns the zone size in sectors, or 0 with an error when
// the value is missing or unparsable.
func readChunkSectors(sysfsRoot string, major, minor uint32) (uint64, error) {
	path := chunkSectorsPath(sysfsRoot, major, minor)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrap(err, "read chunk_sectors")
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", path)
	}
	return v, nil
}
