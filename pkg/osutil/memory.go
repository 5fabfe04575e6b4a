package osutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/pbnjay/memory"
)

const (
	// cgroup v1 reports this for an unlimited memory.limit_in_bytes. See
	// https://unix.stackexchange.com/questions/420906/what-is-the-value-for-the-cgroups-limit-in-bytes-if-the-memory-is-not-restricte
	unrestrictedMemoryLimit = 9223372036854771712
)

var cgroupMemoryLimitLocations = []string{
	"/sys/fs/cgroup/memory.max",                   // cgroup v2
	"/sys/fs/cgroup/memory/memory.limit_in_bytes", // cgroup v1
}

// GetTotalMemory returns the total available memory size. The call is
// container-aware.
func GetTotalMemory() uint64 {
	totalMemory := memory.TotalMemory()

	for _, location := range cgroupMemoryLimitLocations {
		contents, err := os.ReadFile(location)
		if err != nil {
			continue
		}

		if limit, ok := parseCgroupMemoryLimit(string(contents)); ok {
			if totalMemory == 0 || limit < totalMemory {
				totalMemory = limit
			}
			break
		}
	}
	return totalMemory
}

// parseCgroupMemoryLimit returns false when the limit is unset or unbounded
func parseCgroupMemoryLimit(contents string) (uint64, bool) {
	value := strings.TrimSpace(contents)
	if value == "max" {
		return 0, false
	}

	limit, err := strconv.ParseUint(value, 10, 64)
	if err != nil || limit == 0 || limit >= unrestrictedMemoryLimit {
		return 0, false
	}
	return limit, true
}
