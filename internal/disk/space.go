package disk

import (
	"fmt"
	"os"

	"github.com/ricochet2200/go-disk-usage/du"
)

// AvailableBytes returns the free bytes available to the current user on the
// volume holding dir.
func AvailableBytes(dir string) (uint64, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	usage := du.NewDiskUsage(dir)
	if usage == nil {
		return 0, fmt.Errorf("unable to get disk space for path %s", dir)
	}
	return usage.Available(), nil
}
