//go:build linux

package telemetry

import (
	"lcars-core/internal/domain"

	"golang.org/x/sys/unix"
)

func rootFilesystem() (domain.DriveInfo, bool) {
	var st unix.Statfs_t
	if err := unix.Statfs("/", &st); err != nil {
		return domain.DriveInfo{}, false
	}

	bsize := uint64(st.Bsize)
	total := st.Blocks * bsize
	free := st.Bavail * bsize

	return domain.DriveInfo{
		FS:    "/",
		Mount: "/",
		Type:  "rootfs",
		Total: total,
		Used:  total - free,
	}, total > 0
}
