//go:build linux

package files

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

type times struct {
	created  time.Time
	accessed time.Time
}

// fileTimes prefers the birth time from statx and falls back to the inode
// change time on filesystems that do not record it.
func fileTimes(path string, info fs.FileInfo) times {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME|unix.STATX_ATIME|unix.STATX_CTIME, &stx)
	if err != nil {
		return times{created: info.ModTime(), accessed: info.ModTime()}
	}

	t := times{
		created:  statxTime(stx.Ctime),
		accessed: statxTime(stx.Atime),
	}
	if stx.Mask&unix.STATX_BTIME != 0 {
		t.created = statxTime(stx.Btime)
	}
	return t
}

func statxTime(ts unix.StatxTimestamp) time.Time {
	return time.Unix(ts.Sec, int64(ts.Nsec))
}
