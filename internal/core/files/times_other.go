//go:build !linux

package files

import (
	"io/fs"
	"time"
)

type times struct {
	created  time.Time
	accessed time.Time
}

func fileTimes(path string, info fs.FileInfo) times {
	return times{created: info.ModTime(), accessed: info.ModTime()}
}
