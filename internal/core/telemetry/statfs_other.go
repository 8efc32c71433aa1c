//go:build !linux

package telemetry

import "lcars-core/internal/domain"

func rootFilesystem() (domain.DriveInfo, bool) {
	return domain.DriveInfo{}, false
}
