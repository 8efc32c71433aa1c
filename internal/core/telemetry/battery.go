package telemetry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"lcars-core/internal/core/command"
	"lcars-core/internal/domain"
	"lcars-core/pkg"
)

const batteryScript = `Get-CimInstance Win32_Battery | Select-Object EstimatedChargeRemaining,BatteryStatus,Chemistry | ConvertTo-Json -Compress`

// BatteryReader reads /sys/class/power_supply on Linux and Win32_Battery on
// Windows. A host without a battery is not an error.
type BatteryReader struct {
	root   string
	runner command.Runner
	goos   string
}

func NewBatteryReader(runner command.Runner) *BatteryReader {
	return &BatteryReader{root: "/sys/class/power_supply", runner: runner, goos: runtime.GOOS}
}

func (b *BatteryReader) Read(ctx context.Context) domain.BatteryInfo {
	if b.goos == "windows" {
		return b.readWMI(ctx)
	}
	return b.readSysfs()
}

func (b *BatteryReader) readSysfs() domain.BatteryInfo {
	capPaths, _ := filepath.Glob(filepath.Join(b.root, "BAT*", "capacity"))
	for _, capPath := range capPaths {
		base := filepath.Dir(capPath)

		raw, err := os.ReadFile(capPath)
		if err != nil {
			continue
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		if err != nil {
			continue
		}

		status := readTrimmed(filepath.Join(base, "status"))
		tech := readTrimmed(filepath.Join(base, "technology"))

		return domain.BatteryInfo{
			HasBattery: true,
			Percent:    pct,
			IsCharging: strings.EqualFold(status, "Charging") || strings.EqualFold(status, "Full"),
			Type:       pkg.OrUnknown(tech),
		}
	}

	return domain.NoBattery()
}

type wmiBattery struct {
	EstimatedChargeRemaining float64 `json:"EstimatedChargeRemaining"`
	BatteryStatus            int     `json:"BatteryStatus"`
	Chemistry                int     `json:"Chemistry"`
}

func (b *BatteryReader) readWMI(ctx context.Context) domain.BatteryInfo {
	if b.runner == nil {
		return domain.NoBattery()
	}

	out, err := command.PowerShell(ctx, b.runner, batteryScript)
	if err != nil {
		return domain.NoBattery()
	}

	return parseWMIBattery(out)
}

func parseWMIBattery(out string) domain.BatteryInfo {
	var items []wmiBattery
	if err := decodeJSONList(out, &items); err != nil || len(items) == 0 {
		return domain.NoBattery()
	}

	it := items[0]
	return domain.BatteryInfo{
		HasBattery: true,
		Percent:    it.EstimatedChargeRemaining,
		// 2 = on AC, 6..9 = charging states
		IsCharging: it.BatteryStatus == 2 || (it.BatteryStatus >= 6 && it.BatteryStatus <= 9),
		Type:       chemistryName(it.Chemistry),
	}
}

func chemistryName(code int) string {
	switch code {
	case 3:
		return "Lead Acid"
	case 4:
		return "NiCd"
	case 5:
		return "NiMH"
	case 6:
		return "Li-ion"
	case 7:
		return "Zinc Air"
	case 8:
		return "LiPo"
	}
	return pkg.Unknown
}

func readTrimmed(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

// decodeJSONList accepts both a JSON array and a single object, since
// ConvertTo-Json collapses one-element arrays.
func decodeJSONList[T any](out string, into *[]T) error {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}

	if strings.HasPrefix(out, "[") {
		return json.Unmarshal([]byte(out), into)
	}

	var one T
	if err := json.Unmarshal([]byte(out), &one); err != nil {
		return err
	}
	*into = []T{one}
	return nil
}
