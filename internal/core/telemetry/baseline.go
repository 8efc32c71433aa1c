package telemetry

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"lcars-core/internal/domain"
	"lcars-core/pkg"
)

const (
	SourceLibrary  = "gopsutil"
	SourceScript   = "script"
	SourceBaseline = "baseline"
	SourceNvidia   = "nvidia-smi"
	SourceWMI      = "wmi"
	SourceDRM      = "sysfs-drm"
)

// BaselineStatic is built from the Go runtime alone and never fails.
func BaselineStatic() domain.StaticInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = pkg.Unknown
	}

	return domain.StaticInfo{
		CPU: domain.CPUInfo{
			Brand:         pkg.Unknown,
			Manufacturer:  pkg.Unknown,
			PhysicalCores: runtime.NumCPU(),
			Cores:         runtime.NumCPU(),
			Temperature:   domain.UnknownTemperature,
		},
		Computer: domain.ComputerInfo{
			Hostname: pkg.OrUnknown(hostname),
			Platform: runtime.GOOS,
			Distro:   pkg.Unknown,
			Release:  pkg.Unknown,
			Arch:     runtime.GOARCH,
		},
		Graphics: domain.GraphicsInfo{}.Ensure(),
		Source:   SourceBaseline,
	}
}

// BaselineDynamic is the all-sentinel reading used when every source failed.
func BaselineDynamic() domain.DynamicSnapshot {
	return domain.DynamicSnapshot{
		CPUTemperature: domain.UnknownTemperature,
		Storage:        domain.NewStorageInfo(nil),
		Battery:        domain.NoBattery(),
		Source:         SourceBaseline,
		CollectedAt:    time.Now(),
	}
}

// ProcSource reads /proc directly. It is the reduced-fidelity dynamic source
// behind the library one and only works where procfs exists.
type ProcSource struct {
	Root string
}

// NewProcSource reads HOST_PROC when set, like gopsutil does.
func NewProcSource() *ProcSource {
	root := os.Getenv("HOST_PROC")
	if root == "" {
		root = "/proc"
	}
	return &ProcSource{Root: root}
}

func (p *ProcSource) Name() string { return SourceBaseline }

func (p *ProcSource) Collect(ctx context.Context) (domain.DynamicSnapshot, error) {
	mem, err := readMemInfo(filepath.Join(p.Root, "meminfo"))
	if err != nil {
		return domain.DynamicSnapshot{}, err
	}

	dyn := BaselineDynamic()
	dyn.Memory = mem
	dyn.Uptime = readUptime(filepath.Join(p.Root, "uptime"))

	if d, ok := rootFilesystem(); ok {
		dyn.Storage = domain.NewStorageInfo([]domain.DriveInfo{d})
	}

	return dyn, nil
}

// patch fills the fields named in missing that procfs can provide and returns
// the ones it recovered.
func (p *ProcSource) patch(dyn *domain.DynamicSnapshot, missing map[string]bool) []string {
	var recovered []string

	if missing["memory"] {
		if mem, err := readMemInfo(filepath.Join(p.Root, "meminfo")); err == nil {
			dyn.Memory = mem
			recovered = append(recovered, "memory")
		}
	}

	if missing["uptime"] {
		if up := readUptime(filepath.Join(p.Root, "uptime")); up > 0 {
			dyn.Uptime = up
			recovered = append(recovered, "uptime")
		}
	}

	if missing["storage"] {
		if d, ok := rootFilesystem(); ok {
			dyn.Storage = domain.NewStorageInfo([]domain.DriveInfo{d})
			recovered = append(recovered, "storage")
		}
	}

	return recovered
}

func readMemInfo(path string) (domain.MemoryInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.MemoryInfo{}, fmt.Errorf("open meminfo: %w", err)
	}
	defer file.Close()

	var mem domain.MemoryInfo
	var swapFree uint64

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		key := strings.TrimSuffix(fields[0], ":")
		valueKB, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}

		switch key {
		case "MemTotal":
			mem.Total = valueKB * 1024
		case "MemAvailable":
			mem.Free = valueKB * 1024
		case "SwapTotal":
			mem.SwapTotal = valueKB * 1024
		case "SwapFree":
			swapFree = valueKB * 1024
		}
	}

	if mem.Total == 0 {
		return domain.MemoryInfo{}, fmt.Errorf("meminfo: MemTotal missing")
	}
	if swapFree <= mem.SwapTotal {
		mem.SwapUsed = mem.SwapTotal - swapFree
	}

	return mem.Normalize(), nil
}

func readUptime(path string) uint64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0
	}

	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}

	return uint64(seconds)
}
