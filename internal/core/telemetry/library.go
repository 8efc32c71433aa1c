package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"
	"lcars-core/pkg"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sync/errgroup"
)

const cpuSampleWindow = 250 * time.Millisecond

var cpuSensorTargets = []string{
	"coretemp",
	"k10temp",
	"zenpower*",
	"cpu_thermal",
	"cpu-thermal",
	"package id*",
	"tctl",
}

var ignoredFSTypes = []string{
	"tmpfs", "devtmpfs", "squashfs", "overlay", "proc", "sysfs", "cgroup*",
	"autofs", "devpts", "mqueue", "tracefs", "debugfs", "fusectl", "nsfs",
}

// LibraryStatic reads static fields through gopsutil.
type LibraryStatic struct{}

func NewLibraryStatic() *LibraryStatic { return &LibraryStatic{} }

func (l *LibraryStatic) Name() string { return SourceLibrary }

func (l *LibraryStatic) Collect(ctx context.Context) (domain.StaticInfo, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return domain.StaticInfo{}, fmt.Errorf("cpu info: %w", err)
	}
	if len(infos) == 0 {
		return domain.StaticInfo{}, errors.New("cpu info: empty")
	}

	hi, err := host.InfoWithContext(ctx)
	if err != nil {
		return domain.StaticInfo{}, fmt.Errorf("host info: %w", err)
	}

	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil || logical <= 0 {
		logical = len(infos)
	}
	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil || physical <= 0 {
		physical = logical
	}

	first := infos[0]

	return domain.StaticInfo{
		CPU: domain.CPUInfo{
			Brand:         pkg.OrUnknown(first.ModelName),
			Manufacturer:  pkg.OrUnknown(vendorName(first.VendorID)),
			PhysicalCores: physical,
			Cores:         logical,
			Speed:         pkg.Round(first.Mhz/1000, 2),
			Temperature:   domain.UnknownTemperature,
		},
		Computer: domain.ComputerInfo{
			Hostname: pkg.OrUnknown(hi.Hostname),
			Platform: pkg.OrUnknown(hi.OS),
			Distro:   pkg.OrUnknown(hi.Platform),
			Release:  pkg.OrUnknown(hi.PlatformVersion),
			Arch:     pkg.OrUnknown(hi.KernelArch),
			Uptime:   hi.Uptime,
		},
	}, nil
}

func vendorName(id string) string {
	switch strings.TrimSpace(id) {
	case "GenuineIntel":
		return "Intel"
	case "AuthenticAMD":
		return "AMD"
	}
	return id
}

// LibraryDynamic reads the per-poll fields through gopsutil. Each field is
// collected concurrently and degrades on its own: memory, storage and uptime
// are retried through procfs when proc is set, the rest keep their sentinels.
type LibraryDynamic struct {
	battery *BatteryReader
	proc    *ProcSource
	log     logger.Logger
}

func NewLibraryDynamic(battery *BatteryReader, proc *ProcSource, log logger.Logger) *LibraryDynamic {
	return &LibraryDynamic{battery: battery, proc: proc, log: log}
}

func (l *LibraryDynamic) Name() string { return SourceLibrary }

func (l *LibraryDynamic) Collect(ctx context.Context) (domain.DynamicSnapshot, error) {
	dyn := BaselineDynamic()
	dyn.CollectedAt = time.Now()

	var (
		mu     sync.Mutex
		failed = make(map[string]bool)
		total  int
	)

	var g errgroup.Group
	run := func(name string, fn func() error) {
		total++
		g.Go(func() error {
			if err := fn(); err != nil {
				l.log.Debug("telemetry: sub-collection failed", "field", name, "error", err)
				mu.Lock()
				failed[name] = true
				mu.Unlock()
			}
			return nil
		})
	}

	run("cpu_usage", func() error {
		pct, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false)
		if err != nil {
			return err
		}
		if len(pct) == 0 {
			return errors.New("no cpu samples")
		}
		mu.Lock()
		dyn.CPUUsage = pkg.Round(pct[0], 1)
		mu.Unlock()
		return nil
	})

	run("cpu_temperature", func() error {
		temps, err := host.SensorsTemperaturesWithContext(ctx)
		if err != nil && len(temps) == 0 {
			return err
		}
		t, ok := pickCPUTemperature(temps)
		if !ok {
			return errors.New("no cpu sensor")
		}
		mu.Lock()
		dyn.CPUTemperature = t
		mu.Unlock()
		return nil
	})

	run("memory", func() error {
		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return err
		}
		m := domain.MemoryInfo{Total: vm.Total, Free: vm.Available}
		if sw, err := mem.SwapMemoryWithContext(ctx); err == nil {
			m.SwapTotal = sw.Total
			m.SwapUsed = sw.Used
		}
		mu.Lock()
		dyn.Memory = m.Normalize()
		mu.Unlock()
		return nil
	})

	run("storage", func() error {
		drives, err := collectDrives(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		dyn.Storage = domain.NewStorageInfo(drives)
		mu.Unlock()
		return nil
	})

	run("uptime", func() error {
		up, err := host.UptimeWithContext(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		dyn.Uptime = up
		mu.Unlock()
		return nil
	})

	if l.battery != nil {
		run("battery", func() error {
			b := l.battery.Read(ctx)
			mu.Lock()
			dyn.Battery = b
			mu.Unlock()
			return nil
		})
	}

	g.Wait()

	if l.proc != nil && len(failed) > 0 {
		for _, field := range l.proc.patch(&dyn, failed) {
			l.log.Debug("telemetry: field recovered from procfs", "field", field)
			delete(failed, field)
		}
	}

	if len(failed) == total {
		return domain.DynamicSnapshot{}, errors.New("every dynamic sub-collection failed")
	}

	return dyn, nil
}

func pickCPUTemperature(temps []host.TemperatureStat) (float64, bool) {
	for _, t := range temps {
		if t.Temperature <= 0 {
			continue
		}
		if pkg.ContainsAny(t.SensorKey, cpuSensorTargets) {
			return pkg.Round(t.Temperature, 1), true
		}
	}
	return 0, false
}

func collectDrives(ctx context.Context) ([]domain.DriveInfo, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("partitions: %w", err)
	}

	seen := make(map[string]bool)
	var drives []domain.DriveInfo

	for _, p := range parts {
		if pkg.ContainsAny(p.Fstype, ignoredFSTypes) || seen[p.Device] {
			continue
		}

		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue
		}
		seen[p.Device] = true

		drives = append(drives, domain.DriveInfo{
			FS:    p.Device,
			Mount: p.Mountpoint,
			Type:  p.Fstype,
			Total: usage.Total,
			Used:  usage.Used,
		})
	}

	if len(drives) == 0 {
		return nil, errors.New("no usable filesystems")
	}

	return drives, nil
}
