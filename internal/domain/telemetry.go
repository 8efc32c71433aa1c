package domain

import (
	"context"
	"time"

	"lcars-core/pkg"
)

// UnknownTemperature marks a temperature that could not be read.
const UnknownTemperature = -1.0

type CPUInfo struct {
	Brand         string  `json:"brand"`
	Manufacturer  string  `json:"manufacturer"`
	PhysicalCores int     `json:"physicalCores"`
	Cores         int     `json:"cores"`
	Speed         float64 `json:"speed"`
	Usage         float64 `json:"usage"`
	Temperature   float64 `json:"temperature"`
}

type MemoryInfo struct {
	Total          uint64  `json:"total"`
	Free           uint64  `json:"free"`
	Used           uint64  `json:"used"`
	Percentage     float64 `json:"percentage"`
	SwapTotal      uint64  `json:"swapTotal"`
	SwapUsed       uint64  `json:"swapUsed"`
	SwapPercentage float64 `json:"swapPercentage"`
}

// Normalize derives Used and both percentages from the raw counters held in m.
func (m MemoryInfo) Normalize() MemoryInfo {
	if m.Free > m.Total {
		m.Free = m.Total
	}
	m.Used = m.Total - m.Free
	m.Percentage = pkg.Percent(float64(m.Used), float64(m.Total))
	if m.SwapUsed > m.SwapTotal {
		m.SwapUsed = m.SwapTotal
	}
	m.SwapPercentage = pkg.Percent(float64(m.SwapUsed), float64(m.SwapTotal))
	return m
}

type ComputerInfo struct {
	Hostname string `json:"hostname"`
	Platform string `json:"platform"`
	Distro   string `json:"distro"`
	Release  string `json:"release"`
	Arch     string `json:"arch"`
	Uptime   uint64 `json:"uptime"`
}

type DriveInfo struct {
	FS         string  `json:"fs"`
	Mount      string  `json:"mount"`
	Type       string  `json:"type"`
	Total      uint64  `json:"total"`
	Used       uint64  `json:"used"`
	Free       uint64  `json:"free"`
	Percentage float64 `json:"percentage"`
}

type StorageInfo struct {
	Drives     []DriveInfo `json:"drives"`
	Total      uint64      `json:"total"`
	Used       uint64      `json:"used"`
	Free       uint64      `json:"free"`
	Percentage float64     `json:"percentage"`
}

// NewStorageInfo builds the aggregate from the drive list. Every percentage,
// per drive and overall, is derived from the totals in the same value.
func NewStorageInfo(drives []DriveInfo) StorageInfo {
	s := StorageInfo{Drives: make([]DriveInfo, 0, len(drives))}
	for _, d := range drives {
		if d.Used > d.Total {
			d.Used = d.Total
		}
		d.Free = d.Total - d.Used
		d.Percentage = pkg.Percent(float64(d.Used), float64(d.Total))

		s.Drives = append(s.Drives, d)
		s.Total += d.Total
		s.Used += d.Used
	}
	s.Free = s.Total - s.Used
	s.Percentage = pkg.Percent(float64(s.Used), float64(s.Total))
	return s
}

type GPUController struct {
	Model       string  `json:"model"`
	Vendor      string  `json:"vendor"`
	VRAM        uint64  `json:"vram"`
	Usage       float64 `json:"usage"`
	Temperature float64 `json:"temperature"`
}

type DisplayInfo struct {
	Model       string  `json:"model"`
	ResolutionX int     `json:"resolutionX"`
	ResolutionY int     `json:"resolutionY"`
	RefreshRate float64 `json:"refreshRate"`
}

type GraphicsInfo struct {
	Controllers []GPUController `json:"controllers"`
	Displays    []DisplayInfo   `json:"displays"`
	// Synthetic is set when the values are placeholders, not readings.
	Synthetic bool   `json:"synthetic"`
	Source    string `json:"source"`
}

// Ensure guarantees non-nil slices so the value always serializes to arrays.
func (g GraphicsInfo) Ensure() GraphicsInfo {
	if g.Controllers == nil {
		g.Controllers = []GPUController{}
	}
	if g.Displays == nil {
		g.Displays = []DisplayInfo{}
	}
	return g
}

// Inventory keeps the enumeration and drops the per-poll readings, which go
// stale as soon as they are taken.
func (g GraphicsInfo) Inventory() GraphicsInfo {
	g = g.Ensure()
	controllers := make([]GPUController, len(g.Controllers))
	for i, c := range g.Controllers {
		c.Usage = 0
		c.Temperature = UnknownTemperature
		controllers[i] = c
	}
	g.Controllers = controllers
	g.Displays = append([]DisplayInfo{}, g.Displays...)
	return g
}

func PlaceholderGraphics() GraphicsInfo {
	return GraphicsInfo{
		Controllers: []GPUController{{
			Model:       pkg.Unknown,
			Vendor:      pkg.Unknown,
			Temperature: UnknownTemperature,
		}},
		Displays: []DisplayInfo{{
			Model:       pkg.Unknown,
			ResolutionX: 1920,
			ResolutionY: 1080,
			RefreshRate: 60,
		}},
		Synthetic: true,
		Source:    "placeholder",
	}
}

type BatteryInfo struct {
	HasBattery bool    `json:"hasBattery"`
	Percent    float64 `json:"percent"`
	IsCharging bool    `json:"isCharging"`
	Type       string  `json:"type"`
}

func NoBattery() BatteryInfo {
	return BatteryInfo{Type: pkg.Unknown}
}

// StaticInfo holds the fields assumed constant within the cache window.
type StaticInfo struct {
	CPU      CPUInfo      `json:"cpu"`
	Computer ComputerInfo `json:"computer"`
	Graphics GraphicsInfo `json:"graphics"`
	Source   string       `json:"source"`
}

// DynamicSnapshot holds the fields recomputed on every poll.
type DynamicSnapshot struct {
	CPUUsage       float64     `json:"cpuUsage"`
	CPUTemperature float64     `json:"cpuTemperature"`
	Memory         MemoryInfo  `json:"memory"`
	Storage        StorageInfo `json:"storage"`
	Battery        BatteryInfo `json:"battery"`
	Uptime         uint64      `json:"uptime"`
	Source         string      `json:"source"`
	CollectedAt    time.Time   `json:"collectedAt"`
}

type SystemSnapshot struct {
	CPU         CPUInfo      `json:"cpu"`
	Memory      MemoryInfo   `json:"memory"`
	Computer    ComputerInfo `json:"computer"`
	Storage     StorageInfo  `json:"storage"`
	Graphics    GraphicsInfo `json:"graphics"`
	Battery     BatteryInfo  `json:"battery"`
	Source      string       `json:"source"`
	Cached      bool         `json:"cached"`
	CollectedAt time.Time    `json:"collectedAt"`
}

// Merge combines cached static fields with a fresh dynamic reading.
func Merge(static StaticInfo, dyn DynamicSnapshot) SystemSnapshot {
	cpu := static.CPU
	cpu.Usage = dyn.CPUUsage
	cpu.Temperature = dyn.CPUTemperature

	computer := static.Computer
	computer.Uptime = dyn.Uptime

	return SystemSnapshot{
		CPU:         cpu,
		Memory:      dyn.Memory.Normalize(),
		Computer:    computer,
		Storage:     NewStorageInfo(dyn.Storage.Drives),
		Graphics:    static.Graphics.Ensure(),
		Battery:     dyn.Battery,
		Source:      static.Source,
		CollectedAt: dyn.CollectedAt,
	}
}

// TelemetrySample is one archived light snapshot.
type TelemetrySample struct {
	ID                int64           `json:"id"`
	RecordedAt        time.Time       `json:"recordedAt"`
	CPUUsage          float64         `json:"cpuUsage"`
	MemoryPercentage  float64         `json:"memoryPercentage"`
	StoragePercentage float64         `json:"storagePercentage"`
	Snapshot          DynamicSnapshot `json:"snapshot"`
}

func NewTelemetrySample(dyn DynamicSnapshot) TelemetrySample {
	at := dyn.CollectedAt
	if at.IsZero() {
		at = time.Now()
	}
	return TelemetrySample{
		RecordedAt:        at,
		CPUUsage:          dyn.CPUUsage,
		MemoryPercentage:  dyn.Memory.Percentage,
		StoragePercentage: dyn.Storage.Percentage,
		Snapshot:          dyn,
	}
}

type TelemetryRepository interface {
	Insert(ctx context.Context, s *TelemetrySample) error
	Recent(ctx context.Context, limit int) ([]TelemetrySample, error)
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}
