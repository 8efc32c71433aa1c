package telemetry

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"lcars-core/internal/core/command"
	"lcars-core/internal/domain"
	"lcars-core/pkg"
)

const videoControllerScript = `Get-CimInstance Win32_VideoController | Select-Object Name,AdapterCompatibility,AdapterRAM,CurrentHorizontalResolution,CurrentVerticalResolution,CurrentRefreshRate | ConvertTo-Json -Compress`

// NvidiaSource queries nvidia-smi.
type NvidiaSource struct {
	runner   command.Runner
	displays *DisplayReader
}

func NewNvidiaSource(runner command.Runner, displays *DisplayReader) *NvidiaSource {
	return &NvidiaSource{runner: runner, displays: displays}
}

func (n *NvidiaSource) Name() string { return SourceNvidia }

func (n *NvidiaSource) Collect(ctx context.Context) (domain.GraphicsInfo, error) {
	out, err := n.runner.Output(ctx, "nvidia-smi",
		"--query-gpu=name,memory.total,temperature.gpu,utilization.gpu",
		"--format=csv,noheader,nounits")
	if err != nil {
		return domain.GraphicsInfo{}, err
	}

	controllers := parseNvidiaSMI(out)
	if len(controllers) == 0 {
		return domain.GraphicsInfo{}, errors.New("nvidia-smi reported no gpus")
	}

	return domain.GraphicsInfo{
		Controllers: controllers,
		Displays:    n.displays.Read(ctx),
	}, nil
}

func parseNvidiaSMI(out string) []domain.GPUController {
	var gpus []domain.GPUController

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		parts := strings.Split(sc.Text(), ",")
		if len(parts) < 4 {
			continue
		}

		vramMB := parseFloat(parts[1])
		gpus = append(gpus, domain.GPUController{
			Model:       pkg.OrUnknown(parts[0]),
			Vendor:      "NVIDIA",
			VRAM:        uint64(vramMB * 1024 * 1024),
			Temperature: parseFloatOr(parts[2], domain.UnknownTemperature),
			Usage:       parseFloat(parts[3]),
		})
	}

	return gpus
}

// WMIGraphicsSource reads Win32_VideoController. It is a no-op failure on
// other platforms.
type WMIGraphicsSource struct {
	runner command.Runner
	goos   string
}

func NewWMIGraphicsSource(runner command.Runner) *WMIGraphicsSource {
	return &WMIGraphicsSource{runner: runner, goos: runtime.GOOS}
}

func (w *WMIGraphicsSource) Name() string { return SourceWMI }

func (w *WMIGraphicsSource) Collect(ctx context.Context) (domain.GraphicsInfo, error) {
	if w.goos != "windows" {
		return domain.GraphicsInfo{}, errors.New("wmi is only available on windows")
	}

	out, err := command.PowerShell(ctx, w.runner, videoControllerScript)
	if err != nil {
		return domain.GraphicsInfo{}, err
	}

	return parseVideoControllers(out)
}

type wmiVideoController struct {
	Name                        string  `json:"Name"`
	AdapterCompatibility        string  `json:"AdapterCompatibility"`
	AdapterRAM                  uint64  `json:"AdapterRAM"`
	CurrentHorizontalResolution int     `json:"CurrentHorizontalResolution"`
	CurrentVerticalResolution   int     `json:"CurrentVerticalResolution"`
	CurrentRefreshRate          float64 `json:"CurrentRefreshRate"`
}

func parseVideoControllers(out string) (domain.GraphicsInfo, error) {
	var items []wmiVideoController
	if err := decodeJSONList(out, &items); err != nil {
		return domain.GraphicsInfo{}, err
	}
	if len(items) == 0 {
		return domain.GraphicsInfo{}, errors.New("no video controllers")
	}

	info := domain.GraphicsInfo{}.Ensure()
	for _, it := range items {
		info.Controllers = append(info.Controllers, domain.GPUController{
			Model:       pkg.OrUnknown(it.Name),
			Vendor:      pkg.OrUnknown(it.AdapterCompatibility),
			VRAM:        it.AdapterRAM,
			Temperature: domain.UnknownTemperature,
		})
		if it.CurrentHorizontalResolution > 0 {
			info.Displays = append(info.Displays, domain.DisplayInfo{
				Model:       pkg.OrUnknown(it.Name),
				ResolutionX: it.CurrentHorizontalResolution,
				ResolutionY: it.CurrentVerticalResolution,
				RefreshRate: it.CurrentRefreshRate,
			})
		}
	}

	return info, nil
}

// DRMSource enumerates /sys/class/drm cards.
type DRMSource struct {
	root     string
	displays *DisplayReader
}

func NewDRMSource(displays *DisplayReader) *DRMSource {
	return &DRMSource{root: "/sys/class/drm", displays: displays}
}

func (d *DRMSource) Name() string { return SourceDRM }

func (d *DRMSource) Collect(ctx context.Context) (domain.GraphicsInfo, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return domain.GraphicsInfo{}, err
	}

	info := domain.GraphicsInfo{}.Ensure()
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "card") || strings.Contains(name, "-") {
			continue
		}

		device := filepath.Join(d.root, name, "device")
		vram, _ := strconv.ParseUint(readTrimmed(filepath.Join(device, "mem_info_vram_total")), 10, 64)

		info.Controllers = append(info.Controllers, domain.GPUController{
			Model:       pkg.OrUnknown(readTrimmed(filepath.Join(device, "product_name"))),
			Vendor:      pciVendor(readTrimmed(filepath.Join(device, "vendor"))),
			VRAM:        vram,
			Usage:       parseFloat(readTrimmed(filepath.Join(device, "gpu_busy_percent"))),
			Temperature: drmTemperature(device),
		})
	}

	if len(info.Controllers) == 0 {
		return domain.GraphicsInfo{}, errors.New("no drm cards")
	}

	if d.displays != nil {
		info.Displays = d.displays.Read(ctx)
	}

	return info, nil
}

func pciVendor(id string) string {
	switch strings.ToLower(id) {
	case "0x1002":
		return "AMD"
	case "0x10de":
		return "NVIDIA"
	case "0x8086":
		return "Intel"
	}
	return pkg.OrUnknown(id)
}

func drmTemperature(device string) float64 {
	matches, _ := filepath.Glob(filepath.Join(device, "hwmon", "hwmon*", "temp1_input"))
	for _, m := range matches {
		if v, err := strconv.ParseFloat(readTrimmed(m), 64); err == nil {
			return v / 1e3
		}
	}
	return domain.UnknownTemperature
}

var (
	xrandrOutput = regexp.MustCompile(`^(\S+) connected(?: primary)? (\d+)x(\d+)\+`)
	xrandrRate   = regexp.MustCompile(`(\d+(?:\.\d+)?)\*`)
)

// DisplayReader lists connected displays through xrandr. It returns an empty
// list whenever xrandr is unavailable.
type DisplayReader struct {
	runner command.Runner
	goos   string
}

func NewDisplayReader(runner command.Runner) *DisplayReader {
	return &DisplayReader{runner: runner, goos: runtime.GOOS}
}

func (r *DisplayReader) Read(ctx context.Context) []domain.DisplayInfo {
	if r == nil || r.runner == nil || r.goos != "linux" {
		return []domain.DisplayInfo{}
	}

	out, err := r.runner.Output(ctx, "xrandr", "--current")
	if err != nil {
		return []domain.DisplayInfo{}
	}

	return parseXrandr(out)
}

func parseXrandr(out string) []domain.DisplayInfo {
	displays := []domain.DisplayInfo{}
	current := -1

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()

		if m := xrandrOutput.FindStringSubmatch(line); m != nil {
			x, _ := strconv.Atoi(m[2])
			y, _ := strconv.Atoi(m[3])
			displays = append(displays, domain.DisplayInfo{Model: m[1], ResolutionX: x, ResolutionY: y})
			current = len(displays) - 1
			continue
		}

		if !strings.HasPrefix(line, " ") {
			current = -1
			continue
		}

		if current >= 0 && displays[current].RefreshRate == 0 {
			if m := xrandrRate.FindStringSubmatch(line); m != nil {
				displays[current].RefreshRate = parseFloat(m[1])
			}
		}
	}

	return displays
}

func parseFloat(s string) float64 {
	return parseFloatOr(s, 0)
}

func parseFloatOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return v
}
