package telemetry

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"lcars-core/internal/core/command"
	"lcars-core/internal/domain"
	"lcars-core/pkg"
)

const staticScript = `$c = Get-CimInstance Win32_Processor | Select-Object -First 1 Name,Manufacturer,NumberOfCores,NumberOfLogicalProcessors,MaxClockSpeed
$o = Get-CimInstance Win32_OperatingSystem | Select-Object Caption,Version,OSArchitecture
@{ cpu = $c; os = $o; host = $env:COMPUTERNAME } | ConvertTo-Json -Compress -Depth 3`

// ScriptStatic shells out to PowerShell/WMI on Windows and reads procfs and
// os-release elsewhere.
type ScriptStatic struct {
	runner    command.Runner
	goos      string
	cpuinfo   string
	osRelease string
}

func NewScriptStatic(runner command.Runner) *ScriptStatic {
	return &ScriptStatic{
		runner:    runner,
		goos:      runtime.GOOS,
		cpuinfo:   "/proc/cpuinfo",
		osRelease: "/etc/os-release",
	}
}

func (s *ScriptStatic) Name() string { return SourceScript }

func (s *ScriptStatic) Collect(ctx context.Context) (domain.StaticInfo, error) {
	if s.goos == "windows" {
		out, err := command.PowerShell(ctx, s.runner, staticScript)
		if err != nil {
			return domain.StaticInfo{}, err
		}
		return parseWMIStatic(out)
	}

	return s.collectProcfs()
}

type wmiStatic struct {
	CPU struct {
		Name                      string  `json:"Name"`
		Manufacturer              string  `json:"Manufacturer"`
		NumberOfCores             int     `json:"NumberOfCores"`
		NumberOfLogicalProcessors int     `json:"NumberOfLogicalProcessors"`
		MaxClockSpeed             float64 `json:"MaxClockSpeed"`
	} `json:"cpu"`
	OS struct {
		Caption        string `json:"Caption"`
		Version        string `json:"Version"`
		OSArchitecture string `json:"OSArchitecture"`
	} `json:"os"`
	Host string `json:"host"`
}

func parseWMIStatic(out string) (domain.StaticInfo, error) {
	var w wmiStatic
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &w); err != nil {
		return domain.StaticInfo{}, fmt.Errorf("decode wmi output: %w", err)
	}
	if w.CPU.Name == "" && w.Host == "" {
		return domain.StaticInfo{}, errors.New("wmi returned no data")
	}

	return domain.StaticInfo{
		CPU: domain.CPUInfo{
			Brand:         pkg.OrUnknown(w.CPU.Name),
			Manufacturer:  pkg.OrUnknown(w.CPU.Manufacturer),
			PhysicalCores: w.CPU.NumberOfCores,
			Cores:         w.CPU.NumberOfLogicalProcessors,
			Speed:         pkg.Round(w.CPU.MaxClockSpeed/1000, 2),
			Temperature:   domain.UnknownTemperature,
		},
		Computer: domain.ComputerInfo{
			Hostname: pkg.OrUnknown(w.Host),
			Platform: "windows",
			Distro:   pkg.OrUnknown(w.OS.Caption),
			Release:  pkg.OrUnknown(w.OS.Version),
			Arch:     pkg.OrUnknown(w.OS.OSArchitecture),
		},
	}, nil
}

func (s *ScriptStatic) collectProcfs() (domain.StaticInfo, error) {
	f, err := os.Open(s.cpuinfo)
	if err != nil {
		return domain.StaticInfo{}, fmt.Errorf("open cpuinfo: %w", err)
	}
	defer f.Close()

	cpu := parseCPUInfo(bufio.NewScanner(f))
	if cpu.Cores == 0 {
		return domain.StaticInfo{}, errors.New("cpuinfo: no processors listed")
	}

	hostname, _ := os.Hostname()

	return domain.StaticInfo{
		CPU: cpu,
		Computer: domain.ComputerInfo{
			Hostname: pkg.OrUnknown(hostname),
			Platform: runtime.GOOS,
			Distro:   pkg.OrUnknown(readOSRelease(s.osRelease, "PRETTY_NAME")),
			Release:  pkg.OrUnknown(readOSRelease(s.osRelease, "VERSION_ID")),
			Arch:     runtime.GOARCH,
		},
	}, nil
}

func parseCPUInfo(scanner *bufio.Scanner) domain.CPUInfo {
	cpu := domain.CPUInfo{Temperature: domain.UnknownTemperature}
	cores := make(map[string]bool)

	var physicalID string
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "processor":
			cpu.Cores++
		case "model name":
			if cpu.Brand == "" {
				cpu.Brand = value
			}
		case "vendor_id":
			if cpu.Manufacturer == "" {
				cpu.Manufacturer = vendorName(value)
			}
		case "cpu MHz":
			if cpu.Speed == 0 {
				if mhz, err := strconv.ParseFloat(value, 64); err == nil {
					cpu.Speed = pkg.Round(mhz/1000, 2)
				}
			}
		case "physical id":
			physicalID = value
		case "core id":
			cores[physicalID+"/"+value] = true
		}
	}

	cpu.PhysicalCores = len(cores)
	if cpu.PhysicalCores == 0 {
		cpu.PhysicalCores = cpu.Cores
	}
	cpu.Brand = pkg.OrUnknown(cpu.Brand)
	cpu.Manufacturer = pkg.OrUnknown(cpu.Manufacturer)

	return cpu
}

func readOSRelease(path, key string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, key+"=") {
			return strings.Trim(strings.SplitN(line, "=", 2)[1], `"`)
		}
	}

	return ""
}
