// Package ui renders telemetry snapshots as LCARS-style terminal panels.
package ui

import (
	"fmt"
	"strings"
	"time"

	"lcars-core/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	orange   = lipgloss.Color("#FF9900")
	lavender = lipgloss.Color("#CC99CC")
	periwink = lipgloss.Color("#9999FF")
	dim      = lipgloss.Color("244")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")).Background(orange).Padding(0, 1)
	subtleStyle = lipgloss.NewStyle().Foreground(dim)
	labelStyle  = lipgloss.NewStyle().Foreground(lavender).Bold(true)
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(periwink).
			Padding(0, 1).
			MarginRight(1)

	gaugeFill  = "█"
	gaugeEmpty = "░"
)

const gaugeWidth = 24

// RenderSystem draws a full snapshot.
func RenderSystem(s domain.SystemSnapshot) string {
	header := titleStyle.Render("LCARS // "+s.Computer.Hostname) + "  " +
		subtleStyle.Render(stamp(s.CollectedAt, s.Source, s.Cached))

	cpu := card("CPU", fmt.Sprintf("%s\n%s  %d/%d cores  %.2f GHz\ntemp %s",
		truncate(s.CPU.Brand, 40),
		gaugeBar(s.CPU.Usage, gaugeWidth),
		s.CPU.PhysicalCores, s.CPU.Cores, s.CPU.Speed,
		temperature(s.CPU.Temperature)))

	host := card("Computer", fmt.Sprintf("%s %s\n%s %s\nup %s",
		s.Computer.Platform, s.Computer.Arch,
		s.Computer.Distro, s.Computer.Release,
		time.Duration(s.Computer.Uptime)*time.Second))

	line1 := lipgloss.JoinHorizontal(lipgloss.Top, cpu, memoryCard(s.Memory), host)
	line2 := lipgloss.JoinHorizontal(lipgloss.Top, storageCard(s.Storage), graphicsCard(s.Graphics), batteryCard(s.Battery))

	return lipgloss.JoinVertical(lipgloss.Left, header, line1, line2)
}

// RenderDynamic draws a light snapshot.
func RenderDynamic(d domain.DynamicSnapshot) string {
	header := titleStyle.Render("LCARS // LIGHT") + "  " +
		subtleStyle.Render(stamp(d.CollectedAt, d.Source, false))

	cpu := card("CPU", fmt.Sprintf("%s\ntemp %s", gaugeBar(d.CPUUsage, gaugeWidth), temperature(d.CPUTemperature)))
	line := lipgloss.JoinHorizontal(lipgloss.Top, cpu, memoryCard(d.Memory), storageCard(d.Storage), batteryCard(d.Battery))

	return lipgloss.JoinVertical(lipgloss.Left, header, line)
}

func memoryCard(m domain.MemoryInfo) string {
	return card("Memory", fmt.Sprintf("%s\n%s / %s  swap %3.0f%%",
		gaugeBar(m.Percentage, gaugeWidth), Bytes(m.Used), Bytes(m.Total), m.SwapPercentage))
}

func storageCard(s domain.StorageInfo) string {
	lines := []string{fmt.Sprintf("%s  %s / %s", gaugeBar(s.Percentage, gaugeWidth), Bytes(s.Used), Bytes(s.Total))}
	for i, d := range s.Drives {
		if i == 4 {
			lines = append(lines, subtleStyle.Render(fmt.Sprintf("+%d more", len(s.Drives)-i)))
			break
		}
		lines = append(lines, fmt.Sprintf("%-14s %5.1f%%", truncate(d.Mount, 14), d.Percentage))
	}
	return card("Storage", strings.Join(lines, "\n"))
}

func graphicsCard(g domain.GraphicsInfo) string {
	lines := make([]string, 0, len(g.Controllers)+len(g.Displays))
	for _, c := range g.Controllers {
		lines = append(lines, fmt.Sprintf("%s %s", truncate(c.Model, 24), Bytes(c.VRAM)))
	}
	for _, d := range g.Displays {
		lines = append(lines, fmt.Sprintf("%dx%d @%.0fHz", d.ResolutionX, d.ResolutionY, d.RefreshRate))
	}
	if g.Synthetic {
		lines = append(lines, subtleStyle.Render("placeholder"))
	}
	return card("Graphics", strings.Join(lines, "\n"))
}

func batteryCard(b domain.BatteryInfo) string {
	if !b.HasBattery {
		return card("Power", "AC")
	}
	state := "discharging"
	if b.IsCharging {
		state = "charging"
	}
	return card("Power", fmt.Sprintf("%s\n%s", gaugeBar(b.Percent, 12), state))
}

func stamp(at time.Time, source string, cached bool) string {
	s := at.Format("2006-01-02 15:04:05") + "  src " + source
	if cached {
		s += "  cached"
	}
	return s
}

func temperature(c float64) string {
	if c < 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f°C", c)
}

func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func card(title, body string) string {
	return cardStyle.Render(labelStyle.Render(title) + "\n" + body)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Bytes formats a byte count with binary units.
func Bytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
