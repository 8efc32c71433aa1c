package network

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"lcars-core/internal/domain"
)

func parseResolvConf(r io.Reader) []string {
	servers := []string{}
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || fields[0] != "nameserver" {
			continue
		}
		if !seen[fields[1]] {
			seen[fields[1]] = true
			servers = append(servers, fields[1])
		}
	}

	return servers
}

func uniqueLines(out string) []string {
	lines := []string{}
	seen := make(map[string]bool)

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}

	return lines
}

// splitTerse splits one line of nmcli -t output, honouring \: escapes.
func splitTerse(line string) []string {
	var (
		fields []string
		cur    strings.Builder
	)

	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case line[i] == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(line[i])
		}
	}

	return append(fields, cur.String())
}

// parseNmcli reads `nmcli -t -f IN-USE,SSID,SECURITY,SIGNAL device wifi list`.
// The strongest entry wins when an SSID is broadcast by several access points.
func parseNmcli(out string) []domain.WifiNetwork {
	networks := []domain.WifiNetwork{}
	index := make(map[string]int)

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		f := splitTerse(line)
		if len(f) < 4 || f[1] == "" {
			continue
		}

		signal, _ := strconv.Atoi(strings.TrimSpace(f[3]))
		security := strings.TrimSpace(f[2])
		if security == "" || security == "--" {
			security = "Open"
		}

		n := domain.WifiNetwork{
			SSID:      f[1],
			Security:  security,
			Signal:    signal,
			Connected: strings.TrimSpace(f[0]) == "*",
		}
		networks = merge(networks, index, n)
	}

	return networks
}

// parseNetsh reads `netsh wlan show networks mode=bssid`. connected is the
// SSID reported by `netsh wlan show interfaces`.
func parseNetsh(out, connected string) []domain.WifiNetwork {
	networks := []domain.WifiNetwork{}
	index := make(map[string]int)

	var cur *domain.WifiNetwork
	flush := func() {
		if cur != nil && cur.SSID != "" {
			cur.Connected = cur.SSID == connected
			networks = merge(networks, index, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case strings.HasPrefix(key, "SSID"):
			flush()
			cur = &domain.WifiNetwork{SSID: value, Security: "Open"}
		case cur == nil:
		case key == "Authentication":
			cur.Security = value
		case key == "Signal":
			if v, err := strconv.Atoi(strings.TrimSuffix(value, "%")); err == nil && v > cur.Signal {
				cur.Signal = v
			}
		}
	}
	flush()

	return networks
}

func parseNetshConnected(out string) string {
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && strings.TrimSpace(key) == "SSID" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func merge(networks []domain.WifiNetwork, index map[string]int, n domain.WifiNetwork) []domain.WifiNetwork {
	i, ok := index[n.SSID]
	if !ok {
		index[n.SSID] = len(networks)
		return append(networks, n)
	}

	if n.Signal > networks[i].Signal {
		networks[i].Signal = n.Signal
	}
	networks[i].Connected = networks[i].Connected || n.Connected
	return networks
}
