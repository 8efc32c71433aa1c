package network

import (
	"context"
	"sort"

	"lcars-core/internal/domain"
)

// WifiNetworks scans for nearby networks, strongest first. Any failure
// yields an empty list.
func (s *Service) WifiNetworks(ctx context.Context) []domain.WifiNetwork {
	var (
		networks []domain.WifiNetwork
		err      error
	)

	switch s.goos {
	case "linux":
		networks, err = s.scanNmcli(ctx)
	case "windows":
		networks, err = s.scanNetsh(ctx)
	}
	if err != nil {
		s.log.Warn("network: wifi scan failed", "os", s.goos, "error", err)
		return []domain.WifiNetwork{}
	}
	if networks == nil {
		return []domain.WifiNetwork{}
	}

	sort.SliceStable(networks, func(i, j int) bool {
		return networks[i].Signal > networks[j].Signal
	})
	return networks
}

func (s *Service) scanNmcli(ctx context.Context) ([]domain.WifiNetwork, error) {
	out, err := s.runner.Output(ctx, "nmcli", "-t", "-f", "IN-USE,SSID,SECURITY,SIGNAL", "device", "wifi", "list")
	if err != nil {
		return nil, err
	}
	return parseNmcli(out), nil
}

func (s *Service) scanNetsh(ctx context.Context) ([]domain.WifiNetwork, error) {
	out, err := s.runner.Output(ctx, "netsh", "wlan", "show", "networks", "mode=bssid")
	if err != nil {
		return nil, err
	}

	var connected string
	if iface, err := s.runner.Output(ctx, "netsh", "wlan", "show", "interfaces"); err == nil {
		connected = parseNetshConnected(iface)
	}

	return parseNetsh(out, connected), nil
}

// CheckConnectivity resolves the configured host and, failing that, dials
// the probe address. Both attempts are bounded by the configured timeout.
func (s *Service) CheckConnectivity(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if addrs, err := s.lookup(ctx, s.opts.ConnectivityHost); err == nil && len(addrs) > 0 {
		return true
	} else if err != nil {
		s.log.Debug("network: dns lookup failed", "host", s.opts.ConnectivityHost, "error", err)
	}

	conn, err := s.dial(ctx, "tcp", s.opts.ConnectivityProbe)
	if err != nil {
		s.log.Debug("network: probe dial failed", "addr", s.opts.ConnectivityProbe, "error", err)
		return false
	}
	_ = conn.Close()
	return true
}
