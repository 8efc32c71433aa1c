// Package network reports addresses, DNS servers, nearby wifi networks and
// internet reachability.
package network

import (
	"context"
	"net"
	"os"
	"runtime"
	"strings"
	"time"

	"lcars-core/internal/core/command"
	"lcars-core/internal/domain"
	"lcars-core/internal/logger"

	psnet "github.com/shirou/gopsutil/v3/net"
)

const (
	DefaultConnectivityHost  = "www.google.com"
	DefaultConnectivityProbe = "8.8.8.8:53"
	DefaultTimeout           = 5 * time.Second
)

type Options struct {
	ConnectivityHost  string
	ConnectivityProbe string
	Timeout           time.Duration
}

type Service struct {
	runner     command.Runner
	log        logger.Logger
	goos       string
	resolvConf string
	opts       Options

	interfaces func(ctx context.Context) (psnet.InterfaceStatList, error)
	lookup     func(ctx context.Context, host string) ([]string, error)
	dial       func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewService(runner command.Runner, log logger.Logger, opts Options) *Service {
	if opts.ConnectivityHost == "" {
		opts.ConnectivityHost = DefaultConnectivityHost
	}
	if opts.ConnectivityProbe == "" {
		opts.ConnectivityProbe = DefaultConnectivityProbe
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	var dialer net.Dialer

	return &Service{
		runner:     runner,
		log:        log,
		goos:       runtime.GOOS,
		resolvConf: "/etc/resolv.conf",
		opts:       opts,
		interfaces: psnet.InterfacesWithContext,
		lookup:     net.DefaultResolver.LookupHost,
		dial:       dialer.DialContext,
	}
}

// Info lists every interface address and the configured DNS servers. Both
// lists are empty rather than nil when nothing could be read.
func (s *Service) Info(ctx context.Context) domain.NetworkInfo {
	info := domain.NetworkInfo{
		IPAddresses: []domain.IPAddress{},
		DNS:         []string{},
	}

	ifaces, err := s.interfaces(ctx)
	if err != nil {
		s.log.Warn("network: list interfaces failed", "error", err)
	}
	info.IPAddresses = append(info.IPAddresses, addresses(ifaces)...)

	servers, err := s.dnsServers(ctx)
	if err != nil {
		s.log.Warn("network: read dns servers failed", "error", err)
	}
	info.DNS = append(info.DNS, servers...)

	return info
}

func addresses(ifaces psnet.InterfaceStatList) []domain.IPAddress {
	var out []domain.IPAddress
	for _, iface := range ifaces {
		if !hasFlag(iface.Flags, "up") {
			continue
		}
		for _, a := range iface.Addrs {
			addr, _, _ := strings.Cut(a.Addr, "/")
			if addr == "" {
				continue
			}
			out = append(out, domain.IPAddress{Interface: iface.Name, Address: addr})
		}
	}
	return out
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}

const dnsScript = `Get-DnsClientServerAddress -AddressFamily IPv4 | Select-Object -ExpandProperty ServerAddresses`

func (s *Service) dnsServers(ctx context.Context) ([]string, error) {
	if s.goos == "windows" {
		out, err := command.PowerShell(ctx, s.runner, dnsScript)
		if err != nil {
			return nil, err
		}
		return uniqueLines(out), nil
	}

	f, err := os.Open(s.resolvConf)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseResolvConf(f), nil
}
