package network

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"

	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner map[string]string

func (r stubRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	for prefix, out := range r {
		if strings.HasPrefix(key, prefix) {
			return out, nil
		}
	}
	return "", errors.New("exec: not found")
}

func newTestService(runner stubRunner) *Service {
	s := NewService(runner, logger.Nop(), Options{Timeout: time.Second})
	s.interfaces = func(ctx context.Context) (psnet.InterfaceStatList, error) {
		return psnet.InterfaceStatList{
			{Name: "lo", Flags: []string{"up", "loopback"}, Addrs: psnet.InterfaceAddrList{{Addr: "127.0.0.1/8"}}},
			{Name: "eth0", Flags: []string{"up", "broadcast"}, Addrs: psnet.InterfaceAddrList{
				{Addr: "192.168.1.20/24"},
				{Addr: "fe80::1/64"},
			}},
			{Name: "wlan0", Flags: []string{"broadcast"}, Addrs: psnet.InterfaceAddrList{{Addr: "10.0.0.5/24"}}},
		}, nil
	}
	return s
}

func TestInfo(t *testing.T) {
	s := newTestService(nil)
	s.goos = "linux"
	s.resolvConf = filepath.Join(t.TempDir(), "resolv.conf")
	require.NoError(t, os.WriteFile(s.resolvConf, []byte("# generated\nnameserver 1.1.1.1\nnameserver 9.9.9.9\nnameserver 1.1.1.1\nsearch lan\n"), 0o644))

	info := s.Info(context.Background())

	assert.Equal(t, []domain.IPAddress{
		{Interface: "lo", Address: "127.0.0.1"},
		{Interface: "eth0", Address: "192.168.1.20"},
		{Interface: "eth0", Address: "fe80::1"},
	}, info.IPAddresses)
	assert.Equal(t, []string{"1.1.1.1", "9.9.9.9"}, info.DNS)
}

func TestInfo_FailuresYieldEmptyLists(t *testing.T) {
	s := newTestService(nil)
	s.goos = "linux"
	s.resolvConf = filepath.Join(t.TempDir(), "missing")
	s.interfaces = func(ctx context.Context) (psnet.InterfaceStatList, error) {
		return nil, errors.New("boom")
	}

	info := s.Info(context.Background())
	assert.NotNil(t, info.IPAddresses)
	assert.Empty(t, info.IPAddresses)
	assert.NotNil(t, info.DNS)
	assert.Empty(t, info.DNS)
}

func TestInfo_WindowsDNS(t *testing.T) {
	s := newTestService(stubRunner{"powershell.exe": "192.168.1.1\r\n8.8.8.8\r\n192.168.1.1\r\n"})
	s.goos = "windows"

	info := s.Info(context.Background())
	assert.Equal(t, []string{"192.168.1.1", "8.8.8.8"}, info.DNS)
}

func TestParseNmcli(t *testing.T) {
	out := `*:Enterprise:WPA2:82
 :Enterprise:WPA2:64
 :Cafe\:Guest::40
 :::20
 :Ten Forward:WPA1 WPA2:71
`

	networks := parseNmcli(out)
	require.Len(t, networks, 3)

	assert.Equal(t, domain.WifiNetwork{SSID: "Enterprise", Security: "WPA2", Signal: 82, Connected: true}, networks[0])
	assert.Equal(t, domain.WifiNetwork{SSID: "Cafe:Guest", Security: "Open", Signal: 40}, networks[1])
	assert.Equal(t, "WPA1 WPA2", networks[2].Security)
}

func TestParseNetsh(t *testing.T) {
	out := `
Interface name : Wi-Fi
There are 2 networks currently visible.

SSID 1 : Enterprise
    Network type            : Infrastructure
    Authentication          : WPA2-Personal
    Encryption              : CCMP
    BSSID 1                 : aa:bb:cc:dd:ee:01
         Signal             : 61%
    BSSID 2                 : aa:bb:cc:dd:ee:02
         Signal             : 88%

SSID 2 : Guest
    Network type            : Infrastructure
    Authentication          : Open
    Encryption              : None
    BSSID 1                 : aa:bb:cc:dd:ee:03
         Signal             : 30%
`
	iface := `
    Name                   : Wi-Fi
    State                  : connected
    SSID                   : Enterprise
    BSSID                  : aa:bb:cc:dd:ee:02
`

	networks := parseNetsh(out, parseNetshConnected(iface))
	require.Len(t, networks, 2)
	assert.Equal(t, domain.WifiNetwork{SSID: "Enterprise", Security: "WPA2-Personal", Signal: 88, Connected: true}, networks[0])
	assert.Equal(t, domain.WifiNetwork{SSID: "Guest", Security: "Open", Signal: 30}, networks[1])
}

func TestWifiNetworks_SortedAndNeverNil(t *testing.T) {
	s := newTestService(stubRunner{"nmcli": " :Weak:WPA2:10\n:Strong:WPA2:90\n"})
	s.goos = "linux"

	networks := s.WifiNetworks(context.Background())
	require.Len(t, networks, 2)
	assert.Equal(t, "Strong", networks[0].SSID)

	s = newTestService(stubRunner{})
	s.goos = "linux"
	assert.NotNil(t, s.WifiNetworks(context.Background()))

	s.goos = "plan9"
	assert.NotNil(t, s.WifiNetworks(context.Background()))
}

func TestCheckConnectivity(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	s := newTestService(nil)
	s.opts.ConnectivityProbe = ln.Addr().String()

	s.lookup = func(ctx context.Context, host string) ([]string, error) {
		return []string{"142.250.0.1"}, nil
	}
	assert.True(t, s.CheckConnectivity(context.Background()))

	s.lookup = func(ctx context.Context, host string) ([]string, error) {
		return nil, errors.New("no such host")
	}
	assert.True(t, s.CheckConnectivity(context.Background()))

	ln.Close()
	assert.False(t, s.CheckConnectivity(context.Background()))
}

func TestCheckConnectivity_Timeout(t *testing.T) {
	s := newTestService(nil)
	s.opts.Timeout = 100 * time.Millisecond
	s.lookup = func(ctx context.Context, host string) ([]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s.dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	start := time.Now()
	assert.False(t, s.CheckConnectivity(context.Background()))
	assert.Less(t, time.Since(start), 2*time.Second)
}
