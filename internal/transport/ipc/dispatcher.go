// Package ipc routes named request channels to the core services.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"
)

var ErrUnknownChannel = errors.New("unknown channel")

type Telemetry interface {
	Full(ctx context.Context) domain.SystemSnapshot
	Light(ctx context.Context) domain.DynamicSnapshot
	Graphics(ctx context.Context) domain.GraphicsInfo
	Invalidate()
}

type TelemetryArchive interface {
	History(ctx context.Context, limit int) ([]domain.TelemetrySample, error)
}

type Terminal interface {
	CreateSession(ctx context.Context) (string, error)
	ExecuteCommand(id, text string) bool
	History(id string) []domain.LogEntry
	CloseSession(id string) bool
	List() []domain.SessionInfo
}

type Network interface {
	Info(ctx context.Context) domain.NetworkInfo
	WifiNetworks(ctx context.Context) []domain.WifiNetwork
	CheckConnectivity(ctx context.Context) bool
}

type Files interface {
	ReadDirectory(path string) ([]domain.FileItem, error)
	CreateDirectory(path string) error
	CreateFile(path string) error
	DeleteFile(path string) error
	DeleteDirectory(path string) error
	RenameItem(oldPath, newPath string) error
	GetItemProperties(path string) (domain.ItemProperties, error)
	OpenFile(ctx context.Context, path string) error
	Watch(path string) error
	Unwatch(path string) error
}

// Services are the backends a Dispatcher routes to. A nil service leaves its
// channels unregistered.
type Services struct {
	Telemetry Telemetry
	Archive   TelemetryArchive
	Terminal  Terminal
	Network   Network
	Files     Files

	// Exit is invoked by exit-app.
	Exit func()
}

// Handler serves one channel. args are the positional invoke arguments.
type Handler func(ctx context.Context, args []json.RawMessage) (any, error)

type Dispatcher struct {
	handlers map[string]Handler
	log      logger.Logger
}

func NewDispatcher(svc Services, log logger.Logger) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]Handler),
		log:      log,
	}

	if svc.Telemetry != nil {
		d.registerTelemetry(svc.Telemetry, svc.Archive)
	}
	if svc.Network != nil {
		d.registerNetwork(svc.Network)
	}
	if svc.Terminal != nil {
		d.registerTerminal(svc.Terminal)
	}
	if svc.Files != nil {
		d.registerFiles(svc.Files)
	}
	if svc.Exit != nil {
		exit := svc.Exit
		d.Register(domain.ChannelExitApp, func(ctx context.Context, args []json.RawMessage) (any, error) {
			d.log.Info("ipc: exit requested")
			go exit()
			return nil, nil
		})
	}

	return d
}

// Register adds or replaces the handler of a channel.
func (d *Dispatcher) Register(channel string, h Handler) {
	d.handlers[channel] = h
}

// Channels lists the registered channel names in order.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the handler of channel. A panicking handler is reported as an
// error instead of unwinding into the transport.
func (d *Dispatcher) Invoke(ctx context.Context, channel string, args []json.RawMessage) (result any, err error) {
	h, ok := d.handlers[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("ipc: handler panicked", "channel", channel, "panic", r)
			result, err = nil, fmt.Errorf("handler %s panicked: %v", channel, r)
		}
		d.log.Debug("ipc: invoke", "channel", channel, "time", time.Since(start), "error", err)
	}()

	return h(ctx, args)
}
