package ipc

import (
	"context"
	"encoding/json"

	"lcars-core/internal/domain"
)

func (d *Dispatcher) registerTelemetry(t Telemetry, archive TelemetryArchive) {
	d.Register(domain.ChannelSystemInfo, func(ctx context.Context, args []json.RawMessage) (any, error) {
		var opts systemInfoOptions
		if err := arg(args, 0, &opts); err != nil {
			return nil, err
		}
		if opts.Refresh {
			t.Invalidate()
		}
		return t.Full(ctx), nil
	})

	d.Register(domain.ChannelSystemInfoLight, func(ctx context.Context, args []json.RawMessage) (any, error) {
		return t.Light(ctx), nil
	})

	d.Register(domain.ChannelGPUPerformance, func(ctx context.Context, args []json.RawMessage) (any, error) {
		return t.Graphics(ctx), nil
	})

	d.Register(domain.ChannelTelemetryHistory, func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a historyArgs
		if err := arg(args, 0, &a.Limit); err != nil {
			return nil, err
		}
		if err := check(a); err != nil {
			return nil, err
		}
		if archive == nil {
			return []domain.TelemetrySample{}, nil
		}
		return archive.History(ctx, a.Limit)
	})
}

func (d *Dispatcher) registerNetwork(n Network) {
	d.Register(domain.ChannelNetworkInfo, func(ctx context.Context, args []json.RawMessage) (any, error) {
		return n.Info(ctx), nil
	})

	d.Register(domain.ChannelWifiNetworks, func(ctx context.Context, args []json.RawMessage) (any, error) {
		return n.WifiNetworks(ctx), nil
	})

	d.Register(domain.ChannelConnectivity, func(ctx context.Context, args []json.RawMessage) (any, error) {
		return n.CheckConnectivity(ctx), nil
	})
}

// Terminal channels always answer with a {success} envelope.
func (d *Dispatcher) registerTerminal(t Terminal) {
	d.Register(domain.ChannelCreateSession, func(ctx context.Context, args []json.RawMessage) (any, error) {
		id, err := t.CreateSession(ctx)
		if err != nil {
			d.log.Warn("ipc: terminal session not created", "error", err)
			return domain.Fail(err), nil
		}
		return domain.OK("sessionId", id), nil
	})

	d.Register(domain.ChannelExecuteCommand, func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a commandArgs
		if err := arg(args, 0, &a.SessionID); err != nil {
			return domain.Fail(err), nil
		}
		if err := arg(args, 1, &a.Text); err != nil {
			return domain.Fail(err), nil
		}
		if err := check(a); err != nil {
			return domain.Fail(err), nil
		}
		return domain.Result{"success": t.ExecuteCommand(a.SessionID, a.Text)}, nil
	})

	d.Register(domain.ChannelTerminalHistory, func(ctx context.Context, args []json.RawMessage) (any, error) {
		a, err := decodeSession(args)
		if err != nil {
			return domain.Fail(err), nil
		}
		return domain.OK("history", t.History(a.SessionID)), nil
	})

	d.Register(domain.ChannelCloseSession, func(ctx context.Context, args []json.RawMessage) (any, error) {
		a, err := decodeSession(args)
		if err != nil {
			return domain.Fail(err), nil
		}
		return domain.Result{"success": t.CloseSession(a.SessionID)}, nil
	})

	d.Register(domain.ChannelListSessions, func(ctx context.Context, args []json.RawMessage) (any, error) {
		return domain.OK("sessions", t.List()), nil
	})
}

func (d *Dispatcher) registerFiles(f Files) {
	pathOp := func(op func(string) error) Handler {
		return func(ctx context.Context, args []json.RawMessage) (any, error) {
			a, err := decodePath(args)
			if err != nil {
				return domain.Fail(err), nil
			}
			if err := op(a.Path); err != nil {
				return domain.Fail(err), nil
			}
			return domain.OK(), nil
		}
	}

	d.Register(domain.ChannelReadDirectory, func(ctx context.Context, args []json.RawMessage) (any, error) {
		a, err := decodePath(args)
		if err != nil {
			return domain.Fail(err), nil
		}
		items, err := f.ReadDirectory(a.Path)
		if err != nil {
			return domain.Fail(err), nil
		}
		return domain.OK("items", items), nil
	})

	d.Register(domain.ChannelCreateDirectory, pathOp(f.CreateDirectory))
	d.Register(domain.ChannelCreateFile, pathOp(f.CreateFile))
	d.Register(domain.ChannelDeleteFile, pathOp(f.DeleteFile))
	d.Register(domain.ChannelDeleteDirectory, pathOp(f.DeleteDirectory))
	d.Register(domain.ChannelWatchDirectory, pathOp(f.Watch))
	d.Register(domain.ChannelUnwatchDirectory, pathOp(f.Unwatch))

	d.Register(domain.ChannelRenameItem, func(ctx context.Context, args []json.RawMessage) (any, error) {
		var a renameArgs
		if err := arg(args, 0, &a.OldPath); err != nil {
			return domain.Fail(err), nil
		}
		if err := arg(args, 1, &a.NewPath); err != nil {
			return domain.Fail(err), nil
		}
		if err := check(a); err != nil {
			return domain.Fail(err), nil
		}
		if err := f.RenameItem(a.OldPath, a.NewPath); err != nil {
			return domain.Fail(err), nil
		}
		return domain.OK(), nil
	})

	d.Register(domain.ChannelItemProperties, func(ctx context.Context, args []json.RawMessage) (any, error) {
		a, err := decodePath(args)
		if err != nil {
			return domain.Fail(err), nil
		}
		props, err := f.GetItemProperties(a.Path)
		if err != nil {
			return domain.Fail(err), nil
		}
		return domain.OK("properties", props), nil
	})

	d.Register(domain.ChannelOpenFile, func(ctx context.Context, args []json.RawMessage) (any, error) {
		a, err := decodePath(args)
		if err != nil {
			return domain.Fail(err), nil
		}
		if err := f.OpenFile(ctx, a.Path); err != nil {
			return domain.Fail(err), nil
		}
		return domain.OK(), nil
	})
}
