package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTelemetry struct {
	invalidated atomic.Int32
}

func (f *fakeTelemetry) Full(ctx context.Context) domain.SystemSnapshot {
	return domain.SystemSnapshot{Source: "fake", Cached: f.invalidated.Load() == 0}
}

func (f *fakeTelemetry) Light(ctx context.Context) domain.DynamicSnapshot {
	return domain.DynamicSnapshot{CPUUsage: 42}
}

func (f *fakeTelemetry) Graphics(ctx context.Context) domain.GraphicsInfo {
	return domain.PlaceholderGraphics()
}

func (f *fakeTelemetry) Invalidate() { f.invalidated.Add(1) }

type fakeArchive struct{ limit int }

func (f *fakeArchive) History(ctx context.Context, limit int) ([]domain.TelemetrySample, error) {
	f.limit = limit
	return []domain.TelemetrySample{{ID: 1}}, nil
}

type fakeTerminal struct {
	createErr error
	executed  []string
}

func (f *fakeTerminal) CreateSession(ctx context.Context) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return "s-1", nil
}

func (f *fakeTerminal) ExecuteCommand(id, text string) bool {
	if id != "s-1" {
		return false
	}
	f.executed = append(f.executed, text)
	return true
}

func (f *fakeTerminal) History(id string) []domain.LogEntry {
	if id != "s-1" {
		return []domain.LogEntry{}
	}
	return []domain.LogEntry{{Kind: domain.LogKindCommand, Text: "ls"}}
}

func (f *fakeTerminal) CloseSession(id string) bool { return id == "s-1" }

func (f *fakeTerminal) List() []domain.SessionInfo {
	return []domain.SessionInfo{{ID: "s-1", Active: true}}
}

type fakeFiles struct {
	renamed [2]string
	watched []string
}

func (f *fakeFiles) ReadDirectory(path string) ([]domain.FileItem, error) {
	if path == "/missing" {
		return nil, errors.New("open /missing: no such file or directory")
	}
	return []domain.FileItem{{Name: "a.txt", Path: path + "/a.txt", Type: domain.ItemTypeFile}}, nil
}

func (f *fakeFiles) CreateDirectory(path string) error { return nil }
func (f *fakeFiles) CreateFile(path string) error      { return nil }
func (f *fakeFiles) DeleteFile(path string) error {
	return errors.New("permission denied")
}
func (f *fakeFiles) DeleteDirectory(path string) error { return nil }

func (f *fakeFiles) RenameItem(oldPath, newPath string) error {
	f.renamed = [2]string{oldPath, newPath}
	return nil
}

func (f *fakeFiles) GetItemProperties(path string) (domain.ItemProperties, error) {
	return domain.ItemProperties{Name: "a.txt", Path: path}, nil
}

func (f *fakeFiles) OpenFile(ctx context.Context, path string) error { return nil }

func (f *fakeFiles) Watch(path string) error {
	f.watched = append(f.watched, path)
	return nil
}

func (f *fakeFiles) Unwatch(path string) error { return nil }

type fakeNetwork struct{}

func (fakeNetwork) Info(ctx context.Context) domain.NetworkInfo {
	return domain.NetworkInfo{IPAddresses: []domain.IPAddress{}, DNS: []string{"1.1.1.1"}}
}

func (fakeNetwork) WifiNetworks(ctx context.Context) []domain.WifiNetwork {
	return []domain.WifiNetwork{}
}

func (fakeNetwork) CheckConnectivity(ctx context.Context) bool { return true }

func raw(t *testing.T, vals ...any) []json.RawMessage {
	t.Helper()

	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		out = append(out, b)
	}
	return out
}

func newDispatcher(t *testing.T) (*Dispatcher, *fakeTelemetry, *fakeTerminal, *fakeFiles, *fakeArchive) {
	t.Helper()

	tel := &fakeTelemetry{}
	term := &fakeTerminal{}
	files := &fakeFiles{}
	archive := &fakeArchive{}

	d := NewDispatcher(Services{
		Telemetry: tel,
		Archive:   archive,
		Terminal:  term,
		Network:   fakeNetwork{},
		Files:     files,
	}, logger.Nop())

	return d, tel, term, files, archive
}

func TestDispatcher_UnknownChannel(t *testing.T) {
	d, _, _, _, _ := newDispatcher(t)

	_, err := d.Invoke(context.Background(), "warp-core-eject", nil)
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestDispatcher_RegistersEveryChannel(t *testing.T) {
	d := NewDispatcher(Services{
		Telemetry: &fakeTelemetry{},
		Terminal:  &fakeTerminal{},
		Network:   fakeNetwork{},
		Files:     &fakeFiles{},
		Exit:      func() {},
	}, logger.Nop())

	assert.ElementsMatch(t, []string{
		domain.ChannelSystemInfo,
		domain.ChannelSystemInfoLight,
		domain.ChannelGPUPerformance,
		domain.ChannelNetworkInfo,
		domain.ChannelWifiNetworks,
		domain.ChannelConnectivity,
		domain.ChannelTelemetryHistory,
		domain.ChannelCreateSession,
		domain.ChannelExecuteCommand,
		domain.ChannelTerminalHistory,
		domain.ChannelCloseSession,
		domain.ChannelListSessions,
		domain.ChannelReadDirectory,
		domain.ChannelCreateDirectory,
		domain.ChannelCreateFile,
		domain.ChannelDeleteFile,
		domain.ChannelDeleteDirectory,
		domain.ChannelRenameItem,
		domain.ChannelItemProperties,
		domain.ChannelOpenFile,
		domain.ChannelWatchDirectory,
		domain.ChannelUnwatchDirectory,
		domain.ChannelExitApp,
	}, d.Channels())
}

func TestDispatcher_Telemetry(t *testing.T) {
	d, tel, _, _, archive := newDispatcher(t)
	ctx := context.Background()

	res, err := d.Invoke(ctx, domain.ChannelSystemInfo, nil)
	require.NoError(t, err)
	assert.True(t, res.(domain.SystemSnapshot).Cached)

	res, err = d.Invoke(ctx, domain.ChannelSystemInfo, raw(t, map[string]bool{"refresh": true}))
	require.NoError(t, err)
	assert.False(t, res.(domain.SystemSnapshot).Cached)
	assert.Equal(t, int32(1), tel.invalidated.Load())

	res, err = d.Invoke(ctx, domain.ChannelSystemInfoLight, nil)
	require.NoError(t, err)
	assert.Equal(t, 42.0, res.(domain.DynamicSnapshot).CPUUsage)

	res, err = d.Invoke(ctx, domain.ChannelGPUPerformance, nil)
	require.NoError(t, err)
	assert.True(t, res.(domain.GraphicsInfo).Synthetic)

	res, err = d.Invoke(ctx, domain.ChannelTelemetryHistory, raw(t, 25))
	require.NoError(t, err)
	assert.Len(t, res, 1)
	assert.Equal(t, 25, archive.limit)

	_, err = d.Invoke(ctx, domain.ChannelTelemetryHistory, raw(t, 5000))
	assert.ErrorIs(t, err, ErrInvalidArgs)

	_, err = d.Invoke(ctx, domain.ChannelTelemetryHistory, raw(t, "many"))
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestDispatcher_Terminal(t *testing.T) {
	d, _, term, _, _ := newDispatcher(t)
	ctx := context.Background()

	res, err := d.Invoke(ctx, domain.ChannelCreateSession, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Result{"success": true, "sessionId": "s-1"}, res)

	res, err = d.Invoke(ctx, domain.ChannelExecuteCommand, raw(t, "s-1", "ls -la"))
	require.NoError(t, err)
	assert.Equal(t, domain.Result{"success": true}, res)
	assert.Equal(t, []string{"ls -la"}, term.executed)

	res, err = d.Invoke(ctx, domain.ChannelExecuteCommand, raw(t, "nope", "ls"))
	require.NoError(t, err)
	assert.Equal(t, domain.Result{"success": false}, res)

	res, err = d.Invoke(ctx, domain.ChannelExecuteCommand, nil)
	require.NoError(t, err)
	assert.Equal(t, false, res.(domain.Result)["success"])
	assert.Contains(t, res.(domain.Result)["error"], "sessionID field is required")

	res, err = d.Invoke(ctx, domain.ChannelTerminalHistory, raw(t, "s-1"))
	require.NoError(t, err)
	history := res.(domain.Result)["history"].([]domain.LogEntry)
	require.Len(t, history, 1)
	assert.Equal(t, domain.LogKindCommand, history[0].Kind)

	res, err = d.Invoke(ctx, domain.ChannelCloseSession, raw(t, "s-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.Result{"success": true}, res)

	res, err = d.Invoke(ctx, domain.ChannelCloseSession, raw(t, "gone"))
	require.NoError(t, err)
	assert.Equal(t, domain.Result{"success": false}, res)

	res, err = d.Invoke(ctx, domain.ChannelListSessions, nil)
	require.NoError(t, err)
	assert.Len(t, res.(domain.Result)["sessions"], 1)
}

func TestDispatcher_CreateSessionFailure(t *testing.T) {
	term := &fakeTerminal{createErr: errors.New("exec: \"zsh\": executable file not found")}
	d := NewDispatcher(Services{Terminal: term}, logger.Nop())

	res, err := d.Invoke(context.Background(), domain.ChannelCreateSession, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Result{"success": false, "error": term.createErr.Error()}, res)
}

func TestDispatcher_Files(t *testing.T) {
	d, _, _, files, _ := newDispatcher(t)
	ctx := context.Background()

	res, err := d.Invoke(ctx, domain.ChannelReadDirectory, raw(t, "/home"))
	require.NoError(t, err)
	assert.Equal(t, true, res.(domain.Result)["success"])
	assert.Len(t, res.(domain.Result)["items"], 1)

	res, err = d.Invoke(ctx, domain.ChannelReadDirectory, raw(t, "/missing"))
	require.NoError(t, err)
	assert.Equal(t, domain.Result{"success": false, "error": "open /missing: no such file or directory"}, res)

	res, err = d.Invoke(ctx, domain.ChannelDeleteFile, raw(t, "/etc/passwd"))
	require.NoError(t, err)
	assert.Equal(t, domain.Result{"success": false, "error": "permission denied"}, res)

	res, err = d.Invoke(ctx, domain.ChannelCreateDirectory, nil)
	require.NoError(t, err)
	assert.Equal(t, false, res.(domain.Result)["success"])

	res, err = d.Invoke(ctx, domain.ChannelRenameItem, raw(t, "/a", "/b"))
	require.NoError(t, err)
	assert.Equal(t, domain.Result{"success": true}, res)
	assert.Equal(t, [2]string{"/a", "/b"}, files.renamed)

	res, err = d.Invoke(ctx, domain.ChannelItemProperties, raw(t, "/a"))
	require.NoError(t, err)
	assert.Equal(t, "/a", res.(domain.Result)["properties"].(domain.ItemProperties).Path)

	res, err = d.Invoke(ctx, domain.ChannelWatchDirectory, raw(t, "/tmp"))
	require.NoError(t, err)
	assert.Equal(t, domain.Result{"success": true}, res)
	assert.Equal(t, []string{"/tmp"}, files.watched)
}

func TestDispatcher_Network(t *testing.T) {
	d, _, _, _, _ := newDispatcher(t)
	ctx := context.Background()

	res, err := d.Invoke(ctx, domain.ChannelConnectivity, nil)
	require.NoError(t, err)
	assert.Equal(t, true, res)

	res, err = d.Invoke(ctx, domain.ChannelNetworkInfo, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1.1.1"}, res.(domain.NetworkInfo).DNS)
}

func TestDispatcher_ExitApp(t *testing.T) {
	exited := make(chan struct{})
	d := NewDispatcher(Services{Exit: func() { close(exited) }}, logger.Nop())

	res, err := d.Invoke(context.Background(), domain.ChannelExitApp, nil)
	require.NoError(t, err)
	assert.Nil(t, res)

	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("exit callback not invoked")
	}
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	d := NewDispatcher(Services{}, logger.Nop())
	d.Register("boom", func(ctx context.Context, args []json.RawMessage) (any, error) {
		panic("core breach")
	})

	_, err := d.Invoke(context.Background(), "boom", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "core breach")
}
