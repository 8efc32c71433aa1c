package files

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	name string
	args []string
	err  error
}

func (r *recordingRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	r.name, r.args = name, args
	return "", r.err
}

type eventSink struct {
	mu     sync.Mutex
	events []domain.DirectoryEvent
}

func (s *eventSink) Publish(channel string, payload any) {
	if ev, ok := payload.(domain.DirectoryEvent); ok && channel == domain.EventDirectoryChanged {
		s.mu.Lock()
		s.events = append(s.events, ev)
		s.mu.Unlock()
	}
}

func (s *eventSink) saw(name, op string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.Name == name && ev.Op == op {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T, runner *recordingRunner, pub domain.Publisher) *Service {
	t.Helper()
	if runner == nil {
		runner = &recordingRunner{}
	}
	s := NewService(runner, pub, logger.Nop())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.TXT"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.md"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "zeta"), 0o755))

	s := newTestService(t, nil, nil)
	items, err := s.ReadDirectory(dir)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "zeta", items[0].Name)
	assert.Equal(t, domain.ItemTypeDirectory, items[0].Type)
	assert.Empty(t, items[0].Extension)

	assert.Equal(t, "A.md", items[1].Name)
	assert.Equal(t, "b.TXT", items[2].Name)
	assert.Equal(t, ".txt", items[2].Extension)
	assert.Equal(t, int64(5), items[2].Size)
	assert.Equal(t, filepath.Join(dir, "b.TXT"), items[2].Path)
}

func TestReadDirectory_Errors(t *testing.T) {
	s := newTestService(t, nil, nil)

	_, err := s.ReadDirectory("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = s.ReadDirectory(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCreateAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := newTestService(t, nil, nil)

	file := filepath.Join(dir, "log.txt")
	require.NoError(t, s.CreateFile(file))
	assert.ErrorIs(t, s.CreateFile(file), fs.ErrExist)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, s.CreateDirectory(sub))
	assert.ErrorIs(t, s.CreateDirectory(sub), fs.ErrExist)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "nested"), nil, 0o644))

	assert.ErrorIs(t, s.DeleteFile(sub), ErrIsDirectory)
	assert.ErrorIs(t, s.DeleteDirectory(file), ErrNotDirectory)

	require.NoError(t, s.DeleteFile(file))
	require.NoError(t, s.DeleteDirectory(sub))

	_, err := os.Stat(sub)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, s.DeleteFile(file), fs.ErrNotExist)
}

func TestRenameItem(t *testing.T) {
	dir := t.TempDir()
	s := newTestService(t, nil, nil)

	from := filepath.Join(dir, "old.txt")
	to := filepath.Join(dir, "new.txt")
	require.NoError(t, os.WriteFile(from, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taken.txt"), nil, 0o644))

	assert.ErrorIs(t, s.RenameItem(from, filepath.Join(dir, "taken.txt")), fs.ErrExist)
	require.NoError(t, s.RenameItem(from, to))

	_, err := os.Stat(to)
	assert.NoError(t, err)
	assert.ErrorIs(t, s.RenameItem("", to), ErrEmptyPath)
}

func TestGetItemProperties(t *testing.T) {
	dir := t.TempDir()
	s := newTestService(t, nil, nil)

	file := filepath.Join(dir, ".secret")
	require.NoError(t, os.WriteFile(file, []byte("abc"), 0o444))

	props, err := s.GetItemProperties(file)
	require.NoError(t, err)
	assert.Equal(t, ".secret", props.Name)
	assert.Equal(t, domain.ItemTypeFile, props.Type)
	assert.Equal(t, int64(3), props.Size)
	assert.False(t, props.Created.IsZero())
	assert.False(t, props.Accessed.IsZero())
	assert.Contains(t, props.Attributes, "hidden")
	if runtime.GOOS != "windows" {
		assert.Contains(t, props.Attributes, "readonly")
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "one"), nil, 0o644))
	props, err = s.GetItemProperties(dir)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemTypeDirectory, props.Type)
	assert.Equal(t, 2, props.ItemCount)
	assert.NotNil(t, props.Attributes)

	_, err = s.GetItemProperties(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	runner := &recordingRunner{}
	s := newTestService(t, runner, nil)
	s.goos = "linux"

	require.NoError(t, s.OpenFile(context.Background(), file))
	assert.Equal(t, "xdg-open", runner.name)
	assert.Equal(t, []string{file}, runner.args)

	runner.err = errors.New("no handler")
	assert.Error(t, s.OpenFile(context.Background(), file))

	assert.Error(t, s.OpenFile(context.Background(), filepath.Join(dir, "missing.pdf")))
}

func TestOpener(t *testing.T) {
	name, args := opener("windows", `C:\a.txt`)
	assert.Equal(t, "rundll32", name)
	assert.Equal(t, []string{"url.dll,FileProtocolHandler", `C:\a.txt`}, args)

	name, _ = opener("darwin", "/a")
	assert.Equal(t, "open", name)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	sink := &eventSink{}
	s := newTestService(t, nil, sink)

	require.NoError(t, s.Watch(dir))
	require.NoError(t, s.Watch(dir))
	assert.Equal(t, []string{dir}, s.watcher.Watched())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), nil, 0o644))
	assert.Eventually(t, func() bool {
		return sink.saw("new.txt", "create")
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, s.Unwatch(dir))
	assert.Equal(t, []string{dir}, s.watcher.Watched())
	require.NoError(t, s.Unwatch(dir))
	assert.Empty(t, s.watcher.Watched())
	assert.NoError(t, s.Unwatch(dir))
}

func TestWatch_RejectsFiles(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	s := newTestService(t, nil, nil)
	assert.ErrorIs(t, s.Watch(file), ErrNotDirectory)
	assert.Error(t, s.Watch(filepath.Join(t.TempDir(), "missing")))
}
