// Package files backs the explorer: directory listing, item CRUD, properties,
// opening with the desktop handler and change notification.
package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"lcars-core/internal/core/command"
	"lcars-core/internal/domain"
	"lcars-core/internal/logger"
)

var (
	ErrEmptyPath    = errors.New("path is required")
	ErrNotDirectory = errors.New("not a directory")
	ErrIsDirectory  = errors.New("is a directory")
)

type Service struct {
	runner command.Runner
	log    logger.Logger
	goos   string

	watcher *Watcher
}

func NewService(runner command.Runner, pub domain.Publisher, log logger.Logger) *Service {
	return &Service{
		runner:  runner,
		log:     log,
		goos:    runtime.GOOS,
		watcher: NewWatcher(pub, log),
	}
}

func clean(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrEmptyPath
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	return filepath.Clean(path), nil
}

// ReadDirectory lists path with directories first, then by name.
func (s *Service) ReadDirectory(path string) ([]domain.FileItem, error) {
	dir, err := clean(path)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	items := make([]domain.FileItem, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			// vanished between readdir and stat
			continue
		}
		items = append(items, toItem(filepath.Join(dir, e.Name()), info))
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Type != b.Type {
			return a.Type == domain.ItemTypeDirectory
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})

	return items, nil
}

func toItem(path string, info fs.FileInfo) domain.FileItem {
	item := domain.FileItem{
		Name:     info.Name(),
		Path:     path,
		Type:     itemType(info),
		Modified: info.ModTime(),
	}
	if item.Type == domain.ItemTypeFile {
		item.Size = info.Size()
		item.Extension = strings.ToLower(filepath.Ext(info.Name()))
	}
	return item
}

func itemType(info fs.FileInfo) string {
	if info.IsDir() {
		return domain.ItemTypeDirectory
	}
	return domain.ItemTypeFile
}

func (s *Service) CreateDirectory(path string) error {
	dir, err := clean(path)
	if err != nil {
		return err
	}
	return os.Mkdir(dir, 0o755)
}

// CreateFile creates an empty file and fails if one already exists.
func (s *Service) CreateFile(path string) error {
	p, err := clean(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

func (s *Service) DeleteFile(path string) error {
	p, err := clean(path)
	if err != nil {
		return err
	}

	info, err := os.Lstat(p)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %w", p, ErrIsDirectory)
	}
	return os.Remove(p)
}

// DeleteDirectory removes path and everything below it.
func (s *Service) DeleteDirectory(path string) error {
	p, err := clean(path)
	if err != nil {
		return err
	}

	info, err := os.Lstat(p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", p, ErrNotDirectory)
	}

	s.watcher.forget(p)
	return os.RemoveAll(p)
}

// RenameItem refuses to overwrite an existing target.
func (s *Service) RenameItem(oldPath, newPath string) error {
	from, err := clean(oldPath)
	if err != nil {
		return err
	}
	to, err := clean(newPath)
	if err != nil {
		return err
	}

	if _, err := os.Lstat(to); err == nil {
		return fmt.Errorf("%s: %w", to, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return os.Rename(from, to)
}

func (s *Service) GetItemProperties(path string) (domain.ItemProperties, error) {
	p, err := clean(path)
	if err != nil {
		return domain.ItemProperties{}, err
	}

	info, err := os.Stat(p)
	if err != nil {
		return domain.ItemProperties{}, err
	}

	t := fileTimes(p, info)
	props := domain.ItemProperties{
		Name:       info.Name(),
		Path:       p,
		Type:       itemType(info),
		Size:       info.Size(),
		Created:    t.created,
		Modified:   info.ModTime(),
		Accessed:   t.accessed,
		Attributes: attributes(p, info),
	}

	if info.IsDir() {
		props.Size = 0
		if entries, err := os.ReadDir(p); err == nil {
			props.ItemCount = len(entries)
		}
	}

	return props, nil
}

func attributes(path string, info fs.FileInfo) []string {
	attrs := []string{}

	if strings.HasPrefix(info.Name(), ".") {
		attrs = append(attrs, "hidden")
	}
	if info.Mode().Perm()&0o200 == 0 {
		attrs = append(attrs, "readonly")
	}
	if !info.IsDir() && info.Mode().Perm()&0o111 != 0 {
		attrs = append(attrs, "executable")
	}
	if l, err := os.Lstat(path); err == nil && l.Mode()&fs.ModeSymlink != 0 {
		attrs = append(attrs, "symlink")
	}

	return attrs
}

// OpenFile hands path to the desktop's default application.
func (s *Service) OpenFile(ctx context.Context, path string) error {
	p, err := clean(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err != nil {
		return err
	}

	name, args := opener(s.goos, p)
	if _, err := s.runner.Output(ctx, name, args...); err != nil {
		return fmt.Errorf("open %s: %w", p, err)
	}
	return nil
}

func opener(goos, path string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	case "darwin":
		return "open", []string{path}
	}
	return "xdg-open", []string{path}
}

func (s *Service) Watch(path string) error {
	p, err := clean(path)
	if err != nil {
		return err
	}
	return s.watcher.Add(p)
}

func (s *Service) Unwatch(path string) error {
	p, err := clean(path)
	if err != nil {
		return err
	}
	return s.watcher.Remove(p)
}

func (s *Service) Close() error {
	return s.watcher.Close()
}
