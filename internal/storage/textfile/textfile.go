// Package textfile implements storage.Resource over a plain file, the normal
// home of an activity log. Watching uses fsnotify on the parent directory so
// editors that replace-on-save (rename over the target) are still seen.
package textfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/DubyaFM/quartermaster/internal/storage"
)

// File is a storage.Resource backed by a single file on disk.
type File struct {
	path string
}

// Open returns a File for path. The file need not exist yet.
func Open(path string) *File { return &File{path: path} }

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Exists implements storage.Resource.
func (f *File) Exists() (bool, error) {
	_, err := os.Stat(f.path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ReadAll implements storage.Resource.
func (f *File) ReadAll() (string, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteAll implements storage.Resource.
func (f *File) WriteAll(text string) error {
	return os.WriteFile(f.path, []byte(text), 0o644)
}

// Create implements storage.Resource.
func (f *File) Create(initial string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	fh, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := fh.WriteString(initial); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// ModMarker implements storage.Resource. The marker combines mtime and size;
// it changes on every content change a filesystem can surface.
func (f *File) ModMarker() (string, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size()), nil
}

type watchSub struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func (s *watchSub) Close() error {
	err := s.watcher.Close()
	<-s.done
	return err
}

// Watch implements storage.Resource.
func (f *File) Watch(onChange func()) (storage.Subscription, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	sub := &watchSub{watcher: watcher, done: make(chan struct{})}
	name := filepath.Base(f.path)
	go func() {
		defer close(sub.done)
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != name {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					onChange()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return sub, nil
}
