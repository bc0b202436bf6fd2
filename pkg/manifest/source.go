package manifest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/tendril/pkg/domain"
)

// DefaultDebounce groups the burst of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// FileSource is a ports.CommandSource backed by a manifest file.
// It also implements ports.Watchable.
type FileSource struct {
	Loader   *Loader
	Path     string
	Debounce time.Duration
}

// NewFileSource creates a source reading path through loader.
func NewFileSource(loader *Loader, path string) *FileSource {
	return &FileSource{Loader: loader, Path: path, Debounce: DefaultDebounce}
}

// Commands implements ports.CommandSource.
func (s *FileSource) Commands() ([]*domain.Command, error) {
	return s.Loader.LoadFile(s.Path)
}

// Watch implements ports.Watchable. The parent directory is watched so that
// files replaced by rename (as most editors do) keep being tracked.
func (s *FileSource) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start manifest watcher: %w", err)
	}
	target := filepath.Clean(s.Path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", target, err)
	}

	debounce := s.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer w.Close()

		timer := time.NewTimer(debounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target || evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				timer.Reset(debounce)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			case <-timer.C:
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch, nil
}
