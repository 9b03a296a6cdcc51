package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// File keeps every key in a single JSON document and watches it for edits made by other processes.
type File struct {
	path  string
	clock clockwork.Clock
	hub   *hub

	mu          sync.RWMutex
	data        map[string]string
	lastWritten []byte

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// OpenFile loads path (a missing file is an empty store) and starts watching its directory.
func OpenFile(path string, opts ...Option) (*File, error) {
	o := buildOptions(opts)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	f := &File{
		path:  path,
		clock: o.clock,
		hub:   newHub(),
		data:  make(map[string]string),
		done:  make(chan struct{}),
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read store file: %w", err)
	default:
		data, err := decodeDocument(raw)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("store file is malformed, starting empty")
		} else {
			f.data = data
		}
		f.lastWritten = raw
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Writes replace the file, so the directory is watched rather than the inode.
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	f.watcher = watcher

	f.wg.Add(1)
	go f.watch()

	return f, nil
}

func decodeDocument(raw []byte) (map[string]string, error) {
	data := make(map[string]string)
	if len(bytes.TrimSpace(raw)) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v, ok := f.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	prev, had := f.data[key]
	f.data[key] = string(value)
	if err := f.flushLocked(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	f.hub.publish(Change{Key: key, Origin: OriginLocal, At: f.clock.Now()})
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	prev, had := f.data[key]
	if !had {
		f.mu.Unlock()
		return nil
	}
	delete(f.data, key)
	if err := f.flushLocked(); err != nil {
		f.data[key] = prev
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	f.hub.publish(Change{Key: key, Origin: OriginLocal, At: f.clock.Now()})
	return nil
}

func (f *File) Keys(ctx context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *File) Subscribe(fn func(Change)) func() {
	return f.hub.Subscribe(fn)
}

// flushLocked writes the document to a temp file and renames it over the store file.
func (f *File) flushLocked() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	f.lastWritten = raw
	return nil
}

func (f *File) watch() {
	defer f.wg.Done()

	for {
		select {
		case <-f.done:
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			f.reload()
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("path", f.path).Msg("store watcher error")
		}
	}
}

// reload re-reads the document and reports every key whose value differs.
// The file is read under the lock so a concurrent local write cannot be mistaken for an external one.
func (f *File) reload() {
	f.mu.Lock()
	raw, err := os.ReadFile(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		f.mu.Unlock()
		log.Warn().Err(err).Str("path", f.path).Msg("failed to re-read store file")
		return
	}
	if bytes.Equal(raw, f.lastWritten) {
		f.mu.Unlock()
		return
	}

	next, err := decodeDocument(raw)
	if err != nil {
		f.mu.Unlock()
		log.Warn().Err(err).Str("path", f.path).Msg("ignoring malformed external store edit")
		return
	}

	var changed []string
	for k, v := range next {
		if old, ok := f.data[k]; !ok || old != v {
			changed = append(changed, k)
		}
	}
	for k := range f.data {
		if _, ok := next[k]; !ok {
			changed = append(changed, k)
		}
	}
	f.data = next
	f.lastWritten = raw
	f.mu.Unlock()

	sort.Strings(changed)
	now := f.clock.Now()
	for _, k := range changed {
		log.Debug().Str("key", k).Msg("external store change")
		f.hub.publish(Change{Key: k, Origin: OriginExternal, At: now})
	}
}

// Close stops the watcher.
func (f *File) Close() error {
	select {
	case <-f.done:
		return nil
	default:
	}
	close(f.done)
	err := f.watcher.Close()
	f.wg.Wait()
	return err
}
