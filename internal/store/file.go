package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/mkarlsen/biolens/pkg/errors"
	"github.com/mkarlsen/biolens/pkg/graph"
)

// filePayload is the on-disk shape, matching the experiments endpoint.
type filePayload struct {
	Experiments []graph.Record `json:"experiments"`
}

// FileStore serves records from a JSON file. It re-reads the file on every
// Load, so edits are picked up without a restart; Watch additionally pushes
// change notifications.
type FileStore struct {
	path string
}

// NewFileStore opens a JSON experiment file.
func NewFileStore(path string) (*FileStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "experiment file %s", path)
	}
	return &FileStore{path: path}, nil
}

// Load reads and decodes the file. Records without an ID get a generated one
// so they can participate in the graph.
func (s *FileStore) Load(ctx context.Context) ([]graph.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read experiment file")
	}

	var p filePayload
	if err := json.Unmarshal(data, &p); err != nil {
		// Accept a bare top-level array as well.
		var records []graph.Record
		if err2 := json.Unmarshal(data, &records); err2 != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "decode experiment file")
		}
		p.Experiments = records
	}

	for i := range p.Experiments {
		if p.Experiments[i].ID == "" {
			p.Experiments[i].ID = uuid.NewString()
		}
	}
	return p.Experiments, nil
}

// Close is a no-op; the file is opened per Load.
func (s *FileStore) Close(ctx context.Context) error { return nil }

// Watch invokes fn with fresh records every time the file changes, until ctx
// is cancelled. Reload failures are reported through errFn and watching
// continues; a broken intermediate save should not kill the watcher.
func (s *FileStore) Watch(ctx context.Context, fn func([]graph.Record), errFn func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create file watcher")
	}

	// Watch the directory: editors often replace the file, which drops a
	// watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "watch %s", filepath.Dir(s.path))
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				records, err := s.Load(ctx)
				if err != nil {
					if errFn != nil {
						errFn(err)
					}
					continue
				}
				fn(records)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if errFn != nil {
					errFn(err)
				}
			}
		}
	}()
	return nil
}
