package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crossplane/function-sdk-go/logging"
)

// FileStore implements TriggerStore on a local JSON file holding one record
// per handle key. Writes go through a temp file and rename so an aborted pass
// never truncates existing records.
type FileStore struct {
	path string
	log  logging.Logger
}

// NewFileStore creates a file-backed trigger store at the given path. The
// file is created lazily on the first Save.
func NewFileStore(log logging.Logger, path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("trigger file path is required")
	}
	return &FileStore{path: path, log: log}, nil
}

func (f *FileStore) read() (map[string]int32, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]int32), nil
		}
		return nil, fmt.Errorf("failed to read trigger file: %w", err)
	}

	records := make(map[string]int32)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse trigger file '%s': %w", f.path, err)
	}
	return records, nil
}

func (f *FileStore) write(records map[string]int32) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal trigger records: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".sizesync-*")
	if err != nil {
		return fmt.Errorf("failed to create temp trigger file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp trigger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp trigger file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace trigger file: %w", err)
	}
	return nil
}

// Load returns the recorded value for the handle, if any.
func (f *FileStore) Load(ctx context.Context, handle ResourceHandle) (int32, bool, error) {
	records, err := f.read()
	if err != nil {
		return 0, false, err
	}
	value, ok := records[handle.Key()]
	if !ok {
		f.log.Debug("No recorded trigger in file", "key", handle.Key(), "path", f.path)
		return 0, false, nil
	}
	return value, true, nil
}

// Save commits a new recorded value for the handle.
func (f *FileStore) Save(ctx context.Context, handle ResourceHandle, value int32) error {
	records, err := f.read()
	if err != nil {
		return err
	}
	records[handle.Key()] = value
	if err := f.write(records); err != nil {
		return err
	}
	f.log.Debug("Saved recorded trigger to file", "key", handle.Key(), "value", value, "path", f.path)
	return nil
}

// Forget removes the recorded value for the handle. Forgetting an unknown
// handle is not an error.
func (f *FileStore) Forget(ctx context.Context, handle ResourceHandle) error {
	records, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := records[handle.Key()]; !ok {
		return nil
	}
	delete(records, handle.Key())
	if err := f.write(records); err != nil {
		return err
	}
	f.log.Debug("Forgot recorded trigger", "key", handle.Key(), "path", f.path)
	return nil
}
