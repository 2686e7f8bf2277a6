package arpmonitor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrMalformedState is returned when a state file exists but cannot be decoded.
var ErrMalformedState = errors.New("malformed state file")

// LoadHistory reads the state file at path. A missing or empty file yields an empty history.
func LoadHistory(path string, options ...HistoryOption) (*History, error) {
	h := NewHistory(options...)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return h, nil
	} else if err != nil {
		return nil, fmt.Errorf("reading state file %s: %w", path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return h, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrMalformedState, path, err)
	}

	h.restore(snap)
	return h, nil
}

// WriteSnapshot writes snap to path atomically: the data goes to a temporary file in the same directory which is
// synced and renamed over path, so a crash never leaves a truncated state file behind.
func WriteSnapshot(path string, snap Snapshot) error {
	if snap == nil {
		snap = Snapshot{}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("writing temp state file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("syncing temp state file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing state file %s: %w", path, err)
	}

	return nil
}

// Save persists a snapshot of the history to path.
func (h *History) Save(path string) error {
	return WriteSnapshot(path, h.Snapshot())
}
