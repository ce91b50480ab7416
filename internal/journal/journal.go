// Package journal keeps an append-only history of appearance changes so
// they can be listed and undone.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/archcrafter/loom/internal/model"
)

// SchemaVersion is the current journal schema version.
const SchemaVersion = 1

// Kinds of change recorded in the journal.
const (
	KindWallpaper   = model.KindWallpaper
	KindGtkTheme    = model.KindGtkTheme
	KindWindowTheme = model.KindWindowTheme
	KindIconTheme   = model.KindIconTheme
	KindCursorTheme = model.KindCursorTheme
	KindPreset      = model.KindPreset
)

// Entry is one applied change.
type Entry struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Value     string `json:"value"`
	Previous  string `json:"previous,omitempty"`
	AppliedAt int64  `json:"applied_at"`

	// Undoes is set on entries written by an undo and names the reverted entry.
	Undoes string `json:"undoes,omitempty"`
}

// Time returns AppliedAt as a time.Time.
func (e Entry) Time() time.Time {
	return time.Unix(e.AppliedAt, 0)
}

// schemaHeader is the first line of the JSONL file.
type schemaHeader struct {
	LoomSchemaVersion int   `json:"loom_schema_version"`
	CreatedAt         int64 `json:"created_at"`
}

// ErrClosed is returned when operations are attempted on a closed journal.
var ErrClosed = errors.New("journal is closed")

// ErrNothingToUndo is returned when no entry can be reverted.
var ErrNothingToUndo = errors.New("nothing to undo")

// Journal is a JSONL-backed change history.
type Journal struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	j := &Journal{path: path, file: file}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.Size() == 0 {
		if err := j.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
	}
	return j, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) writeHeader() error {
	data, err := json.Marshal(schemaHeader{
		LoomSchemaVersion: SchemaVersion,
		CreatedAt:         time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	_, err = j.file.Write(append(data, '\n'))
	return err
}

// Record appends a new entry for a change of kind from previous to value.
func (j *Journal) Record(kind, value, previous string) (Entry, error) {
	e := Entry{
		ID:        ulid.Make().String(),
		Kind:      kind,
		Value:     value,
		Previous:  previous,
		AppliedAt: time.Now().Unix(),
	}
	return e, j.Append(e)
}

// Append writes e to the journal.
func (j *Journal) Append(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed || j.file == nil {
		return ErrClosed
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := j.file.Write(append(data, '\n')); err != nil {
		return err
	}
	return j.file.Sync()
}

// Load reads every entry, oldest first. Malformed lines are skipped.
func (j *Journal) Load() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed || j.file == nil {
		return nil, ErrClosed
	}

	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", j.path, err)
	}

	var entries []Entry
	scanner := bufio.NewScanner(j.file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if lineNum == 1 {
			var header schemaHeader
			if err := json.Unmarshal(line, &header); err == nil && header.LoomSchemaVersion > 0 {
				if header.LoomSchemaVersion > SchemaVersion {
					return nil, fmt.Errorf("unsupported schema version %d (max: %d)",
						header.LoomSchemaVersion, SchemaVersion)
				}
				continue
			}
		}

		var e Entry
		if err := json.Unmarshal(line, &e); err != nil || e.ID == "" {
			continue
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("error reading file: %w", err)
	}

	if _, err := j.file.Seek(0, io.SeekEnd); err != nil {
		return entries, err
	}
	return entries, nil
}

// Last returns the newest entry of kind. An empty kind matches any entry.
func (j *Journal) Last(kind string) (Entry, bool, error) {
	entries, err := j.Load()
	if err != nil {
		return Entry{}, false, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if kind == "" || entries[i].Kind == kind {
			return entries[i], true, nil
		}
	}
	return Entry{}, false, nil
}

// Undoable returns the newest entry that has not been reverted and is not
// itself an undo. Successive undos therefore walk back through history.
func Undoable(entries []Entry) (Entry, error) {
	undone := make(map[string]bool)
	for _, e := range entries {
		if e.Undoes != "" {
			undone[e.Undoes] = true
		}
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Undoes != "" || undone[e.ID] {
			continue
		}
		if e.Previous == "" {
			continue
		}
		return e, nil
	}
	return Entry{}, ErrNothingToUndo
}

// RecordUndo appends the entry that reverts target.
func (j *Journal) RecordUndo(target Entry) (Entry, error) {
	e := Entry{
		ID:        ulid.Make().String(),
		Kind:      target.Kind,
		Value:     target.Previous,
		Previous:  target.Value,
		AppliedAt: time.Now().Unix(),
		Undoes:    target.ID,
	}
	return e, j.Append(e)
}

// Prune keeps only the newest keep entries, rewriting the file.
// It returns the number of entries removed.
func (j *Journal) Prune(keep int) (int, error) {
	entries, err := j.Load()
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(entries) <= keep {
		return 0, nil
	}
	removed := len(entries) - keep
	return removed, j.rewrite(entries[removed:])
}

// rewrite replaces the file contents, keeping a backup until the write succeeds.
func (j *Journal) rewrite(entries []Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrClosed
	}

	if j.file != nil {
		if err := j.file.Close(); err != nil {
			return err
		}
		j.file = nil
	}

	backupPath := j.path + ".bak"
	if err := os.Rename(j.path, backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	file, err := os.OpenFile(j.path, os.O_RDWR|os.O_CREATE|os.O_APPEND|os.O_TRUNC, 0600)
	if err != nil {
		os.Rename(backupPath, j.path)
		return fmt.Errorf("failed to create new file: %w", err)
	}
	j.file = file

	if err := j.writeHeader(); err != nil {
		return err
	}
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := j.file.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	if err := j.file.Sync(); err != nil {
		return err
	}

	os.Remove(backupPath)
	return nil
}

// Close releases the file handle.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	if j.file != nil {
		err := j.file.Close()
		j.file = nil
		return err
	}
	return nil
}
