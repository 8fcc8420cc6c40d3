package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"event-tracker/internal/store"
)

const fileVersion = 1

type fileDocument struct {
	Version int         `yaml:"version"`
	Events  []fileEvent `yaml:"events"`
}

type fileEvent struct {
	Uid      uint       `yaml:"uid"`
	Text     string     `yaml:"text"`
	Interval string     `yaml:"interval"`
	Stacks   bool       `yaml:"stacks,omitempty"`
	Status   fileStatus `yaml:"status"`
}

type fileStatus struct {
	Phase        string      `yaml:"phase"`
	At           *time.Time  `yaml:"at,omitempty"`
	TriggerTimes []time.Time `yaml:"trigger_times,omitempty"`
}

// FileRepository keeps the store in one YAML file.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Path() string { return r.path }

func (r *FileRepository) Load(ctx context.Context) (*store.EventStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Kind: NotFound, Path: r.path, Cause: err}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	malformed := func(cause error) error {
		return &LoadError{Kind: Malformed, Path: r.path, Cause: cause, Raw: string(data)}
	}
	var doc fileDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, malformed(err)
	}
	if doc.Version > fileVersion {
		return nil, malformed(fmt.Errorf("unsupported version %d", doc.Version))
	}

	records := make([]record, 0, len(doc.Events))
	for _, e := range doc.Events {
		records = append(records, record{
			Uid:          e.Uid,
			Text:         e.Text,
			Interval:     e.Interval,
			Stacks:       e.Stacks,
			Phase:        e.Status.Phase,
			At:           e.Status.At,
			TriggerTimes: e.Status.TriggerTimes,
		})
	}
	events, err := fromRecords(records)
	if err != nil {
		return nil, malformed(err)
	}
	return events, nil
}

// Store replaces the file atomically.
func (r *FileRepository) Store(ctx context.Context, events *store.EventStore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := fileDocument{Version: fileVersion, Events: []fileEvent{}}
	for _, rec := range toRecords(events) {
		doc.Events = append(doc.Events, fileEvent{
			Uid:      rec.Uid,
			Text:     rec.Text,
			Interval: rec.Interval,
			Stacks:   rec.Stacks,
			Status: fileStatus{
				Phase:        rec.Phase,
				At:           rec.At,
				TriggerTimes: rec.TriggerTimes,
			},
		})
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return &StoreError{Path: r.path, Cause: err}
	}
	if err := writeAtomic(r.path, data); err != nil {
		return &StoreError{Path: r.path, Cause: err}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".events-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
