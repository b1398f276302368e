package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// DatasetWriter writes the dataset to one or more JSON files.
type DatasetWriter struct {
	paths []string
}

// NewDatasetWriter creates a writer for the given output paths.
func NewDatasetWriter(paths []string) *DatasetWriter {
	return &DatasetWriter{paths: paths}
}

// Name identifies the loader in logs and metrics.
func (w *DatasetWriter) Name() string { return "jsonfile" }

// LoadDataset writes ds to every path, creating parent directories. Each file
// is replaced atomically. All paths are attempted even if one fails.
func (w *DatasetWriter) LoadDataset(_ context.Context, ds domain.Dataset) error {
	data, err := EncodeDataset(ds)
	if err != nil {
		return err
	}

	var errs []error
	for _, path := range w.paths {
		if err := writeFileAtomic(path, data); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// EncodeDataset renders ds as indented JSON with a trailing newline.
func EncodeDataset(ds domain.Dataset) ([]byte, error) {
	if ds.Incidents == nil {
		ds.Incidents = []domain.Incident{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadDataset loads a dataset previously written by a DatasetWriter.
func ReadDataset(path string) (domain.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	var ds domain.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return domain.Dataset{}, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	return ds, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
