// Package export writes a run's leads as CSV, JSON and plain text.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/lead-hunter/internal/leads"
)

// BlobStore receives the export artifacts.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

type format struct {
	ext         string
	contentType string
	write       func(io.Writer, []leads.Lead) error
}

// Exporter renders leads in every format and hands them to a BlobStore.
type Exporter struct {
	store    BlobStore
	location *time.Location
	logger   *zap.Logger
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithLocation sets the time zone used by the text export. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(e *Exporter) {
		if loc != nil {
			e.location = loc
		}
	}
}

// New returns an Exporter writing to store.
func New(store BlobStore, logger *zap.Logger, opts ...Option) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Exporter{store: store, location: time.Local, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Exporter) formats() []format {
	return []format{
		{ext: "csv", contentType: "text/csv; charset=utf-8", write: WriteCSV},
		{ext: "json", contentType: "application/json", write: WriteJSON},
		{ext: "txt", contentType: "text/plain; charset=utf-8", write: func(w io.Writer, l []leads.Lead) error {
			return WriteText(w, l, e.location)
		}},
	}
}

// Export writes <stem>.csv, <stem>.json and <stem>.txt and returns their locations.
// With no leads nothing is written. A failing format does not stop the others; all
// failures are joined into the returned error.
func (e *Exporter) Export(ctx context.Context, stem string, records []leads.Lead) ([]string, error) {
	if len(records) == 0 {
		e.logger.Warn("no leads to export")
		return nil, nil
	}
	if stem == "" {
		return nil, errors.New("export name is required")
	}

	var (
		written []string
		errs    []error
	)
	for _, f := range e.formats() {
		var buf bytes.Buffer
		if err := f.write(&buf, records); err != nil {
			errs = append(errs, fmt.Errorf("render %s: %w", f.ext, err))
			continue
		}
		name := stem + "." + f.ext
		uri, err := e.store.PutObject(ctx, name, f.contentType, &buf)
		if err != nil {
			e.logger.Error("export failed", zap.String("file", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("export %s: %w", name, err))
			continue
		}
		e.logger.Info("exported leads", zap.String("file", uri))
		written = append(written, uri)
	}

	e.logger.Info("export summary",
		zap.Int("emails", countKind(records, leads.KindEmail)),
		zap.Int("phones", countKind(records, leads.KindPhone)),
	)
	return written, errors.Join(errs...)
}

func countKind(records []leads.Lead, kind leads.Kind) int {
	n := 0
	for _, l := range records {
		if l.Kind == kind {
			n++
		}
	}
	return n
}
