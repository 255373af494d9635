package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// TimestampLayout is the on-disk timestamp format of dataset files.
const TimestampLayout = "2006-01-02 15:04:05"

// Header is the column layout written by the collector.
var Header = []string{"icao24", "callsign", "latitude", "longitude", "altitude", "velocity", "timestamp"}

// Sample is a raw collected sample. Missing is set when any field was null or
// empty upstream; the numeric fields of a missing sample are meaningless.
type Sample struct {
	FlightRecord
	Missing bool
}

// ReadSamples parses a CSV stream with the collector's header.
// Rows with an unparsable timestamp or number are rejected; empty fields,
// the timestamp included, only mark the sample as missing.
func ReadSamples(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(head[0]), Header[0]) {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(head, ","))
	}

	var samples []Sample
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		s, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseRow(row []string) (Sample, error) {
	var s Sample

	if raw := strings.TrimSpace(row[6]); raw == "" {
		s.Missing = true
	} else {
		ts, err := time.ParseInLocation(TimestampLayout, raw, time.UTC)
		if err != nil {
			return s, fmt.Errorf("invalid timestamp %q: %w", row[6], err)
		}
		s.Timestamp = ts
	}
	s.EntityID = strings.TrimSpace(row[0])
	s.Callsign = strings.TrimSpace(row[1])
	if s.EntityID == "" || s.Callsign == "" {
		s.Missing = true
	}

	fields := []*float64{&s.Latitude, &s.Longitude, &s.Altitude, &s.Velocity}
	for i, dst := range fields {
		raw := strings.TrimSpace(row[2+i])
		if raw == "" {
			s.Missing = true
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return s, fmt.Errorf("invalid %s %q: %w", Header[2+i], raw, err)
		}
		*dst = v
	}
	return s, nil
}

// CSVWriter appends samples in the collector's format.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter wraps w. When writeHeader is true the header row is written first.
func NewCSVWriter(w io.Writer, writeHeader bool) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if writeHeader {
		if err := cw.w.Write(Header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	return cw, nil
}

// Write appends samples and flushes. Missing numeric values are written empty.
func (cw *CSVWriter) Write(samples []Sample) error {
	for _, s := range samples {
		row := []string{
			s.EntityID,
			s.Callsign,
			formatFloat(s.Latitude, s.Missing),
			formatFloat(s.Longitude, s.Missing),
			formatFloat(s.Altitude, s.Missing),
			formatFloat(s.Velocity, s.Missing),
			formatTimestamp(s.Timestamp, s.Missing),
		}
		if err := cw.w.Write(row); err != nil {
			return fmt.Errorf("failed to write sample %s: %w", s.EntityID, err)
		}
	}
	cw.w.Flush()
	return cw.w.Error()
}

// WriteRecords writes cleaned records.
func (cw *CSVWriter) WriteRecords(records []FlightRecord) error {
	samples := make([]Sample, len(records))
	for i, r := range records {
		samples[i] = Sample{FlightRecord: r}
	}
	return cw.Write(samples)
}

func formatTimestamp(ts time.Time, missing bool) string {
	if missing && ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(TimestampLayout)
}

func formatFloat(v float64, missing bool) string {
	if missing && v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Open opens a dataset file, transparently decompressing .gz and .zst files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return readCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return readCloser{Reader: zr, closers: []io.Closer{zstdCloser{zr}, f}}, nil
	default:
		return f, nil
	}
}

// Create creates a dataset file, compressing with gzip or zstd when the
// extension is .gz or .zst.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zw := gzip.NewWriter(f)
		return writeCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
	case ".zst", ".zstd":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return writeCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
	default:
		return f, nil
	}
}

// WriteFile writes records to path with a header, see Create.
func WriteFile(path string, records []FlightRecord) error {
	wc, err := Create(path)
	if err != nil {
		return err
	}
	w, err := NewCSVWriter(wc, true)
	if err != nil {
		wc.Close()
		return err
	}
	if err := w.WriteRecords(records); err != nil {
		wc.Close()
		return fmt.Errorf("failed to write dataset %s: %w", path, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close dataset %s: %w", path, err)
	}
	return nil
}

// LoadFile reads a dataset file and returns the dataset built from its
// complete samples. Aircraft with any missing sample are dropped, matching the
// collector's cleaning pass with no minimum sample count.
func LoadFile(path string) (*Dataset, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	samples, err := ReadSamples(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	return NewDataset(Clean(samples, 0)), nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc readCloser) Close() error {
	var errs []error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type writeCloser struct {
	io.Writer
	closers []io.Closer
}

// Close closes the compressor before the file.
func (wc writeCloser) Close() error {
	var errs []error
	for _, c := range wc.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type zstdCloser struct {
	d *zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.d.Close()
	return nil
}
