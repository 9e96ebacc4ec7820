package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/district-stress-dashboard/internal/domain"
	"github.com/jszwec/csvutil"
)

// ErrSourceUnavailable is returned when the dataset file cannot be opened or
// has no readable header.
var ErrSourceUnavailable = errors.New("dataset source unavailable")

// Dataset is an immutable, normalised snapshot of the source file. Header is
// the source header in file order; exports reuse it.
type Dataset struct {
	Records  []domain.District
	Header   []string
	Columns  domain.ColumnSet
	Version  uint64
	Source   string
	ModTime  time.Time
	LoadedAt time.Time
}

// Loader produces a fresh Dataset from its source.
type Loader interface {
	Load(ctx context.Context) (*Dataset, error)
}

// FileLoader reads a CSV file from disk.
type FileLoader struct {
	path       string
	normalizer *domain.RegionNormalizer
}

// NewFileLoader creates a loader for path. A nil normalizer uses the built-in
// correction table.
func NewFileLoader(path string, normalizer *domain.RegionNormalizer) *FileLoader {
	if normalizer == nil {
		normalizer = domain.NewRegionNormalizer(nil)
	}
	return &FileLoader{path: path, normalizer: normalizer}
}

// ModTime returns the source file's modification time.
func (l *FileLoader) ModTime() (time.Time, error) {
	fi, err := os.Stat(l.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return fi.ModTime(), nil
}

// Load reads, decodes and normalises the file.
func (l *FileLoader) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrSourceUnavailable, l.path, err)
	}

	records, header, err := Decode(f, l.normalizer)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.path, err)
	}

	return &Dataset{
		Records:  records,
		Header:   header,
		Columns:  domain.NewColumnSet(header),
		Source:   l.path,
		ModTime:  fi.ModTime(),
		LoadedAt: domain.Now(),
	}, nil
}

// Decode parses CSV rows into normalised districts and returns the header.
// Absent columns default. Columns the dashboard does not use are kept in
// District.Extra.
func Decode(r io.Reader, normalizer *domain.RegionNormalizer) ([]domain.District, []string, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read header: %w", ErrSourceUnavailable, err)
	}
	header := dec.Header()
	// Without the column there is nothing to alert on.
	hasSecurity := domain.NewColumnSet(header).Has(domain.ColumnSecurity)

	var records []domain.District
	for {
		var raw domain.RawDistrictRecord
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("decode row %d: %w", len(records)+1, err)
		}
		if !hasSecurity {
			raw.Security = domain.SecurityLabelNormal
		}

		d := domain.ParseDistrict(raw)
		if unused := dec.Unused(); len(unused) > 0 {
			row := dec.Record()
			d.Extra = make(map[string]string, len(unused))
			for _, i := range unused {
				d.Extra[header[i]] = row[i]
			}
		}
		records = append(records, d)
	}
	normalizer.Apply(records)

	return records, header, nil
}

// DefaultHeader is the export header used when the source header is unknown.
func DefaultHeader() []string {
	// Header only fails for non-struct types.
	h, _ := csvutil.Header(domain.RawDistrictRecord{}, "csv")
	return h
}

// WriteCSV writes records under header, so an export keeps the source schema.
// Known columns carry the (possibly simulated) record values; other columns
// come from District.Extra. A nil header uses DefaultHeader. The header is
// written even when records is empty.
func WriteCSV(w io.Writer, header []string, records []domain.District) error {
	if header == nil {
		header = DefaultHeader()
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	row := make([]string, len(header))
	for i := range records {
		raw := records[i].ToRaw()
		for j, col := range header {
			if v, ok := raw.Field(col); ok {
				row[j] = v
				continue
			}
			row[j] = records[i].Extra[col]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("encode %s: %w", records[i].Key(), err)
		}
	}

	cw.Flush()
	return cw.Error()
}
