package caseloader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

const (
	// CreatedTimestampColumn is reparsed from the ITA export format.
	CreatedTimestampColumn = "created_timestamp"

	itaTimestampLayout    = "02Jan06:15:04:05"
	itaShortDayLayout     = "2Jan06:15:04:05"
	outputTimestampLayout = "2006-01-02 15:04:05"

	trimmedSuffix = ".00"
)

// ColumnRenames maps lower-cased OSHA ITA export columns to destination columns.
// Columns missing here keep their lower-cased name.
var ColumnRenames = map[string]string{
	"id":                       "osha_id",
	"new_incident_location":    "incident_location",
	"new_incident_description": "incident_description",
	"new_nar_before_incident":  "narrative_before_incident",
	"new_nar_what_happened":    "narrative_what_happened",
	"new_nar_injury_illness":   "narrative_injury_illness",
	"new_nar_object_substance": "narrative_object_substance",
	"soc_code":                 "soc_code",
	"soc_description":          "soc_description",
	"soc_probability":          "soc_probability",
	"soc_reviewed":             "soc_reviewed",
}

// FieldError records a single value that could not be normalized and was set to nil.
type FieldError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("row %d column %s value %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// NormalizeReport collects field-level problems found while normalizing.
type NormalizeReport struct {
	FieldErrors []FieldError
}

// RenameColumn lower-cases a raw column name and maps it through ColumnRenames.
func RenameColumn(raw string) string {
	c := strings.ToLower(raw)
	if renamed, ok := ColumnRenames[c]; ok {
		return renamed
	}

	return c
}

// ParseCreatedTimestamp converts "05JAN24:14:30:00" into "2024-01-05 14:30:00".
// The day may also be a single digit, as in "5JAN24:14:30:00".
func ParseCreatedTimestamp(v string) (string, error) {
	t, err := time.Parse(itaTimestampLayout, v)
	if err != nil {
		var err2 error
		if t, err2 = time.Parse(itaShortDayLayout, v); err2 != nil {
			return "", xerrors.Errorf("failed to parse timestamp: %w", err)
		}
	}

	return t.Format(outputTimestampLayout), nil
}

// TrimZeroDecimal strips one trailing ".00" from v.
// It does not check that v is numeric, so "abc.00" becomes "abc".
func TrimZeroDecimal(v string) string {
	return strings.TrimSuffix(v, trimmedSuffix)
}

// Normalize renames columns and cleans field formats in place.
// Values that fail to normalize are set to nil and reported; no row is dropped.
func Normalize(rs RecordSet) (RecordSet, NormalizeReport) {
	out, report, _ := normalize(context.Background(), rs, 1)
	return out, report
}

func normalize(ctx context.Context, rs RecordSet, concurrency int) (RecordSet, NormalizeReport, error) {
	columns := make([]string, 0, len(rs.Columns))
	renames := make(map[string]string, len(rs.Columns))
	seen := make(map[string]bool, len(rs.Columns))
	for _, c := range rs.Columns {
		name := RenameColumn(c)
		renames[c] = name
		if !seen[name] {
			seen[name] = true
			columns = append(columns, name)
		}
	}

	if concurrency < 1 {
		concurrency = 1
	}

	n := rs.Len()
	size := (n + concurrency - 1) / concurrency
	errs := make([][]FieldError, concurrency)

	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < concurrency; w++ {
		w := w
		start, end := w*size, min((w+1)*size, n)
		if start >= end {
			break
		}

		eg.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}

				rec, fieldErrs := normalizeRecord(rs.Records[i], rs.Columns, renames, i)
				rs.Records[i] = rec
				errs[w] = append(errs[w], fieldErrs...)
			}

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return RecordSet{}, NormalizeReport{}, xerrors.Errorf("failed to normalize records: %w", err)
	}

	report := NormalizeReport{}
	for _, e := range errs {
		report.FieldErrors = append(report.FieldErrors, e...)
	}

	return RecordSet{Columns: columns, Records: rs.Records}, report, nil
}

func normalizeRecord(r Record, columns []string, renames map[string]string, row int) (Record, []FieldError) {
	var errs []FieldError

	out := make(Record, len(r))
	for k, v := range r {
		if _, ok := renames[k]; !ok {
			out[RenameColumn(k)] = v
		}
	}

	// Header order decides which value survives a name collision.
	for _, c := range columns {
		if v, ok := r[c]; ok {
			out[renames[c]] = v
		}
	}

	if v, ok := out[CreatedTimestampColumn]; ok && v != nil {
		ts, err := ParseCreatedTimestamp(*v)
		if err != nil {
			errs = append(errs, FieldError{Row: row, Column: CreatedTimestampColumn, Value: *v, Err: err})
			out[CreatedTimestampColumn] = nil
		} else {
			out[CreatedTimestampColumn] = String(ts)
		}
	}

	for k, v := range out {
		if v != nil && strings.HasSuffix(*v, trimmedSuffix) {
			out[k] = String(TrimZeroDecimal(*v))
		}
	}

	return out, errs
}
