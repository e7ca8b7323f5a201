package caseloader

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
	"golang.org/x/xerrors"
)

// Load reads the source file at path into a RecordSet.
// Every field is kept as raw text and empty fields become nil.
func (l *Loader) Load(ctx context.Context, path string) (RecordSet, error) {
	r, closer, err := l.extractor.extract(ctx, path)
	if err != nil {
		return RecordSet{}, xerrors.Errorf("failed to extract: %w", err)
	}
	defer closer()

	parser, enc := l.parserFor(path)

	rows, err := decodeAndParse(ctx, r, enc, parser)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("path", path).Msg("failed to parse source")
		return RecordSet{}, xerrors.Errorf("failed to parse %s: %w", path, err)
	}

	rs, err := toRecordSet(rows)
	if err != nil {
		return RecordSet{}, xerrors.Errorf("failed to read %s: %w", path, err)
	}

	log.Ctx(ctx).Info().Str("path", path).Int("rows", rs.Len()).Int("columns", len(rs.Columns)).Msg("source loaded")

	return rs, nil
}

func (l *Loader) parserFor(path string) (Parser, encoding.Encoding) {
	if l.parser != nil {
		return l.parser, l.encoding
	}

	if strings.HasSuffix(strings.ToLower(path), ".xls") {
		return XLSParser(), nil
	}

	return CSVParser(), l.encoding
}

func decodeAndParse(ctx context.Context, r io.Reader, enc encoding.Encoding, parser Parser) ([][]string, error) {
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	}

	return parser(ctx, r)
}

// toRecordSet turns parsed rows into records using the first row as header.
func toRecordSet(rows [][]string) (RecordSet, error) {
	if len(rows) == 0 {
		return RecordSet{Columns: []string{}, Records: []Record{}}, nil
	}

	columns := dedupeColumns(rows[0])
	records := make([]Record, 0, len(rows)-1)

	for i, row := range rows[1:] {
		if len(row) > len(columns) {
			return RecordSet{}, xerrors.Errorf(
				"row %d has %d fields but header has %d", i+1, len(row), len(columns))
		}

		record := make(Record, len(columns))
		for j, c := range columns {
			if j < len(row) && row[j] != "" {
				record[c] = String(row[j])
			} else {
				record[c] = nil
			}
		}

		records = append(records, record)
	}

	return RecordSet{Columns: columns, Records: records}, nil
}

// dedupeColumns suffixes repeated header names as name.1, name.2 and so on.
func dedupeColumns(header []string) []string {
	columns := make([]string, len(header))
	used := make(map[string]bool, len(header))
	counts := make(map[string]int)

	for i, h := range header {
		name := h
		for used[name] {
			counts[h]++
			name = h + "." + strconv.Itoa(counts[h])
		}

		used[name] = true
		columns[i] = name
	}

	return columns
}
