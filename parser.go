package caseloader

import (
	"context"
	"encoding/csv"
	"errors"
	"io"

	"github.com/extrame/xls"
	"gitlab.com/osaki-lab/iowrapper"
	"golang.org/x/xerrors"
)

var errNoSheet = errors.New("no sheet found")

// Parser parses a source file into rows of raw text fields.
// The first row is the header.
type Parser func(context.Context, io.Reader) ([][]string, error)

// CSVParser provides a parser to parse comma-delimited files.
// Rows may have fewer fields than the header, and a bare quote inside an
// unquoted field is kept as text.
func CSVParser() Parser {
	return func(_ context.Context, r io.Reader) ([][]string, error) {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true

		return cr.ReadAll()
	}
}

// XLSParser provides a parser to parse the first sheet of an Excel 97 workbook.
func XLSParser() Parser {
	getRow := func(sheet *xls.WorkSheet, row int) (r *xls.Row, ok bool) {
		defer func() {
			if recover() != nil {
				r, ok = nil, false
			}
		}()

		return sheet.Row(row), true
	}

	return func(_ context.Context, r io.Reader) ([][]string, error) {
		wb, err := xls.OpenReader(iowrapper.NewSeeker(r), "utf-8")
		if err != nil {
			return nil, xerrors.Errorf("failed to open xls file: %w", err)
		}

		sheet := wb.GetSheet(0)
		if sheet == nil {
			return nil, errNoSheet
		}

		rows := [][]string{}
		width := 0

		for i := 0; i <= int(sheet.MaxRow); i++ {
			row, ok := getRow(sheet, i)
			if !ok || row == nil {
				continue
			}

			if len(rows) == 0 {
				width = row.LastCol()
			}

			record := make([]string, 0, width)
			for col := 0; col < width && col < row.LastCol(); col++ {
				record = append(record, row.Col(col))
			}

			rows = append(rows, record)
		}

		return rows, nil
	}
}
