package caseloader

import (
	"context"
	"strings"

	"cloud.google.com/go/bigquery"
	"golang.org/x/xerrors"
)

// BigQueryStore streams records into tables of one BigQuery dataset.
type BigQueryStore struct {
	client  *bigquery.Client
	dataset *bigquery.Dataset
}

// NewBigQueryStore builds a store for dataset in project.
// A leading slash on dataset is ignored so URL paths can be passed as is.
func NewBigQueryStore(ctx context.Context, project, dataset string) (*BigQueryStore, error) {
	dataset = strings.Trim(dataset, "/")
	if project == "" || dataset == "" {
		return nil, xerrors.Errorf("bigquery store needs project and dataset: %w", ErrInvalidConfig)
	}

	bq, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, xerrors.Errorf("failed to build bigquery client for %s: %w", project, err)
	}

	return &BigQueryStore{client: bq, dataset: bq.Dataset(dataset)}, nil
}

// Insert streams records with a single insertAll request.
func (s *BigQueryStore) Insert(ctx context.Context, table string, records []Record) error {
	rows := make([]bigquery.ValueSaver, len(records))
	for i, r := range records {
		rows[i] = bqRow(r)
	}

	if err := s.dataset.Table(table).Inserter().Put(ctx, rows); err != nil {
		return xerrors.Errorf("failed to insert into %s: %w", table, err)
	}

	return nil
}

// Close closes the BigQuery client.
func (s *BigQueryStore) Close() error {
	return s.client.Close()
}

type bqRow Record

// Save implements bigquery.ValueSaver. Nil fields are written as NULL.
func (r bqRow) Save() (map[string]bigquery.Value, string, error) {
	row := make(map[string]bigquery.Value, len(r))
	for k, v := range r {
		if v == nil {
			row[k] = nil
		} else {
			row[k] = *v
		}
	}

	return row, bigquery.NoDedupeID, nil
}
