package caseloader

import (
	"context"
	"net/url"

	"golang.org/x/xerrors"
)

// Store inserts batches of records into a remote table.
type Store interface {
	// Insert submits records to table as a single request.
	Insert(ctx context.Context, table string, records []Record) error

	Close() error
}

// OpenStore builds a Store from cfg.StoreURL.
//
//	http://, https://          Supabase (PostgREST) REST API, authenticated with cfg.StoreKey
//	postgres://, postgresql:// Postgres connection string
//	bigquery://project/dataset BigQuery dataset
func OpenStore(ctx context.Context, cfg Config) (Store, error) {
	u, err := url.Parse(cfg.StoreURL)
	if err != nil {
		return nil, xerrors.Errorf("malformed store URL (%v): %w", err, ErrInvalidConfig)
	}

	switch u.Scheme {
	case "http", "https":
		return NewSupabaseStore(cfg.StoreURL, cfg.StoreKey), nil
	case "postgres", "postgresql":
		return NewPostgresStore(ctx, cfg.StoreURL)
	case "bigquery":
		return NewBigQueryStore(ctx, u.Host, u.Path)
	default:
		return nil, xerrors.Errorf("scheme %q: %w", u.Scheme, ErrUnsupportedStore)
	}
}
