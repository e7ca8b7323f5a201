package caseloader

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/xerrors"
)

// PostgresStore inserts records directly into a Postgres table.
// Values are sent as JSON text and coerced to column types by the server.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database at connString.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, xerrors.Errorf("failed to create connection pool: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Insert runs one INSERT statement for all records.
func (s *PostgresStore) Insert(ctx context.Context, table string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return xerrors.Errorf("failed to marshal records: %w", err)
	}

	sql := insertStatement(table, recordColumns(records))

	if _, err := s.pool.Exec(ctx, sql, string(payload)); err != nil {
		return xerrors.Errorf("failed to insert into %s: %w", table, err)
	}

	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func insertStatement(table string, columns []string) string {
	ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	list := strings.Join(quoted, ", ")

	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM json_populate_recordset(NULL::%s, $1::json)",
		ident, list, list, ident)
}

// recordColumns returns the sorted union of keys across records.
func recordColumns(records []Record) []string {
	seen := map[string]struct{}{}
	for _, r := range records {
		for k := range r {
			seen[k] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	return columns
}
