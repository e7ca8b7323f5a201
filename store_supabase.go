package caseloader

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

const supabaseTimeout = 60 * time.Second

// SupabaseStore inserts records through the PostgREST API exposed by Supabase.
type SupabaseStore struct {
	BaseURL string
	Key     string

	// HTTPClient is used for requests. A client with a 60 second timeout is used if nil.
	HTTPClient *http.Client
}

// NewSupabaseStore builds a SupabaseStore for the project at baseURL.
func NewSupabaseStore(baseURL, key string) *SupabaseStore {
	return &SupabaseStore{
		BaseURL:    baseURL,
		Key:        key,
		HTTPClient: &http.Client{Timeout: supabaseTimeout},
	}
}

// Insert posts records as a JSON array to /rest/v1/{table}.
func (s *SupabaseStore) Insert(ctx context.Context, table string, records []Record) error {
	l := log.Ctx(ctx)

	body, err := json.Marshal(records)
	if err != nil {
		return xerrors.Errorf("failed to marshal records: %w", err)
	}

	endpoint := strings.TrimRight(s.BaseURL, "/") + "/rest/v1/" + url.PathEscape(table)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return xerrors.Errorf("failed to build http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	req.Header.Set("apikey", s.Key)
	req.Header.Set("Authorization", "Bearer "+s.Key)

	l.Debug().Str("url", endpoint).Int("bytes", len(body)).Msg("posting records")

	c := s.HTTPClient
	if c == nil {
		c = &http.Client{Timeout: supabaseTimeout}
	}

	resp, err := c.Do(req)
	if err != nil {
		return xerrors.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return xerrors.Errorf("failed to read response body: %w", err)
		}

		return xerrors.Errorf("insert into %s failed with status code %d (%s)", table, resp.StatusCode, b)
	}

	return nil
}

// Close implements Store.
func (s *SupabaseStore) Close() error {
	return nil
}
