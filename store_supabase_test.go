package caseloader_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.worksafetyindex.dev/caseloader"
)

func TestSupabaseStore_Insert(t *testing.T) {
	t.Parallel()

	var got []map[string]*string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method should be POST, but %s", r.Method)
		}
		if r.URL.Path != "/rest/v1/case_details" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "secret" || r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing credentials: %v", r.Header)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected Content-Type header %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Prefer") != "return=minimal" {
			t.Errorf("unexpected Prefer header %q", r.Header.Get("Prefer"))
		}

		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := caseloader.NewSupabaseStore(srv.URL+"/", "secret")
	records := []caseloader.Record{
		{"osha_id": caseloader.String("1"), "soc_code": nil},
		{"osha_id": caseloader.String("2"), "soc_code": caseloader.String("29-1141")},
	}

	if err := s.Insert(context.Background(), "case_details", records); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Size of posted records should be 2, but %d", len(got))
	}
	if got[0]["soc_code"] != nil {
		t.Errorf("nil fields should be posted as null")
	}
	if *got[1]["soc_code"] != "29-1141" {
		t.Errorf(`soc_code should be "29-1141", but %q`, *got[1]["soc_code"])
	}
}

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(f roundTripperFunc) *http.Client {
	return &http.Client{Transport: f}
}

func TestSupabaseStore_InsertError(t *testing.T) {
	t.Parallel()

	s := &caseloader.SupabaseStore{
		BaseURL: "https://example.supabase.co",
		Key:     "secret",
		HTTPClient: newTestClient(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusConflict,
				Body:       io.NopCloser(strings.NewReader(`{"code":"23505","message":"duplicate key"}`)),
				Header:     http.Header{},
			}, nil
		}),
	}

	err := s.Insert(context.Background(), "case_details", []caseloader.Record{{"osha_id": caseloader.String("1")}})
	if err == nil {
		t.Fatal("expected error but no error occurred")
	}
	if !strings.Contains(err.Error(), "409") || !strings.Contains(err.Error(), "duplicate key") {
		t.Errorf("error should carry status and body, but %v", err)
	}
}
