package caseloader

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/xerrors"
)

func Test_Load_EmptyFieldsBecomeNil(t *testing.T) {
	t.Parallel()

	l, _ := newTestLoader(t, "id,soc_code,note\n,,\n1,,x\n", &testStore{})

	rs, err := l.Load(context.Background(), "cases.csv")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if rs.Len() != 2 {
		t.Fatalf("Size of records should be 2, but %d", rs.Len())
	}

	for _, c := range []string{"id", "soc_code", "note"} {
		if v := rs.Records[0][c]; v != nil {
			t.Errorf("records[0][%s] should be nil, but %q", c, *v)
		}
	}

	if got := value(t, rs.Records[1], "id"); got != "1" {
		t.Errorf(`records[1][id] should be "1", but %q`, got)
	}

	if v := rs.Records[1]["soc_code"]; v != nil {
		t.Errorf("records[1][soc_code] should be nil, but %q", *v)
	}
}

func Test_Load_DecodesLatin1(t *testing.T) {
	t.Parallel()

	body := string([]byte{'n', 'o', 't', 'e', '\n', 'c', 'a', 'f', 0xe9, '\n'})
	l, _ := newTestLoader(t, body, &testStore{})

	rs, err := l.Load(context.Background(), "cases.csv")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := value(t, rs.Records[0], "note"); got != "café" {
		t.Errorf(`records[0][note] should be "café", but %q`, got)
	}
}

func Test_Load_BareQuoteInText(t *testing.T) {
	t.Parallel()

	l, _ := newTestLoader(t, "id,new_nar_what_happened\n1,cut by 5\" pipe\n2,ok\n", &testStore{})

	rs, err := l.Load(context.Background(), "cases.csv")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if rs.Len() != 2 {
		t.Fatalf("Size of records should be 2, but %d", rs.Len())
	}

	if got := value(t, rs.Records[0], "new_nar_what_happened"); got != `cut by 5" pipe` {
		t.Errorf(`records[0][new_nar_what_happened] should be "cut by 5\" pipe", but %q`, got)
	}
	if got := value(t, rs.Records[1], "new_nar_what_happened"); got != "ok" {
		t.Errorf(`records[1][new_nar_what_happened] should be "ok", but %q`, got)
	}
}

func Test_Load_ShortAndLongRows(t *testing.T) {
	t.Parallel()

	l, _ := newTestLoader(t, "a,b,c\n1\n", &testStore{})

	rs, err := l.Load(context.Background(), "cases.csv")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := value(t, rs.Records[0], "a"); got != "1" {
		t.Errorf(`records[0][a] should be "1", but %q`, got)
	}
	if rs.Records[0]["c"] != nil {
		t.Errorf("records[0][c] should be nil")
	}

	l, _ = newTestLoader(t, "a,b\n1,2,3\n", &testStore{})
	if _, err := l.Load(context.Background(), "cases.csv"); err == nil {
		t.Error("expected error but no error occurred")
	}
}

func Test_Load_MissingFile(t *testing.T) {
	t.Parallel()

	l, _ := newTestLoader(t, "", &testStore{})
	l.extractor = newDefaultExtractor()

	path := filepath.Join(t.TempDir(), "missing.csv")

	_, err := l.Load(context.Background(), path)
	if !xerrors.Is(err, ErrSourceUnreadable) {
		t.Errorf("expected ErrSourceUnreadable, but %v", err)
	}
}

func Test_Load_LocalFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cases.csv")
	if err := os.WriteFile(path, []byte("ID,Soc_Code\n7,11-1011\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	l, _ := newTestLoader(t, "", &testStore{})
	l.extractor = newDefaultExtractor()

	rs, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(rs.Columns) != 2 || rs.Columns[0] != "ID" || rs.Columns[1] != "Soc_Code" {
		t.Errorf("unexpected columns %v", rs.Columns)
	}
	if got := value(t, rs.Records[0], "Soc_Code"); got != "11-1011" {
		t.Errorf(`records[0][Soc_Code] should be "11-1011", but %q`, got)
	}
}

func Test_toRecordSet_HeaderOnly(t *testing.T) {
	t.Parallel()

	rs, err := toRecordSet([][]string{{"a", "b"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if rs.Len() != 0 || len(rs.Columns) != 2 {
		t.Errorf("unexpected record set %+v", rs)
	}
}

func Test_dedupeColumns(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input  []string
		expect []string
	}{
		{input: []string{"a", "b"}, expect: []string{"a", "b"}},
		{input: []string{"a", "a", "a"}, expect: []string{"a", "a.1", "a.2"}},
		{input: []string{"a", "a.1", "a"}, expect: []string{"a", "a.1", "a.2"}},
	}

	for _, c := range cases {
		c := c
		t.Run(c.input[len(c.input)-1], func(t *testing.T) {
			t.Parallel()

			actual := dedupeColumns(c.input)
			for i := range c.expect {
				if actual[i] != c.expect[i] {
					t.Errorf("expected %v but %v", c.expect, actual)
					break
				}
			}
		})
	}
}

func Test_parserFor(t *testing.T) {
	t.Parallel()

	l, _ := newTestLoader(t, "", &testStore{})

	if _, enc := l.parserFor("gs://b/export.XLS"); enc != nil {
		t.Error("xls sources should not be decoded")
	}

	if _, enc := l.parserFor("export.csv"); enc == nil {
		t.Error("csv sources should be decoded")
	}
}

func Test_CSVParser_QuotedFields(t *testing.T) {
	t.Parallel()

	rows, err := CSVParser()(context.Background(), bytes.NewBufferString("a,b\n\"x, y\",\"line\nbreak\"\n"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(rows) != 2 || rows[1][0] != "x, y" || rows[1][1] != "line\nbreak" {
		t.Errorf("unexpected rows %q", rows)
	}
}
