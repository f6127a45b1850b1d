package records

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const searchBody = `{"records":[
 {"id":"rec1","fields":{"Official Establishment Name":"Aman Tokyo","Award Level":"Gold","Establishment Type":["Hotel","Spa"],"Rooms":84}},
 {"id":"rec2","fields":{"Official Establishment Name":"Amanemu"}}
]}`

func TestSearchBuildsFormulaAndParses(t *testing.T) {
	var gotQuery, gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("filterByFormula") + "|" + r.URL.Query().Get("maxRecords")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	src, err := NewAirtable(AirtableConfig{Endpoint: srv.URL + "/", BaseID: "appX", TableID: "Partners", Token: "tok"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	recs, err := src.Search(context.Background(), Query{Field: FieldOfficialName, Text: " aman ", Limit: 5})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if gotPath != "/appX/Partners" {
		t.Fatalf("path: got %q", gotPath)
	}
	if want := `SEARCH(LOWER("aman"), LOWER({Official Establishment Name}))|5`; gotQuery != want {
		t.Fatalf("query: want %q, got %q", want, gotQuery)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("auth header: got %q", gotAuth)
	}
	if len(recs) != 2 {
		t.Fatalf("want 2 records, got %d", len(recs))
	}
	if recs[0].ID != "rec1" || recs[0].Name() != "Aman Tokyo" || recs[0].Get(FieldAwardLevel) != "Gold" {
		t.Fatalf("unexpected record: %+v", recs[0])
	}
	if got := recs[0].Get(FieldEstablishmentType); got != "Hotel, Spa" {
		t.Fatalf("array field: got %q", got)
	}
	if got := recs[0].Get("Rooms"); got != "84" {
		t.Fatalf("number field: got %q", got)
	}
}

func TestFormula(t *testing.T) {
	got := Formula(Query{Field: FieldRedemptionCode, Text: `AB"CD\1234`, Match: Exact})
	want := `LOWER(TRIM({Redemption Code})) = LOWER("AB\"CD\\1234")`
	if got != want {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestSearchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"type":"INVALID_FILTER_BY_FORMULA","message":"bad formula"}}`))
	}))
	defer srv.Close()

	src, _ := NewAirtable(AirtableConfig{Endpoint: srv.URL, BaseID: "b", TableID: "t"})
	_, err := src.Search(context.Background(), Query{Field: "x", Text: "y"})

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnprocessableEntity || se.Body != "bad formula" {
		t.Fatalf("want StatusError 422, got %v", err)
	}
}

func TestSearchServerErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src, _ := NewAirtable(AirtableConfig{Endpoint: srv.URL, BaseID: "b", TableID: "t"})
	_, err := src.Search(context.Background(), Query{Field: "x", Text: "y"})

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("want StatusError 503, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("lookups must not retry, got %d calls", calls)
	}
}

func TestSearchUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	src, _ := NewAirtable(AirtableConfig{Endpoint: addr, BaseID: "b", TableID: "t"})
	_, err := src.Search(context.Background(), Query{Field: "x", Text: "y"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestSearchCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	src, _ := NewAirtable(AirtableConfig{Endpoint: srv.URL, BaseID: "b", TableID: "t"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := src.Search(ctx, Query{Field: "x", Text: "y"})
		done <- err
	}()
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestListPaginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "" {
			w.Write([]byte(`{"records":[{"id":"rec1","fields":{}}],"offset":"itrNext"}`))
			return
		}
		w.Write([]byte(`{"records":[{"id":"rec2","fields":{}},{"id":"rec3","fields":{}}]}`))
	}))
	defer srv.Close()

	src, _ := NewAirtable(AirtableConfig{Endpoint: srv.URL, BaseID: "b", TableID: "t"})
	var ids []string
	err := src.List(context.Background(), func(page []Record) error {
		for _, r := range page {
			ids = append(ids, r.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Join(ids, ",") != "rec1,rec2,rec3" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestNewAirtableRequiresTable(t *testing.T) {
	if _, err := NewAirtable(AirtableConfig{BaseID: "b"}); err == nil {
		t.Fatalf("expected error without table")
	}
}
