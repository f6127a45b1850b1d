package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/estform/pkg/autocomplete"
	"github.com/sw33tLie/estform/pkg/form"
	"github.com/sw33tLie/estform/pkg/records"
)

var aman = records.Record{ID: "recAMAN", Fields: map[string]string{
	records.FieldOfficialName:      "Aman Tokyo",
	records.FieldEstablishmentType: "Hotel",
	records.FieldAwardLevel:        "Gold",
}}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Source == nil {
		cfg.Source = records.SourceFunc(func(ctx context.Context, q records.Query) ([]records.Record, error) {
			if strings.Contains(strings.ToLower(aman.Get(q.Field)), strings.ToLower(q.Text)) {
				return []records.Record{aman}, nil
			}
			return nil, nil
		})
	}
	cfg.Form.Debounce = -1
	ts := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createSession(t *testing.T, ts *httptest.Server) form.State {
	t.Helper()
	var st form.State
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/api/sessions", nil, &st))
	require.NotEmpty(t, st.ID)
	return st
}

func TestSessionFlow(t *testing.T) {
	ts := newTestServer(t, Config{})
	st := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + st.ID

	assert.Equal(t, form.ModeNameLookup, st.Mode)
	assert.False(t, st.SubmitEnabled)

	require.Equal(t, http.StatusOK, do(t, http.MethodPost, base+"/input?wait=true",
		InputRequest{Field: "officialEstablishmentName", Value: "aman"}, &st))

	var items []autocomplete.Item
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, base+"/suggestions", nil, &items))
	require.Len(t, items, 1)

	require.Equal(t, http.StatusOK, do(t, http.MethodPost, base+"/pick", PickRequest{Index: 0}, &st))
	assert.True(t, st.SubmitEnabled)
	assert.Equal(t, "recAMAN", st.Selection.ID)

	require.Equal(t, http.StatusOK, do(t, http.MethodPost, base+"/reset", nil, &st))
	assert.False(t, st.SubmitEnabled)

	require.Equal(t, http.StatusOK, do(t, http.MethodPost, base+"/mode", ModeRequest{Mode: form.ModeCodeLookup}, &st))
	assert.Equal(t, form.ModeCodeLookup, st.Mode)

	resp, err := http.Get(base + "/form")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))

	require.Equal(t, http.StatusNoContent, do(t, http.MethodDelete, base, nil, nil))
	require.Equal(t, http.StatusNotFound, do(t, http.MethodGet, base, nil, nil))
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t, Config{})
	st := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + st.ID

	var apiErr map[string]string
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, ts.URL+"/api/sessions/not-a-uuid", nil, &apiErr))
	assert.Equal(t, "INVALID_ID", apiErr["code"])

	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, base+"/mode", ModeRequest{Mode: "Nope"}, &apiErr))
	assert.Equal(t, "UNKNOWN_MODE", apiErr["code"])

	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, base+"/input", InputRequest{Field: "nope"}, &apiErr))
	assert.Equal(t, "UNKNOWN_FIELD", apiErr["code"])

	assert.Equal(t, http.StatusConflict, do(t, http.MethodPost, base+"/input", InputRequest{Field: "awardLevel", Value: "gold"}, &apiErr))

	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, base+"/pick", PickRequest{Index: 2}, &apiErr))
	assert.Equal(t, "NO_SUGGESTION", apiErr["code"])
}

func TestBasicAuth(t *testing.T) {
	ts := newTestServer(t, Config{Username: "admin", Password: "secret"})

	assert.Equal(t, http.StatusUnauthorized, do(t, http.MethodPost, ts.URL+"/api/sessions", nil, nil))

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/sessions", nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestWebsocketStreamsRenders(t *testing.T) {
	ts := newTestServer(t, Config{})
	st := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + st.ID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(base, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var ev Event
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, "render", ev.Type)
	assert.Contains(t, ev.HTML, "establishment-form")

	require.Equal(t, http.StatusOK, do(t, http.MethodPost, base+"/mode", ModeRequest{Mode: form.ModeCodeLookup}, nil))
	ev = Event{}
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, "render", ev.Type)
	assert.NotEmpty(t, ev.HTML)
}

func TestMismatchPublishesNoticeThenResets(t *testing.T) {
	included := records.Record{ID: "recINC", Fields: map[string]string{
		records.FieldOfficialName:   "Casa Incluida",
		records.FieldAwardLevel:     "Silver",
		records.FieldDutiesAndTaxes: "Included",
	}}
	ts := newTestServer(t, Config{Source: records.SourceFunc(func(ctx context.Context, q records.Query) ([]records.Record, error) {
		return []records.Record{included}, nil
	})})
	st := createSession(t, ts)
	base := ts.URL + "/api/sessions/" + st.ID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(base, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()
	var ev Event
	require.NoError(t, wsjson.Read(ctx, conn, &ev))

	require.Equal(t, http.StatusOK, do(t, http.MethodPost, base+"/input?wait=true",
		InputRequest{Field: "officialEstablishmentName", Value: "casa"}, nil))
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, base+"/pick", PickRequest{Index: 0}, &st))

	// The notice is delivered without waiting for an acknowledgement, so the
	// pick already answers with the reset form.
	assert.False(t, st.SubmitEnabled)
	assert.Empty(t, st.Selection.ID)
	for _, fs := range st.Fields {
		assert.Empty(t, fs.Value, "%s must be cleared", fs.Key)
	}

	for {
		ev = Event{}
		require.NoError(t, wsjson.Read(ctx, conn, &ev))
		if ev.Type == "notice" {
			break
		}
	}
	assert.Contains(t, ev.Message, `Duties & Taxes "Included"`)
}
