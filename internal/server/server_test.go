package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/recwire/internal/catalog"
	"github.com/danmuck/recwire/internal/record"
	"github.com/danmuck/recwire/internal/store"
	"github.com/danmuck/recwire/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, Options{Addr: ":0", Scheme: record.SchemeTagged})
}

func newTestServerWith(t *testing.T, opts Options) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	backend, err := store.OpenMemory()
	require.NoError(t, err)
	st, err := store.New(backend, catalog.Registry(), store.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st, opts)
}

func do(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	return rr
}

func decodeView(t *testing.T, rr *httptest.ResponseRecorder) recordView {
	t.Helper()
	var v recordView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	rr := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "memory", body["driver"])

	rr = do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "recwire_http_requests_total")
}

func TestListTypes(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	rr := do(t, s, http.MethodGet, "/v1/types", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Types []typeInfo `json:"types"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Types, 6)
	cf := body.Types[2]
	assert.Equal(t, "ColumnFamily", cf.Name)
	assert.Equal(t, fieldInfo{ID: 3, Name: "max_versions", Type: "i32", Presence: "optional"}, cf.Fields[2])
}

func TestRecordLifecycle(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	rr := do(t, s, http.MethodPost, "/v1/records/ColumnFamily", []byte(`{"name":"cf1","ag":"default","ttl":"86400"}`))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeView(t, rr)
	require.NotEmpty(t, created.Key)
	assert.Equal(t, "ColumnFamily(name:cf1, ag:default, ttl:86400)", created.Render)

	path := "/v1/records/ColumnFamily/" + created.Key
	rr = do(t, s, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeView(t, rr)
	assert.Equal(t, created.Render, got.Render)
	assert.NotContains(t, got.Fields, "max_versions")

	rr = do(t, s, http.MethodPut, path, []byte(`{"name":"cf1","max_versions":0}`))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = do(t, s, http.MethodGet, path, nil)
	assert.Equal(t, "ColumnFamily(name:cf1, max_versions:0)", decodeView(t, rr).Render)

	rr = do(t, s, http.MethodGet, "/v1/records/ColumnFamily", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), created.Key)

	rr = do(t, s, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, s, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(t, s, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWireAndDecode(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	rr := do(t, s, http.MethodPut, "/v1/records/ColumnFamily/cf1", []byte(`{"name":"cf1","ag":"default","ttl":"86400"}`))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, s, http.MethodGet, "/v1/records/ColumnFamily/cf1/wire?scheme=compact", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "compact", rr.Header().Get(SchemeHeader))
	wire := rr.Body.Bytes()
	require.NotEmpty(t, wire)
	assert.Equal(t, byte(0b1011), wire[0])

	rr = do(t, s, http.MethodPost, "/v1/decode/ColumnFamily?scheme=tuple", wire)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "ColumnFamily(name:cf1, ag:default, ttl:86400)", decodeView(t, rr).Render)

	rr = do(t, s, http.MethodPost, "/v1/decode/ColumnFamily?scheme=compact", wire[:len(wire)-2])
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, s, http.MethodGet, "/v1/records/ColumnFamily/cf1/wire?scheme=xml", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBinaryFieldsOverJSON(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	body := []byte(`{"key":{"row":"r1","column_family":"cf","column_qualifier":"q"},"value":"AQID"}`)
	rr := do(t, s, http.MethodPut, "/v1/records/Cell/r1", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := decodeView(t, do(t, s, http.MethodGet, "/v1/records/Cell/r1", nil))
	assert.Equal(t, "AQID", got.Fields["value"])
	assert.Equal(t, "Cell(key:Key(row:r1, column_family:cf, column_qualifier:q, flag:255), value:01 02 03)", got.Render)
}

func TestRequestErrors(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPost, "/v1/records/Nope", `{}`, http.StatusNotFound},
		{http.MethodPost, "/v1/records/ColumnFamily", `{"name":`, http.StatusBadRequest},
		{http.MethodPost, "/v1/records/ColumnFamily", ``, http.StatusBadRequest},
		{http.MethodPost, "/v1/records/ColumnFamily", `{"colour":"red"}`, http.StatusBadRequest},
		{http.MethodPost, "/v1/records/ColumnFamily", `{"max_versions":"3"}`, http.StatusBadRequest},
		{http.MethodPost, "/v1/records/ColumnFamily", `{"max_versions":-1}`, http.StatusUnprocessableEntity},
		{http.MethodPost, "/v1/records/NamespaceListing", `{"name":"ns"}`, http.StatusUnprocessableEntity},
		{http.MethodGet, "/v1/records/ColumnFamily/missing", ``, http.StatusNotFound},
		{http.MethodGet, "/v1/records/Nope", ``, http.StatusNotFound},
		{http.MethodPost, "/v1/decode/Nope", ``, http.StatusNotFound},
	}
	for _, tc := range cases {
		rr := do(t, s, tc.method, tc.path, []byte(tc.body))
		assert.Equal(t, tc.want, rr.Code, "%s %s %s: %s", tc.method, tc.path, tc.body, rr.Body.String())
	}
}

func TestRequestBodyLimit(t *testing.T) {
	testlog.Start(t)
	s := newTestServerWith(t, Options{Addr: ":0", Scheme: record.SchemeTagged, MaxBodyBytes: 32})

	small := []byte(`{"name":"cf1"}`)
	rr := do(t, s, http.MethodPost, "/v1/records/ColumnFamily", small)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	big := []byte(`{"name":"` + strings.Repeat("x", 64) + `"}`)
	rr = do(t, s, http.MethodPost, "/v1/records/ColumnFamily", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code, rr.Body.String())
	rr = do(t, s, http.MethodPut, "/v1/records/ColumnFamily/k1", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code, rr.Body.String())

	wire := append([]byte{0x0B, 0x00, 0x01, 0x00, 0x00, 0x00, 0x40}, bytes.Repeat([]byte("x"), 64)...)
	wire = append(wire, 0x00)
	rr = do(t, s, http.MethodPost, "/v1/decode/ColumnFamily", wire)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code, rr.Body.String())
}

func TestNormalizeOrigins(t *testing.T) {
	assert.Equal(t, []string{"http://localhost:3000"}, normalizeOrigins(nil))
	assert.Equal(t, []string{"https://a"}, normalizeOrigins([]string{" https://a ", ""}))
}
