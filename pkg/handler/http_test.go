package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/foomo/nessiecatalog/pkg/catalog"
	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	"github.com/foomo/nessiecatalog/pkg/handler"
	"github.com/foomo/nessiecatalog/pkg/nessie"
	"github.com/foomo/nessiecatalog/pkg/nessie/nessietest"
	"github.com/foomo/nessiecatalog/pkg/tableio"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gocloud.dev/blob/memblob"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const createTableBody = `{
	"name": "mytable",
	"schema": {"type": "struct", "schema-id": 0, "fields": [{"id": 1, "name": "id", "type": "long", "required": true}]}
}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	l := zaptest.NewLogger(t)
	srv := nessietest.New(t)
	client, err := nessie.New(l, srv.URL(), nessie.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	fileIO := tableio.NewStorageFileIO(l, "mem://warehouse", tableio.NewBlobStorageFromBucket(memblob.OpenBucket(nil), ""))
	t.Cleanup(func() {
		_ = fileIO.Close()
	})
	cat := catalog.NewNessie(l, client,
		catalog.WithWarehouse("mem://warehouse"),
		catalog.WithFileIO(fileIO),
		catalog.WithClock(func() time.Time { return time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC) }),
	)
	ts := httptest.NewServer(handler.NewHTTP(l, cat))
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, ts.URL+path, reader)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestHTTP_Namespaces(t *testing.T) {
	ts := newServer(t)

	status, body := call(t, ts, http.MethodPost, "/v1/namespaces", `{"namespace":["a"],"properties":{"owner":"me"}}`)
	require.Equal(t, http.StatusOK, status, string(body))
	ns := handler.NamespaceResponse{}
	require.NoError(t, json.Unmarshal(body, &ns))
	assert.Equal(t, []string{"a"}, ns.Namespace)
	assert.Equal(t, map[string]string{"owner": "me"}, ns.Properties)

	status, _ = call(t, ts, http.MethodPost, "/v1/namespaces", `{"namespace":["a"]}`)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = call(t, ts, http.MethodPost, "/v1/namespaces", `{"namespace":["a","b"]}`)
	require.Equal(t, http.StatusOK, status)

	status, body = call(t, ts, http.MethodGet, "/v1/namespaces", "")
	require.Equal(t, http.StatusOK, status)
	list := handler.ListNamespacesResponse{}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, [][]string{{"a"}, {"a", "b"}}, list.Namespaces)

	status, body = call(t, ts, http.MethodGet, "/v1/namespaces?parent=a", "")
	require.Equal(t, http.StatusOK, status)
	list = handler.ListNamespacesResponse{}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, [][]string{{"a", "b"}}, list.Namespaces)

	status, body = call(t, ts, http.MethodGet, "/v1/namespaces/a", "")
	require.Equal(t, http.StatusOK, status)
	ns = handler.NamespaceResponse{}
	require.NoError(t, json.Unmarshal(body, &ns))
	assert.Equal(t, "me", ns.Properties["owner"])

	status, _ = call(t, ts, http.MethodHead, "/v1/namespaces/a.b", "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = call(t, ts, http.MethodHead, "/v1/namespaces/missing", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = call(t, ts, http.MethodPost, "/v1/namespaces/a/properties", `{"properties":{"team":"data"}}`)
	require.Equal(t, http.StatusOK, status)
	ns = handler.NamespaceResponse{}
	require.NoError(t, json.Unmarshal(body, &ns))
	assert.Equal(t, map[string]string{"team": "data"}, ns.Properties)

	status, _ = call(t, ts, http.MethodDelete, "/v1/namespaces/a", "")
	assert.Equal(t, http.StatusConflict, status)
	status, _ = call(t, ts, http.MethodDelete, "/v1/namespaces/a?cascade=true", "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = call(t, ts, http.MethodGet, "/v1/namespaces/a", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHTTP_Tables(t *testing.T) {
	ts := newServer(t)

	status, _ := call(t, ts, http.MethodPost, "/v1/namespaces", `{"namespace":["a","b"]}`)
	require.Equal(t, http.StatusOK, status)

	status, body := call(t, ts, http.MethodPost, "/v1/namespaces/a.b/tables", createTableBody)
	require.Equal(t, http.StatusOK, status, string(body))
	created := handler.LoadTableResponse{}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "mem://warehouse/a/b/mytable/metadata/00000-", created.MetadataLocation[:len("mem://warehouse/a/b/mytable/metadata/00000-")])
	assert.NotEmpty(t, created.ContentID)
	require.NotNil(t, created.Metadata)

	status, _ = call(t, ts, http.MethodPost, "/v1/namespaces/a.b/tables", createTableBody)
	assert.Equal(t, http.StatusConflict, status)

	status, body = call(t, ts, http.MethodGet, "/v1/namespaces/a.b/tables", "")
	require.Equal(t, http.StatusOK, status)
	list := handler.ListTablesResponse{}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, []handler.TableIdentifier{{Namespace: []string{"a", "b"}, Name: "mytable"}}, list.Identifiers)

	status, body = call(t, ts, http.MethodGet, "/v1/namespaces/a.b/tables/mytable", "")
	require.Equal(t, http.StatusOK, status)
	loaded := handler.LoadTableResponse{}
	require.NoError(t, json.Unmarshal(body, &loaded))
	assert.Equal(t, created.MetadataLocation, loaded.MetadataLocation)

	status, _ = call(t, ts, http.MethodHead, "/v1/namespaces/a.b/tables/mytable", "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = call(t, ts, http.MethodPost, "/v1/tables/rename",
		`{"source":{"namespace":["a","b"],"name":"mytable"},"destination":{"namespace":["a"],"name":"renamed"}}`)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = call(t, ts, http.MethodHead, "/v1/namespaces/a.b/tables/mytable", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, ts, http.MethodDelete, "/v1/namespaces/a/tables/renamed?purgeRequested=true", "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = call(t, ts, http.MethodGet, "/v1/namespaces/a/tables/renamed", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHTTP_UpdateTable(t *testing.T) {
	ts := newServer(t)

	status, _ := call(t, ts, http.MethodPost, "/v1/namespaces", `{"namespace":["a"]}`)
	require.Equal(t, http.StatusOK, status)
	status, body := call(t, ts, http.MethodPost, "/v1/namespaces/a/tables", createTableBody)
	require.Equal(t, http.StatusOK, status)
	created := handler.LoadTableResponse{}
	require.NoError(t, json.Unmarshal(body, &created))

	commit, err := json.Marshal(handler.CommitTableRequest{Requirement: created.MetadataLocation, Metadata: created.Metadata})
	require.NoError(t, err)
	status, body = call(t, ts, http.MethodPost, "/v1/namespaces/a/tables/mytable", string(commit))
	require.Equal(t, http.StatusOK, status, string(body))
	updated := handler.LoadTableResponse{}
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, 1, tableio.MetadataVersion(updated.MetadataLocation))
	assert.Equal(t, created.ContentID, updated.ContentID)

	// stale requirement
	status, body = call(t, ts, http.MethodPost, "/v1/namespaces/a/tables/mytable", string(commit))
	assert.Equal(t, http.StatusConflict, status)
	errResp := handler.ErrorResponse{}
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "CommitFailedException", errResp.Error.Type)
	assert.Equal(t, http.StatusConflict, errResp.Error.Code)
}

func TestHTTP_RegisterTable(t *testing.T) {
	ts := newServer(t)

	status, _ := call(t, ts, http.MethodPost, "/v1/namespaces", `{"namespace":["a"]}`)
	require.Equal(t, http.StatusOK, status)
	status, body := call(t, ts, http.MethodPost, "/v1/namespaces/a/tables", createTableBody)
	require.Equal(t, http.StatusOK, status)
	created := handler.LoadTableResponse{}
	require.NoError(t, json.Unmarshal(body, &created))

	status, body = call(t, ts, http.MethodPost, "/v1/namespaces/a/register",
		`{"name":"copy","metadata-location":"`+created.MetadataLocation+`"}`)
	require.Equal(t, http.StatusOK, status, string(body))
	registered := handler.LoadTableResponse{}
	require.NoError(t, json.Unmarshal(body, &registered))
	assert.Equal(t, created.MetadataLocation, registered.MetadataLocation)
	assert.NotEqual(t, created.ContentID, registered.ContentID)
}

func TestHTTP_BadRequests(t *testing.T) {
	ts := newServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"empty body", http.MethodPost, "/v1/namespaces", "", http.StatusBadRequest},
		{"invalid json", http.MethodPost, "/v1/namespaces", "{", http.StatusBadRequest},
		{"empty namespace", http.MethodPost, "/v1/namespaces", `{"namespace":[]}`, http.StatusBadRequest},
		{"empty element", http.MethodGet, "/v1/namespaces/a..b", "", http.StatusBadRequest},
		{"invalid cascade", http.MethodDelete, "/v1/namespaces/a?cascade=maybe", "", http.StatusBadRequest},
		{"missing namespace", http.MethodGet, "/v1/namespaces/missing/tables", "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/v1/unknown", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, ts, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status, string(body))
		})
	}
}

func TestHTTP_UpstreamFailure(t *testing.T) {
	l := zaptest.NewLogger(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(upstream.Close)
	client, err := nessie.New(l, upstream.URL)
	require.NoError(t, err)
	ts := httptest.NewServer(handler.NewHTTP(l, catalog.NewNessie(l, client)))
	t.Cleanup(ts.Close)

	status, _ := call(t, ts, http.MethodGet, "/v1/namespaces", "")
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{catalogerr.NewValidationError("key", "bad"), http.StatusBadRequest},
		{errors.Wrap(catalogerr.ErrNotFound, "ns"), http.StatusNotFound},
		{errors.Wrap(catalogerr.ErrAlreadyExists, "ns"), http.StatusConflict},
		{errors.Wrap(catalogerr.ErrNotEmpty, "ns"), http.StatusConflict},
		{&catalogerr.ConcurrentModificationError{Op: "drop_table", Ref: "main"}, http.StatusConflict},
		{errors.Wrap(catalogerr.ErrTransport, "dial"), http.StatusBadGateway},
		{errors.Wrap(catalogerr.ErrDecode, "body"), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, handler.StatusCode(tt.err), tt.err.Error())
	}
}
